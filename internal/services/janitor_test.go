package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAttachmentJanitor_Sweep(t *testing.T) {
	db := setupTestDB(t)
	store := newMemoryStore()
	registry := NewGroupRegistry(db, 0)
	publisher := NewNoticePublisher(db, registry, store, 0, 0)
	org := createTestOrg(t, db, "Alpha")
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	old := now.Add(-48 * time.Hour)
	store.now = func() time.Time { return old }

	group, _ := registry.CreateGroup(ctx, org.ID, "Posters", "POST")
	notice, err := publisher.Publish(ctx, org.ID, group.ID, PublishRequest{
		Title: "kept",
		Image: &Attachment{Data: pngBytes, ContentType: "image/png"},
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	referenced := *notice.ImageRef

	orphan := NoticeImagePrefix + group.ID.String() + "/orphan.png"
	fresh := NoticeImagePrefix + group.ID.String() + "/fresh.png"
	outside := "other/old.png"
	store.put(orphan, old)
	store.put(fresh, now.Add(-time.Hour))
	store.put(outside, old)

	janitor := NewAttachmentJanitor(db, store, 24*time.Hour, 0)
	janitor.now = func() time.Time { return now }

	result, err := janitor.Sweep(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Scanned != 3 || result.Removed != 1 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if store.has(orphan) {
		t.Fatal("expected orphan removed")
	}
	for _, key := range []string{referenced, fresh, outside} {
		if !store.has(key) {
			t.Fatalf("expected %s kept", key)
		}
	}
}

func TestAttachmentJanitor_AfterGroupDelete(t *testing.T) {
	db := setupTestDB(t)
	store := newMemoryStore()
	registry := NewGroupRegistry(db, 0)
	publisher := NewNoticePublisher(db, registry, store, 0, 0)
	org := createTestOrg(t, db, "Alpha")
	ctx := context.Background()

	group, _ := registry.CreateGroup(ctx, org.ID, "Temp", "TEMP")
	notice, err := publisher.Publish(ctx, org.ID, group.ID, PublishRequest{
		Title: "gone soon",
		Image: &Attachment{Data: pngBytes, ContentType: "image/png"},
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if _, err := registry.DeleteGroup(ctx, org.ID, group.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	janitor := NewAttachmentJanitor(db, store, 0, 0)
	janitor.now = func() time.Time { return time.Now().Add(time.Minute) }

	result, err := janitor.Sweep(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Removed != 1 || store.has(*notice.ImageRef) {
		t.Fatalf("expected attachment of deleted notice removed, got %+v", result)
	}
}

func TestAttachmentJanitor_ListTimeout(t *testing.T) {
	db := setupTestDB(t)
	store := newMemoryStore()
	store.block = true

	janitor := NewAttachmentJanitor(db, store, time.Hour, 20*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := janitor.Sweep(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not give up on a stalled object store")
	}
}
