package services

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/noticeboard/backend/internal/database"
	"github.com/noticeboard/backend/internal/models"
	"github.com/noticeboard/backend/internal/storage"
	"github.com/noticeboard/backend/pkg/logger"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.SetOutput(&bytes.Buffer{})

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed migrating: %v", err)
	}
	return db
}

// setupConcurrentTestDB opens a file-backed database that several connections
// can write to at once.
func setupConcurrentTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.SetOutput(&bytes.Buffer{})

	dsn := "file:" + filepath.Join(t.TempDir(), "noticeboard.db") +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	if err != nil {
		t.Fatalf("failed opening sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed migrating: %v", err)
	}
	return db
}

func createTestOrg(t *testing.T, db *gorm.DB, name string) models.Organization {
	t.Helper()
	org := models.Organization{
		Name:         name,
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
	}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("failed creating org: %v", err)
	}
	return org
}

func expiredContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	t.Cleanup(cancel)
	return ctx
}

type memoryObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// memoryStore is an in-process object store for tests.
type memoryStore struct {
	mu       sync.Mutex
	objects  map[string]memoryObject
	storeErr error
	block    bool
	now      func() time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string]memoryObject{}, now: time.Now}
}

func (m *memoryStore) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.storeErr != nil {
		return "", m.storeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType, lastModified: m.now()}
	return key, nil
}

func (m *memoryStore) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[ref]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(m.objects, ref)
	return nil
}

func (m *memoryStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []storage.ObjectInfo{}
	for key, obj := range m.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, storage.ObjectInfo{Ref: key, Size: int64(len(obj.data)), LastModified: obj.lastModified})
		}
	}
	return out, nil
}

func (m *memoryStore) put(key string, modified time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: []byte("x"), contentType: "image/png", lastModified: modified}
}

func (m *memoryStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

var errStoreDown = errors.New("store down")

// pngBytes is a 1x1 transparent PNG.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}
