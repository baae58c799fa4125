package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noticeboard/backend/internal/models"
	"github.com/noticeboard/backend/internal/storage"
	"github.com/noticeboard/backend/pkg/logger"
	"gorm.io/gorm"
)

// refCheckBatch bounds the size of each "image_ref IN ?" lookup.
const refCheckBatch = 500

// JanitorStore is what the janitor needs from the object store.
type JanitorStore interface {
	storage.ObjectStore
	storage.Lister
}

// AttachmentJanitor removes notice images that no notice references. Objects
// younger than GracePeriod are left alone so an in-flight publish is never
// robbed of its attachment.
type AttachmentJanitor struct {
	DB          *gorm.DB
	Store       JanitorStore
	GracePeriod time.Duration
	Timeout     time.Duration

	now func() time.Time
}

type SweepResult struct {
	Scanned int
	Removed int
	Failed  int
}

func NewAttachmentJanitor(db *gorm.DB, store JanitorStore, gracePeriod, timeout time.Duration) *AttachmentJanitor {
	return &AttachmentJanitor{
		DB:          db,
		Store:       store,
		GracePeriod: gracePeriod,
		Timeout:     timeout,
		now:         time.Now,
	}
}

func (j *AttachmentJanitor) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	objects, err := j.list(ctx)
	if err != nil {
		return result, err
	}
	result.Scanned = len(objects)

	cutoff := j.now().Add(-j.GracePeriod)
	candidates := make([]string, 0, len(objects))
	for _, obj := range objects {
		if obj.LastModified.Before(cutoff) {
			candidates = append(candidates, obj.Ref)
		}
	}

	for start := 0; start < len(candidates); start += refCheckBatch {
		end := start + refCheckBatch
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		keep, err := j.referenced(ctx, batch)
		if err != nil {
			return result, err
		}

		for _, ref := range batch {
			if _, ok := keep[ref]; ok {
				continue
			}
			if err := j.delete(ctx, ref); err != nil {
				result.Failed++
				logger.Error("janitor_delete_failed", err, map[string]interface{}{
					"image_ref": ref,
				})
				continue
			}
			result.Removed++
		}
	}

	return result, nil
}

func (j *AttachmentJanitor) list(ctx context.Context) ([]storage.ObjectInfo, error) {
	ctx, cancel := withTimeout(ctx, j.Timeout)
	defer cancel()

	objects, err := j.Store.List(ctx, NoticeImagePrefix)
	if err != nil && isTimeout(ctx, err) {
		return nil, fmt.Errorf("list attachments: %w", ErrTimeout)
	}
	return objects, err
}

// referenced returns the subset of refs some notice still points at.
func (j *AttachmentJanitor) referenced(ctx context.Context, refs []string) (map[string]struct{}, error) {
	ctx, cancel := withTimeout(ctx, j.Timeout)
	defer cancel()

	var found []string
	if err := j.DB.WithContext(ctx).
		Model(&models.Notice{}).
		Where("image_ref IN ?", refs).
		Pluck("image_ref", &found).Error; err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("check attachment refs: %w", ErrTimeout)
		}
		return nil, err
	}

	keep := make(map[string]struct{}, len(found))
	for _, ref := range found {
		keep[ref] = struct{}{}
	}
	return keep, nil
}

func (j *AttachmentJanitor) delete(ctx context.Context, ref string) error {
	ctx, cancel := withTimeout(ctx, j.Timeout)
	defer cancel()

	err := j.Store.Delete(ctx, ref)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil
	}
	return err
}

// Start runs Sweep every interval until ctx is cancelled.
func (j *AttachmentJanitor) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				result, err := j.Sweep(ctx)
				if err != nil {
					logger.Error("janitor_sweep_failed", err, nil)
					continue
				}
				logger.Info("janitor_sweep_complete", map[string]interface{}{
					"scanned": result.Scanned,
					"removed": result.Removed,
					"failed":  result.Failed,
				})
			}
		}
	}()

	logger.Info("janitor_started", map[string]interface{}{
		"interval":     interval.String(),
		"grace_period": j.GracePeriod.String(),
	})
}
