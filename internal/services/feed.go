package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/noticeboard/backend/internal/models"
	"gorm.io/gorm"
)

// NoticeFeed reads a group's notices. It performs no ownership check: holding
// the group's access code is the authorization.
type NoticeFeed struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func NewNoticeFeed(db *gorm.DB, timeout time.Duration) *NoticeFeed {
	return &NoticeFeed{DB: db, Timeout: timeout}
}

// ListNotices returns newest first, ties in reverse insertion order. An
// unknown or deleted group yields an empty slice.
func (f *NoticeFeed) ListNotices(ctx context.Context, groupID uuid.UUID) ([]models.Notice, error) {
	ctx, cancel := withTimeout(ctx, f.Timeout)
	defer cancel()

	notices := []models.Notice{}
	if err := f.DB.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Order("seq DESC").
		Find(&notices).Error; err != nil {
		return nil, storeError(ctx, "notice_list", err)
	}
	if notices == nil {
		notices = []models.Notice{}
	}
	return notices, nil
}
