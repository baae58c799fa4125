package services

import (
	"context"
	"time"

	"github.com/noticeboard/backend/internal/models"
	"github.com/noticeboard/backend/pkg/accesscode"
	"github.com/noticeboard/backend/pkg/logger"
	"gorm.io/gorm"
)

// AccessResolver is the only way in for viewers. Every failure, including a
// broken backend, comes back as ErrInvalidCode so a caller cannot probe which
// codes exist.
type AccessResolver struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func NewAccessResolver(db *gorm.DB, timeout time.Duration) *AccessResolver {
	return &AccessResolver{DB: db, Timeout: timeout}
}

func (a *AccessResolver) Resolve(ctx context.Context, submittedCode string) (*models.Group, error) {
	code := accesscode.Normalize(submittedCode)
	if !accesscode.Valid(code) {
		return nil, ErrInvalidCode
	}

	// Rows written before codes were normalized may still be padded or lower
	// case, so the match is on the canonical form. Two legacy rows that only
	// differ in case are ambiguous and resolve to nothing.
	ctx, cancel := withTimeout(ctx, a.Timeout)
	defer cancel()

	var groups []models.Group
	if err := a.DB.WithContext(ctx).
		Where("UPPER(TRIM(access_code)) = ?", code).
		Limit(2).
		Find(&groups).Error; err != nil {
		logger.Error("access_code_lookup_failed", err, map[string]interface{}{
			"timeout": isTimeout(ctx, err),
		})
		return nil, ErrInvalidCode
	}

	switch len(groups) {
	case 1:
		return &groups[0], nil
	case 0:
		return nil, ErrInvalidCode
	default:
		logger.Error("access_code_ambiguous", nil, map[string]interface{}{
			"matches": len(groups),
		})
		return nil, ErrInvalidCode
	}
}
