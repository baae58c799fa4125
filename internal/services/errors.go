package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/noticeboard/backend/pkg/logger"
	"gorm.io/gorm"
)

// Error kinds crossing the core's public contract. Collaborator failures are
// wrapped into one of these; callers match with errors.Is.
var (
	ErrAuth               = errors.New("invalid credentials")
	ErrDuplicateCode      = errors.New("access code already in use")
	ErrInvalidCode        = errors.New("invalid access code")
	ErrNotFoundOrNotOwned = errors.New("group not found")
	ErrStore              = errors.New("attachment could not be stored")
	ErrPublish            = errors.New("notice could not be published")
	ErrTimeout            = errors.New("operation timed out")
	ErrValidation         = errors.New("validation failed")
	ErrUnavailable        = errors.New("backing store unavailable")
)

// DuplicateCodeError names the access code that collided. Code is empty when
// the store did not let us tell which one.
type DuplicateCodeError struct {
	Code string
}

func (e *DuplicateCodeError) Error() string {
	if e.Code == "" {
		return ErrDuplicateCode.Error()
	}
	return fmt.Sprintf("access code %q already in use", e.Code)
}

func (e *DuplicateCodeError) Is(target error) bool {
	return target == ErrDuplicateCode
}

// ValidationError reports which input was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// withTimeout bounds a collaborator call. A zero timeout leaves ctx as is.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.QueryCanceled
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isWriteConflict reports a write that lost a race with a concurrent
// transaction and can be retried from scratch.
func isWriteConflict(err error) bool {
	if isUniqueViolation(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return strings.Contains(err.Error(), "database is locked")
}

// storeError maps a persistence failure into a core error kind. The driver
// error is logged here and never returned.
func storeError(ctx context.Context, op string, err error) error {
	if isTimeout(ctx, err) {
		logger.Warn(op+"_timeout", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	logger.Error(op+"_failed", err, nil)
	return fmt.Errorf("%s: %w", op, ErrUnavailable)
}
