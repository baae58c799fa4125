package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/noticeboard/backend/internal/models"
	"github.com/noticeboard/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	AuditGroupCreate     = "group.create"
	AuditGroupBulkCreate = "group.bulk_create"
	AuditGroupDelete     = "group.delete"
	AuditNoticePublish   = "notice.publish"
	AuditOrgRegister     = "org.register"
	AuditOrgLogin        = "org.login"
)

type AuditEntry struct {
	OrgID        *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	Details      map[string]interface{}
	IPAddress    string
	RequestID    string
}

// AuditService writes audit rows from a buffered queue so request handlers
// never wait on it. A full queue drops the entry with a warning.
type AuditService struct {
	DB    *gorm.DB
	queue chan models.AuditLog

	stopOnce sync.Once
	done     chan struct{}
}

func NewAuditService(db *gorm.DB) *AuditService {
	s := &AuditService{
		DB:    db,
		queue: make(chan models.AuditLog, 1000),
		done:  make(chan struct{}),
	}
	go s.processQueue()
	return s
}

func (s *AuditService) LogAsync(entry AuditEntry) {
	row := models.AuditLog{
		OrgID:        entry.OrgID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Details:      entry.Details,
		IPAddress:    entry.IPAddress,
		RequestID:    entry.RequestID,
		CreatedAt:    time.Now().UTC(),
	}

	select {
	case s.queue <- row:
	default:
		logger.Warn("audit_queue_full", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
	}
}

func (s *AuditService) processQueue() {
	defer close(s.done)
	for row := range s.queue {
		if err := s.DB.Create(&row).Error; err != nil {
			logger.Error("audit_log_insert_failed", err, map[string]interface{}{
				"action": row.Action,
			})
		}
	}
}

// Stop drains whatever is queued and returns once it has been written.
// LogAsync must not be called after Stop.
func (s *AuditService) Stop() {
	s.stopOnce.Do(func() { close(s.queue) })
	<-s.done
}

// Recent returns the organization's latest audit rows, newest first.
func (s *AuditService) Recent(orgID uuid.UUID, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	logs := []models.AuditLog{}
	err := s.DB.Where("org_id = ?", orgID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
