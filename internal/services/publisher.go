package services

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/noticeboard/backend/internal/models"
	"github.com/noticeboard/backend/internal/storage"
	"github.com/noticeboard/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	// NoticeImagePrefix is where notice attachments live in the object store.
	NoticeImagePrefix = "notices/"

	maxTitleLength = 255
	// seqAttempts bounds retries when concurrent publishes into the same
	// group race for the next sequence number.
	seqAttempts = 5
)

type Attachment struct {
	Data        []byte
	ContentType string
}

type PublishRequest struct {
	Title string
	Body  string
	Tag   string
	Image *Attachment
}

// NoticePublisher writes notices into groups the actor owns. An attachment is
// stored before the notice row; if the row then fails the attachment stays
// behind unreferenced until the janitor removes it.
type NoticePublisher struct {
	DB            *gorm.DB
	Groups        *GroupRegistry
	Store         storage.ObjectStore
	Timeout       time.Duration
	MaxImageBytes int64

	now func() time.Time
}

func NewNoticePublisher(db *gorm.DB, groups *GroupRegistry, store storage.ObjectStore, timeout time.Duration, maxImageBytes int64) *NoticePublisher {
	return &NoticePublisher{
		DB:            db,
		Groups:        groups,
		Store:         store,
		Timeout:       timeout,
		MaxImageBytes: maxImageBytes,
		now:           time.Now,
	}
}

func (p *NoticePublisher) Publish(ctx context.Context, actorOrgID, groupID uuid.UUID, req PublishRequest) (*models.Notice, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title", "is required")
	}
	if len(title) > maxTitleLength {
		return nil, invalid("title", "is too long")
	}

	tag, ok := models.ParseNoticeTag(req.Tag)
	if !ok {
		return nil, invalid("tag", "must be one of General, Urgent, Holiday, Event")
	}

	var contentType string
	if req.Image != nil {
		var err error
		if contentType, err = p.checkImage(req.Image); err != nil {
			return nil, err
		}
	}

	// The group list the actor picked from may be stale; check again.
	if _, err := p.Groups.OwnedGroup(ctx, actorOrgID, groupID); err != nil {
		return nil, err
	}

	notice := models.Notice{
		GroupID: groupID,
		Title:   title,
		Body:    req.Body,
		Tag:     tag,
	}

	if req.Image != nil {
		ref, err := p.storeImage(ctx, groupID, req.Image.Data, contentType)
		if err != nil {
			return nil, err
		}
		notice.ImageRef = &ref
	}

	if err := p.insert(ctx, &notice); err != nil {
		if notice.ImageRef != nil {
			logger.WarnWithOrg(actorOrgID.String(), "notice_attachment_orphaned", map[string]interface{}{
				"group_id":  groupID.String(),
				"image_ref": *notice.ImageRef,
			})
		}
		return nil, err
	}

	return &notice, nil
}

func (p *NoticePublisher) checkImage(img *Attachment) (string, error) {
	if len(img.Data) == 0 {
		return "", invalid("image", "is empty")
	}
	if p.MaxImageBytes > 0 && int64(len(img.Data)) > p.MaxImageBytes {
		return "", invalid("image", fmt.Sprintf("exceeds %d bytes", p.MaxImageBytes))
	}

	contentType := strings.TrimSpace(img.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(img.Data)
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", invalid("image", "must be an image")
	}
	return contentType, nil
}

func (p *NoticePublisher) storeImage(ctx context.Context, groupID uuid.UUID, data []byte, contentType string) (string, error) {
	ctx, cancel := withTimeout(ctx, p.Timeout)
	defer cancel()

	key := NoticeImagePrefix + groupID.String() + "/" + uuid.New().String() + imageExtension(contentType)
	ref, err := p.Store.Store(ctx, key, data, contentType)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", fmt.Errorf("store attachment: %w", ErrTimeout)
		}
		logger.Error("notice_attachment_store_failed", err, map[string]interface{}{
			"group_id": groupID.String(),
			"key":      key,
		})
		return "", ErrStore
	}
	return ref, nil
}

// insert assigns the next per-group sequence number and a created_at no
// earlier than the group's latest notice, then writes the row.
func (p *NoticePublisher) insert(ctx context.Context, notice *models.Notice) error {
	ctx, cancel := withTimeout(ctx, p.Timeout)
	defer cancel()

	var err error
	for attempt := 0; attempt < seqAttempts; attempt++ {
		err = p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var latest models.Notice
			if err := tx.Where("group_id = ?", notice.GroupID).
				Order("seq DESC").
				Limit(1).
				Find(&latest).Error; err != nil {
				return err
			}

			createdAt := p.now().UTC()
			if createdAt.Before(latest.CreatedAt) {
				createdAt = latest.CreatedAt
			}
			notice.Seq = latest.Seq + 1
			notice.CreatedAt = createdAt
			return tx.Create(notice).Error
		})
		if err == nil || !isWriteConflict(err) || ctx.Err() != nil {
			break
		}
	}
	if err == nil {
		return nil
	}

	if isTimeout(ctx, err) {
		return fmt.Errorf("write notice: %w", ErrTimeout)
	}
	logger.Error("notice_write_failed", err, map[string]interface{}{
		"group_id": notice.GroupID.String(),
	})
	return ErrPublish
}

func imageExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
