package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/noticeboard/backend/internal/middleware"
	"github.com/noticeboard/backend/internal/models"
	"github.com/noticeboard/backend/internal/services"
	"github.com/noticeboard/backend/internal/storage"
	"github.com/noticeboard/backend/pkg/logger"
	"github.com/noticeboard/backend/pkg/utils"
)

// noticeView is a notice as served to clients, with a short-lived link to its
// image when it has one.
type noticeView struct {
	models.Notice
	ImageURL string `json:"imageURL,omitempty"`
}

// noticeViews signs image links. A signing failure drops the link rather than
// the notice.
func noticeViews(ctx context.Context, signer storage.URLSigner, expiry time.Duration, notices []models.Notice) []noticeView {
	views := make([]noticeView, len(notices))
	for i := range notices {
		views[i] = noticeView{Notice: notices[i]}
		if signer == nil || notices[i].ImageRef == nil {
			continue
		}
		url, err := signer.PresignedGetURL(ctx, *notices[i].ImageRef, expiry)
		if err != nil {
			logger.Error("notice_image_presign_failed", err, map[string]interface{}{
				"notice_id": notices[i].ID.String(),
			})
			continue
		}
		views[i].ImageURL = url
	}
	return views
}

type NoticesHandler struct {
	Registry  *services.GroupRegistry
	Publisher *services.NoticePublisher
	Feed      *services.NoticeFeed
	Signer    storage.URLSigner
	URLExpiry time.Duration
	Audit     *services.AuditService
}

func NewNoticesHandler(
	registry *services.GroupRegistry,
	publisher *services.NoticePublisher,
	feed *services.NoticeFeed,
	signer storage.URLSigner,
	urlExpiry time.Duration,
	audit *services.AuditService,
) *NoticesHandler {
	return &NoticesHandler{
		Registry:  registry,
		Publisher: publisher,
		Feed:      feed,
		Signer:    signer,
		URLExpiry: urlExpiry,
		Audit:     audit,
	}
}

func readAttachment(fh *multipart.FileHeader, maxBytes int64) (*services.Attachment, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := io.Reader(file)
	if maxBytes > 0 {
		// One byte over lets the publisher see and reject oversized images.
		reader = io.LimitReader(file, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	return &services.Attachment{
		Data:        data,
		ContentType: fh.Header.Get("Content-Type"),
	}, nil
}

func (h *NoticesHandler) Publish(c *fiber.Ctx) error {
	org := middleware.GetCurrentOrg(c)
	if org == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	req := services.PublishRequest{
		Title: c.FormValue("title"),
		Body:  c.FormValue("body"),
		Tag:   c.FormValue("tag"),
	}

	if fh, err := c.FormFile("image"); err == nil && fh != nil {
		req.Image, err = readAttachment(fh, h.Publisher.MaxImageBytes)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "failed reading image")
		}
	}

	notice, err := h.Publisher.Publish(c.UserContext(), org.ID, groupID, req)
	if err != nil {
		return serviceError(c, err)
	}

	logger.InfoWithOrg(org.ID.String(), "notice_published", map[string]interface{}{
		"group_id":  groupID.String(),
		"notice_id": notice.ID.String(),
		"has_image": notice.ImageRef != nil,
	})
	h.Audit.LogAsync(auditEntry(c, org, services.AuditNoticePublish, "notice", &notice.ID, map[string]interface{}{
		"group_id": groupID.String(),
		"title":    notice.Title,
		"tag":      string(notice.Tag),
	}))

	views := noticeViews(c.UserContext(), h.Signer, h.URLExpiry, []models.Notice{*notice})
	return utils.Success(c, fiber.StatusCreated, views[0])
}

// List is the admin view of an owned group's feed.
func (h *NoticesHandler) List(c *fiber.Ctx) error {
	org := middleware.GetCurrentOrg(c)
	if org == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	if _, err := h.Registry.OwnedGroup(c.UserContext(), org.ID, groupID); err != nil {
		return serviceError(c, err)
	}

	notices, err := h.Feed.ListNotices(c.UserContext(), groupID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, noticeViews(c.UserContext(), h.Signer, h.URLExpiry, notices))
}
