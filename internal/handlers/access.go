package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/noticeboard/backend/internal/models"
	"github.com/noticeboard/backend/internal/services"
	"github.com/noticeboard/backend/internal/storage"
	"github.com/noticeboard/backend/pkg/logger"
	"github.com/noticeboard/backend/pkg/utils"
)

// AccessHandler serves viewers, who hold nothing but an access code.
type AccessHandler struct {
	Resolver  *services.AccessResolver
	Feed      *services.NoticeFeed
	Signer    storage.URLSigner
	URLExpiry time.Duration
}

func NewAccessHandler(resolver *services.AccessResolver, feed *services.NoticeFeed, signer storage.URLSigner, urlExpiry time.Duration) *AccessHandler {
	return &AccessHandler{Resolver: resolver, Feed: feed, Signer: signer, URLExpiry: urlExpiry}
}

// groupHandle is what a viewer learns about a group. The owner stays hidden.
type groupHandle struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	AccessCode string    `json:"accessCode"`
}

func newGroupHandle(g *models.Group) groupHandle {
	return groupHandle{ID: g.ID, Name: g.Name, AccessCode: g.AccessCode}
}

type resolveRequest struct {
	Code string `json:"code"`
}

func (h *AccessHandler) Resolve(c *fiber.Ctx) error {
	var req resolveRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	group, err := h.Resolver.Resolve(c.UserContext(), req.Code)
	if err != nil {
		return utils.Error(c, fiber.StatusNotFound, invalidAccessCodeMessage)
	}
	return utils.Success(c, fiber.StatusOK, newGroupHandle(group))
}

func (h *AccessHandler) Notices(c *fiber.Ctx) error {
	group, err := h.Resolver.Resolve(c.UserContext(), c.Params("code"))
	if err != nil {
		return utils.Error(c, fiber.StatusNotFound, invalidAccessCodeMessage)
	}

	// A failing feed must not tell the viewer that the code itself was good.
	notices, err := h.Feed.ListNotices(c.UserContext(), group.ID)
	if err != nil {
		logger.Error("viewer_feed_failed", err, map[string]interface{}{
			"group_id": group.ID.String(),
		})
		return utils.Error(c, fiber.StatusNotFound, invalidAccessCodeMessage)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"group":   newGroupHandle(group),
		"notices": noticeViews(c.UserContext(), h.Signer, h.URLExpiry, notices),
	})
}
