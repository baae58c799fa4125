package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/noticeboard/backend/internal/middleware"
	"github.com/noticeboard/backend/internal/models"
	"github.com/noticeboard/backend/internal/services"
	"github.com/noticeboard/backend/pkg/utils"
)

const invalidAccessCodeMessage = "invalid access code"

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// serviceError maps a core error kind onto the response envelope.
func serviceError(c *fiber.Ctx, err error) error {
	var validation *services.ValidationError
	var duplicate *services.DuplicateCodeError

	switch {
	case errors.As(err, &validation):
		return utils.Error(c, fiber.StatusBadRequest, validation.Error())
	case errors.As(err, &duplicate):
		return utils.ErrorWithDetails(c, fiber.StatusConflict, duplicate.Error(), fiber.Map{"code": duplicate.Code})
	case errors.Is(err, services.ErrDuplicateCode):
		return utils.Error(c, fiber.StatusConflict, services.ErrDuplicateCode.Error())
	case errors.Is(err, services.ErrEmailTaken):
		return utils.Error(c, fiber.StatusConflict, services.ErrEmailTaken.Error())
	case errors.Is(err, services.ErrAuth):
		return utils.Error(c, fiber.StatusUnauthorized, services.ErrAuth.Error())
	case errors.Is(err, services.ErrInvalidCode):
		return utils.Error(c, fiber.StatusNotFound, invalidAccessCodeMessage)
	case errors.Is(err, services.ErrNotFoundOrNotOwned):
		return utils.Error(c, fiber.StatusNotFound, services.ErrNotFoundOrNotOwned.Error())
	case errors.Is(err, services.ErrStore):
		return utils.Error(c, fiber.StatusBadGateway, services.ErrStore.Error())
	case errors.Is(err, services.ErrPublish):
		return utils.Error(c, fiber.StatusInternalServerError, services.ErrPublish.Error())
	case errors.Is(err, services.ErrTimeout):
		return utils.Error(c, fiber.StatusGatewayTimeout, services.ErrTimeout.Error())
	case errors.Is(err, services.ErrUnavailable):
		return utils.Error(c, fiber.StatusServiceUnavailable, services.ErrUnavailable.Error())
	default:
		return utils.Error(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func auditEntry(c *fiber.Ctx, org *models.Organization, action, resourceType string, resourceID *uuid.UUID, details map[string]interface{}) services.AuditEntry {
	entry := services.AuditEntry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		IPAddress:    c.IP(),
		RequestID:    middleware.RequestID(c),
	}
	if org != nil {
		id := org.ID
		entry.OrgID = &id
	}
	return entry
}
