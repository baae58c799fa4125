package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/noticeboard/backend/internal/middleware"
	"github.com/noticeboard/backend/internal/services"
	"github.com/noticeboard/backend/pkg/accesscode"
	"github.com/noticeboard/backend/pkg/logger"
	"github.com/noticeboard/backend/pkg/utils"
)

// suggestMinNameLength is how long a group name must be before a code is
// suggested for it.
const suggestMinNameLength = 3

type GroupsHandler struct {
	Registry *services.GroupRegistry
	Audit    *services.AuditService
}

func NewGroupsHandler(registry *services.GroupRegistry, audit *services.AuditService) *GroupsHandler {
	return &GroupsHandler{Registry: registry, Audit: audit}
}

type createGroupRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (h *GroupsHandler) Create(c *fiber.Ctx) error {
	org := middleware.GetCurrentOrg(c)
	if org == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	group, err := h.Registry.CreateGroup(c.UserContext(), org.ID, req.Name, req.Code)
	if err != nil {
		return serviceError(c, err)
	}

	logger.InfoWithOrg(org.ID.String(), "group_created", map[string]interface{}{
		"group_id":    group.ID.String(),
		"access_code": group.AccessCode,
	})
	h.Audit.LogAsync(auditEntry(c, org, services.AuditGroupCreate, "group", &group.ID, map[string]interface{}{
		"group_name":  group.Name,
		"access_code": group.AccessCode,
	}))

	return utils.Success(c, fiber.StatusCreated, group)
}

type bulkCreateRequest struct {
	Groups []services.BulkGroupEntry `json:"groups"`
}

func (h *GroupsHandler) BulkCreate(c *fiber.Ctx) error {
	org := middleware.GetCurrentOrg(c)
	if org == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req bulkCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	groups, err := h.Registry.CreateGroupsBulk(c.UserContext(), org.ID, req.Groups)
	if err != nil {
		return serviceError(c, err)
	}

	if len(groups) > 0 {
		codes := make([]string, len(groups))
		for i := range groups {
			codes[i] = groups[i].AccessCode
		}
		logger.InfoWithOrg(org.ID.String(), "groups_bulk_created", map[string]interface{}{
			"count": len(groups),
		})
		h.Audit.LogAsync(auditEntry(c, org, services.AuditGroupBulkCreate, "group", nil, map[string]interface{}{
			"count":        len(groups),
			"access_codes": strings.Join(codes, ","),
		}))
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{"count": len(groups), "groups": groups})
}

func (h *GroupsHandler) List(c *fiber.Ctx) error {
	org := middleware.GetCurrentOrg(c)
	if org == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groups, err := h.Registry.ListGroups(c.UserContext(), org.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, groups)
}

func (h *GroupsHandler) Delete(c *fiber.Ctx) error {
	org := middleware.GetCurrentOrg(c)
	if org == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	if !c.QueryBool("confirm", false) {
		return utils.Error(c, fiber.StatusBadRequest, "deleting a group removes all of its notices; repeat with confirm=true")
	}

	deletion, err := h.Registry.DeleteGroup(c.UserContext(), org.ID, groupID)
	if err != nil {
		return serviceError(c, err)
	}

	logger.InfoWithOrg(org.ID.String(), "group_deleted", map[string]interface{}{
		"group_id":        groupID.String(),
		"notices_removed": deletion.NoticesRemoved,
	})
	h.Audit.LogAsync(auditEntry(c, org, services.AuditGroupDelete, "group", &groupID, map[string]interface{}{
		"group_name":      deletion.Group.Name,
		"access_code":     deletion.Group.AccessCode,
		"notices_removed": deletion.NoticesRemoved,
	}))

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"group":          deletion.Group,
		"noticesRemoved": deletion.NoticesRemoved,
	})
}

// SuggestCode proposes an access code from the organization and group names.
// An empty code means the admin has to pick one.
func (h *GroupsHandler) SuggestCode(c *fiber.Ctx) error {
	org := middleware.GetCurrentOrg(c)
	if org == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	name := strings.TrimSpace(c.Query("name"))
	if len(name) < suggestMinNameLength {
		return utils.Success(c, fiber.StatusOK, fiber.Map{"code": "", "available": false})
	}

	code := accesscode.Generate(org.Name, name)
	if code == "" {
		return utils.Success(c, fiber.StatusOK, fiber.Map{"code": "", "available": false})
	}

	taken, err := h.Registry.CodeTaken(c.UserContext(), code)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"code": code, "available": !taken})
}
