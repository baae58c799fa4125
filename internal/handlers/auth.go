package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/noticeboard/backend/internal/middleware"
	"github.com/noticeboard/backend/internal/services"
	"github.com/noticeboard/backend/pkg/logger"
	"github.com/noticeboard/backend/pkg/utils"
)

type AuthHandler struct {
	Identity *services.PasswordIdentity
	Audit    *services.AuditService
}

func NewAuthHandler(identity *services.PasswordIdentity, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{Identity: identity, Audit: audit}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	org, err := h.Identity.Register(c.UserContext(), req.Name, services.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return serviceError(c, err)
	}

	logger.InfoWithOrg(org.ID.String(), "org_registered", map[string]interface{}{
		"email": org.Email,
	})
	h.Audit.LogAsync(auditEntry(c, org, services.AuditOrgRegister, "organization", &org.ID, map[string]interface{}{
		"email": org.Email,
	}))

	token, err := utils.GenerateToken(org)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{"token": token, "organization": org})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "email and password are required")
	}

	org, err := h.Identity.Authenticate(c.UserContext(), services.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, services.ErrAuth) {
			logger.Warn("login_failed", map[string]interface{}{
				"email": req.Email,
				"ip":    c.IP(),
			})
		}
		return serviceError(c, err)
	}

	logger.InfoWithOrg(org.ID.String(), "org_login", map[string]interface{}{
		"ip": c.IP(),
	})
	h.Audit.LogAsync(auditEntry(c, org, services.AuditOrgLogin, "organization", &org.ID, nil))

	token, err := utils.GenerateToken(org)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"token": token, "organization": org})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	org := middleware.GetCurrentOrg(c)
	if org == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, org)
}

// Activity lists the organization's recent audit trail.
func (h *AuthHandler) Activity(c *fiber.Ctx) error {
	org := middleware.GetCurrentOrg(c)
	if org == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	logs, err := h.Audit.Recent(org.ID, c.QueryInt("limit", 50))
	if err != nil {
		logger.ErrorWithOrg(org.ID.String(), "audit_list_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing activity")
	}
	return utils.Success(c, fiber.StatusOK, logs)
}
