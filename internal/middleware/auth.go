package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"github.com/noticeboard/backend/internal/models"
	"github.com/noticeboard/backend/pkg/logger"
	"github.com/noticeboard/backend/pkg/utils"
)

const currentOrgKey = "currentOrg"

// OrganizationSource loads the organization a session token was issued to.
type OrganizationSource interface {
	Organization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type AuthMiddleware struct {
	Orgs OrganizationSource
}

func NewAuthMiddleware(orgs OrganizationSource) *AuthMiddleware {
	return &AuthMiddleware{Orgs: orgs}
}

func CORS(allowedOrigins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
	})
}

func (a *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		logger.Warn("jwt_missing_header", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "missing authorization header")
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if tokenString == authHeader || tokenString == "" {
		logger.Warn("jwt_invalid_format", map[string]interface{}{
			"ip":          c.IP(),
			"path":        c.Path(),
			"auth_header": authHeader[:min(len(authHeader), 20)] + "...",
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid authorization format")
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		logger.Warn("jwt_validation_failed", map[string]interface{}{
			"ip":    c.IP(),
			"path":  c.Path(),
			"error": err.Error(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid or expired token")
	}

	org, err := a.Orgs.Organization(c.UserContext(), claims.OrgID)
	if err != nil {
		logger.Warn("jwt_org_not_found", map[string]interface{}{
			"ip":     c.IP(),
			"path":   c.Path(),
			"org_id": claims.OrgID.String(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "organization not found")
	}

	c.Locals(currentOrgKey, org)
	c.Locals(logger.OrgIDLocal, org.ID.String())
	return c.Next()
}

// GetCurrentOrg is the acting principal of an authenticated request.
func GetCurrentOrg(c *fiber.Ctx) *models.Organization {
	org, ok := c.Locals(currentOrgKey).(*models.Organization)
	if !ok {
		return nil
	}
	return org
}
