package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/noticeboard/backend/pkg/logger"
)

const RequestIDLocal = "requestID"

func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := logger.GenerateRequestID()
		c.Locals(RequestIDLocal, requestID)
		c.Set("X-Request-ID", requestID)

		err := c.Next()

		statusCode := c.Response().StatusCode()
		details := map[string]interface{}{
			"method":        c.Method(),
			"path":          c.Path(),
			"status_code":   statusCode,
			"latency_ms":    time.Since(start).Milliseconds(),
			"user_agent":    c.Get("User-Agent"),
			"ip":            c.IP(),
			"request_body":  logger.GetRequestBodySummary(c),
			"response_body": logger.GetResponseSizeSummary(c),
			"request_id":    requestID,
		}

		orgID := logger.GetOrgIDFromContext(c)
		switch {
		case orgID != nil && statusCode >= 400:
			logger.ErrorWithOrg(*orgID, "http_request", err, details)
		case orgID != nil:
			logger.InfoWithOrg(*orgID, "http_request", details)
		case statusCode >= 400:
			logger.Error("http_request", err, details)
		default:
			logger.Info("http_request", details)
		}

		return err
	}
}

// SecurityLogger records rejected requests. Failed access code lookups show
// up here as viewer 404s, which is where code guessing becomes visible.
func SecurityLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		var reason string
		switch c.Response().StatusCode() {
		case fiber.StatusUnauthorized:
			reason = "unauthorized"
		case fiber.StatusNotFound:
			reason = "not_found"
		case fiber.StatusTooManyRequests:
			reason = "rate_limited"
		default:
			return err
		}

		details := map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"ip":     c.IP(),
			"reason": reason,
		}
		if orgID := logger.GetOrgIDFromContext(c); orgID != nil {
			logger.WarnWithOrg(*orgID, reason, details)
		} else {
			logger.Warn(reason+"_unauthenticated", details)
		}

		return err
	}
}

// RequestID returns the id RequestLogger assigned, or "" outside it.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDLocal).(string)
	return id
}
