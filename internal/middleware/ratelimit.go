package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/noticeboard/backend/pkg/utils"
)

// ViewerRateLimit throttles the public access code endpoints per client IP.
func ViewerRateLimit(maxPerMinute int) fiber.Handler {
	if maxPerMinute <= 0 {
		maxPerMinute = 30
	}
	return limiter.New(limiter.Config{
		Max:        maxPerMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.Error(c, fiber.StatusTooManyRequests, "too many attempts, try again later")
		},
	})
}
