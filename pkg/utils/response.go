package utils

import "github.com/gofiber/fiber/v2"

func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// ErrorWithDetails adds machine-readable context, e.g. the access code that
// collided during a bulk insert.
func ErrorWithDetails(c *fiber.Ctx, status int, message string, details fiber.Map) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
		"details": details,
	})
}
