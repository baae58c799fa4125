package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func setupResponseTestApp() *fiber.App {
	app := fiber.New()

	app.Get("/success", func(c *fiber.Ctx) error {
		return Success(c, fiber.StatusCreated, fiber.Map{"id": "123"})
	})

	app.Get("/error", func(c *fiber.Ctx) error {
		return Error(c, fiber.StatusBadRequest, "invalid input")
	})

	app.Get("/conflict", func(c *fiber.Ctx) error {
		return ErrorWithDetails(c, fiber.StatusConflict, "access code already in use", fiber.Map{"code": "DAT-C10"})
	})

	return app
}

func performResponseTestRequest(t *testing.T, app *fiber.App, path string) map[string]any {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request to %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed decoding %s response body: %v", path, err)
	}

	body["_statusCode"] = float64(resp.StatusCode)
	return body
}

func requireNumberField(t *testing.T, obj map[string]any, key string) int {
	t.Helper()

	raw, ok := obj[key]
	if !ok {
		t.Fatalf("expected field %q to exist in response", key)
	}

	number, ok := raw.(float64)
	if !ok {
		t.Fatalf("expected field %q to be numeric, got %T", key, raw)
	}

	return int(number)
}

func TestResponseHelpers(t *testing.T) {
	app := setupResponseTestApp()

	t.Run("Success returns expected envelope", func(t *testing.T) {
		body := performResponseTestRequest(t, app, "/success")

		if status := requireNumberField(t, body, "_statusCode"); status != fiber.StatusCreated {
			t.Fatalf("expected status %d, got %d", fiber.StatusCreated, status)
		}

		success, ok := body["success"].(bool)
		if !ok || !success {
			t.Fatalf("expected success=true, got %v", body["success"])
		}

		data, ok := body["data"].(map[string]any)
		if !ok {
			t.Fatalf("expected data object, got %T", body["data"])
		}
		if data["id"] != "123" {
			t.Fatalf("expected data.id to be %q, got %v", "123", data["id"])
		}
	})

	t.Run("Error returns expected envelope", func(t *testing.T) {
		body := performResponseTestRequest(t, app, "/error")

		if status := requireNumberField(t, body, "_statusCode"); status != fiber.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", fiber.StatusBadRequest, status)
		}

		success, ok := body["success"].(bool)
		if !ok || success {
			t.Fatalf("expected success=false, got %v", body["success"])
		}
		if body["error"] != "invalid input" {
			t.Fatalf("expected error message %q, got %v", "invalid input", body["error"])
		}
	})

	t.Run("ErrorWithDetails carries details object", func(t *testing.T) {
		body := performResponseTestRequest(t, app, "/conflict")

		if status := requireNumberField(t, body, "_statusCode"); status != fiber.StatusConflict {
			t.Fatalf("expected status %d, got %d", fiber.StatusConflict, status)
		}
		if body["error"] != "access code already in use" {
			t.Fatalf("unexpected error message %v", body["error"])
		}

		details, ok := body["details"].(map[string]any)
		if !ok {
			t.Fatalf("expected details object, got %T", body["details"])
		}
		if details["code"] != "DAT-C10" {
			t.Fatalf("expected details.code DAT-C10, got %v", details["code"])
		}
	})
}
