package config

import (
	"os"
	"testing"
	"time"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if val, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, val) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad(t *testing.T) {
	t.Run("returns config with defaults when no env vars set", func(t *testing.T) {
		unsetEnv(t, "DB_HOST", "DB_PORT", "SERVER_PORT", "JWT_EXPIRATION_HOURS", "CORE_TIMEOUT",
			"ATTACHMENT_MAX_BYTES", "JANITOR_ENABLED", "JANITOR_GRACE_PERIOD", "CORS_ALLOWED_ORIGINS", "RESOLVE_RATE_LIMIT")

		cfg := Load()
		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if cfg.DB.Host != "localhost" {
			t.Errorf("expected DB.Host 'localhost', got %s", cfg.DB.Host)
		}
		if cfg.DB.Port != "5432" {
			t.Errorf("expected DB.Port '5432', got %s", cfg.DB.Port)
		}
		if cfg.Server.Port != "8080" {
			t.Errorf("expected Server.Port '8080', got %s", cfg.Server.Port)
		}
		if cfg.Server.AllowedOrigins != "http://localhost:3000" {
			t.Errorf("expected default allowed origin, got %s", cfg.Server.AllowedOrigins)
		}
		if cfg.Server.ResolveRateLimit != 30 {
			t.Errorf("expected ResolveRateLimit 30, got %d", cfg.Server.ResolveRateLimit)
		}
		if cfg.JWT.ExpirationHours != 24 {
			t.Errorf("expected JWT.ExpirationHours 24, got %d", cfg.JWT.ExpirationHours)
		}
		if cfg.Core.Timeout != 5*time.Second {
			t.Errorf("expected Core.Timeout 5s, got %v", cfg.Core.Timeout)
		}
		if cfg.Attachments.MaxImageBytes != 5*1024*1024 {
			t.Errorf("expected MaxImageBytes 5MiB, got %d", cfg.Attachments.MaxImageBytes)
		}
		if !cfg.Janitor.Enabled {
			t.Error("expected janitor enabled by default")
		}
		if cfg.Janitor.GracePeriod != 24*time.Hour {
			t.Errorf("expected janitor grace 24h, got %v", cfg.Janitor.GracePeriod)
		}
	})

	t.Run("reads environment variables", func(t *testing.T) {
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("DB_SSLMODE", "require")
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("JWT_SECRET", "my-secret")
		t.Setenv("CORE_TIMEOUT", "750ms")
		t.Setenv("ATTACHMENT_MAX_BYTES", "1024")
		t.Setenv("JANITOR_ENABLED", "false")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
		t.Setenv("MINIO_ENDPOINT", "minio:9000")
		unsetEnv(t, "MINIO_PUBLIC_ENDPOINT")

		cfg := Load()

		if cfg.DB.Host != "db.internal" {
			t.Errorf("expected DB.Host 'db.internal', got %s", cfg.DB.Host)
		}
		if cfg.DB.SSLMode != "require" {
			t.Errorf("expected DB.SSLMode 'require', got %s", cfg.DB.SSLMode)
		}
		if cfg.Server.Port != "9090" {
			t.Errorf("expected Server.Port '9090', got %s", cfg.Server.Port)
		}
		if cfg.JWT.Secret != "my-secret" {
			t.Errorf("expected JWT.Secret 'my-secret', got %s", cfg.JWT.Secret)
		}
		if cfg.Core.Timeout != 750*time.Millisecond {
			t.Errorf("expected Core.Timeout 750ms, got %v", cfg.Core.Timeout)
		}
		if cfg.Attachments.MaxImageBytes != 1024 {
			t.Errorf("expected MaxImageBytes 1024, got %d", cfg.Attachments.MaxImageBytes)
		}
		if cfg.Janitor.Enabled {
			t.Error("expected janitor disabled")
		}
		if cfg.Server.AllowedOrigins != "https://a.example.com,https://b.example.com" {
			t.Errorf("unexpected allowed origins %q", cfg.Server.AllowedOrigins)
		}
		if cfg.MinIO.PublicEndpoint != "minio:9000" {
			t.Errorf("expected public endpoint to fall back to MINIO_ENDPOINT, got %s", cfg.MinIO.PublicEndpoint)
		}
	})
}

func TestGetEnvAsInt(t *testing.T) {
	t.Run("returns parsed int", func(t *testing.T) {
		t.Setenv("TEST_INT", "42")
		if got := getEnvAsInt("TEST_INT", 0); got != 42 {
			t.Errorf("expected 42, got %d", got)
		}
	})

	t.Run("returns fallback for invalid int", func(t *testing.T) {
		t.Setenv("TEST_INT_BAD", "not-a-number")
		if got := getEnvAsInt("TEST_INT_BAD", 10); got != 10 {
			t.Errorf("expected 10, got %d", got)
		}
	})
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Run("returns parsed duration", func(t *testing.T) {
		t.Setenv("TEST_DUR", "5m")
		if got := getEnvAsDuration("TEST_DUR", time.Hour); got != 5*time.Minute {
			t.Errorf("expected 5m, got %v", got)
		}
	})

	t.Run("returns fallback for invalid duration", func(t *testing.T) {
		t.Setenv("TEST_DUR_BAD", "invalid")
		if got := getEnvAsDuration("TEST_DUR_BAD", time.Hour); got != time.Hour {
			t.Errorf("expected 1h (fallback), got %v", got)
		}
	})
}

func TestGetEnvAsList(t *testing.T) {
	t.Run("splits and trims", func(t *testing.T) {
		t.Setenv("TEST_LIST", " a , b,,c ")
		got := getEnvAsList("TEST_LIST", nil)
		if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
			t.Errorf("expected [a b c], got %v", got)
		}
	})

	t.Run("returns fallback for blank value", func(t *testing.T) {
		t.Setenv("TEST_LIST_BLANK", " , ")
		got := getEnvAsList("TEST_LIST_BLANK", []string{"x"})
		if len(got) != 1 || got[0] != "x" {
			t.Errorf("expected fallback [x], got %v", got)
		}
	})
}
