package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DB          DBConfig
	MinIO       MinIOConfig
	JWT         JWTConfig
	Server      ServerConfig
	Core        CoreConfig
	Attachments AttachmentConfig
	Janitor     JanitorConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type MinIOConfig struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port           string
	AllowedOrigins string
	// ResolveRateLimit caps access-code lookups per client IP per minute.
	ResolveRateLimit int
}

// CoreConfig bounds every call the core makes to the database or object store.
type CoreConfig struct {
	Timeout time.Duration
}

type AttachmentConfig struct {
	MaxImageBytes int64
	URLExpiry     time.Duration
}

type JanitorConfig struct {
	Enabled     bool
	Interval    time.Duration
	GracePeriod time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "noticeboard"),
			Password: getEnv("DB_PASSWORD", "noticeboard_secret"),
			Name:     getEnv("DB_NAME", "noticeboard"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		MinIO: MinIOConfig{
			Endpoint:       getEnv("MINIO_ENDPOINT", "localhost:9000"),
			PublicEndpoint: getEnv("MINIO_PUBLIC_ENDPOINT", getEnv("MINIO_ENDPOINT", "localhost:9000")),
			AccessKey:      getEnv("MINIO_ACCESS_KEY", "noticeboard"),
			SecretKey:      getEnv("MINIO_SECRET_KEY", "noticeboard_secret"),
			Bucket:         getEnv("MINIO_BUCKET", "noticeboard"),
			UseSSL:         getEnvAsBool("MINIO_USE_SSL", false),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Server: ServerConfig{
			Port:             getEnv("SERVER_PORT", "8080"),
			AllowedOrigins:   strings.Join(getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}), ","),
			ResolveRateLimit: getEnvAsInt("RESOLVE_RATE_LIMIT", 30),
		},
		Core: CoreConfig{
			Timeout: getEnvAsDuration("CORE_TIMEOUT", 5*time.Second),
		},
		Attachments: AttachmentConfig{
			MaxImageBytes: int64(getEnvAsInt("ATTACHMENT_MAX_BYTES", 5*1024*1024)),
			URLExpiry:     getEnvAsDuration("ATTACHMENT_URL_EXPIRY", 1*time.Hour),
		},
		Janitor: JanitorConfig{
			Enabled:     getEnvAsBool("JANITOR_ENABLED", true),
			Interval:    getEnvAsDuration("JANITOR_INTERVAL", 6*time.Hour),
			GracePeriod: getEnvAsDuration("JANITOR_GRACE_PERIOD", 24*time.Hour),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
