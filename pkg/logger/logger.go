package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type LogLevel string

const (
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// OrgIDLocal is the fiber.Ctx locals key the auth middleware stores the
// authenticated organization id under.
const OrgIDLocal = "orgID"

type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	OrgID     *string                `json:"org_id,omitempty"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

type Logger struct {
	mu     sync.Mutex
	output io.Writer
	color  bool
}

var globalLogger *Logger

func New(output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	return &Logger{output: output, color: output == os.Stdout}
}

func Init() {
	globalLogger = New(os.Stdout)
}

// SetOutput redirects the global logger, mostly for tests.
func SetOutput(output io.Writer) {
	globalLogger = New(output)
}

func (l *Logger) log(level LogLevel, action string, orgID *string, details map[string]interface{}, err error) {
	entry := LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		OrgID:     orgID,
		Action:    action,
		Details:   details,
		Caller:    caller(),
	}

	if err != nil {
		entry.Error = err.Error()
	}

	data, _ := json.Marshal(entry)

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.color {
		fmt.Fprintf(l.output, "%s\n", string(data))
		return
	}

	var colorCode string
	switch level {
	case LevelError:
		colorCode = "\033[31m"
	case LevelWarn:
		colorCode = "\033[33m"
	default:
		colorCode = "\033[36m"
	}
	fmt.Fprintf(l.output, "%s%s\033[0m\n", colorCode, string(data))
}

func Info(action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelInfo, action, nil, details, nil)
	}
}

func InfoWithOrg(orgID string, action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelInfo, action, &orgID, details, nil)
	}
}

func Warn(action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelWarn, action, nil, details, nil)
	}
}

func WarnWithOrg(orgID string, action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelWarn, action, &orgID, details, nil)
	}
}

func Error(action string, err error, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelError, action, nil, details, err)
	}
}

func ErrorWithOrg(orgID string, action string, err error, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelError, action, &orgID, details, err)
	}
}

func GetOrgIDFromContext(c *fiber.Ctx) *string {
	if orgID := c.Locals(OrgIDLocal); orgID != nil {
		if id, ok := orgID.(string); ok {
			return &id
		}
	}
	return nil
}

func caller() string {
	if _, file, line, ok := runtime.Caller(3); ok {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return ""
}

var sensitiveFields = []string{"password", "token", "secret", "code", "accessCode"}

func redactSensitiveFields(jsonMap map[string]interface{}) {
	for _, field := range sensitiveFields {
		if _, exists := jsonMap[field]; exists {
			jsonMap[field] = "[REDACTED]"
		}
	}
}

func GetRequestBodySummary(c *fiber.Ctx) string {
	body := c.Body()
	if len(body) == 0 {
		return "empty"
	}

	if len(body) > 1024 {
		return fmt.Sprintf("large (%d bytes)", len(body))
	}

	var jsonMap map[string]interface{}
	if err := json.Unmarshal(body, &jsonMap); err == nil {
		redactSensitiveFields(jsonMap)
		if jsonBytes, err := json.Marshal(jsonMap); err == nil {
			if len(jsonBytes) > 200 {
				return string(jsonBytes[:200]) + "..."
			}
			return string(jsonBytes)
		}
	}

	return fmt.Sprintf("binary (%d bytes)", len(body))
}

func GetResponseSizeSummary(c *fiber.Ctx) string {
	body := c.Response().Body()
	if len(body) == 0 {
		return "empty"
	}

	if len(body) > 1024 {
		return fmt.Sprintf("large (%d bytes)", len(body))
	}

	return fmt.Sprintf("small (%d bytes)", len(body))
}

func GenerateRequestID() string {
	return uuid.New().String()
}
