package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/noticeboard/backend/internal/database"
	"github.com/noticeboard/backend/internal/middleware"
	"github.com/noticeboard/backend/internal/models"
	"github.com/noticeboard/backend/internal/services"
	"github.com/noticeboard/backend/pkg/logger"
	"github.com/noticeboard/backend/pkg/utils"
	"gorm.io/gorm"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	store *fakeStore
	audit *services.AuditService
}

var testSetupOnce sync.Once

// fakeStore keeps objects in memory and signs refs into fake URLs.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    bool
}

func (f *fakeStore) Store(_ context.Context, key string, data []byte, _ string) (string, error) {
	if f.fail {
		return "", fmt.Errorf("store unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return key, nil
}

func (f *fakeStore) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, ref)
	return nil
}

func (f *fakeStore) PresignedGetURL(_ context.Context, ref string, _ time.Duration) (string, error) {
	return "https://objects.test/" + ref, nil
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		utils.ConfigureJWT("test-secret", 24)
	})
	logger.SetOutput(io.Discard)

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	store := &fakeStore{objects: map[string][]byte{}}
	timeout := 5 * time.Second

	identity := services.NewPasswordIdentity(db, timeout)
	registry := services.NewGroupRegistry(db, timeout)
	resolver := services.NewAccessResolver(db, timeout)
	feed := services.NewNoticeFeed(db, timeout)
	publisher := services.NewNoticePublisher(db, registry, store, timeout, 1024*1024)
	auditService := services.NewAuditService(db)

	t.Cleanup(func() {
		auditService.Stop()
		_ = sqlDB.Close()
	})

	authHandler := NewAuthHandler(identity, auditService)
	groupsHandler := NewGroupsHandler(registry, auditService)
	noticesHandler := NewNoticesHandler(registry, publisher, feed, store, time.Hour, auditService)
	accessHandler := NewAccessHandler(resolver, feed, store, time.Hour)
	authMiddleware := middleware.NewAuthMiddleware(identity)

	app := fiber.New(fiber.Config{BodyLimit: 2 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS("http://localhost:3000"))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Get("/activity", authMiddleware.RequireAuth, authHandler.Activity)

	groupRoutes := api.Group("/groups", authMiddleware.RequireAuth)
	groupRoutes.Get("/", groupsHandler.List)
	groupRoutes.Post("/", groupsHandler.Create)
	groupRoutes.Post("/bulk", groupsHandler.BulkCreate)
	groupRoutes.Get("/suggest-code", groupsHandler.SuggestCode)
	groupRoutes.Delete("/:id", groupsHandler.Delete)
	groupRoutes.Post("/:id/notices", noticesHandler.Publish)
	groupRoutes.Get("/:id/notices", noticesHandler.List)

	accessRoutes := api.Group("/access", middleware.ViewerRateLimit(1000))
	accessRoutes.Post("/resolve", accessHandler.Resolve)
	accessRoutes.Get("/:code/notices", accessHandler.Notices)

	return &testEnv{app: app, db: db, store: store, audit: auditService}
}

func createTestOrg(t *testing.T, db *gorm.DB, name, email string) (*models.Organization, string) {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	org := &models.Organization{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed creating test org: %v", err)
	}

	token, err := utils.GenerateToken(org)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return org, token
}

func createTestGroup(t *testing.T, db *gorm.DB, org *models.Organization, name, code string) *models.Group {
	t.Helper()
	group := &models.Group{Name: name, AccessCode: code, OwnerOrgID: org.ID}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed creating test group: %v", err)
	}
	return group
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

type multipartFile struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func performMultipartRequest(t *testing.T, app *fiber.App, path string, fields map[string]string, file *multipartFile, headers map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed writing field: %v", err)
		}
	}
	if file != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, file.field, file.filename))
		header.Set("Content-Type", file.contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("failed creating file part: %v", err)
		}
		if _, err := part.Write(file.data); err != nil {
			t.Fatalf("failed writing file part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed closing multipart writer: %v", err)
	}

	requestHeaders := map[string]string{"Content-Type": writer.FormDataContentType()}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	return performRequest(t, app, http.MethodPost, path, &buf, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}

func dataMap(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %+v", body)
	}
	return data
}

func dataList(t *testing.T, value any) []any {
	t.Helper()
	list, ok := value.([]any)
	if !ok {
		t.Fatalf("expected list, got %T", value)
	}
	return list
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 32))
