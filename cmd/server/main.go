package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/noticeboard/backend/internal/config"
	"github.com/noticeboard/backend/internal/database"
	"github.com/noticeboard/backend/internal/handlers"
	"github.com/noticeboard/backend/internal/middleware"
	"github.com/noticeboard/backend/internal/services"
	"github.com/noticeboard/backend/internal/storage"
	"github.com/noticeboard/backend/pkg/logger"
	"github.com/noticeboard/backend/pkg/utils"
)

// bodyOverhead is room for the form fields next to a maximum size image.
const bodyOverhead = 1 << 20

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	timeout := cfg.Core.Timeout
	identity := services.NewPasswordIdentity(db, timeout)
	registry := services.NewGroupRegistry(db, timeout)
	resolver := services.NewAccessResolver(db, timeout)
	feed := services.NewNoticeFeed(db, timeout)
	publisher := services.NewNoticePublisher(db, registry, storageClient, timeout, cfg.Attachments.MaxImageBytes)
	auditService := services.NewAuditService(db)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	if cfg.Janitor.Enabled {
		janitor := services.NewAttachmentJanitor(db, storageClient, cfg.Janitor.GracePeriod, timeout)
		janitor.Start(bgCtx, cfg.Janitor.Interval)
	}

	authHandler := handlers.NewAuthHandler(identity, auditService)
	groupsHandler := handlers.NewGroupsHandler(registry, auditService)
	noticesHandler := handlers.NewNoticesHandler(registry, publisher, feed, storageClient, cfg.Attachments.URLExpiry, auditService)
	accessHandler := handlers.NewAccessHandler(resolver, feed, storageClient, cfg.Attachments.URLExpiry)

	authMiddleware := middleware.NewAuthMiddleware(identity)

	bodyLimit := int(cfg.Attachments.MaxImageBytes) + bodyOverhead
	app := fiber.New(fiber.Config{BodyLimit: bodyLimit})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		status := fiber.Map{"status": "ok", "database": "ok", "storage": "ok"}
		code := fiber.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["database"] = "unavailable"
			status["status"] = "degraded"
			code = fiber.StatusServiceUnavailable
		}
		if err := storageClient.Ping(ctx); err != nil {
			status["storage"] = "unavailable"
			status["status"] = "degraded"
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(status)
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

	accessRoutes := api.Group("/access", middleware.ViewerRateLimit(cfg.Server.ResolveRateLimit))
	accessRoutes.Post("/resolve", accessHandler.Resolve)
	accessRoutes.Get("/:code/notices", accessHandler.Notices)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":         cfg.Server.Port,
		"address":      listenAddr,
		"body_limit":   bodyLimit,
		"core_timeout": timeout.String(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		stopBackground()
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			auditService.Stop()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
