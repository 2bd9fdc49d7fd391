// Package main boots the payment-operations API server.
package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"merx/internal/config"
	"merx/internal/repositories"
	"merx/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func main() {
	config.LoadEnv()
	initLogger()

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	sqlDB, err := repositories.DB.DB()
	if err != nil {
		log.Fatalf("failed to get database instance: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("database ping failed: %v", err)
	}
	slog.Info("connected to database")

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			stats := sqlDB.Stats()
			slog.Debug("db pool stats",
				"open", stats.OpenConnections,
				"idle", stats.Idle,
				"in_use", stats.InUse,
				"wait_count", stats.WaitCount,
			)
		}
	}()

	app := fiber.New(fiber.Config{
		AppName: "merx",
	})

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "*"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key, X-Tenant-ID",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	// Credential and signup endpoints are the only ones worth brute
	// forcing; everything else sits behind tenant + token checks.
	for _, path := range []string{"/api/v1/auth/login", "/api/v1/tenants/signup"} {
		app.Use(path, limiter.New(limiter.Config{
			Max:        5,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "too many requests",
				})
			},
		}))
	}

	routes.SetupRoutes(app, repositories.DB, repositories.CacheService)

	go func() {
		slog.Info("listening", "addr", config.ListenAddr())
		if err := app.Listen(config.ListenAddr()); err != nil {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
	if err := sqlDB.Close(); err != nil {
		slog.Error("closing database failed", "error", err)
	}
	if repositories.CacheService != nil {
		if err := repositories.CacheService.Close(); err != nil {
			slog.Error("closing redis failed", "error", err)
		}
	}
}

// initLogger installs the process-wide slog handler: JSON in production,
// text for local work.
func initLogger() {
	var handler slog.Handler
	if config.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))
}
