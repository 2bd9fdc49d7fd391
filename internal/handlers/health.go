package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewHealthHandler reports liveness for the API and its backing stores.
// A nil redis client marks the cache as disabled rather than down.
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "up"
	if sqlDB, err := h.db.DB(); err != nil {
		dbStatus = "down"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "down"
	}

	cacheStatus := "disabled"
	if h.redis != nil {
		cacheStatus = "up"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			cacheStatus = "down"
		}
	}

	status := "ok"
	code := fiber.StatusOK
	if dbStatus != "up" {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"time":   time.Now().UTC(),
		"services": fiber.Map{
			"database": dbStatus,
			"cache":    cacheStatus,
		},
	})
}
