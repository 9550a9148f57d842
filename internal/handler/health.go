package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/service"
)

type HealthHandler struct {
	db      *sql.DB
	cache   *service.CacheService
	startAt time.Time
}

func NewHealthHandler(db *sql.DB, cache *service.CacheService) *HealthHandler {
	return &HealthHandler{
		db:      db,
		cache:   cache,
		startAt: time.Now(),
	}
}

// Live handles GET /health/live — liveness probe.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready — readiness probe with dependency checks.
// The cache is optional, so a missing Redis degrades but never fails readiness
// on its own; a broken store does.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	checks := make(fiber.Map)
	overallStatus := "healthy"

	checks["database"] = checkDB(ctx, h.db)
	if dbCheck, ok := checks["database"].(fiber.Map); ok {
		if dbCheck["status"] != "up" {
			overallStatus = "degraded"
		}
	}

	checks["redis"] = checkCache(ctx, h.cache)

	resp := fiber.Map{
		"status":         overallStatus,
		"checks":         checks,
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
	}

	status := fiber.StatusOK
	if overallStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(resp)
}

func checkDB(ctx context.Context, db *sql.DB) fiber.Map {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}

func checkCache(ctx context.Context, cache *service.CacheService) fiber.Map {
	if !cache.Enabled() {
		return fiber.Map{"status": "disabled"}
	}

	start := time.Now()
	err := cache.Ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}
