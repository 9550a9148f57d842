package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/handler"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Ranking *handler.RankingHandler
	Health  *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))
	app.Use(handler.MetricsMiddleware())

	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	api := app.Group("/api")

	api.Get("/ranking", h.Ranking.GetRanking)
	api.Get("/compare", h.Ranking.Compare)
	api.Get("/channels/:channelId", h.Ranking.GetChannel)
	api.Get("/channels/:channelId/history", h.Ranking.GetHistory)
}
