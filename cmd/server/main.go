package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/config"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/db"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/handler"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/lock"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/logging"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/model"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/repository"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/router"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/service"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/youtube"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, "ranking-api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		logging.Logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer conn.Close()

	channels := repository.NewChannelRepo(conn)
	videos := repository.NewVideoRepo(conn)
	snapshots := repository.NewSnapshotRepo(conn, videos)

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	handler.InitMetrics(conn)
	cache.SetMetrics(
		func() { handler.Metrics.CacheHits.Inc() },
		func() { handler.Metrics.CacheMisses.Inc() },
	)

	ranking := service.NewRankingService(conn, channels, videos, snapshots, cache)

	app := fiber.New(fiber.Config{
		AppName:      "Channel Ranking API",
		ServerHeader: "ranking",
	})
	router.Setup(app, &router.Handlers{
		Ranking: handler.NewRankingHandler(ranking),
		Health:  handler.NewHealthHandler(conn, cache),
	}, cfg.CORSOrigins)

	// Optional in-process sweep worker. Needs an API key; without one the
	// server is read-only and sweeps come from cmd/snapshots.
	if cfg.SweepIntervalHours > 0 && cfg.APIKey != "" {
		client, err := youtube.NewClient(ctx, cfg.APIKey, cfg.RateLimit)
		if err != nil {
			logging.Logger.Fatal().Err(err).Msg("failed to create youtube client")
		}
		locks, err := lock.NewManager(cfg.LockDir, time.Duration(cfg.LockMaxAgeHours)*time.Hour)
		if err != nil {
			logging.Logger.Fatal().Err(err).Msg("failed to create lock manager")
		}

		collector := service.NewCollector(client, channels, videos, snapshots, locks,
			cfg.RefreshWindowDays, cfg.RotationPercent)
		worker := service.NewSnapshotWorker(collector, locks,
			time.Duration(cfg.SweepIntervalHours)*time.Hour)
		worker.Observe = func(summary *model.SweepSummary, elapsed time.Duration) {
			handler.Metrics.CollectionsTotal.WithLabelValues(summary.Status).Inc()
			handler.Metrics.SnapshotsSaved.Add(float64(summary.VideosSnapshotted))
			handler.Metrics.CollectionRuntime.Observe(elapsed.Seconds())
		}
		go worker.Start(ctx)
	}

	go func() {
		<-ctx.Done()
		logging.Logger.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logging.Logger.Error().Err(err).Msg("shutdown error")
		}
	}()

	logging.Logger.Info().
		Str("port", cfg.Port).
		Str("env", cfg.Environment).
		Msg("ranking API starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logging.Logger.Fatal().Err(err).Msg("server stopped")
	}
}
