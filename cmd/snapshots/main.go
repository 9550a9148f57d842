package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/config"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/db"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/lock"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/logging"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/model"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/repository"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/service"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/youtube"
)

func main() {
	os.Exit(run())
}

func run() int {
	date := flag.String("date", "", "snapshot date (YYYY-MM-DD, default today)")
	flag.Parse()

	cfg := config.Load()
	logging.Init(cfg.LogLevel, "snapshots")

	if cfg.APIKey == "" {
		logging.Logger.Error().Msg("YT_API_KEY is not set")
		return 2
	}
	if *date != "" {
		if _, err := time.Parse("2006-01-02", *date); err != nil {
			logging.Logger.Error().Str("date", *date).Msg("date must be YYYY-MM-DD")
			return 2
		}
	}

	ctx := context.Background()

	conn, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("failed to open database")
		return 2
	}
	defer conn.Close()

	client, err := youtube.NewClient(ctx, cfg.APIKey, cfg.RateLimit)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("failed to create youtube client")
		return 2
	}

	locks, err := lock.NewManager(cfg.LockDir, time.Duration(cfg.LockMaxAgeHours)*time.Hour)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("failed to create lock manager")
		return 2
	}
	locks.ReclaimStale()

	channels := repository.NewChannelRepo(conn)
	videos := repository.NewVideoRepo(conn)
	snapshots := repository.NewSnapshotRepo(conn, videos)
	collector := service.NewCollector(client, channels, videos, snapshots, locks,
		cfg.RefreshWindowDays, cfg.RotationPercent)

	summary, err := collector.CollectSnapshots(ctx, *date)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("snapshot sweep failed")
		return 2
	}

	if cov, err := snapshots.Coverage(ctx); err == nil {
		logging.Logger.Info().
			Int("total_snapshots", cov.TotalSnapshots).
			Int("videos_tracked", cov.VideosTracked).
			Int("unique_dates", cov.UniqueDates).
			Str("latest_date", cov.LatestDate).
			Msg("snapshot coverage")
	}

	if summary.Status != model.StatusSuccess {
		return 1
	}
	return 0
}
