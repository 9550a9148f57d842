package main

import (
	"context"
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

// Exit codes consumed by the scheduling wrapper: 0 everything updated,
// 1 some channels failed, 2 nothing usable happened.
const (
	exitOK      = 0
	exitPartial = 1
	exitFailed  = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, "daily-update")

	if cfg.APIKey == "" {
		logging.Logger.Error().Msg("YT_API_KEY is not set")
		return exitFailed
	}

	ctx := context.Background()

	conn, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("failed to open database")
		return exitFailed
	}
	defer conn.Close()

	client, err := youtube.NewClient(ctx, cfg.APIKey, cfg.RateLimit)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("failed to create youtube client")
		return exitFailed
	}

	locks, err := lock.NewManager(cfg.LockDir, time.Duration(cfg.LockMaxAgeHours)*time.Hour)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("failed to create lock manager")
		return exitFailed
	}
	locks.ReclaimStale()

	channels := repository.NewChannelRepo(conn)
	videos := repository.NewVideoRepo(conn)
	snapshots := repository.NewSnapshotRepo(conn, videos)
	collector := service.NewCollector(client, channels, videos, snapshots, locks,
		cfg.RefreshWindowDays, cfg.RotationPercent)

	tracked, err := channels.List(ctx)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("failed to list channels")
		return exitFailed
	}
	if len(tracked) == 0 {
		logging.Logger.Warn().Msg("no channels tracked, nothing to update")
		return exitOK
	}

	inputs := make([]string, len(tracked))
	for i, ch := range tracked {
		inputs[i] = ch.ChannelID
	}

	mode := service.Mode(cfg.UpdateMode)

	totalVideos, err := videos.Count(ctx)
	if err == nil && len(tracked) > 0 {
		estimate := youtube.EstimateQuotaCost(len(tracked), totalVideos/len(tracked))
		logging.Logger.Info().Int("estimated_quota_units", estimate).Msg("quota estimate for full re-fetch")
	}

	logging.Logger.Info().Int("channels", len(inputs)).Str("mode", string(mode)).Msg("daily update starting")

	outcomes := collector.CollectChannels(ctx, inputs, mode)

	success := 0
	for _, o := range outcomes {
		if o.Status == model.StatusSuccess {
			success++
		}
	}

	switch {
	case success == len(inputs):
		return exitOK
	case success > 0:
		return exitPartial
	default:
		return exitFailed
	}
}
