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
	file := flag.String("file", "channels.txt", "channel list file")
	skipSweep := flag.Bool("skip-sweep", false, "skip the initial snapshot sweep after import")
	flag.Parse()

	cfg := config.Load()
	logging.Init(cfg.LogLevel, "bulk-import")

	if cfg.APIKey == "" {
		logging.Logger.Error().Msg("YT_API_KEY is not set")
		return 2
	}

	inputs, err := readChannelsFile(*file)
	if err != nil {
		logging.Logger.Error().Err(err).Str("file", *file).Msg("failed to read channel list")
		return 2
	}
	if len(inputs) == 0 {
		logging.Logger.Warn().Str("file", *file).Msg("channel list is empty")
		return 0
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

	logging.Logger.Info().Int("channels", len(inputs)).Str("file", *file).Msg("bulk import starting")

	// Imports always run in full mode: a new channel has no history to be
	// incremental against.
	outcomes := collector.CollectChannels(ctx, inputs, service.ModeFull)

	success := 0
	for _, o := range outcomes {
		if o.Status == model.StatusSuccess {
			success++
		}
	}

	if success > 0 && !*skipSweep {
		// First sweep gives every imported video its day-zero snapshot,
		// so delta rankings have a baseline immediately.
		if _, err := collector.CollectSnapshots(ctx, ""); err != nil {
			logging.Logger.Error().Err(err).Msg("initial snapshot sweep failed")
			return 1
		}
	}

	switch {
	case success == len(inputs):
		return 0
	case success > 0:
		return 1
	default:
		return 2
	}
}
