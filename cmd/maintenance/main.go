package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/config"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/db"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/logging"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/repository"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	repair := flag.Bool("repair-monotonicity", false, "clamp decreasing reported view totals in snapshot history")
	reclassify := flag.Bool("reclassify", false, "re-score all shorts flags with the duration-only rule")
	setBrand := flag.String("set-brand", "", `set a channel's brand label, "Channel Title=Brand" (empty brand clears)`)
	deleteChannel := flag.String("delete-channel", "", "delete a channel and all its videos and snapshots")
	flag.Parse()

	if !*repair && !*reclassify && *setBrand == "" && *deleteChannel == "" {
		flag.Usage()
		return 2
	}

	cfg := config.Load()
	logging.Init(cfg.LogLevel, "maintenance")

	ctx := context.Background()

	conn, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("failed to open database")
		return 2
	}
	defer conn.Close()

	channels := repository.NewChannelRepo(conn)
	videos := repository.NewVideoRepo(conn)
	snapshots := repository.NewSnapshotRepo(conn, videos)
	svc := service.NewMaintenanceService(channels, videos, snapshots)

	if *repair {
		if _, err := svc.RepairMonotonicity(ctx); err != nil {
			logging.Logger.Error().Err(err).Msg("monotonicity repair failed")
			return 1
		}
	}

	if *reclassify {
		if _, _, err := svc.ReclassifyByDuration(ctx); err != nil {
			logging.Logger.Error().Err(err).Msg("reclassification failed")
			return 1
		}
	}

	if *setBrand != "" {
		title, brand, ok := strings.Cut(*setBrand, "=")
		if !ok {
			logging.Logger.Error().Msg(`-set-brand expects "Channel Title=Brand"`)
			return 2
		}
		matched, err := channels.UpdateBrand(ctx, strings.TrimSpace(title), strings.TrimSpace(brand))
		if err != nil {
			logging.Logger.Error().Err(err).Msg("brand update failed")
			return 1
		}
		if !matched {
			logging.Logger.Warn().Str("title", title).Msg("no channel with that title")
			return 1
		}
		logging.Logger.Info().Str("title", title).Str("brand", brand).Msg("brand updated")
	}

	if *deleteChannel != "" {
		if err := channels.Delete(ctx, *deleteChannel); err != nil {
			logging.Logger.Error().Err(err).Msg("channel delete failed")
			return 1
		}
		logging.Logger.Info().Str("channel_id", *deleteChannel).Msg("channel deleted")
	}

	return 0
}
