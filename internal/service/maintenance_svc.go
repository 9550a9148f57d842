package service

import (
	"context"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/classify"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/logging"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/repository"
)

// MaintenanceService holds the offline repair jobs that keep historical data
// usable: snapshot monotonicity repair and bulk reclassification.
type MaintenanceService struct {
	channels  *repository.ChannelRepo
	videos    *repository.VideoRepo
	snapshots *repository.SnapshotRepo
}

func NewMaintenanceService(
	channels *repository.ChannelRepo,
	videos *repository.VideoRepo,
	snapshots *repository.SnapshotRepo,
) *MaintenanceService {
	return &MaintenanceService{channels: channels, videos: videos, snapshots: snapshots}
}

// RepairMonotonicity clamps decreasing reported view totals across every
// channel's snapshot history. Returns the total number of corrected rows.
func (s *MaintenanceService) RepairMonotonicity(ctx context.Context) (int, error) {
	channels, err := s.channels.List(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, ch := range channels {
		fixed, err := s.snapshots.RepairMonotonicity(ctx, ch.ChannelID)
		if err != nil {
			return total, err
		}
		if fixed > 0 {
			logging.Logger.Info().
				Str("channel_id", ch.ChannelID).
				Str("title", ch.Title).
				Int("corrected", fixed).
				Msg("repaired snapshot history")
		}
		total += fixed
	}

	logging.Logger.Info().
		Int("channels", len(channels)).
		Int("corrected", total).
		Msg("monotonicity repair complete")
	return total, nil
}

// ReclassifyByDuration re-scores every stored video's shorts flag using the
// duration-only rule. Useful after the scoring heuristic changes, since stored
// flags are otherwise only refreshed when a video is re-fetched.
func (s *MaintenanceService) ReclassifyByDuration(ctx context.Context) (toShort, toLong int, err error) {
	toShort, toLong, err = s.videos.ReclassifyAll(ctx, classify.ByDurationOnly)
	if err != nil {
		return 0, 0, err
	}

	logging.Logger.Info().
		Int("to_short", toShort).
		Int("to_long", toLong).
		Msg("reclassification complete")
	return toShort, toLong, nil
}
