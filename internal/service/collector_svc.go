package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/lock"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/logging"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/model"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/repository"
)

// Mode selects how much of a channel's catalog a collection run re-fetches.
type Mode string

const (
	// ModeIncremental fetches new videos plus a freshness-preserving
	// sample of older ones.
	ModeIncremental Mode = "incremental"
	// ModeFull re-fetches every video in the channel's upload listing.
	ModeFull Mode = "full"
)

const dateLayout = "2006-01-02"

// Transport is the platform client contract the collector depends on.
type Transport interface {
	// ResolveChannelID normalizes an ID, @handle, or URL to the canonical
	// channel ID; "" means unresolvable.
	ResolveChannelID(ctx context.Context, input string) (string, error)
	// GetChannelMetadata returns nil when the channel does not exist.
	GetChannelMetadata(ctx context.Context, channelID string) (*model.ChannelMetadata, error)
	GetAllVideoIDs(ctx context.Context, uploadsPlaylistID string) ([]string, error)
	GetVideosDetails(ctx context.Context, videoIDs []string) ([]model.VideoRecord, error)
}

// Collector orchestrates which videos to fetch on a run, writes results
// through the store, and drives the daily snapshot sweep.
type Collector struct {
	transport Transport
	channels  *repository.ChannelRepo
	videos    *repository.VideoRepo
	snapshots *repository.SnapshotRepo
	locks     *lock.Manager

	refreshWindow   time.Duration
	rotationPercent int
}

func NewCollector(
	transport Transport,
	channels *repository.ChannelRepo,
	videos *repository.VideoRepo,
	snapshots *repository.SnapshotRepo,
	locks *lock.Manager,
	refreshWindowDays, rotationPercent int,
) *Collector {
	return &Collector{
		transport:       transport,
		channels:        channels,
		videos:          videos,
		snapshots:       snapshots,
		locks:           locks,
		refreshWindow:   time.Duration(refreshWindowDays) * 24 * time.Hour,
		rotationPercent: rotationPercent,
	}
}

// CollectChannel collects one channel end to end under its advisory lock.
func (c *Collector) CollectChannel(ctx context.Context, input string, mode Mode) (*model.CollectOutcome, error) {
	channelID, err := c.transport.ResolveChannelID(ctx, input)
	if err != nil {
		return nil, err
	}
	if channelID == "" {
		return nil, &model.ResolutionError{Input: input}
	}

	release, err := c.locks.Acquire(channelID)
	if err != nil {
		return nil, err
	}
	defer release()

	return c.collectLocked(ctx, input, channelID, mode)
}

func (c *Collector) collectLocked(ctx context.Context, input, channelID string, mode Mode) (*model.CollectOutcome, error) {
	log := logging.Logger.With().Str("channel_id", channelID).Str("mode", string(mode)).Logger()
	log.Info().Str("input", input).Msg("starting collection")

	meta, err := c.transport.GetChannelMetadata(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, &model.NotFoundError{ChannelID: channelID}
	}

	ch := model.Channel{
		ChannelID: meta.ChannelID,
		Title:     meta.Title,
	}
	if meta.Handle != "" {
		ch.Handle = &meta.Handle
	}
	if meta.Country != "" {
		ch.Country = &meta.Country
	}
	if meta.UploadsPlaylistID != "" {
		ch.UploadsPlaylistID = &meta.UploadsPlaylistID
	}
	if err := c.channels.Upsert(ctx, ch); err != nil {
		return nil, err
	}

	listing, err := c.transport.GetAllVideoIDs(ctx, meta.UploadsPlaylistID)
	if err != nil {
		return nil, err
	}

	existing, err := c.videos.ExistingIDs(ctx, channelID)
	if err != nil {
		return nil, err
	}

	var newIDs []string
	for _, id := range listing {
		if _, ok := existing[id]; !ok {
			newIDs = append(newIDs, id)
		}
	}
	log.Info().
		Int("listing", len(listing)).
		Int("new", len(newIDs)).
		Int("existing", len(existing)).
		Msg("listing enumerated")

	fetchSet, err := c.selectFetchSet(ctx, channelID, mode, listing, newIDs)
	if err != nil {
		return nil, err
	}

	collected := 0
	newCollected := 0
	if len(fetchSet) > 0 {
		details, err := c.transport.GetVideosDetails(ctx, fetchSet)
		if err != nil {
			return nil, err
		}

		newSet := make(map[string]struct{}, len(newIDs))
		for _, id := range newIDs {
			newSet[id] = struct{}{}
		}
		for i := range details {
			details[i].ChannelID = channelID
			if _, ok := newSet[details[i].VideoID]; ok {
				newCollected++
			}
		}

		if err := c.videos.UpsertBatch(ctx, details); err != nil {
			return nil, err
		}
		collected = len(details)
		log.Info().
			Int("fetched", collected).
			Int("requested", len(fetchSet)).
			Msg("videos upserted")
	}

	// The channel-level time series advances daily even when nothing at
	// the video level changed.
	reported := meta.ViewCount
	today := time.Now().UTC().Format(dateLayout)
	if err := c.snapshots.CreateChannelSnapshot(ctx, channelID, today, &reported); err != nil {
		return nil, err
	}

	stats, err := c.videos.ChannelStats(ctx, channelID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("total_videos", stats.TotalVideos).
		Int64("total_views", stats.TotalViews).
		Msg("collection complete")

	return &model.CollectOutcome{
		Status:          model.StatusSuccess,
		ChannelInput:    input,
		ChannelID:       channelID,
		Title:           meta.Title,
		VideosCollected: collected,
		NewVideos:       newCollected,
		Stats:           stats,
	}, nil
}

// selectFetchSet picks which videos to fetch details for. Full mode takes the
// whole listing; incremental mode takes new videos, everything published
// inside the refresh window, and a random rotation sample of the long tail.
func (c *Collector) selectFetchSet(ctx context.Context, channelID string, mode Mode, listing, newIDs []string) ([]string, error) {
	if mode == ModeFull {
		return dedupe(listing), nil
	}

	cutoff := time.Now().Add(-c.refreshWindow)

	recent, err := c.videos.RecentIDs(ctx, channelID, cutoff)
	if err != nil {
		return nil, err
	}
	rotation, err := c.videos.RotationSample(ctx, channelID, cutoff, c.rotationPercent)
	if err != nil {
		return nil, err
	}

	logging.Logger.Debug().
		Str("channel_id", channelID).
		Int("new", len(newIDs)).
		Int("recent", len(recent)).
		Int("rotation", len(rotation)).
		Msg("incremental fetch set selected")

	combined := make([]string, 0, len(newIDs)+len(recent)+len(rotation))
	combined = append(combined, newIDs...)
	combined = append(combined, recent...)
	combined = append(combined, rotation...)
	return dedupe(combined), nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CollectChannels collects a list of channels, isolating per-channel
// failures: one bad channel never aborts its siblings.
func (c *Collector) CollectChannels(ctx context.Context, inputs []string, mode Mode) []model.CollectOutcome {
	outcomes := make([]model.CollectOutcome, 0, len(inputs))

	for i, input := range inputs {
		logging.Logger.Info().
			Int("index", i+1).
			Int("total", len(inputs)).
			Str("input", input).
			Msg("processing channel")

		outcome, err := c.CollectChannel(ctx, input, mode)
		if err != nil {
			logging.Logger.Error().Err(err).Str("input", input).Msg("channel collection failed")
			outcomes = append(outcomes, model.CollectOutcome{
				Status:       model.StatusError,
				ChannelInput: input,
				Message:      err.Error(),
			})
			// Quota exhaustion dooms every remaining channel; stop here.
			var quota *model.QuotaExhaustedError
			if errors.As(err, &quota) {
				break
			}
			continue
		}
		outcomes = append(outcomes, *outcome)
	}

	success := 0
	for _, o := range outcomes {
		if o.Status == model.StatusSuccess {
			success++
		}
	}
	logging.Logger.Info().
		Int("success", success).
		Int("total", len(inputs)).
		Msg("batch collection complete")

	return outcomes
}

// CollectSnapshots sweeps every tracked channel, fetching current statistics
// for all of its stored videos and recording one snapshot per video for the
// given date. Pass "" for today. Channels without stored videos are skipped;
// per-channel failures are counted and do not abort the sweep.
func (c *Collector) CollectSnapshots(ctx context.Context, date string) (*model.SweepSummary, error) {
	if date == "" {
		date = time.Now().UTC().Format(dateLayout)
	}

	channels, err := c.channels.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	summary := &model.SweepSummary{SnapshotDate: date}
	logging.Logger.Info().Str("date", date).Int("channels", len(channels)).Msg("starting snapshot sweep")

	for i, ch := range channels {
		log := logging.Logger.With().
			Str("channel_id", ch.ChannelID).
			Int("index", i+1).
			Int("total", len(channels)).
			Logger()

		saved, err := c.snapshotChannel(ctx, ch.ChannelID, date)
		if err != nil {
			if errors.Is(err, errNoVideos) {
				log.Warn().Msg("no stored videos, skipping")
				summary.ChannelsSkipped++
				continue
			}
			log.Error().Err(err).Msg("snapshot collection failed")
			summary.Errors++

			var quota *model.QuotaExhaustedError
			if errors.As(err, &quota) {
				summary.Errors += len(channels) - i - 1
				break
			}
			continue
		}

		summary.VideosSnapshotted += saved
		log.Info().Int("saved", saved).Msg("snapshots saved")
	}

	summary.ChannelsProcessed = len(channels) - summary.ChannelsSkipped
	summary.Status = model.StatusSuccess
	if len(channels) > 0 && summary.Errors >= len(channels) {
		summary.Status = model.StatusPartial
	}

	logging.Logger.Info().
		Int("videos", summary.VideosSnapshotted).
		Int("skipped", summary.ChannelsSkipped).
		Int("errors", summary.Errors).
		Str("status", summary.Status).
		Msg("snapshot sweep complete")

	return summary, nil
}

var errNoVideos = errors.New("channel has no stored videos")

func (c *Collector) snapshotChannel(ctx context.Context, channelID, date string) (int, error) {
	ids, err := c.videos.AllIDs(ctx, channelID)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, errNoVideos
	}

	details, err := c.transport.GetVideosDetails(ctx, ids)
	if err != nil {
		return 0, err
	}

	saved := 0
	for _, v := range details {
		err := c.snapshots.SaveVideoSnapshot(ctx, model.VideoSnapshot{
			VideoID:      v.VideoID,
			SnapshotDate: date,
			ViewCount:    v.ViewCount,
			LikeCount:    v.LikeCount,
			CommentCount: v.CommentCount,
		})
		if err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}
