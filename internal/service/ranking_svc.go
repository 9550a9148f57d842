package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/logging"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/model"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/repository"
)

// Shorts monetize worse than long-form, so the weighted total discounts them.
const shortViewWeight = 0.25

// Channels below this many period views get flagged for downstream labeling.
const viewsCutoff = 1_000_000

var ErrUnknownMethodology = errors.New("unknown ranking methodology")

// RankingService answers all read-side queries: the global ranking, the three
// comparison methodologies, channel details, and history. Results are cached
// when Redis is available.
type RankingService struct {
	db        *sql.DB
	channels  *repository.ChannelRepo
	videos    *repository.VideoRepo
	snapshots *repository.SnapshotRepo
	cache     *CacheService
}

func NewRankingService(
	db *sql.DB,
	channels *repository.ChannelRepo,
	videos *repository.VideoRepo,
	snapshots *repository.SnapshotRepo,
	cache *CacheService,
) *RankingService {
	return &RankingService{
		db:        db,
		channels:  channels,
		videos:    videos,
		snapshots: snapshots,
		cache:     cache,
	}
}

// GlobalRanking returns a page of channels ordered by total stored views.
func (s *RankingService) GlobalRanking(ctx context.Context, limit, offset int, search string) ([]model.RankingEntry, error) {
	key := fmt.Sprintf("ranking:%d:%d:%s", limit, offset, search)
	var cached []model.RankingEntry
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	query := `
		SELECT
			c.channel_id, c.title, c.handle, c.brand,
			COALESCE(SUM(v.last_view_count), 0),
			COALESCE(SUM(CASE WHEN v.is_short = 1 THEN v.last_view_count ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN v.is_short = 0 THEN v.last_view_count ELSE 0 END), 0),
			COUNT(v.video_id),
			COALESCE(SUM(v.is_short), 0),
			COALESCE(SUM(CASE WHEN v.is_short = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(MAX(v.last_fetched_at), '')
		FROM channels c
		LEFT JOIN videos v ON v.channel_id = c.channel_id
		WHERE c.title LIKE '%' || ? || '%'
		GROUP BY c.channel_id
		ORDER BY COALESCE(SUM(v.last_view_count), 0) DESC
		LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("global ranking: %w", err)
	}
	defer rows.Close()

	var entries []model.RankingEntry
	for rows.Next() {
		var e model.RankingEntry
		err := rows.Scan(&e.ChannelID, &e.Title, &e.Handle, &e.Brand,
			&e.TotalViews, &e.ShortsViews, &e.LongViews,
			&e.TotalVideos, &e.ShortsCount, &e.LongCount, &e.LastUpdate)
		if err != nil {
			return nil, err
		}
		e.Rank = offset + len(entries) + 1
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, entries, rankingTTL)
	return entries, nil
}

// TotalChannels counts channels matching the search filter, for pagination.
func (s *RankingService) TotalChannels(ctx context.Context, search string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM channels WHERE title LIKE '%' || ? || '%'`, search).Scan(&total)
	return total, err
}

// Compare ranks the given channels over [start, end] using the chosen
// methodology. Dates are YYYY-MM-DD. Rows come back sorted by period views,
// highest first.
func (s *RankingService) Compare(ctx context.Context, method model.Methodology, channelIDs []string, start, end string) ([]model.ComparisonRow, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethodology, method)
	}

	var resolve func(ctx context.Context, ch model.Channel, start, end string) (model.ComparisonRow, error)
	switch method {
	case model.MethodologyPublished:
		resolve = s.comparePublished
	case model.MethodologyVideoDelta:
		resolve = s.compareVideoDelta
	case model.MethodologyChannelDelta:
		resolve = s.compareChannelDelta
	}

	rows := make([]model.ComparisonRow, 0, len(channelIDs))
	for _, id := range channelIDs {
		ch, err := s.channels.Get(ctx, id)
		if err == sql.ErrNoRows {
			// Unknown channels still get a (zeroed) row so the caller
			// sees every channel it asked about.
			logging.Logger.Warn().Str("channel_id", id).Msg("comparison requested for unknown channel")
			ch = &model.Channel{ChannelID: id, Title: id}
		} else if err != nil {
			return nil, err
		}

		row, err := resolve(ctx, *ch, start, end)
		if err != nil {
			return nil, err
		}
		addDerivedMetrics(&row)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ViewsPeriod > rows[j].ViewsPeriod
	})
	return rows, nil
}

// comparePublished sums the lifetime views of videos published inside the
// window. A channel that published nothing gets a zero row, not an error.
func (s *RankingService) comparePublished(ctx context.Context, ch model.Channel, start, end string) (model.ComparisonRow, error) {
	row := newComparisonRow(ch, start, end)

	query := `
		SELECT
			COALESCE(SUM(CASE WHEN is_short = 1 THEN last_view_count ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_short = 0 THEN last_view_count ELSE 0 END), 0),
			COALESCE(SUM(is_short), 0),
			COALESCE(SUM(CASE WHEN is_short = 0 THEN 1 ELSE 0 END), 0)
		FROM videos
		WHERE channel_id = ?
		  AND substr(published_at, 1, 10) BETWEEN ? AND ?`

	err := s.db.QueryRowContext(ctx, query, ch.ChannelID, start, end).Scan(
		&row.ShortsViews, &row.LongViews, &row.ShortsCount, &row.LongCount)
	if err != nil {
		return row, fmt.Errorf("published comparison %s: %w", ch.ChannelID, err)
	}

	row.ViewsPeriod = row.ShortsViews + row.LongViews
	row.TotalVideos = row.ShortsCount + row.LongCount
	return row, nil
}

// compareVideoDelta sums per-video snapshot deltas between the two dates.
// Only videos with snapshots on both dates contribute; the rest are counted
// as skipped. Negative per-video deltas are clamped to zero, a true view
// count never falls.
func (s *RankingService) compareVideoDelta(ctx context.Context, ch model.Channel, start, end string) (model.ComparisonRow, error) {
	row := newComparisonRow(ch, start, end)

	query := `
		SELECT v.is_short, s1.view_count, s2.view_count
		FROM videos v
		JOIN video_snapshots s1 ON s1.video_id = v.video_id AND s1.snapshot_date = ?
		JOIN video_snapshots s2 ON s2.video_id = v.video_id AND s2.snapshot_date = ?
		WHERE v.channel_id = ?`

	rows, err := s.db.QueryContext(ctx, query, start, end, ch.ChannelID)
	if err != nil {
		return row, fmt.Errorf("video delta comparison %s: %w", ch.ChannelID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var isShort int
		var startViews, endViews int64
		if err := rows.Scan(&isShort, &startViews, &endViews); err != nil {
			return row, err
		}

		delta := endViews - startViews
		if delta < 0 {
			delta = 0
		}
		if isShort == 1 {
			row.ShortsViews += delta
			row.ShortsCount++
		} else {
			row.LongViews += delta
			row.LongCount++
		}
		row.VideosWithData++
	}
	if err := rows.Err(); err != nil {
		return row, err
	}

	stats, err := s.videos.ChannelStats(ctx, ch.ChannelID)
	if err != nil {
		return row, err
	}
	// Only videos measured on both dates count toward the totals, so the
	// per-content average divides the delta by the measured set.
	row.TotalVideos = row.VideosWithData
	row.VideosSkipped = stats.TotalVideos - row.VideosWithData
	row.ViewsPeriod = row.ShortsViews + row.LongViews
	return row, nil
}

// compareChannelDelta diffs the platform-reported channel totals between the
// two dates. When either snapshot is missing the row stays zeroed with
// MissingSnapshots set, so callers can tell "no growth" from "no data".
func (s *RankingService) compareChannelDelta(ctx context.Context, ch model.Channel, start, end string) (model.ComparisonRow, error) {
	row := newComparisonRow(ch, start, end)

	startViews, err := s.snapshots.ChannelSnapshot(ctx, ch.ChannelID, start)
	if err != nil {
		return row, err
	}
	endViews, err := s.snapshots.ChannelSnapshot(ctx, ch.ChannelID, end)
	if err != nil {
		return row, err
	}

	if startViews == nil || endViews == nil {
		row.MissingSnapshots = true
		return row, nil
	}

	row.ViewsStart = *startViews
	row.ViewsEnd = *endViews
	delta := row.ViewsEnd - row.ViewsStart
	if delta < 0 {
		delta = 0
	}
	row.ViewsPeriod = delta
	if row.ViewsStart > 0 {
		row.GrowthPercent = float64(delta) / float64(row.ViewsStart) * 100
	}

	// The reported total has no shorts/long split; counts come from the
	// current catalog for context only.
	stats, err := s.videos.ChannelStats(ctx, ch.ChannelID)
	if err != nil {
		return row, err
	}
	row.TotalVideos = stats.TotalVideos
	row.ShortsCount = stats.ShortsCount
	row.LongCount = stats.LongCount
	return row, nil
}

func newComparisonRow(ch model.Channel, start, end string) model.ComparisonRow {
	return model.ComparisonRow{
		ChannelID: ch.ChannelID,
		Title:     ch.Title,
		Brand:     ch.Brand,
		StartDate: start,
		EndDate:   end,
	}
}

// addDerivedMetrics fills the weighted total, per-content averages, and the
// cutoff flag from the row's period figures.
func addDerivedMetrics(row *model.ComparisonRow) {
	row.WeightedViews = float64(row.LongViews) + float64(row.ShortsViews)*shortViewWeight
	if row.TotalVideos > 0 {
		row.AvgPerContent = float64(row.ViewsPeriod) / float64(row.TotalVideos)
	}
	if row.ShortsCount > 0 {
		row.AvgPerShort = float64(row.ShortsViews) / float64(row.ShortsCount)
	}
	if row.LongCount > 0 {
		row.AvgPerLong = float64(row.LongViews) / float64(row.LongCount)
	}
	row.BelowCutoff = row.ViewsPeriod < viewsCutoff
}

// ChannelDetails returns a channel's profile, aggregates, and top videos.
func (s *RankingService) ChannelDetails(ctx context.Context, channelID string) (*model.ChannelDetails, error) {
	key := "channel:" + channelID
	var cached model.ChannelDetails
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	ch, err := s.channels.Get(ctx, channelID)
	if err == sql.ErrNoRows {
		return nil, &model.NotFoundError{ChannelID: channelID}
	}
	if err != nil {
		return nil, err
	}

	stats, err := s.videos.ChannelStats(ctx, channelID)
	if err != nil {
		return nil, err
	}

	top, err := s.topVideos(ctx, channelID, 10)
	if err != nil {
		return nil, err
	}

	details := &model.ChannelDetails{
		ChannelID: ch.ChannelID,
		Title:     ch.Title,
		Handle:    ch.Handle,
		Country:   ch.Country,
		Brand:     ch.Brand,
		Stats:     stats,
		TopVideos: top,
	}

	// Top video is the overall best regardless of format; top short is the
	// best short even when no short makes the top-10 list.
	details.TopVideo, err = s.bestVideo(ctx, channelID, false)
	if err != nil {
		return nil, err
	}
	details.TopShort, err = s.bestVideo(ctx, channelID, true)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, details, channelTTL)
	return details, nil
}

// bestVideo returns the channel's highest-viewed video, restricted to shorts
// when shortsOnly is set. Nil when no matching video exists.
func (s *RankingService) bestVideo(ctx context.Context, channelID string, shortsOnly bool) (*model.Video, error) {
	query := `
		SELECT video_id, channel_id, title, published_at, duration_seconds,
		       is_short, is_live, last_view_count
		FROM videos
		WHERE channel_id = ?`
	if shortsOnly {
		query += ` AND is_short = 1`
	}
	query += `
		ORDER BY last_view_count DESC
		LIMIT 1`

	var v model.Video
	var isShort, isLive int
	err := s.db.QueryRowContext(ctx, query, channelID).Scan(
		&v.VideoID, &v.ChannelID, &v.Title, &v.PublishedAt,
		&v.DurationSeconds, &isShort, &isLive, &v.LastViewCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v.IsShort = isShort == 1
	v.IsLive = isLive == 1
	return &v, nil
}

func (s *RankingService) topVideos(ctx context.Context, channelID string, limit int) ([]model.Video, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT video_id, channel_id, title, published_at, duration_seconds,
		       is_short, is_live, last_view_count
		FROM videos
		WHERE channel_id = ?
		ORDER BY last_view_count DESC
		LIMIT ?`,
		channelID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos := make([]model.Video, 0, limit)
	for rows.Next() {
		var v model.Video
		var isShort, isLive int
		err := rows.Scan(&v.VideoID, &v.ChannelID, &v.Title, &v.PublishedAt,
			&v.DurationSeconds, &isShort, &isLive, &v.LastViewCount)
		if err != nil {
			return nil, err
		}
		v.IsShort = isShort == 1
		v.IsLive = isLive == 1
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// ChannelHistory returns up to days of the channel's daily aggregate series.
func (s *RankingService) ChannelHistory(ctx context.Context, channelID string, days int) ([]model.HistoryPoint, error) {
	key := fmt.Sprintf("history:%s:%d", channelID, days)
	var cached []model.HistoryPoint
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	if _, err := s.channels.Get(ctx, channelID); err != nil {
		if err == sql.ErrNoRows {
			return nil, &model.NotFoundError{ChannelID: channelID}
		}
		return nil, err
	}

	points, err := s.snapshots.ChannelHistory(ctx, channelID, days)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, points, channelTTL)
	return points, nil
}
