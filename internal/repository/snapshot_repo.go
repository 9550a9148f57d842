package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/model"
)

// SnapshotRepo owns the two time-series tables. Video snapshots are
// write-once per (video, date); channel snapshots are upsert-per-day.
type SnapshotRepo struct {
	db     *sql.DB
	videos *VideoRepo
}

func NewSnapshotRepo(db *sql.DB, videos *VideoRepo) *SnapshotRepo {
	return &SnapshotRepo{db: db, videos: videos}
}

// CreateChannelSnapshot computes the channel's current aggregates and upserts
// the (channel, date) row. Repeated calls on the same date replace the values,
// so re-running a collection day is idempotent.
func (r *SnapshotRepo) CreateChannelSnapshot(ctx context.Context, channelID, date string, reportedViews *int64) error {
	stats, err := r.videos.ChannelStats(ctx, channelID)
	if err != nil {
		return err
	}

	diff := DiffPercent(stats.TotalViews, reportedViews)

	query := `
		INSERT INTO channel_snapshots (
			channel_id, snapshot_date, total_views, shorts_views, long_views,
			total_videos, shorts_videos, long_videos, reported_channel_views, diff_percent
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel_id, snapshot_date) DO UPDATE SET
			total_views = excluded.total_views,
			shorts_views = excluded.shorts_views,
			long_views = excluded.long_views,
			total_videos = excluded.total_videos,
			shorts_videos = excluded.shorts_videos,
			long_videos = excluded.long_videos,
			reported_channel_views = excluded.reported_channel_views,
			diff_percent = excluded.diff_percent,
			created_at = datetime('now')`

	_, err = r.db.ExecContext(ctx, query,
		channelID, date,
		stats.TotalViews, stats.ShortsViews, stats.LongViews,
		stats.TotalVideos, stats.ShortsCount, stats.LongCount,
		reportedViews, diff)
	if err != nil {
		return fmt.Errorf("create channel snapshot %s@%s: %w", channelID, date, err)
	}
	return nil
}

// DiffPercent is the divergence between the aggregated video total and the
// platform-reported channel total. Nil when no positive reported value is
// available. A data-quality signal, not an error.
func DiffPercent(calculated int64, reported *int64) *float64 {
	if reported == nil || *reported <= 0 {
		return nil
	}
	d := math.Abs(float64(calculated-*reported)) / float64(*reported) * 100
	return &d
}

// SaveVideoSnapshot records a video's counts for a date. Insert-if-absent:
// a second write for the same (video, date) is a no-op, preserving the
// first-observed-that-day value.
func (r *SnapshotRepo) SaveVideoSnapshot(ctx context.Context, snap model.VideoSnapshot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO video_snapshots
			(video_id, snapshot_date, view_count, like_count, comment_count)
		VALUES (?, ?, ?, ?, ?)`,
		snap.VideoID, snap.SnapshotDate, snap.ViewCount, snap.LikeCount, snap.CommentCount)
	if err != nil {
		return fmt.Errorf("save video snapshot %s@%s: %w", snap.VideoID, snap.SnapshotDate, err)
	}
	return nil
}

// VideoSnapshot returns the view count observed for a video on a date, or nil
// when no snapshot exists.
func (r *SnapshotRepo) VideoSnapshot(ctx context.Context, videoID, date string) (*int64, error) {
	var views int64
	err := r.db.QueryRowContext(ctx, `
		SELECT view_count FROM video_snapshots
		WHERE video_id = ? AND snapshot_date = ?`,
		videoID, date).Scan(&views)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &views, nil
}

// ChannelSnapshot returns the reported channel view count for a date, or nil
// when no snapshot (or no reported value) exists.
func (r *SnapshotRepo) ChannelSnapshot(ctx context.Context, channelID, date string) (*int64, error) {
	var views *int64
	err := r.db.QueryRowContext(ctx, `
		SELECT reported_channel_views FROM channel_snapshots
		WHERE channel_id = ? AND snapshot_date = ?`,
		channelID, date).Scan(&views)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return views, nil
}

// LatestSnapshotDate returns the most recent video snapshot date, or "" when
// the store holds none.
func (r *SnapshotRepo) LatestSnapshotDate(ctx context.Context) (string, error) {
	var date sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(snapshot_date) FROM video_snapshots`).Scan(&date)
	if err != nil {
		return "", err
	}
	return date.String, nil
}

// Coverage reports how much snapshot history the store holds.
func (r *SnapshotRepo) Coverage(ctx context.Context) (model.SnapshotCoverage, error) {
	var cov model.SnapshotCoverage
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT video_id), COUNT(DISTINCT snapshot_date)
		FROM video_snapshots`).Scan(&cov.TotalSnapshots, &cov.VideosTracked, &cov.UniqueDates)
	if err != nil {
		return model.SnapshotCoverage{}, err
	}
	cov.LatestDate, err = r.LatestSnapshotDate(ctx)
	if err != nil {
		return model.SnapshotCoverage{}, err
	}
	return cov, nil
}

// ChannelHistory returns up to days of the channel's daily aggregates,
// oldest first.
func (r *SnapshotRepo) ChannelHistory(ctx context.Context, channelID string, days int) ([]model.HistoryPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT snapshot_date, total_views, shorts_views, long_views,
		       total_videos, shorts_videos, long_videos
		FROM channel_snapshots
		WHERE channel_id = ?
		  AND snapshot_date >= date('now', '-' || ? || ' days')
		ORDER BY snapshot_date ASC`,
		channelID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []model.HistoryPoint
	for rows.Next() {
		var p model.HistoryPoint
		err := rows.Scan(&p.SnapshotDate, &p.TotalViews, &p.ShortsViews, &p.LongViews,
			&p.TotalVideos, &p.ShortsVideos, &p.LongVideos)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// RepairMonotonicity walks a channel's snapshots in date order and clamps any
// reported total below the running maximum up to that maximum. True view
// counts cannot fall, so a decrease is a platform-reported inconsistency. A
// missing or zero reported value is backfilled from the aggregated total.
// Clamping is a lossy approximation; every corrected row is returned to the
// caller so it can be logged before the history stops being anomalous.
// Idempotent: a second pass over repaired data changes nothing.
func (r *SnapshotRepo) RepairMonotonicity(ctx context.Context, channelID string) (int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT snapshot_date, reported_channel_views, total_views
		FROM channel_snapshots
		WHERE channel_id = ?
		ORDER BY snapshot_date ASC`,
		channelID)
	if err != nil {
		return 0, err
	}

	type fix struct {
		date  string
		value int64
	}
	var fixes []fix
	var maxViews int64
	for rows.Next() {
		var date string
		var reported *int64
		var total int64
		if err := rows.Scan(&date, &reported, &total); err != nil {
			rows.Close()
			return 0, err
		}

		current := total
		if reported != nil && *reported != 0 {
			current = *reported
		}

		switch {
		case current < maxViews:
			fixes = append(fixes, fix{date: date, value: maxViews})
		default:
			if current > 0 {
				maxViews = current
			}
			if reported == nil || *reported != current {
				fixes = append(fixes, fix{date: date, value: current})
			}
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	for _, f := range fixes {
		_, err := r.db.ExecContext(ctx, `
			UPDATE channel_snapshots
			SET reported_channel_views = ?
			WHERE channel_id = ? AND snapshot_date = ?`,
			f.value, channelID, f.date)
		if err != nil {
			return 0, fmt.Errorf("repair snapshot %s@%s: %w", channelID, f.date, err)
		}
	}
	return len(fixes), nil
}
