package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/model"
)

type VideoRepo struct {
	db *sql.DB
}

func NewVideoRepo(db *sql.DB) *VideoRepo {
	return &VideoRepo{db: db}
}

// UpsertBatch inserts or replaces videos by ID. Every call overwrites the
// mutable fields unconditionally; last write wins.
func (r *VideoRepo) UpsertBatch(ctx context.Context, records []model.VideoRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert videos: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO videos (
			video_id, channel_id, title, published_at, duration_seconds,
			is_short, is_live, last_view_count, last_fetched_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(video_id) DO UPDATE SET
			title = excluded.title,
			duration_seconds = excluded.duration_seconds,
			is_short = excluded.is_short,
			is_live = excluded.is_live,
			last_view_count = excluded.last_view_count,
			last_fetched_at = excluded.last_fetched_at`)
	if err != nil {
		return fmt.Errorf("upsert videos: %w", err)
	}
	defer stmt.Close()

	for _, v := range records {
		_, err := stmt.ExecContext(ctx,
			v.VideoID, v.ChannelID, v.Title, v.PublishedAt, v.DurationSeconds,
			boolToInt(v.IsShort), boolToInt(v.IsLive), v.ViewCount)
		if err != nil {
			return fmt.Errorf("upsert video %s: %w", v.VideoID, err)
		}
	}

	return tx.Commit()
}

// Count returns the total number of stored videos across all channels.
func (r *VideoRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&n)
	return n, err
}

// ExistingIDs returns the set of video IDs already stored for a channel.
func (r *VideoRepo) ExistingIDs(ctx context.Context, channelID string) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT video_id FROM videos WHERE channel_id = ?`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// AllIDs returns every stored video ID for a channel, newest first.
func (r *VideoRepo) AllIDs(ctx context.Context, channelID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT video_id FROM videos WHERE channel_id = ? ORDER BY published_at DESC`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecentIDs returns the IDs of videos published at or after cutoff. These are
// re-fetched every incremental run because their views are still growing.
func (r *VideoRepo) RecentIDs(ctx context.Context, channelID string, cutoff time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT video_id FROM videos
		WHERE channel_id = ? AND published_at >= ?
		ORDER BY published_at DESC`,
		channelID, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RotationSample returns a uniform random sample of videos published before
// cutoff: percent% of them, minimum 1 when any exist. The rotation keeps
// long-tail ranking data from going permanently stale without re-fetching the
// whole catalog on every run.
func (r *VideoRepo) RotationSample(ctx context.Context, channelID string, cutoff time.Time, percent int) ([]string, error) {
	cutoffStr := cutoff.UTC().Format(time.RFC3339)

	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM videos
		WHERE channel_id = ? AND published_at < ?`,
		channelID, cutoffStr).Scan(&total)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	limit := SampleSize(total, percent)

	rows, err := r.db.QueryContext(ctx, `
		SELECT video_id FROM videos
		WHERE channel_id = ? AND published_at < ?
		ORDER BY RANDOM()
		LIMIT ?`,
		channelID, cutoffStr, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SampleSize is the rotation-sample sizing rule: percent% of total, never
// fewer than 1.
func SampleSize(total, percent int) int {
	n := total * percent / 100
	if n < 1 {
		n = 1
	}
	return n
}

// ChannelStats aggregates current video rows for a channel, zero-filled when
// the channel has no videos.
func (r *VideoRepo) ChannelStats(ctx context.Context, channelID string) (model.ChannelStats, error) {
	query := `
		SELECT
			COALESCE(SUM(last_view_count), 0)                                      AS total_views,
			COALESCE(SUM(CASE WHEN is_short = 1 THEN last_view_count ELSE 0 END), 0) AS shorts_views,
			COALESCE(SUM(CASE WHEN is_short = 0 THEN last_view_count ELSE 0 END), 0) AS long_views,
			COUNT(*)                                                               AS total_videos,
			COALESCE(SUM(is_short), 0)                                             AS shorts_count,
			COALESCE(SUM(CASE WHEN is_short = 0 THEN 1 ELSE 0 END), 0)             AS long_count
		FROM videos
		WHERE channel_id = ?`

	var s model.ChannelStats
	err := r.db.QueryRowContext(ctx, query, channelID).Scan(
		&s.TotalViews, &s.ShortsViews, &s.LongViews,
		&s.TotalVideos, &s.ShortsCount, &s.LongCount,
	)
	if err != nil {
		return model.ChannelStats{}, fmt.Errorf("channel stats %s: %w", channelID, err)
	}
	return s, nil
}

// ReclassifyAll re-scores the is_short flag of every stored video with the
// given rule. Idempotent: running it twice with the same rule changes nothing
// on the second pass. Returns (changed to short, changed to long).
func (r *VideoRepo) ReclassifyAll(ctx context.Context, rule func(durationSeconds int) bool) (int, int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT video_id, duration_seconds, is_short FROM videos`)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	type change struct {
		videoID string
		isShort bool
	}
	var changes []change
	for rows.Next() {
		var id string
		var duration, isShort int
		if err := rows.Scan(&id, &duration, &isShort); err != nil {
			return 0, 0, err
		}
		want := rule(duration)
		if want != (isShort == 1) {
			changes = append(changes, change{videoID: id, isShort: want})
		}
	}
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}

	var toShort, toLong int
	for _, c := range changes {
		_, err := r.db.ExecContext(ctx,
			`UPDATE videos SET is_short = ? WHERE video_id = ?`, boolToInt(c.isShort), c.videoID)
		if err != nil {
			return toShort, toLong, fmt.Errorf("reclassify video %s: %w", c.videoID, err)
		}
		if c.isShort {
			toShort++
		} else {
			toLong++
		}
	}
	return toShort, toLong, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
