package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) the SQLite store at dbPath and initializes the
// schema. The parent directory is created if missing.
func Open(ctx context.Context, dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create db directory %s: %w", dir, err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}
	conn.SetMaxOpenConns(1) // SQLite: single writer

	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := initSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return conn, nil
}

func initSchema(ctx context.Context, conn *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS channels (
			channel_id          TEXT PRIMARY KEY,
			title               TEXT NOT NULL,
			handle              TEXT,
			country             TEXT,
			brand               TEXT,
			uploads_playlist_id TEXT,
			created_at          TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at          TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS videos (
			video_id         TEXT PRIMARY KEY,
			channel_id       TEXT NOT NULL,
			title            TEXT NOT NULL,
			published_at     TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL,
			is_short         INTEGER NOT NULL DEFAULT 0,
			is_live          INTEGER NOT NULL DEFAULT 0,
			last_view_count  INTEGER NOT NULL DEFAULT 0,
			last_fetched_at  TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (channel_id) REFERENCES channels(channel_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_channel_id ON videos(channel_id)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_channel_published ON videos(channel_id, published_at)`,
		`CREATE TABLE IF NOT EXISTS channel_snapshots (
			channel_id             TEXT NOT NULL,
			snapshot_date          TEXT NOT NULL,
			total_views            INTEGER NOT NULL DEFAULT 0,
			shorts_views           INTEGER NOT NULL DEFAULT 0,
			long_views             INTEGER NOT NULL DEFAULT 0,
			total_videos           INTEGER NOT NULL DEFAULT 0,
			shorts_videos          INTEGER NOT NULL DEFAULT 0,
			long_videos            INTEGER NOT NULL DEFAULT 0,
			reported_channel_views INTEGER,
			diff_percent           REAL,
			created_at             TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (channel_id, snapshot_date),
			FOREIGN KEY (channel_id) REFERENCES channels(channel_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_channel_date ON channel_snapshots(channel_id, snapshot_date)`,
		`CREATE TABLE IF NOT EXISTS video_snapshots (
			video_id      TEXT NOT NULL,
			snapshot_date TEXT NOT NULL,
			view_count    INTEGER NOT NULL,
			like_count    INTEGER,
			comment_count INTEGER,
			created_at    TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (video_id, snapshot_date),
			FOREIGN KEY (video_id) REFERENCES videos(video_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_video_snapshots_date ON video_snapshots(snapshot_date)`,
		`CREATE INDEX IF NOT EXISTS idx_video_snapshots_video_date ON video_snapshots(video_id, snapshot_date)`,
	}

	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
