package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/model"
)

type ChannelRepo struct {
	db *sql.DB
}

func NewChannelRepo(db *sql.DB) *ChannelRepo {
	return &ChannelRepo{db: db}
}

// Upsert inserts or replaces a channel by its ID, refreshing updated_at.
func (r *ChannelRepo) Upsert(ctx context.Context, ch model.Channel) error {
	query := `
		INSERT INTO channels (channel_id, title, handle, country, uploads_playlist_id, updated_at)
		VALUES (?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(channel_id) DO UPDATE SET
			title = excluded.title,
			handle = excluded.handle,
			country = excluded.country,
			uploads_playlist_id = excluded.uploads_playlist_id,
			updated_at = datetime('now')`

	_, err := r.db.ExecContext(ctx, query,
		ch.ChannelID, ch.Title, ch.Handle, ch.Country, ch.UploadsPlaylistID)
	if err != nil {
		return fmt.Errorf("upsert channel %s: %w", ch.ChannelID, err)
	}
	return nil
}

// Get returns a single channel by its ID, or sql.ErrNoRows.
func (r *ChannelRepo) Get(ctx context.Context, channelID string) (*model.Channel, error) {
	query := `
		SELECT channel_id, title, handle, country, brand, uploads_playlist_id
		FROM channels
		WHERE channel_id = ?`

	var ch model.Channel
	err := r.db.QueryRowContext(ctx, query, channelID).Scan(
		&ch.ChannelID, &ch.Title, &ch.Handle, &ch.Country, &ch.Brand, &ch.UploadsPlaylistID,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// List returns all tracked channels ordered by least recently updated, so a
// fleet run that dies mid-way prioritizes the stalest channels next time.
func (r *ChannelRepo) List(ctx context.Context) ([]model.Channel, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT channel_id, title, handle, country, brand, uploads_playlist_id
		FROM channels
		ORDER BY updated_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []model.Channel
	for rows.Next() {
		var ch model.Channel
		err := rows.Scan(&ch.ChannelID, &ch.Title, &ch.Handle, &ch.Country, &ch.Brand, &ch.UploadsPlaylistID)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// UpdateBrand sets (or clears) the sponsor/brand label for a channel matched
// by title. Returns false when no channel matched.
func (r *ChannelRepo) UpdateBrand(ctx context.Context, title, brand string) (bool, error) {
	var val any
	if brand != "" && brand != "?" && brand != "-" {
		val = brand
	}
	res, err := r.db.ExecContext(ctx, `UPDATE channels SET brand = ? WHERE title = ?`, val, title)
	if err != nil {
		return false, fmt.Errorf("update brand for %q: %w", title, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the channel row; videos and snapshots go with it via
// ON DELETE CASCADE.
func (r *ChannelRepo) Delete(ctx context.Context, channelID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM channels WHERE channel_id = ?`, channelID)
	if err != nil {
		return fmt.Errorf("delete channel %s: %w", channelID, err)
	}
	return nil
}
