// Package lock provides per-channel advisory file locks. Locks are
// non-blocking: a second acquire for the same channel fails fast instead of
// waiting, so two processes never interleave reads-then-writes on the same
// channel's video set. Coordination is single-host only.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/logging"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/model"
)

// Manager creates and reclaims lock files in a single directory, one file
// per channel identifier.
type Manager struct {
	dir    string
	maxAge time.Duration
}

func NewManager(dir string, maxAge time.Duration) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory %s: %w", dir, err)
	}
	return &Manager{dir: dir, maxAge: maxAge}, nil
}

// Acquire takes the advisory lock for a channel. It returns a release
// function that must be called on every exit path, or a
// ConcurrentUpdateError when another process holds the lock.
func (m *Manager) Acquire(channelID string) (release func(), err error) {
	path := m.lockPath(channelID)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil, &model.ConcurrentUpdateError{ChannelID: channelID}
	}
	if err != nil {
		return nil, fmt.Errorf("acquire lock for %s: %w", channelID, err)
	}

	fmt.Fprintf(f, "pid=%d acquired=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	f.Close()

	return func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Logger.Warn().Err(err).Str("channel_id", channelID).Msg("failed to release lock")
		}
	}, nil
}

// ReclaimStale removes lock files older than the configured age. A crashed
// process leaves its lock behind; the janitor keeps that from blocking the
// channel forever.
func (m *Manager) ReclaimStale() int {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		logging.Logger.Warn().Err(err).Str("dir", m.dir).Msg("lock janitor: read dir failed")
		return 0
	}

	removed := 0
	cutoff := time.Now().Add(-m.maxAge)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lock" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(m.dir, entry.Name())); err == nil {
				logging.Logger.Info().Str("lock", entry.Name()).Msg("removed stale lock file")
				removed++
			}
		}
	}
	return removed
}

func (m *Manager) lockPath(channelID string) string {
	return filepath.Join(m.dir, channelID+".lock")
}
