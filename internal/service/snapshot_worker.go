package service

import (
	"context"
	"time"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/lock"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/logging"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/model"
)

// SnapshotWorker is a periodic background job that reclaims stale locks and
// runs the daily snapshot sweep in-process, for deployments without an
// external scheduler. The sweep itself is idempotent per day, so overlapping
// with a cron-driven cmd/snapshots run is harmless.
type SnapshotWorker struct {
	collector *Collector
	locks     *lock.Manager
	interval  time.Duration
	stopCh    chan struct{}

	// Observe, when set, receives every sweep result. Used for metrics.
	Observe func(summary *model.SweepSummary, elapsed time.Duration)
}

// NewSnapshotWorker creates a worker that ticks every interval.
func NewSnapshotWorker(collector *Collector, locks *lock.Manager, interval time.Duration) *SnapshotWorker {
	return &SnapshotWorker{
		collector: collector,
		locks:     locks,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic sweep loop. It runs one tick immediately, then
// every interval, until the context is cancelled or Stop is called.
func (w *SnapshotWorker) Start(ctx context.Context) {
	logging.Logger.Info().Dur("interval", w.interval).Msg("snapshot worker starting")

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			logging.Logger.Info().Msg("snapshot worker stopping (context cancelled)")
			return
		case <-w.stopCh:
			logging.Logger.Info().Msg("snapshot worker stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *SnapshotWorker) Stop() {
	close(w.stopCh)
}

func (w *SnapshotWorker) tick(ctx context.Context) {
	if reclaimed := w.locks.ReclaimStale(); reclaimed > 0 {
		logging.Logger.Info().Int("reclaimed", reclaimed).Msg("snapshot worker reclaimed stale locks")
	}

	start := time.Now()
	summary, err := w.collector.CollectSnapshots(ctx, "")
	elapsed := time.Since(start)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("snapshot worker sweep failed")
		return
	}

	logging.Logger.Info().
		Str("status", summary.Status).
		Int("videos", summary.VideosSnapshotted).
		Dur("elapsed", elapsed).
		Msg("snapshot worker tick complete")

	if w.Observe != nil {
		w.Observe(summary, elapsed)
	}
}
