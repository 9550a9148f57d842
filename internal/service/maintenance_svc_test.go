package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/model"
)

func TestRepairMonotonicity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedHistoryChannel(t, chA, "Alpha")

	// Reported totals dip on day two, which a true counter cannot do.
	seedReported(t, env, chA, "2026-08-01", 5000)
	seedReported(t, env, chA, "2026-08-02", 4000)
	seedReported(t, env, chA, "2026-08-03", 6000)

	svc := NewMaintenanceService(env.channels, env.videos, env.snapshots)
	fixed, err := svc.RepairMonotonicity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	mid, err := env.snapshots.ChannelSnapshot(ctx, chA, "2026-08-02")
	require.NoError(t, err)
	require.NotNil(t, mid)
	assert.Equal(t, int64(5000), *mid)

	// Idempotent: a second pass finds nothing to fix.
	fixed, err = svc.RepairMonotonicity(ctx)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}

func TestReclassifyByDuration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedHistoryChannel(t, chA, "Alpha")
	recs := []model.VideoRecord{
		videoRecord("r1", "2026-08-01T10:00:00Z", 120, false, 100), // short by duration, stored long
		videoRecord("r2", "2026-08-01T10:00:00Z", 600, true, 100),  // long by duration, stored short
		videoRecord("r3", "2026-08-01T10:00:00Z", 60, true, 100),   // already correct
	}
	for i := range recs {
		recs[i].ChannelID = chA
	}
	require.NoError(t, env.videos.UpsertBatch(ctx, recs))

	svc := NewMaintenanceService(env.channels, env.videos, env.snapshots)
	toShort, toLong, err := svc.ReclassifyByDuration(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, toShort)
	assert.Equal(t, 1, toLong)

	stats, err := env.videos.ChannelStats(ctx, chA)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ShortsCount)
	assert.Equal(t, 1, stats.LongCount)
}

func (e *testEnv) seedHistoryChannel(t *testing.T, id, title string) {
	t.Helper()
	require.NoError(t, e.channels.Upsert(context.Background(), model.Channel{ChannelID: id, Title: title}))
}

func seedReported(t *testing.T, env *testEnv, channelID, date string, reported int64) {
	t.Helper()
	require.NoError(t, env.snapshots.CreateChannelSnapshot(context.Background(), channelID, date, &reported))
}
