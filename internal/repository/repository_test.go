package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/db"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/model"
)

const testChannel = "UCrepo000000000000000000"

func openStore(t *testing.T) (*sql.DB, *ChannelRepo, *VideoRepo, *SnapshotRepo) {
	t.Helper()
	conn, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	channels := NewChannelRepo(conn)
	videos := NewVideoRepo(conn)
	snapshots := NewSnapshotRepo(conn, videos)
	return conn, channels, videos, snapshots
}

func seedVideos(t *testing.T, channels *ChannelRepo, videos *VideoRepo, recs ...model.VideoRecord) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, channels.Upsert(ctx, model.Channel{ChannelID: testChannel, Title: "Repo Channel"}))
	for i := range recs {
		recs[i].ChannelID = testChannel
	}
	require.NoError(t, videos.UpsertBatch(ctx, recs))
}

func rec(id string, isShort bool, views int64) model.VideoRecord {
	return model.VideoRecord{
		VideoID:         id,
		Title:           "video " + id,
		PublishedAt:     "2026-08-01T10:00:00Z",
		DurationSeconds: 300,
		IsShort:         isShort,
		ViewCount:       views,
	}
}

func TestSampleSize(t *testing.T) {
	cases := []struct {
		total, percent, want int
	}{
		{1000, 10, 100},
		{10, 10, 1},
		{5, 10, 1}, // floors at 1
		{3, 50, 1},
		{200, 25, 50},
	}
	for _, tc := range cases {
		if got := SampleSize(tc.total, tc.percent); got != tc.want {
			t.Errorf("SampleSize(%d, %d) = %d, want %d", tc.total, tc.percent, got, tc.want)
		}
	}
}

func TestUpsertBatchLastWriteWins(t *testing.T) {
	_, channels, videos, _ := openStore(t)
	ctx := context.Background()

	seedVideos(t, channels, videos, rec("v1", false, 100))

	updated := rec("v1", true, 250)
	updated.ChannelID = testChannel
	require.NoError(t, videos.UpsertBatch(ctx, []model.VideoRecord{updated}))

	stats, err := videos.ChannelStats(ctx, testChannel)
	require.NoError(t, err)
	assert.Equal(t, int64(250), stats.TotalViews)
	assert.Equal(t, 1, stats.TotalVideos)
	assert.Equal(t, 1, stats.ShortsCount)
}

func TestSaveVideoSnapshotFirstWriteWins(t *testing.T) {
	_, channels, videos, snapshots := openStore(t)
	ctx := context.Background()

	seedVideos(t, channels, videos, rec("v1", false, 100))

	require.NoError(t, snapshots.SaveVideoSnapshot(ctx, model.VideoSnapshot{
		VideoID: "v1", SnapshotDate: "2026-08-30", ViewCount: 100,
	}))
	require.NoError(t, snapshots.SaveVideoSnapshot(ctx, model.VideoSnapshot{
		VideoID: "v1", SnapshotDate: "2026-08-30", ViewCount: 999,
	}))

	views, err := snapshots.VideoSnapshot(ctx, "v1", "2026-08-30")
	require.NoError(t, err)
	require.NotNil(t, views)
	assert.Equal(t, int64(100), *views)
}

func TestCreateChannelSnapshotUpsertsPerDay(t *testing.T) {
	_, channels, videos, snapshots := openStore(t)
	ctx := context.Background()

	seedVideos(t, channels, videos, rec("v1", true, 100), rec("v2", false, 500))

	reported := int64(630)
	require.NoError(t, snapshots.CreateChannelSnapshot(ctx, testChannel, "2026-08-30", &reported))

	// Same day again with a new reported total replaces the row.
	reported = 660
	require.NoError(t, snapshots.CreateChannelSnapshot(ctx, testChannel, "2026-08-30", &reported))

	got, err := snapshots.ChannelSnapshot(ctx, testChannel, "2026-08-30")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(660), *got)
}

func TestDiffPercent(t *testing.T) {
	reported := int64(630)
	d := DiffPercent(600, &reported)
	require.NotNil(t, d)
	assert.InDelta(t, 4.76, *d, 0.01)

	assert.Nil(t, DiffPercent(600, nil))

	zero := int64(0)
	assert.Nil(t, DiffPercent(600, &zero))
}

func TestDeleteChannelCascades(t *testing.T) {
	conn, channels, videos, snapshots := openStore(t)
	ctx := context.Background()

	seedVideos(t, channels, videos, rec("v1", false, 100))
	require.NoError(t, snapshots.SaveVideoSnapshot(ctx, model.VideoSnapshot{
		VideoID: "v1", SnapshotDate: "2026-08-30", ViewCount: 100,
	}))
	reported := int64(100)
	require.NoError(t, snapshots.CreateChannelSnapshot(ctx, testChannel, "2026-08-30", &reported))

	require.NoError(t, channels.Delete(ctx, testChannel))

	for _, table := range []string{"videos", "channel_snapshots", "video_snapshots"} {
		var n int
		require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
		assert.Zero(t, n, "rows left in %s after cascade delete", table)
	}
}

func TestUpdateBrand(t *testing.T) {
	_, channels, videos, _ := openStore(t)
	ctx := context.Background()

	seedVideos(t, channels, videos, rec("v1", false, 100))

	ok, err := channels.UpdateBrand(ctx, "Repo Channel", "Acme")
	require.NoError(t, err)
	assert.True(t, ok)

	ch, err := channels.Get(ctx, testChannel)
	require.NoError(t, err)
	require.NotNil(t, ch.Brand)
	assert.Equal(t, "Acme", *ch.Brand)

	// Placeholder values clear the label instead of storing it.
	ok, err = channels.UpdateBrand(ctx, "Repo Channel", "?")
	require.NoError(t, err)
	assert.True(t, ok)

	ch, err = channels.Get(ctx, testChannel)
	require.NoError(t, err)
	assert.Nil(t, ch.Brand)

	ok, err = channels.UpdateBrand(ctx, "No Such Channel", "Acme")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepairMonotonicityBackfillsMissingReported(t *testing.T) {
	conn, channels, videos, snapshots := openStore(t)
	ctx := context.Background()

	seedVideos(t, channels, videos, rec("v1", false, 700))

	// A snapshot row without a reported total, as written before reported
	// totals were collected.
	_, err := conn.ExecContext(ctx, `
		INSERT INTO channel_snapshots (channel_id, snapshot_date, total_views)
		VALUES (?, '2026-08-01', 700)`, testChannel)
	require.NoError(t, err)

	fixed, err := snapshots.RepairMonotonicity(ctx, testChannel)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	got, err := snapshots.ChannelSnapshot(ctx, testChannel, "2026-08-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(700), *got)
}

func TestRotationSampleRespectsCutoff(t *testing.T) {
	_, channels, videos, _ := openStore(t)
	ctx := context.Background()

	old := rec("old1", false, 100)
	old.PublishedAt = "2020-01-01T10:00:00Z"
	old2 := rec("old2", false, 100)
	old2.PublishedAt = "2020-06-01T10:00:00Z"
	fresh := rec("fresh", false, 100)
	fresh.PublishedAt = "2026-08-20T10:00:00Z"
	seedVideos(t, channels, videos, old, old2, fresh)

	cutoff, err := time.Parse(time.RFC3339, "2026-06-01T00:00:00Z")
	require.NoError(t, err)

	sample, err := videos.RotationSample(ctx, testChannel, cutoff, 100)
	require.NoError(t, err)
	assert.Len(t, sample, 2)
	assert.NotContains(t, sample, "fresh")

	recent, err := videos.RecentIDs(ctx, testChannel, cutoff)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, recent)
}
