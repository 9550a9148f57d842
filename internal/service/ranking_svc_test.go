package service

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/db"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/model"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/repository"
)

type rankingEnv struct {
	db        *sql.DB
	channels  *repository.ChannelRepo
	videos    *repository.VideoRepo
	snapshots *repository.SnapshotRepo
	ranking   *RankingService
}

func newRankingEnv(t *testing.T) *rankingEnv {
	t.Helper()

	conn, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	channels := repository.NewChannelRepo(conn)
	videos := repository.NewVideoRepo(conn)
	snapshots := repository.NewSnapshotRepo(conn, videos)
	cache := NewCacheService("")

	return &rankingEnv{
		db:        conn,
		channels:  channels,
		videos:    videos,
		snapshots: snapshots,
		ranking:   NewRankingService(conn, channels, videos, snapshots, cache),
	}
}

func (e *rankingEnv) seedChannel(t *testing.T, id, title string, videos ...model.VideoRecord) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.channels.Upsert(ctx, model.Channel{ChannelID: id, Title: title}))
	for i := range videos {
		videos[i].ChannelID = id
	}
	require.NoError(t, e.videos.UpsertBatch(ctx, videos))
}

func (e *rankingEnv) seedVideoSnapshot(t *testing.T, videoID, date string, views int64) {
	t.Helper()
	require.NoError(t, e.snapshots.SaveVideoSnapshot(context.Background(), model.VideoSnapshot{
		VideoID:      videoID,
		SnapshotDate: date,
		ViewCount:    views,
	}))
}

func (e *rankingEnv) seedChannelSnapshot(t *testing.T, channelID, date string, reported int64) {
	t.Helper()
	require.NoError(t, e.snapshots.CreateChannelSnapshot(context.Background(), channelID, date, &reported))
}

const (
	chA = "UCaaaaaaaaaaaaaaaaaaaaaa"
	chB = "UCbbbbbbbbbbbbbbbbbbbbbb"
)

func TestCompareRejectsUnknownMethodology(t *testing.T) {
	env := newRankingEnv(t)

	_, err := env.ranking.Compare(context.Background(), "views", []string{chA}, "2026-08-01", "2026-08-30")
	require.ErrorIs(t, err, ErrUnknownMethodology)
}

func TestComparePublished(t *testing.T) {
	env := newRankingEnv(t)
	env.seedChannel(t, chA, "Alpha",
		videoRecord("a1", "2026-08-10T10:00:00Z", 60, true, 400_000),
		videoRecord("a2", "2026-08-15T10:00:00Z", 600, false, 2_000_000),
		videoRecord("a3", "2026-05-01T10:00:00Z", 600, false, 9_000_000), // outside window
	)
	env.seedChannel(t, chB, "Beta",
		videoRecord("b1", "2026-08-20T10:00:00Z", 600, false, 500_000),
	)

	rows, err := env.ranking.Compare(context.Background(),
		model.MethodologyPublished, []string{chB, chA}, "2026-08-01", "2026-08-31")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Sorted by period views, highest first, regardless of input order.
	assert.Equal(t, chA, rows[0].ChannelID)
	assert.Equal(t, int64(2_400_000), rows[0].ViewsPeriod)
	assert.Equal(t, int64(400_000), rows[0].ShortsViews)
	assert.Equal(t, int64(2_000_000), rows[0].LongViews)
	assert.Equal(t, 2, rows[0].TotalVideos)
	assert.False(t, rows[0].BelowCutoff)

	// Weighted total discounts shorts: 2_000_000 + 0.25×400_000.
	assert.InDelta(t, 2_100_000, rows[0].WeightedViews, 0.001)
	assert.InDelta(t, 1_200_000, rows[0].AvgPerContent, 0.001)

	assert.Equal(t, chB, rows[1].ChannelID)
	assert.Equal(t, int64(500_000), rows[1].ViewsPeriod)
	assert.True(t, rows[1].BelowCutoff)
}

func TestCompareKeepsUnknownChannel(t *testing.T) {
	env := newRankingEnv(t)
	env.seedChannel(t, chA, "Alpha",
		videoRecord("a1", "2026-08-10T10:00:00Z", 600, false, 100),
	)

	const unknown = "UCunknown000000000000000"
	rows, err := env.ranking.Compare(context.Background(),
		model.MethodologyPublished, []string{chA, unknown}, "2026-08-01", "2026-08-31")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Unknown channels come back as zeroed rows with the ID as the title.
	assert.Equal(t, chA, rows[0].ChannelID)
	assert.Equal(t, unknown, rows[1].ChannelID)
	assert.Equal(t, unknown, rows[1].Title)
	assert.Zero(t, rows[1].ViewsPeriod)
	assert.Zero(t, rows[1].TotalVideos)
}

func TestCompareVideoDelta(t *testing.T) {
	env := newRankingEnv(t)
	env.seedChannel(t, chA, "Alpha",
		videoRecord("a1", "2026-07-01T10:00:00Z", 600, false, 1200),
		videoRecord("a2", "2026-07-01T10:00:00Z", 60, true, 900),
		videoRecord("a3", "2026-07-01T10:00:00Z", 600, false, 50), // no end snapshot
	)

	env.seedVideoSnapshot(t, "a1", "2026-08-01", 1000)
	env.seedVideoSnapshot(t, "a1", "2026-08-30", 1200)
	env.seedVideoSnapshot(t, "a2", "2026-08-01", 1000)
	env.seedVideoSnapshot(t, "a2", "2026-08-30", 900) // decreased, clamps to 0
	env.seedVideoSnapshot(t, "a3", "2026-08-01", 40)

	rows, err := env.ranking.Compare(context.Background(),
		model.MethodologyVideoDelta, []string{chA}, "2026-08-01", "2026-08-30")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, int64(200), row.ViewsPeriod)
	assert.Equal(t, int64(200), row.LongViews)
	assert.Equal(t, int64(0), row.ShortsViews)
	assert.Equal(t, 2, row.VideosWithData)
	assert.Equal(t, 1, row.VideosSkipped)

	// Counts and averages cover only the measured set.
	assert.Equal(t, 2, row.TotalVideos)
	assert.InDelta(t, 100.0, row.AvgPerContent, 0.001)
	assert.True(t, row.BelowCutoff)
}

func TestCompareChannelDelta(t *testing.T) {
	env := newRankingEnv(t)
	env.seedChannel(t, chA, "Alpha",
		videoRecord("a1", "2026-07-01T10:00:00Z", 600, false, 6000),
	)
	env.seedChannelSnapshot(t, chA, "2026-08-01", 5000)
	env.seedChannelSnapshot(t, chA, "2026-08-30", 6000)

	// Beta has only one of the two snapshots.
	env.seedChannel(t, chB, "Beta",
		videoRecord("b1", "2026-07-01T10:00:00Z", 600, false, 100),
	)
	env.seedChannelSnapshot(t, chB, "2026-08-01", 100)

	rows, err := env.ranking.Compare(context.Background(),
		model.MethodologyChannelDelta, []string{chA, chB}, "2026-08-01", "2026-08-30")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	alpha := rows[0]
	assert.Equal(t, chA, alpha.ChannelID)
	assert.Equal(t, int64(5000), alpha.ViewsStart)
	assert.Equal(t, int64(6000), alpha.ViewsEnd)
	assert.Equal(t, int64(1000), alpha.ViewsPeriod)
	assert.InDelta(t, 20.0, alpha.GrowthPercent, 0.001)
	assert.False(t, alpha.MissingSnapshots)

	beta := rows[1]
	assert.Equal(t, chB, beta.ChannelID)
	assert.True(t, beta.MissingSnapshots)
	assert.Zero(t, beta.ViewsPeriod)
	assert.Zero(t, beta.GrowthPercent)
}

func TestCompareChannelDeltaClampsDecrease(t *testing.T) {
	env := newRankingEnv(t)
	env.seedChannel(t, chA, "Alpha",
		videoRecord("a1", "2026-07-01T10:00:00Z", 600, false, 100),
	)
	env.seedChannelSnapshot(t, chA, "2026-08-01", 6000)
	env.seedChannelSnapshot(t, chA, "2026-08-30", 5000)

	rows, err := env.ranking.Compare(context.Background(),
		model.MethodologyChannelDelta, []string{chA}, "2026-08-01", "2026-08-30")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(0), rows[0].ViewsPeriod)
	assert.Zero(t, rows[0].GrowthPercent)
}

func TestCompareChannelDeltaZeroStart(t *testing.T) {
	env := newRankingEnv(t)
	env.seedChannel(t, chA, "Alpha",
		videoRecord("a1", "2026-07-01T10:00:00Z", 600, false, 100),
	)
	env.seedChannelSnapshot(t, chA, "2026-08-01", 0)
	env.seedChannelSnapshot(t, chA, "2026-08-30", 500)

	rows, err := env.ranking.Compare(context.Background(),
		model.MethodologyChannelDelta, []string{chA}, "2026-08-01", "2026-08-30")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// Growth percent is undefined from a zero base; reported as 0.
	assert.Equal(t, int64(500), rows[0].ViewsPeriod)
	assert.Zero(t, rows[0].GrowthPercent)
}

func TestGlobalRanking(t *testing.T) {
	env := newRankingEnv(t)
	env.seedChannel(t, chA, "Alpha",
		videoRecord("a1", "2026-08-10T10:00:00Z", 600, false, 1000),
	)
	env.seedChannel(t, chB, "Beta",
		videoRecord("b1", "2026-08-10T10:00:00Z", 600, false, 3000),
		videoRecord("b2", "2026-08-11T10:00:00Z", 60, true, 500),
	)

	entries, err := env.ranking.GlobalRanking(context.Background(), 50, 0, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, chB, entries[0].ChannelID)
	assert.Equal(t, int64(3500), entries[0].TotalViews)
	assert.Equal(t, int64(500), entries[0].ShortsViews)
	assert.Equal(t, 2, entries[0].TotalVideos)

	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, chA, entries[1].ChannelID)

	// Search filters by title.
	filtered, err := env.ranking.GlobalRanking(context.Background(), 50, 0, "Alp")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, chA, filtered[0].ChannelID)

	total, err := env.ranking.TotalChannels(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestChannelDetails(t *testing.T) {
	env := newRankingEnv(t)
	env.seedChannel(t, chA, "Alpha",
		videoRecord("a1", "2026-08-10T10:00:00Z", 600, false, 5000),
		videoRecord("a2", "2026-08-11T10:00:00Z", 60, true, 3000),
		videoRecord("a3", "2026-08-12T10:00:00Z", 600, false, 1000),
	)

	details, err := env.ranking.ChannelDetails(context.Background(), chA)
	require.NoError(t, err)

	assert.Equal(t, "Alpha", details.Title)
	assert.Equal(t, int64(9000), details.Stats.TotalViews)
	require.NotNil(t, details.TopVideo)
	assert.Equal(t, "a1", details.TopVideo.VideoID)
	require.NotNil(t, details.TopShort)
	assert.Equal(t, "a2", details.TopShort.VideoID)
	assert.Len(t, details.TopVideos, 3)
	assert.Equal(t, "a1", details.TopVideos[0].VideoID)
}

func TestChannelDetailsTopShortBelowTopTen(t *testing.T) {
	env := newRankingEnv(t)

	// Ten long videos all outrank the channel's only short.
	vids := make([]model.VideoRecord, 0, 11)
	for i := 0; i < 10; i++ {
		vids = append(vids, videoRecord(fmt.Sprintf("l%d", i), "2026-08-10T10:00:00Z", 600, false, int64(100_000+i)))
	}
	vids = append(vids, videoRecord("s1", "2026-08-11T10:00:00Z", 60, true, 50))
	env.seedChannel(t, chA, "Alpha", vids...)

	details, err := env.ranking.ChannelDetails(context.Background(), chA)
	require.NoError(t, err)

	// The best short is reported even though it misses the top-10 list.
	require.NotNil(t, details.TopShort)
	assert.Equal(t, "s1", details.TopShort.VideoID)
	assert.Len(t, details.TopVideos, 10)
	for _, v := range details.TopVideos {
		assert.NotEqual(t, "s1", v.VideoID)
	}
}

func TestChannelDetailsTopVideoCanBeShort(t *testing.T) {
	env := newRankingEnv(t)
	env.seedChannel(t, chA, "Alpha",
		videoRecord("s1", "2026-08-10T10:00:00Z", 60, true, 9_000_000),
		videoRecord("l1", "2026-08-11T10:00:00Z", 600, false, 1_000),
	)

	details, err := env.ranking.ChannelDetails(context.Background(), chA)
	require.NoError(t, err)

	// Top video has no format filter: a short can hold the spot.
	require.NotNil(t, details.TopVideo)
	assert.Equal(t, "s1", details.TopVideo.VideoID)
	assert.True(t, details.TopVideo.IsShort)
	require.NotNil(t, details.TopShort)
	assert.Equal(t, "s1", details.TopShort.VideoID)
}

func TestChannelDetailsNotFound(t *testing.T) {
	env := newRankingEnv(t)

	_, err := env.ranking.ChannelDetails(context.Background(), "UCmissing000000000000000")
	var nfErr *model.NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestChannelHistory(t *testing.T) {
	env := newRankingEnv(t)
	env.seedChannel(t, chA, "Alpha",
		videoRecord("a1", "2026-07-01T10:00:00Z", 600, false, 1000),
	)

	// Relative dates so the 30-day window query catches them.
	env.seedChannelSnapshot(t, chA, daysAgo(0), 1000)
	env.seedChannelSnapshot(t, chA, daysAgo(1), 900)

	points, err := env.ranking.ChannelHistory(context.Background(), chA, 30)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, daysAgo(1), points[0].SnapshotDate)
	assert.Equal(t, daysAgo(0), points[1].SnapshotDate)
}

func daysAgo(n int) string {
	return time.Now().UTC().AddDate(0, 0, -n).Format("2006-01-02")
}
