package model

// Methodology is a closed set of ranking computations. Each value dispatches
// to exactly one implementation; new methodologies extend the set without
// touching existing branches.
type Methodology string

const (
	// MethodologyPublished sums lifetime views of videos published in the
	// window. Measures content output, not growth.
	MethodologyPublished Methodology = "published"
	// MethodologyVideoDelta sums per-video snapshot deltas between two
	// dates. Measures actual growth of all tracked content.
	MethodologyVideoDelta Methodology = "video_delta"
	// MethodologyChannelDelta diffs the platform-reported channel totals
	// between two dates. Independent of per-video tracking completeness.
	MethodologyChannelDelta Methodology = "channel_delta"
)

// Valid reports whether m is a known methodology.
func (m Methodology) Valid() bool {
	switch m {
	case MethodologyPublished, MethodologyVideoDelta, MethodologyChannelDelta:
		return true
	}
	return false
}

// RankingEntry is one row of the global ranking.
type RankingEntry struct {
	Rank        int     `json:"rank"`
	ChannelID   string  `json:"channelId"`
	Title       string  `json:"title"`
	Handle      *string `json:"handle,omitempty"`
	Brand       *string `json:"brand,omitempty"`
	TotalViews  int64   `json:"totalViews"`
	ShortsViews int64   `json:"shortsViews"`
	LongViews   int64   `json:"longViews"`
	TotalVideos int     `json:"totalVideos"`
	ShortsCount int     `json:"shortsCount"`
	LongCount   int     `json:"longCount"`
	LastUpdate  string  `json:"lastUpdate,omitempty"`
}

// ComparisonRow is one channel's result for a comparison/delta query.
// Views fields hold lifetime sums for the published methodology and deltas
// for the two growth methodologies. The derived metrics carry no persistence
// contract; they are recomputed on every query.
type ComparisonRow struct {
	ChannelID   string  `json:"channelId"`
	Title       string  `json:"title"`
	Brand       *string `json:"brand,omitempty"`
	ShortsViews int64   `json:"shortsViews"`
	LongViews   int64   `json:"longViews"`
	ViewsPeriod int64   `json:"viewsPeriod"`
	ShortsCount int     `json:"shortsCount"`
	LongCount   int     `json:"longCount"`
	TotalVideos int     `json:"totalVideos"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`

	// Per-video delta diagnostics.
	VideosWithData int `json:"videosWithData,omitempty"`
	VideosSkipped  int `json:"videosSkipped,omitempty"`

	// Per-channel delta fields (reported totals).
	ViewsStart       int64   `json:"viewsStart,omitempty"`
	ViewsEnd         int64   `json:"viewsEnd,omitempty"`
	GrowthPercent    float64 `json:"growthPercent,omitempty"`
	MissingSnapshots bool    `json:"missingSnapshots,omitempty"`

	// Derived metrics for downstream badge/labeling logic.
	WeightedViews float64 `json:"weightedViews"`
	AvgPerContent float64 `json:"avgPerContent"`
	AvgPerShort   float64 `json:"avgPerShort"`
	AvgPerLong    float64 `json:"avgPerLong"`
	BelowCutoff   bool    `json:"belowCutoff"`
}

// ChannelDetails is the single-channel detail query result.
type ChannelDetails struct {
	ChannelID string       `json:"channelId"`
	Title     string       `json:"title"`
	Handle    *string      `json:"handle,omitempty"`
	Country   *string      `json:"country,omitempty"`
	Brand     *string      `json:"brand,omitempty"`
	Stats     ChannelStats `json:"stats"`
	TopVideo  *Video       `json:"topVideo,omitempty"`
	TopShort  *Video       `json:"topShort,omitempty"`
	TopVideos []Video      `json:"topVideos"`
}

// HistoryPoint is one day of a channel's aggregate time series.
type HistoryPoint struct {
	SnapshotDate string `json:"snapshotDate"`
	TotalViews   int64  `json:"totalViews"`
	ShortsViews  int64  `json:"shortsViews"`
	LongViews    int64  `json:"longViews"`
	TotalVideos  int    `json:"totalVideos"`
	ShortsVideos int    `json:"shortsVideos"`
	LongVideos   int    `json:"longVideos"`
}
