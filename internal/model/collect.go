package model

// Collection status values.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusError   = "error"
)

// CollectOutcome is the result of collecting a single channel.
type CollectOutcome struct {
	Status          string       `json:"status"`
	ChannelInput    string       `json:"channelInput,omitempty"`
	ChannelID       string       `json:"channelId,omitempty"`
	Title           string       `json:"title,omitempty"`
	VideosCollected int          `json:"videosCollected"`
	NewVideos       int          `json:"newVideos"`
	Stats           ChannelStats `json:"stats"`
	Message         string       `json:"message,omitempty"`
}

// SweepSummary is the result of a snapshot sweep across all tracked channels.
type SweepSummary struct {
	Status            string `json:"status"`
	SnapshotDate      string `json:"snapshotDate"`
	VideosSnapshotted int    `json:"videosSnapshotted"`
	ChannelsProcessed int    `json:"channelsProcessed"`
	ChannelsSkipped   int    `json:"channelsSkipped"`
	Errors            int    `json:"errors"`
}

// SnapshotCoverage describes how much snapshot history the store holds.
type SnapshotCoverage struct {
	TotalSnapshots int    `json:"totalSnapshots"`
	VideosTracked  int    `json:"videosTracked"`
	UniqueDates    int    `json:"uniqueDates"`
	LatestDate     string `json:"latestDate,omitempty"`
}
