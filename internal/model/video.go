package model

import "time"

// Video represents a tracked video. Mutable fields are overwritten on every
// fetch; per-day history lives in VideoSnapshot, never on this row.
type Video struct {
	VideoID         string    `json:"videoId"`
	ChannelID       string    `json:"channelId"`
	Title           string    `json:"title"`
	PublishedAt     string    `json:"publishedAt"`
	DurationSeconds int       `json:"durationSeconds"`
	IsShort         bool      `json:"isShort"`
	IsLive          bool      `json:"isLive"`
	LastViewCount   int64     `json:"lastViewCount"`
	LastFetchedAt   time.Time `json:"-"`
}

// VideoRecord is a parsed video as returned by the transport client,
// classified but not yet persisted.
type VideoRecord struct {
	VideoID         string
	ChannelID       string
	Title           string
	PublishedAt     string
	DurationSeconds int
	IsShort         bool
	ShortScore      int
	IsLive          bool
	ViewCount       int64
	LikeCount       *int64
	CommentCount    *int64
}

// VideoSnapshot is a dated, write-once view-count observation for a video.
type VideoSnapshot struct {
	VideoID      string `json:"videoId"`
	SnapshotDate string `json:"snapshotDate"`
	ViewCount    int64  `json:"viewCount"`
	LikeCount    *int64 `json:"likeCount,omitempty"`
	CommentCount *int64 `json:"commentCount,omitempty"`
}
