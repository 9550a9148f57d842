package model

import "time"

// Channel represents a tracked YouTube channel.
type Channel struct {
	ChannelID         string    `json:"channelId"`
	Title             string    `json:"title"`
	Handle            *string   `json:"handle,omitempty"`
	Country           *string   `json:"country,omitempty"`
	Brand             *string   `json:"brand,omitempty"`
	UploadsPlaylistID *string   `json:"-"`
	CreatedAt         time.Time `json:"-"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ChannelMetadata is what the transport client reports for a channel.
type ChannelMetadata struct {
	ChannelID         string
	Title             string
	Handle            string
	Country           string
	UploadsPlaylistID string
	VideoCount        int64
	ViewCount         int64
}

// ChannelStats holds the aggregates computed from current video rows,
// zero-filled when the channel has no videos.
type ChannelStats struct {
	TotalViews  int64 `json:"totalViews"`
	ShortsViews int64 `json:"shortsViews"`
	LongViews   int64 `json:"longViews"`
	TotalVideos int   `json:"totalVideos"`
	ShortsCount int   `json:"shortsCount"`
	LongCount   int   `json:"longCount"`
}
