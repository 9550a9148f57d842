// Package youtube wraps the YouTube Data API v3 behind the small surface the
// collector needs: identifier resolution, channel metadata, full playlist
// enumeration, and batched video statistics. All requests share a fixed-rate
// pacer; transient rate limits are retried with backoff, quota exhaustion is
// fatal and never retried.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/classify"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/logging"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/model"
)

// The platform caps videos.list and playlistItems.list at 50 items.
const batchSize = 50

const defaultMaxRetries = 5

type Client struct {
	svc        *youtube.Service
	limiter    *rate.Limiter
	maxRetries int
}

// NewClient builds an API-key client paced at maxPerSecond requests.
func NewClient(ctx context.Context, apiKey string, maxPerSecond int) (*Client, error) {
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &Client{
		svc:        svc,
		limiter:    rate.NewLimiter(rate.Limit(maxPerSecond), 1),
		maxRetries: defaultMaxRetries,
	}, nil
}

// withRetry paces and executes fn, retrying transient rate-limit responses
// with exponential backoff plus jitter. Quota exhaustion propagates
// immediately; anything else fails on first occurrence.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var gerr *googleapi.Error
		if !errors.As(err, &gerr) {
			return err
		}
		if isQuotaExceeded(gerr) {
			return &model.QuotaExhaustedError{Err: err}
		}
		if gerr.Code != 429 && gerr.Code != 503 {
			return err
		}

		wait := time.Duration((float64(int(1)<<attempt) + rand.Float64()) * float64(time.Second))
		logging.Logger.Warn().
			Int("attempt", attempt+1).
			Int("max", c.maxRetries).
			Dur("wait", wait).
			Msg("rate limit hit, backing off")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return &model.RateLimitError{Attempts: c.maxRetries, Err: lastErr}
}

func isQuotaExceeded(gerr *googleapi.Error) bool {
	if gerr.Code != 403 {
		return false
	}
	for _, item := range gerr.Errors {
		if item.Reason == "quotaExceeded" || item.Reason == "dailyLimitExceeded" {
			return true
		}
	}
	return strings.Contains(gerr.Message, "quota")
}

// ResolveChannelID maps a canonical ID, an @handle, or a channel URL to the
// canonical channel ID. Returns "" when the input cannot be resolved.
func (c *Client) ResolveChannelID(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)

	if IsCanonicalID(input) {
		return input, nil
	}

	if strings.HasPrefix(input, "@") {
		return c.resolveHandle(ctx, strings.TrimPrefix(input, "@"))
	}

	if strings.Contains(input, "youtube.com") || strings.Contains(input, "youtu.be") {
		if id, handle := parseChannelURL(input); id != "" {
			return id, nil
		} else if handle != "" {
			return c.resolveHandle(ctx, handle)
		}
	}

	return "", nil
}

// IsCanonicalID reports whether input is already a canonical channel ID.
func IsCanonicalID(input string) bool {
	return strings.HasPrefix(input, "UC") && len(input) == 24
}

// parseChannelURL extracts either a channel ID or a handle from a URL.
func parseChannelURL(url string) (id, handle string) {
	if _, rest, ok := strings.Cut(url, "/channel/"); ok {
		return trimURLSegment(rest), ""
	}
	if _, rest, ok := strings.Cut(url, "/@"); ok {
		return "", trimURLSegment(rest)
	}
	return "", ""
}

func trimURLSegment(s string) string {
	s, _, _ = strings.Cut(s, "/")
	s, _, _ = strings.Cut(s, "?")
	return s
}

func (c *Client) resolveHandle(ctx context.Context, handle string) (string, error) {
	var resp *youtube.ChannelListResponse
	err := c.withRetry(ctx, func() error {
		var err error
		resp, err = c.svc.Channels.List([]string{"id"}).
			ForHandle(handle).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("resolve handle @%s: %w", handle, err)
	}
	if len(resp.Items) == 0 {
		return "", nil
	}
	return resp.Items[0].Id, nil
}

// GetChannelMetadata fetches a channel's snippet, uploads playlist, and
// statistics. Returns nil when the channel does not exist.
func (c *Client) GetChannelMetadata(ctx context.Context, channelID string) (*model.ChannelMetadata, error) {
	var resp *youtube.ChannelListResponse
	err := c.withRetry(ctx, func() error {
		var err error
		resp, err = c.svc.Channels.List([]string{"snippet", "contentDetails", "statistics"}).
			Id(channelID).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("channel metadata %s: %w", channelID, err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	item := resp.Items[0]
	meta := &model.ChannelMetadata{
		ChannelID: channelID,
		Title:     item.Snippet.Title,
		Handle:    item.Snippet.CustomUrl,
		Country:   item.Snippet.Country,
	}
	if item.ContentDetails != nil && item.ContentDetails.RelatedPlaylists != nil {
		meta.UploadsPlaylistID = item.ContentDetails.RelatedPlaylists.Uploads
	}
	if item.Statistics != nil {
		meta.VideoCount = int64(item.Statistics.VideoCount)
		meta.ViewCount = int64(item.Statistics.ViewCount)
	}
	return meta, nil
}

// GetAllVideoIDs enumerates every video in an uploads playlist, fully
// paginated. A page failure returns whatever was collected so far rather
// than failing the enumeration.
func (c *Client) GetAllVideoIDs(ctx context.Context, uploadsPlaylistID string) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		var resp *youtube.PlaylistItemListResponse
		err := c.withRetry(ctx, func() error {
			var err error
			resp, err = c.svc.PlaylistItems.List([]string{"contentDetails"}).
				PlaylistId(uploadsPlaylistID).
				MaxResults(batchSize).
				PageToken(pageToken).
				Context(ctx).
				Do()
			return err
		})
		if err != nil {
			var quota *model.QuotaExhaustedError
			if errors.As(err, &quota) {
				return ids, err
			}
			logging.Logger.Error().Err(err).
				Str("playlist", uploadsPlaylistID).
				Int("collected", len(ids)).
				Msg("playlist page failed, returning partial listing")
			return ids, nil
		}

		for _, item := range resp.Items {
			ids = append(ids, item.ContentDetails.VideoId)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return ids, nil
		}
	}
}

// GetVideosDetails fetches details for the given IDs in batches of 50 and
// returns classified records. Videos without public statistics are silently
// dropped.
func (c *Client) GetVideosDetails(ctx context.Context, videoIDs []string) ([]model.VideoRecord, error) {
	var records []model.VideoRecord

	for start := 0; start < len(videoIDs); start += batchSize {
		end := start + batchSize
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		batch := videoIDs[start:end]

		var resp *youtube.VideoListResponse
		err := c.withRetry(ctx, func() error {
			var err error
			resp, err = c.svc.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
				Id(batch...).
				Context(ctx).
				Do()
			return err
		})
		if err != nil {
			return records, fmt.Errorf("video details batch at %d: %w", start, err)
		}

		for _, item := range resp.Items {
			if rec, ok := parseVideoItem(item); ok {
				records = append(records, rec)
			}
		}
	}

	return records, nil
}

// parseVideoItem converts an API item into a classified VideoRecord.
// Returns ok=false when the video exposes no statistics.
func parseVideoItem(item *youtube.Video) (model.VideoRecord, bool) {
	if item.Statistics == nil || item.Snippet == nil {
		return model.VideoRecord{}, false
	}

	duration := 0
	if item.ContentDetails != nil {
		duration = ParseISODuration(item.ContentDetails.Duration)
	}

	live := classify.LiveStatus(item.Snippet.LiveBroadcastContent)
	isShort, score := classify.Score(duration, item.Snippet.Title, item.Snippet.Description, item.Snippet.Tags, live)

	likes := int64(item.Statistics.LikeCount)
	comments := int64(item.Statistics.CommentCount)

	return model.VideoRecord{
		VideoID:         item.Id,
		ChannelID:       item.Snippet.ChannelId,
		Title:           item.Snippet.Title,
		PublishedAt:     item.Snippet.PublishedAt,
		DurationSeconds: duration,
		IsShort:         isShort,
		ShortScore:      score,
		IsLive:          live == classify.LiveLive || live == classify.LiveUpcoming,
		ViewCount:       int64(item.Statistics.ViewCount),
		LikeCount:       &likes,
		CommentCount:    &comments,
	}, true
}

// EstimateQuotaCost estimates the API quota units needed to collect the given
// fleet: one channels.list per channel plus one playlistItems.list and one
// videos.list per 50 videos.
func EstimateQuotaCost(numChannels, avgVideosPerChannel int) int {
	pages := int(math.Ceil(float64(avgVideosPerChannel) / batchSize))
	return numChannels + 2*pages*numChannels
}
