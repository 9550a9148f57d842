package model

import "fmt"

// ResolutionError means the input could not be mapped to a channel ID.
// User-facing, not retryable.
type ResolutionError struct {
	Input string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve channel from %q", e.Input)
}

// NotFoundError means a channel or video vanished from the platform.
type NotFoundError struct {
	ChannelID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("channel %s not found", e.ChannelID)
}

// RateLimitError means the transport client exhausted its retry budget on
// transient rate-limit responses.
type RateLimitError struct {
	Attempts int
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// QuotaExhaustedError means the daily API quota is gone. Fatal for the
// remainder of the run; never retried.
type QuotaExhaustedError struct {
	Err error
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("api quota exhausted: %v", e.Err)
}

func (e *QuotaExhaustedError) Unwrap() error { return e.Err }

// ConcurrentUpdateError means another process holds the channel's advisory
// lock. The caller should skip and retry later.
type ConcurrentUpdateError struct {
	ChannelID string
}

func (e *ConcurrentUpdateError) Error() string {
	return fmt.Sprintf("channel %s is already being updated by another process", e.ChannelID)
}
