// Package classify scores video metadata to decide whether a video is
// short-form content. The scorer is a heuristic, not ground truth: when
// thresholds change, stored videos are re-scored in bulk rather than migrated.
package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// LiveStatus is the platform's broadcast state for a video.
type LiveStatus string

const (
	LiveNone      LiveStatus = "none"
	LiveLive      LiveStatus = "live"
	LiveUpcoming  LiveStatus = "upcoming"
	LiveCompleted LiveStatus = "completed"
)

// Scoring weights and thresholds. Additive, independent signals; a video is
// short-form when the total reaches ShortThreshold.
const (
	MaxShortDuration = 180
	MaxShortDescLen  = 300
	MaxShortTitleLen = 70
	ShortThreshold   = 3

	durationWeight   = 2
	hashtagWeight    = 2
	shortDescWeight  = 2
	shortTitleWeight = 1
	livePenalty      = -3
	chapterPenalty   = -3

	// Chapter timestamps only count against a description long enough to
	// actually be a chapter list.
	minChapterDescLen = 100
)

// chapterRe matches a "0:00" / "00:00" timestamp token.
var chapterRe = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)

// Score classifies a video from its metadata.
func Score(durationSeconds int, title, description string, tags []string, live LiveStatus) (isShort bool, score int) {
	title = strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	description = strings.TrimSpace(strings.ReplaceAll(description, "\n", " "))

	if durationSeconds > 0 && durationSeconds <= MaxShortDuration {
		score += durationWeight
	}

	if hasShortsHashtag(title, description, tags) {
		score += hashtagWeight
	}

	// Length limits are in characters, not bytes: accented titles and
	// descriptions must not classify differently near the boundaries.
	if utf8.RuneCountInString(description) <= MaxShortDescLen {
		score += shortDescWeight
	}

	if utf8.RuneCountInString(title) <= MaxShortTitleLen {
		score += shortTitleWeight
	}

	switch live {
	case LiveLive, LiveUpcoming, LiveCompleted:
		score += livePenalty
	}

	if utf8.RuneCountInString(description) > minChapterDescLen && chapterRe.MatchString(description) {
		score += chapterPenalty
	}

	return score >= ShortThreshold, score
}

func hasShortsHashtag(title, description string, tags []string) bool {
	if strings.Contains(strings.ToLower(title), "#shorts") ||
		strings.Contains(strings.ToLower(description), "#shorts") {
		return true
	}
	for _, t := range tags {
		if strings.EqualFold(t, "shorts") {
			return true
		}
	}
	return false
}

// ByDurationOnly is the simplified rule used by the bulk reclassification
// pass: duration in (0, 180] seconds means short.
func ByDurationOnly(durationSeconds int) bool {
	return durationSeconds > 0 && durationSeconds <= MaxShortDuration
}
