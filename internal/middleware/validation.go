package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

const (
	// Canonical channel IDs are "UC" plus 22 URL-safe base64 characters.
	ChannelIDLen = 24
	// MaxCompareChannels caps the channel list on comparison queries.
	MaxCompareChannels = 50
)

// channelIDRe matches canonical YouTube channel IDs.
var channelIDRe = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateChannelID checks that a channel ID is a well-formed canonical ID.
// Returns the normalized ID and an empty message, or "" and the reason.
func ValidateChannelID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "channelId is required"
	}
	if len(id) != ChannelIDLen || !channelIDRe.MatchString(id) {
		return "", "channelId must be a canonical UC… identifier"
	}
	return id, ""
}

// ValidateChannelList parses a comma-separated list of channel IDs.
func ValidateChannelList(raw string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, "channels is required"
	}

	parts := strings.Split(raw, ",")
	if len(parts) > MaxCompareChannels {
		return nil, "too many channels requested"
	}

	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		id, errMsg := ValidateChannelID(p)
		if errMsg != "" {
			return nil, errMsg
		}
		ids = append(ids, id)
	}
	return ids, ""
}

// ValidateDate checks a YYYY-MM-DD date string.
func ValidateDate(raw, field string) (string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", field + " is required"
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return "", field + " must be a YYYY-MM-DD date"
	}
	return raw, ""
}

// ValidateDateRange checks both dates and their ordering.
func ValidateDateRange(start, end string) (string, string, string) {
	s, errMsg := ValidateDate(start, "start")
	if errMsg != "" {
		return "", "", errMsg
	}
	e, errMsg := ValidateDate(end, "end")
	if errMsg != "" {
		return "", "", errMsg
	}
	// Lexicographic comparison is correct for YYYY-MM-DD.
	if s > e {
		return "", "", "start must not be after end"
	}
	return s, e, ""
}
