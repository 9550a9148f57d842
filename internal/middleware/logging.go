package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/logging"
)

// sanitizePath replaces dynamic path segments with placeholders so log
// aggregation groups requests by route, not by channel.
func sanitizePath(path string) string {
	parts := strings.Split(path, "/")
	for i := range parts {
		if i == 0 {
			continue
		}
		if parts[i-1] == "channels" {
			parts[i] = ":channelId"
		}
	}
	return strings.Join(parts, "/")
}

// NewRequestLogger returns a Fiber middleware that logs each request as
// structured JSON via zerolog. Log level escalates with the response status.
func NewRequestLogger() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		evt := logging.Logger.Info()
		if status >= 500 {
			evt = logging.Logger.Error()
		} else if status >= 400 {
			evt = logging.Logger.Warn()
		}

		evt.
			Str("method", c.Method()).
			Str("path", sanitizePath(c.Path())).
			Int("status", status).
			Dur("duration_ms", duration).
			Int("bytes_sent", len(c.Response().Body())).
			Msg("request")

		return err
	}
}
