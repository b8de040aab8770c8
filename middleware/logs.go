package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogConfig holds configuration for the request logger
type LogConfig struct {
	// Logger receives one event per request; defaults to the global logger.
	Logger *zerolog.Logger
	// Include the authenticated user in logs
	IncludeUserID bool
	// Skip logging for specific paths
	SkipPaths []string
	// Requests slower than this are logged at warn level
	SlowThreshold time.Duration
}

// DefaultLogConfig returns the configuration used by the server
func DefaultLogConfig() LogConfig {
	return LogConfig{
		IncludeUserID: true,
		SkipPaths:     []string{"/health"},
		SlowThreshold: time.Second,
	}
}

// LoggingMiddleware writes a structured event per request after it is handled.
// Mount it after the requestid middleware so the id is available.
func LoggingMiddleware(config ...LogConfig) fiber.Handler {
	cfg := DefaultLogConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *fiber.Ctx) error {
		if skip[c.Path()] {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		l := log.Logger
		if cfg.Logger != nil {
			l = *cfg.Logger
		}

		var event *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError || (err != nil && status < fiber.StatusBadRequest):
			event = l.Error().Err(err)
		case status >= fiber.StatusBadRequest:
			event = l.Warn()
		case cfg.SlowThreshold > 0 && latency > cfg.SlowThreshold:
			event = l.Warn().Bool("slow", true)
		default:
			event = l.Info()
		}

		event = event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", latency).
			Str("ip", c.IP()).
			Int("bytes", len(c.Response().Body()))

		if rid, ok := c.Locals("requestid").(string); ok {
			event = event.Str("request_id", rid)
		}
		if cfg.IncludeUserID {
			if user, ok := CurrentUser(c); ok {
				event = event.Uint("user_id", user.ID)
			}
		}

		event.Msg("request")
		return err
	}
}
