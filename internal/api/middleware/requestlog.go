package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	requestIDHeader = "X-Request-ID"
	userIDHeader    = "X-User-ID"
)

// Context keys set by RequestLog for downstream handlers.
const (
	ContextRequestID = "request_id"
	ContextUserID    = "user_id"
)

// healthPaths are probe endpoints whose repeated successes are suppressed
// from the request log. Failures are always logged.
var healthPaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// RequestLog returns Echo middleware that logs requests with structured
// fields. It generates a request ID if none is provided and propagates it
// through the response header and echo context, along with the caller
// identity for audit attribution.
//
// Health probe endpoints log the first success and every state change;
// repeated successes are suppressed and failures log at WARN.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var (
		mu         sync.Mutex
		lastStatus = map[string]int{}
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set(ContextRequestID, reqID)
			c.Set(ContextUserID, c.Request().Header.Get(userIDHeader))
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			status := c.Response().Status
			healthy := status >= 200 && status < 400

			if _, probe := healthPaths[path]; probe {
				mu.Lock()
				prev, seen := lastStatus[path]
				lastStatus[path] = status
				mu.Unlock()

				if healthy && seen && prev == status {
					return err
				}
			}

			level := slog.LevelInfo
			if _, probe := healthPaths[path]; probe && !healthy {
				level = slog.LevelWarn
			}

			log.Log(c.Request().Context(), level, "request",
				"method", c.Request().Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			)

			return err
		}
	}
}
