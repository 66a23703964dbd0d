package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger returns a gin middleware that writes one access log line per
// request. Besides method, path, status, latency and client IP the line
// carries the route classification when RouteGuard stored one, and the
// user id when an enforced session was verified.
//
// The level follows the status: Error for 5xx, Warn for 4xx, Info otherwise.
// Records are written with the request context so a context-aware handler
// picks up the request_id attached by RequestID.
func Logger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		attrs := make([]slog.Attr, 0, 8)
		attrs = append(attrs,
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
		if class, ok := GetClassification(c); ok {
			attrs = append(attrs, slog.String("route", class.String()))
		}
		if sess, ok := GetSession(c); ok {
			attrs = append(attrs, slog.String("user_id", sess.UserID))
		}
		if loc := c.Writer.Header().Get("Location"); loc != "" && status >= 300 && status < 400 {
			attrs = append(attrs, slog.String("location", loc))
		}

		logger.LogAttrs(c.Request.Context(), accessLevel(status), "request", attrs...)
	}
}

func accessLevel(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
