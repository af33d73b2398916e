// SPDX-License-Identifier: MPL-2.0

package devserver

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const slowRequest = 100 * time.Millisecond

// requestLogger logs one line per request. 2xx and 3xx log at debug, 4xx at
// warn and 5xx at error. Paths with a skipped prefix are not logged.
func requestLogger(logger *slog.Logger, skipPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range skipPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		// Hijacked connections (WebSocket upgrades) have no response to report.
		if c.Writer.Written() && c.Writer.Size() < 0 {
			return
		}

		status := c.Writer.Status()
		level := slog.LevelDebug
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		ctx := c.Request.Context()
		if !logger.Enabled(ctx, level) {
			return
		}

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.String("ip", c.ClientIP()),
		}
		if latency >= slowRequest {
			attrs = append(attrs, slog.Duration("latency", latency))
		}
		logger.LogAttrs(ctx, level, "http request", attrs...)
	}
}
