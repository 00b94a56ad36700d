package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"salescrm/internal/logger"
	"salescrm/internal/metrics"
)

// Metrics records every request by route template, so /leads/:id stays one series.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id, ok := c.Get(CtxUserID); ok {
			args = append(args, "user_id", id)
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("request failed", args...)
		case c.Writer.Status() >= 400:
			log.Warn("request rejected", args...)
		default:
			log.Debug("request served", args...)
		}
	}
}
