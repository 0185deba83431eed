package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// Logger logs one line per request and records the HTTP metrics. Bodies are
// never logged since they carry patient data.
func Logger(log *logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	log = log.With("http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		method := c.Request.Method
		statusCode := c.Writer.Status()

		if m != nil {
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
			m.HTTPDuration.WithLabelValues(method, route).Observe(latency.Seconds())
		}

		if raw != "" {
			path = path + "?" + raw
		}

		fields := []interface{}{
			"request_id", c.GetString(ContextRequestID),
			"method", method,
			"path", path,
			"ip", c.ClientIP(),
			"status", statusCode,
			"duration", latency,
			"user_agent", c.Request.UserAgent(),
		}

		switch {
		case statusCode >= 500:
			var err error
			if last := c.Errors.Last(); last != nil {
				err = last.Err
			}
			log.Error(err, "Server error", fields...)
		case statusCode >= 400:
			log.Warn("Client error", fields...)
		default:
			log.Info("Request processed", fields...)
		}
	}
}
