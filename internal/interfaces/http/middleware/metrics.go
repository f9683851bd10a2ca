package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
)

// HTTPMetrics records request counts, latency and in-flight requests on the
// Prometheus registry owned by metrics. The route label is the matched gin
// route template, never the raw path. A nil metrics disables recording.
func HTTPMetrics(metrics *telemetry.Metrics, skipPaths ...string) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		done := metrics.IncInFlight()
		defer done()
		start := time.Now()

		c.Next()

		metrics.ObserveHTTPRequest(c.Request.Method, c.FullPath(), strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
