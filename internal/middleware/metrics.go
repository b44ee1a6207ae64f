package middleware

import (
	"strconv"
	"time"

	"github.com/Payphone-Digital/accounts/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latency labelled by the route pattern,
// so /users/1 and /users/2 share a series.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
