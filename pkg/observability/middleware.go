package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware records tutor_requests_total and tutor_request_duration_seconds
// for every request. Unmatched routes are labelled "unmatched" to keep label
// cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status()/100) + "xx"

		RequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
