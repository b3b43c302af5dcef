package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labflow-backend/internal/observability"
)

// unscraped routes are not worth a latency series of their own.
var unscraped = map[string]bool{
	"/metrics":     true,
	"/healthcheck": true,
}

// Metrics records count and latency per route template. Unmatched paths share
// one "unmatched" label so probes cannot blow up cardinality.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || unscraped[c.FullPath()] {
			c.Next()
			return
		}
		m.ApiInflightInc()
		start := time.Now()
		c.Next()
		m.ApiInflightDec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
