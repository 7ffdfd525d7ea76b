package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luminex/nursery-backend/internal/observability"
)

// unmatchedRoute labels requests gin could not route, so arbitrary paths share one series.
const unmatchedRoute = "unmatched"

// Probe and scrape traffic is excluded from the API series.
var unmeteredPaths = map[string]struct{}{
	"/metrics":     {},
	"/healthcheck": {},
}

// Metrics instruments API request counts and latency per route template.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if _, skip := unmeteredPaths[c.Request.URL.Path]; skip {
			c.Next()
			return
		}
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		m.ObserveAPI(c.Request.Method, routeLabel(c), strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// routeLabel is the matched template (/api/batches/:id), never the raw path.
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}
