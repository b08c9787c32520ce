package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/routemill-backend/internal/observability"
)

// Metrics records request counts and latency per route template. Realtime
// streams stay open for minutes and only count toward inflight.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		route := c.FullPath()
		switch {
		case route == "":
			route = "unmatched"
		case strings.HasPrefix(route, "/api/realtime/"):
			return
		}
		m.ObserveAPI(strings.ToUpper(c.Request.Method), route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
