package middleware

import (
	"time"

	"pizza-franchise-api/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records every request against its route template, so /user/7 and
// /user/8 share a series.
func Metrics(rec metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		rec.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
