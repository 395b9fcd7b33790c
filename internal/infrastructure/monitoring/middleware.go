package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		reqSize := c.Request.ContentLength
		if reqSize < 0 {
			reqSize = 0
		}

		c.Next()

		// route template keeps label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		respSize := int64(c.Writer.Size())
		if respSize < 0 {
			respSize = 0
		}

		metrics.RecordHTTPRequest(method, path, status, duration, reqSize, respSize)
	}
}

// Timer measures an upstream call
type Timer struct {
	start   time.Time
	metrics *Metrics
	service string
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics, service string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		service: service,
	}
}

// Stop records the duration with the given status
func (t *Timer) Stop(status int) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	t.metrics.RecordUpstreamCall(t.service, label, time.Since(t.start))
}
