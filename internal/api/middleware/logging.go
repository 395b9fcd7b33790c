package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cradlehq/cradle/backend/internal/infrastructure/logging"
	"github.com/cradlehq/cradle/backend/internal/infrastructure/tracing"
)

// RequestLogger logs one line per request. Server errors log at error level,
// client errors at warn and the rest at debug.
func RequestLogger(logger *logging.Logger) gin.HandlerFunc {
	log := logging.OrNop(logger).Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if traceID := tracing.GetTraceID(c.Request.Context()); traceID != "" {
			fields = append(fields, zap.String("trace_id", string(traceID)))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("Request rejected", fields...)
		default:
			log.Debug("Request handled", fields...)
		}
	}
}

// Recovery turns panics into a 500 JSON response and logs them.
func Recovery(logger *logging.Logger) gin.HandlerFunc {
	log := logging.OrNop(logger).Named("http")
	return gin.CustomRecovery(func(c *gin.Context, err interface{}) {
		log.Error("Panic recovered",
			zap.Any("panic", err),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stack"))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "internal server error",
		})
	})
}
