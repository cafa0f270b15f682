package api

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// requestLogger logs every request once it has been served.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := uuid.NewString()
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()

		fields := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("request", fields...)
		case len(c.Errors) > 0:
			log.Warn("request", append(fields, "errors", c.Errors.String())...)
		default:
			log.Debug("request", fields...)
		}
	}
}
