package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
)

// RequestLog logs one line per request with latency and status.
func RequestLog(baseLog *logger.Logger) gin.HandlerFunc {
	log := baseLog.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("Request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
