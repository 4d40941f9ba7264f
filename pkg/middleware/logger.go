package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/cyberguard/pkg/logger"
	"go.uber.org/zap"
)

var quietPaths = map[string]bool{
	"/healthz": true,
	"/metrics": true,
	"/livez":   true,
}

// RequestLogger writes one line per request. Server errors log at error
// level, client errors at warn. Probe endpoints are skipped.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if quietPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("endpoint", routeOf(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		reqLogger := logger.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			reqLogger.Error("request failed", fields...)
		case status >= 400:
			reqLogger.Warn("request rejected", fields...)
		default:
			reqLogger.Info("request completed", fields...)
		}
	}
}
