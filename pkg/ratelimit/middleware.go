package ratelimit

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/cyberguard/pkg/common"
	"github.com/richxcame/cyberguard/pkg/logger"
	"go.uber.org/zap"
)

// Middleware limits requests per client IP for the route it is attached to.
// Redis failures let the request through.
func Middleware(l *Limiter, rule Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		result, err := l.Allow(c.Request.Context(), endpoint, c.ClientIP(), rule)
		if err != nil {
			logger.WithContext(c.Request.Context()).Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			common.AppErrorResponse(c, common.NewTooManyRequestsError("too many requests, please slow down"))
			c.Abort()
			return
		}

		c.Next()
	}
}
