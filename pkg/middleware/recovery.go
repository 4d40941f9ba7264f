package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/cyberguard/pkg/common"
	"github.com/richxcame/cyberguard/pkg/logger"
	"go.uber.org/zap"
)

var panicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cyberguard",
	Name:      "http_panics_recovered_total",
	Help:      "Handler panics turned into 500 responses",
}, []string{"endpoint"})

// Recovery turns handler panics into a 500 envelope
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			endpoint := routeOf(c)
			panicsRecovered.WithLabelValues(endpoint).Inc()
			logger.WithContext(c.Request.Context()).Error("panic recovered",
				zap.String("panic", fmt.Sprint(rec)),
				zap.String("endpoint", endpoint),
				zap.String("method", c.Request.Method),
				zap.Stack("stack"),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			common.ErrorResponse(c, http.StatusInternalServerError, "internal server error")
			c.Abort()
		}()

		c.Next()
	}
}

// routeOf returns the matched route template, or "not_found"
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "not_found"
}
