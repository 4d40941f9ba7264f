package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cyberguard",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cyberguard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "endpoint"},
	)

	httpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cyberguard",
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
		[]string{"service"},
	)
)

// Metrics middleware records Prometheus metrics
func Metrics(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		inFlight := httpRequestsInFlight.WithLabelValues(serviceName)
		inFlight.Inc()
		defer inFlight.Dec()

		c.Next()

		endpoint := routeOf(c)
		method := c.Request.Method

		httpRequestsTotal.WithLabelValues(serviceName, method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(serviceName, method, endpoint).Observe(time.Since(start).Seconds())
	}
}
