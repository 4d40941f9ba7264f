package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/cyberguard/pkg/logger"
	"github.com/richxcame/cyberguard/pkg/security"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// CorrelationIDHeader carries the correlation id in both directions
	CorrelationIDHeader = "X-Correlation-ID"
	// RequestIDHeader is accepted from proxies that only set a request id
	RequestIDHeader = "X-Request-ID"
	// CorrelationIDKey is the gin context and log field key
	CorrelationIDKey = "correlation_id"

	maxCorrelationIDLength = 128
)

// CorrelationID reuses a client supplied id or mints one. The id is echoed in
// the response, attached to the request logger and to the active span.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := incomingCorrelationID(c)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Set(CorrelationIDKey, correlationID)
		c.Writer.Header().Set(CorrelationIDHeader, correlationID)

		ctx := logger.ContextWithFields(c.Request.Context(), zap.String(CorrelationIDKey, correlationID))
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("correlation.id", correlationID))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func incomingCorrelationID(c *gin.Context) string {
	for _, header := range []string{CorrelationIDHeader, RequestIDHeader} {
		raw := c.GetHeader(header)
		if raw == "" {
			continue
		}
		// Ids that needed cleaning are replaced rather than trusted
		if id := security.SanitizeString(raw); id == raw && len(id) <= maxCorrelationIDLength {
			return id
		}
		return ""
	}
	return ""
}

// GetCorrelationID returns the id set by CorrelationID, or ""
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(CorrelationIDKey)
}
