package monitoring

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/cyberguard/pkg/config"
	"github.com/richxcame/cyberguard/pkg/logger"
	"go.uber.org/zap"
)

// Init configures the Sentry client. It returns false when no DSN is set.
func Init(cfg config.SentryConfig, environment, release string) (bool, error) {
	if cfg.DSN == "" {
		return false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      environment,
		Release:          release,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return false, err
	}
	logger.Info("Sentry initialized", zap.String("environment", environment))
	return true, nil
}

// Middleware reports handler panics to Sentry and re-panics for Recovery
func Middleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// CaptureError reports err with tags. It is a no-op when Sentry is not initialized.
func CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

// Flush waits for buffered events to be sent
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
