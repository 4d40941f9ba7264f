package resilience

import (
	"context"
	"errors"
	"fmt"

	"github.com/richxcame/cyberguard/pkg/logger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// FallbackFunc decides what a call rejected by the breaker returns
type FallbackFunc func(ctx context.Context, err error) (interface{}, error)

// NoopFallback returns ErrCircuitOpen
func NoopFallback(ctx context.Context, err error) (interface{}, error) {
	return nil, ErrCircuitOpen
}

// RejectNamed fails fast with an error naming the breaker and whether it was
// open or saturated while half-open. The error wraps ErrCircuitOpen.
func RejectNamed(name string) FallbackFunc {
	return func(ctx context.Context, err error) (interface{}, error) {
		state := "open"
		if errors.Is(err, gobreaker.ErrTooManyRequests) {
			state = "half-open"
		}
		logger.WithContext(ctx).Warn("call rejected by circuit breaker",
			zap.String("breaker", name),
			zap.String("state", state),
		)
		return nil, fmt.Errorf("%s is %s: %w", name, state, ErrCircuitOpen)
	}
}
