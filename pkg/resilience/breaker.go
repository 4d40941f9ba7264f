package resilience

import (
	"context"
	"errors"

	"github.com/richxcame/cyberguard/pkg/logger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when a call is rejected by an open breaker
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Operation is a unit of work guarded by a breaker or retried
type Operation func(ctx context.Context) (interface{}, error)

// CircuitBreaker wraps gobreaker with metrics and a fallback
type CircuitBreaker struct {
	name     string
	cb       *gobreaker.CircuitBreaker
	fallback FallbackFunc
	metrics  *breakerMetrics
}

// NewCircuitBreaker creates a breaker from settings. A nil fallback behaves like NoopFallback.
func NewCircuitBreaker(settings Settings, fallback FallbackFunc) *CircuitBreaker {
	name := breakerName(settings.Name)
	metrics := newBreakerMetrics(name)
	if fallback == nil {
		fallback = NoopFallback
	}

	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.SuccessThreshold,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.transition(from, to)
		},
		// Caller cancellation says nothing about the dependency's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	metrics.setState(gobreaker.StateClosed)

	return &CircuitBreaker{name: name, cb: cb, fallback: fallback, metrics: metrics}
}

// Name returns the breaker name
func (b *CircuitBreaker) Name() string {
	return b.name
}

// State returns the current breaker state
func (b *CircuitBreaker) State() gobreaker.State {
	return b.cb.State()
}

// Execute runs op through the breaker. Rejected calls go to the fallback.
func (b *CircuitBreaker) Execute(ctx context.Context, op Operation) (interface{}, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return op(ctx)
	})
	if err == nil {
		b.metrics.success.Inc()
		return result, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.metrics.rejected.Inc()
		return b.fallback(ctx, err)
	}

	b.metrics.failure.Inc()
	return nil, err
}
