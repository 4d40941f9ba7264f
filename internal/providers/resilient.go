package providers

import (
	"context"
	"fmt"

	"github.com/richxcame/cyberguard/pkg/config"
	"github.com/richxcame/cyberguard/pkg/resilience"
)

// Resilient guards a provider with a circuit breaker and bounded retries
type Resilient struct {
	next    Provider
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

var _ Provider = (*Resilient)(nil)

// WithResilience wraps p using the breaker and retry knobs from cfg
func WithResilience(p Provider, cfg config.ProvidersConfig) *Resilient {
	name := "provider-" + string(p.Type())
	settings := resilience.BuildSettings(name, cfg.BreakerInterval, cfg.BreakerTimeout, cfg.BreakerFailures, 1)
	return &Resilient{
		next:    p,
		breaker: resilience.NewCircuitBreaker(settings, resilience.RejectNamed(name)),
		retry:   resilience.ProviderRetryConfig(cfg.MaxAttempts),
	}
}

func (r *Resilient) Type() TaskType { return r.next.Type() }

func (r *Resilient) Run(ctx context.Context, in Input) (Result, error) {
	out, err := resilience.RetryWithBreaker(ctx, r.retry, r.breaker, func(ctx context.Context) (interface{}, error) {
		return r.next.Run(ctx, in)
	})
	if err != nil {
		return nil, fmt.Errorf("%s check: %w", r.next.Type(), err)
	}
	result, _ := out.(Result)
	return result, nil
}

// Breaker exposes the breaker guarding the provider
func (r *Resilient) Breaker() *resilience.CircuitBreaker {
	return r.breaker
}

// WrapRegistry returns a registry whose providers are all wrapped with WithResilience
func WrapRegistry(reg *Registry, cfg config.ProvidersConfig) *Registry {
	wrapped := NewRegistry()
	for _, t := range reg.Types() {
		p, _ := reg.Get(t)
		wrapped.Register(WithResilience(p, cfg))
	}
	return wrapped
}
