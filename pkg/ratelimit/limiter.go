package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/richxcame/cyberguard/pkg/config"
)

// Rule describes a fixed-window limit
type Rule struct {
	Limit  int
	Window time.Duration
}

// Result is the outcome of an Allow call
type Result struct {
	Allowed     bool
	Limit       int
	Remaining   int
	Window      time.Duration
	RetryAfter  time.Duration
	IdentityKey string
	EndpointKey string
}

// Limiter is a Redis-backed fixed-window rate limiter
type Limiter struct {
	client redis.Cmdable
	cfg    config.RateLimitConfig
	now    func() time.Time
}

// NewLimiter creates a limiter
func NewLimiter(client redis.Cmdable, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		client: client,
		cfg:    cfg,
		now:    time.Now,
	}
}

// WithNow overrides the clock, for tests
func (l *Limiter) WithNow(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// DefaultRule returns the configured submission rule
func (l *Limiter) DefaultRule() Rule {
	return Rule{Limit: l.cfg.Limit, Window: l.cfg.Window()}
}

func (l *Limiter) key(endpoint, identity string, window time.Duration) string {
	bucket := l.now().Unix() / int64(window/time.Second)
	return fmt.Sprintf("%s:%s:%s:%d", l.cfg.RedisPrefix, endpoint, identity, bucket)
}

// Allow counts one request for identity on endpoint and reports whether it
// fits the rule. Disabled limiters and non-positive limits always allow.
func (l *Limiter) Allow(ctx context.Context, endpoint, identity string, rule Rule) (Result, error) {
	result := Result{
		Allowed:     true,
		Limit:       rule.Limit,
		Remaining:   rule.Limit,
		Window:      rule.Window,
		IdentityKey: identity,
		EndpointKey: endpoint,
	}
	if !l.cfg.Enabled || rule.Limit <= 0 {
		return result, nil
	}

	window := rule.Window
	if window < time.Second {
		window = l.cfg.Window()
		result.Window = window
	}
	key := l.key(endpoint, identity, window)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return result, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return result, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	remaining := rule.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	result.Remaining = remaining

	if int(count) > rule.Limit {
		result.Allowed = false
		elapsed := time.Duration(l.now().UnixNano() % int64(window))
		result.RetryAfter = window - elapsed
	}
	return result, nil
}
