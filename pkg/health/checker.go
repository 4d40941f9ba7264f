package health

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Checker is a dependency health probe
type Checker func() error

// CheckerConfig configures a health probe
type CheckerConfig struct {
	Timeout time.Duration
}

// DefaultCheckerConfig returns the default probe configuration
func DefaultCheckerConfig() CheckerConfig {
	return CheckerConfig{Timeout: 2 * time.Second}
}

// Pinger is anything with a context-aware Ping, such as *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker returns a health check function for a Pinger
func PingChecker(p Pinger) Checker {
	cfg := DefaultCheckerConfig()
	return func() error {
		if p == nil {
			return errors.New("connection is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		return p.Ping(ctx)
	}
}

// RedisChecker returns a health check function for Redis
func RedisChecker(client *redis.Client) Checker {
	cfg := DefaultCheckerConfig()
	return func() error {
		if client == nil {
			return errors.New("redis client is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		return client.Ping(ctx).Err()
	}
}

// StatusChecker adapts a connection status func, e.g. a NATS connection
func StatusChecker(name string, connected func() bool) Checker {
	return func() error {
		if connected == nil || !connected() {
			return errors.New(name + " is not connected")
		}
		return nil
	}
}
