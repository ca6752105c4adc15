package resilience

import (
	"log/slog"
	"time"
)

// Config is shared by every outbound dependency: embedding providers,
// qdrant and nats publishes.
type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     400 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

func positiveOr[T int | uint32 | float64 | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	out := c

	out.RetryMaxAttempts = positiveOr(c.RetryMaxAttempts, def.RetryMaxAttempts)
	out.RetryInitialBackoff = positiveOr(c.RetryInitialBackoff, def.RetryInitialBackoff)
	out.RetryMaxBackoff = max(positiveOr(c.RetryMaxBackoff, def.RetryMaxBackoff), out.RetryInitialBackoff)
	if c.RetryMultiplier < 1.0 {
		out.RetryMultiplier = def.RetryMultiplier
	}

	out.BreakerMinRequests = positiveOr(c.BreakerMinRequests, def.BreakerMinRequests)
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	out.BreakerOpenTimeout = positiveOr(c.BreakerOpenTimeout, def.BreakerOpenTimeout)
	out.BreakerHalfOpenMaxCalls = positiveOr(c.BreakerHalfOpenMaxCalls, def.BreakerHalfOpenMaxCalls)
	return out
}

// LogValue reports the effective policy after defaults are applied.
func (c Config) LogValue() slog.Value {
	n := c.normalize()
	return slog.GroupValue(
		slog.Int("retry_max_attempts", n.RetryMaxAttempts),
		slog.Duration("retry_initial_backoff", n.RetryInitialBackoff),
		slog.Duration("retry_max_backoff", n.RetryMaxBackoff),
		slog.Float64("retry_multiplier", n.RetryMultiplier),
		slog.Bool("breaker_enabled", n.BreakerEnabled),
		slog.Any("breaker_min_requests", n.BreakerMinRequests),
		slog.Float64("breaker_failure_ratio", n.BreakerFailureRatio),
		slog.Duration("breaker_open_timeout", n.BreakerOpenTimeout),
	)
}
