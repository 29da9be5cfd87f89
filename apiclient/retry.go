package apiclient

import "time"

// RetryConfig controls the transient-failure retry budget and the exponential
// backoff between attempts.
//
// Only transient outcomes (5xx, retryable network errors) consume the budget.
// Rate-limit waits (429) are driven by the provider's reset hint and never
// count against MaxAttempts; see RateLimitConfig.
type RetryConfig struct {
	// MaxAttempts is the total number of requests the client will send for
	// transient failures before giving up with KindExhausted. The initial
	// request counts, so MaxAttempts=3 means at most 2 retries.
	// Must be at least 1. Default: 3.
	MaxAttempts uint

	// InitialInterval is the backoff before the first retry.
	// Default: 1s.
	InitialInterval time.Duration

	// MaxInterval caps the backoff interval; exponential growth never
	// exceeds this value. Default: 30s.
	MaxInterval time.Duration

	// Multiplier controls interval growth: each retry waits the previous
	// interval times Multiplier. Default: 2.0 (doubling).
	Multiplier float64

	// JitterFactor randomizes each interval by ±(factor×interval) to
	// avoid synchronized retry storms. 0 disables jitter, which keeps
	// wait times deterministic. Default: 0.
	JitterFactor float64
}

// Defaults for RetryConfig, chosen to recover from brief provider blips
// without hammering a degraded API.
const (
	DefaultMaxAttempts     = 3
	DefaultInitialInterval = 1 * time.Second
	DefaultMaxInterval     = 30 * time.Second
	DefaultMultiplier      = 2.0
)

// DefaultRetryConfig returns the standard budget: 3 attempts with backoff
// 1s → 2s, capped at 30s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     DefaultMaxAttempts,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		Multiplier:      DefaultMultiplier,
	}
}

// AggressiveRetryConfig returns a larger budget for calls that must succeed,
// such as the final result fetch of a long pipeline: 5 attempts starting at
// 500ms with 50% jitter.
func AggressiveRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     5,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     60 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.5,
	}
}

// NoRetryConfig disables transient retries; every failure surfaces on the
// first attempt. Rate-limit waits are still honored.
func NoRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     1,
		InitialInterval: 0,
		MaxInterval:     0,
		Multiplier:      1.0,
	}
}

// normalized returns the config with zero values replaced by defaults.
func (c RetryConfig) normalized() RetryConfig {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = DefaultInitialInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = DefaultMaxInterval
	}
	if c.Multiplier < 1 {
		c.Multiplier = DefaultMultiplier
	}
	return c
}
