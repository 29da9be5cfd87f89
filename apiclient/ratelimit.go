package apiclient

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig controls how 429 responses are handled.
//
// The provider names the header carrying its reset hint; treat it as
// configuration rather than hardcoding a vendor header in call sites.
type RateLimitConfig struct {
	// ResetHeader is the response header carrying the reset delay in
	// seconds. Default: "Retry-After".
	ResetHeader string

	// FallbackWait is used when the header is absent or unparsable.
	// Default: 60s.
	FallbackWait time.Duration
}

// DefaultRateLimitWait is the wait applied when a 429 carries no usable
// reset hint.
const DefaultRateLimitWait = 60 * time.Second

// DefaultRateLimitConfig returns the standard 429 handling: honor
// Retry-After, fall back to a 60s wait.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		ResetHeader:  "Retry-After",
		FallbackWait: DefaultRateLimitWait,
	}
}

func (c RateLimitConfig) normalized() RateLimitConfig {
	if c.ResetHeader == "" {
		c.ResetHeader = "Retry-After"
	}
	if c.FallbackWait <= 0 {
		c.FallbackWait = DefaultRateLimitWait
	}
	return c
}

// resetWait computes how long to wait before retrying a rate-limited call.
// The header value is interpreted as a delay in whole seconds.
func resetWait(resp *http.Response, cfg RateLimitConfig) time.Duration {
	if resp == nil {
		return cfg.FallbackWait
	}
	raw := resp.Header.Get(cfg.ResetHeader)
	if raw == "" {
		return cfg.FallbackWait
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return cfg.FallbackWait
	}
	return time.Duration(secs) * time.Second
}

// ErrThrottled is returned when the client-side throttle rejects a request
// and WaitOnLimit is disabled.
var ErrThrottled = errors.New("apiclient: client-side rate limit exceeded")

// ThrottleConfig configures an optional client-side token bucket applied
// below the retry loop. This keeps the client within the provider's
// documented quota so 429s stay the exception rather than the steady state.
//
// A zero RequestsPerSecond disables the throttle.
type ThrottleConfig struct {
	// RequestsPerSecond is the maximum sustained request rate.
	RequestsPerSecond float64

	// Burst is the number of requests allowed to exceed the rate briefly.
	Burst int

	// WaitOnLimit makes requests wait for a token (respecting the context
	// deadline) instead of failing fast with ErrThrottled.
	WaitOnLimit bool
}

// throttleTransport applies ThrottleConfig as an http.RoundTripper wrapper.
type throttleTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
	wait    bool
}

func newThrottleTransport(next http.RoundTripper, cfg ThrottleConfig) http.RoundTripper {
	if cfg.RequestsPerSecond <= 0 {
		return next
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &throttleTransport{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		wait:    cfg.WaitOnLimit,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *throttleTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.wait {
		if err := t.limiter.Wait(req.Context()); err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, err
			}
			return nil, ErrThrottled
		}
	} else if !t.limiter.Allow() {
		return nil, ErrThrottled
	}
	return t.next.RoundTrip(req)
}
