package apiclient

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// scope is the instrumentation scope name for OpenTelemetry.
const scope = "github.com/netsight-labs/probewatch/apiclient"

// Config holds the HTTP transport tuning. Use DefaultConfig() as a starting
// point and adjust individual fields.
type Config struct {
	// Timeout bounds a single round trip: connection, TLS handshake,
	// request write, and response read. It does NOT include retry or
	// rate-limit waits, which are governed by RetryConfig and the caller's
	// context. Default: 30s.
	Timeout time.Duration

	// Connection pool. The client is sequential, so a handful of idle
	// connections to the one provider host is plenty.
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	// DialTimeout bounds TCP connection establishment. Default: 5s.
	DialTimeout time.Duration

	// KeepAlive is the TCP keep-alive probe interval. Default: 30s.
	KeepAlive time.Duration

	// TLSHandshakeTimeout bounds the TLS handshake. Default: 10s.
	TLSHandshakeTimeout time.Duration
}

// DefaultConfig returns transport settings suited to a sequential automation
// client talking to a single provider endpoint.
func DefaultConfig() Config {
	return Config{
		Timeout:             30 * time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
		DialTimeout:         5 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// sleepFunc blocks for d or until ctx is done. Overridable for tests.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// internalConfig aggregates everything New assembles the client from.
type internalConfig struct {
	httpConfig Config

	BaseURL     string
	BearerToken string
	ServiceName string

	DefaultHeaders http.Header

	Retry     RetryConfig
	RateLimit RateLimitConfig
	Throttle  ThrottleConfig
	Breaker   *BreakerConfig

	Logger zerolog.Logger

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Tracer         trace.Tracer
	Metrics        *metrics

	TLSConfig *tls.Config

	// Transport overrides the built transport entirely. Used by tests and
	// by callers that bring their own RoundTripper.
	Transport http.RoundTripper

	// Sleep is the wait primitive used between attempts.
	Sleep sleepFunc
}

func newConfig(opts ...Option) *internalConfig {
	cfg := &internalConfig{
		httpConfig:     DefaultConfig(),
		DefaultHeaders: make(http.Header),
		Retry:          DefaultRetryConfig(),
		RateLimit:      DefaultRateLimitConfig(),
		Logger:         zerolog.New(os.Stderr).With().Timestamp().Logger(),
		TracerProvider: otel.GetTracerProvider(),
		MeterProvider:  otel.GetMeterProvider(),
		Sleep:          sleepContext,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.Retry = cfg.Retry.normalized()
	cfg.RateLimit = cfg.RateLimit.normalized()

	cfg.Tracer = cfg.TracerProvider.Tracer(scope)
	cfg.Metrics, _ = newMetrics(cfg.MeterProvider.Meter(scope))

	return cfg
}

// buildTransport creates the transport chain: tuned http.Transport, then the
// optional client-side throttle, then the optional circuit breaker. The retry
// loop sits above the chain in RequestBuilder.execute.
func (cfg *internalConfig) buildTransport() http.RoundTripper {
	base := cfg.Transport
	if base == nil {
		hc := cfg.httpConfig
		dialer := &net.Dialer{
			Timeout:   hc.DialTimeout,
			KeepAlive: hc.KeepAlive,
		}
		base = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         dialer.DialContext,
			MaxIdleConns:        hc.MaxIdleConns,
			MaxIdleConnsPerHost: hc.MaxIdleConnsPerHost,
			IdleConnTimeout:     hc.IdleConnTimeout,
			TLSHandshakeTimeout: hc.TLSHandshakeTimeout,
			TLSClientConfig:     cfg.TLSConfig,
		}
	}

	chained := newThrottleTransport(base, cfg.Throttle)
	chained = newBreakerTransport(chained, cfg.ServiceName, cfg.Breaker)
	return chained
}

// baseAttributes returns the attributes attached to all spans and metrics.
func (cfg *internalConfig) baseAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 1)
	if cfg.ServiceName != "" {
		attrs = append(attrs, attribute.String("api.client.name", cfg.ServiceName))
	}
	return attrs
}

// Option configures the client.
type Option func(*internalConfig)

// WithConfig sets the HTTP transport tuning.
func WithConfig(c Config) Option {
	return func(cfg *internalConfig) {
		cfg.httpConfig = c
	}
}

// WithBaseURL sets the API base URL. Endpoint paths given to requests are
// appended to it.
func WithBaseURL(baseURL string) Option {
	return func(cfg *internalConfig) {
		cfg.BaseURL = baseURL
	}
}

// WithBearerToken sets the token attached as an Authorization header to
// every request. Callers never attach authentication themselves.
func WithBearerToken(token string) Option {
	return func(cfg *internalConfig) {
		cfg.BearerToken = token
	}
}

// WithServiceName identifies this client in spans, metrics, and breaker
// state.
func WithServiceName(name string) Option {
	return func(cfg *internalConfig) {
		cfg.ServiceName = name
	}
}

// WithDefaultHeader adds a header applied to every request.
func WithDefaultHeader(key, value string) Option {
	return func(cfg *internalConfig) {
		cfg.DefaultHeaders.Set(key, value)
	}
}

// WithRetryConfig sets the transient-failure retry budget and backoff.
func WithRetryConfig(rc RetryConfig) Option {
	return func(cfg *internalConfig) {
		cfg.Retry = rc
	}
}

// WithRateLimitConfig sets the 429 reset header name and fallback wait.
func WithRateLimitConfig(rl RateLimitConfig) Option {
	return func(cfg *internalConfig) {
		cfg.RateLimit = rl
	}
}

// WithThrottle enables the client-side token bucket.
func WithThrottle(tc ThrottleConfig) Option {
	return func(cfg *internalConfig) {
		cfg.Throttle = tc
	}
}

// WithBreaker enables the circuit breaker with the given configuration.
func WithBreaker(bc BreakerConfig) Option {
	return func(cfg *internalConfig) {
		cfg.Breaker = &bc
	}
}

// WithLogger sets the zerolog logger used for per-attempt logging.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *internalConfig) {
		cfg.Logger = logger
	}
}

// WithTLSConfig sets a custom TLS configuration for the built transport.
func WithTLSConfig(tlsCfg *tls.Config) Option {
	return func(cfg *internalConfig) {
		cfg.TLSConfig = tlsCfg
	}
}

// WithTransport replaces the built transport with the given RoundTripper.
// The throttle and breaker still wrap it; the retry loop stays on top.
func WithTransport(rt http.RoundTripper) Option {
	return func(cfg *internalConfig) {
		cfg.Transport = rt
	}
}

// WithTracerProvider sets a custom OpenTelemetry TracerProvider.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *internalConfig) {
		cfg.TracerProvider = tp
	}
}

// WithMeterProvider sets a custom OpenTelemetry MeterProvider.
// Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *internalConfig) {
		cfg.MeterProvider = mp
	}
}

// WithSleepFunc replaces the wait primitive used between attempts.
// Tests use this to observe backoff and rate-limit waits without sleeping.
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(cfg *internalConfig) {
		cfg.Sleep = fn
	}
}
