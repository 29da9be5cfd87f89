package apiclient

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the instruments emitted by the client.
type metrics struct {
	// requestDuration measures the full call duration in seconds,
	// including backoff and rate-limit waits.
	requestDuration metric.Float64Histogram

	// requestErrors counts calls that surfaced an error, by error kind.
	requestErrors metric.Int64Counter

	// retryAttempts counts transient-failure retries.
	retryAttempts metric.Int64Counter

	// retryExhausted counts calls abandoned after the retry budget.
	retryExhausted metric.Int64Counter

	// rateLimitWaits counts 429-driven waits; the histogram records how
	// long the provider asked us to hold off.
	rateLimitWaits metric.Int64Counter
	rateLimitDelay metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	m := &metrics{}
	var err error

	m.requestDuration, err = meter.Float64Histogram(
		"api.client.request.duration",
		metric.WithDescription("Duration of API calls in seconds, including retry and rate-limit waits"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
		),
	)
	if err != nil {
		return nil, err
	}

	m.requestErrors, err = meter.Int64Counter(
		"api.client.request.error",
		metric.WithDescription("Number of API calls that returned an error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	m.retryAttempts, err = meter.Int64Counter(
		"api.client.retry.attempts",
		metric.WithDescription("Number of transient-failure retries"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	m.retryExhausted, err = meter.Int64Counter(
		"api.client.retry.exhausted",
		metric.WithDescription("Number of calls abandoned after the retry budget was spent"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.rateLimitWaits, err = meter.Int64Counter(
		"api.client.ratelimit.waits",
		metric.WithDescription("Number of 429-driven waits"),
		metric.WithUnit("{wait}"),
	)
	if err != nil {
		return nil, err
	}

	m.rateLimitDelay, err = meter.Float64Histogram(
		"api.client.ratelimit.delay",
		metric.WithDescription("Provider-requested reset delays in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 15, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metrics) recordRequestDuration(ctx context.Context, d time.Duration, attrs []attribute.KeyValue) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

func (m *metrics) recordError(ctx context.Context, kind ErrorKind, attrs []attribute.KeyValue) {
	if m == nil || m.requestErrors == nil {
		return
	}
	all := make([]attribute.KeyValue, 0, len(attrs)+1)
	all = append(all, attrs...)
	all = append(all, attribute.String("error.kind", kind.String()))
	m.requestErrors.Add(ctx, 1, metric.WithAttributes(all...))
}

func (m *metrics) recordRetryAttempt(ctx context.Context, attempt int, attrs []attribute.KeyValue) {
	if m == nil || m.retryAttempts == nil {
		return
	}
	all := make([]attribute.KeyValue, 0, len(attrs)+1)
	all = append(all, attrs...)
	all = append(all, attribute.Int("retry.attempt", attempt))
	m.retryAttempts.Add(ctx, 1, metric.WithAttributes(all...))
}

func (m *metrics) recordRetryExhausted(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.retryExhausted == nil {
		return
	}
	m.retryExhausted.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metrics) recordRateLimitWait(ctx context.Context, wait time.Duration, attrs []attribute.KeyValue) {
	if m == nil || m.rateLimitWaits == nil {
		return
	}
	m.rateLimitWaits.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.rateLimitDelay.Record(ctx, wait.Seconds(), metric.WithAttributes(attrs...))
}
