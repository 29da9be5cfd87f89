package apiclient

import (
	"errors"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerClassifier decides whether a response or error counts as a failure
// toward tripping the circuit breaker.
type BreakerClassifier func(resp *http.Response, err error) bool

// BreakerConfig configures an optional circuit breaker placed under the
// retry loop. When the provider is hard down, the breaker rejects attempts
// immediately instead of burning the retry budget on doomed round trips.
type BreakerConfig struct {
	// MaxRequests is the number of probe requests allowed while half-open.
	// Zero allows a single probe.
	MaxRequests uint32

	// Interval is the cyclic period over which closed-state counts are
	// cleared. Zero keeps counts for the whole closed period.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration

	// FailureThreshold is the minimum number of requests before the
	// failure ratio can trip the circuit.
	FailureThreshold uint32

	// FailureRatio trips the circuit once this fraction of requests in the
	// window have failed.
	FailureRatio float64

	// ConsecutiveFailures trips the circuit after this many sequential
	// failures. Zero disables the rule.
	ConsecutiveFailures uint32

	// Classifier selects which outcomes count as failures.
	// Default: DefaultBreakerClassifier.
	Classifier BreakerClassifier

	// OnStateChange is invoked when the breaker changes state.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns a local in-memory breaker tuned for a
// sequential automation client: trip after 5 consecutive failures or a 50%
// failure ratio over at least 10 requests, probe again after 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            10 * time.Second,
		Timeout:             30 * time.Second,
		FailureThreshold:    10,
		FailureRatio:        0.5,
		ConsecutiveFailures: 5,
		Classifier:          DefaultBreakerClassifier,
	}
}

// DefaultBreakerClassifier counts 5xx responses and network errors as
// failures. 429s are excluded: throttling is handled by the rate-limit wait,
// not by tripping the breaker.
func DefaultBreakerClassifier(resp *http.Response, err error) bool {
	if err != nil {
		return isRetryableNetworkError(err)
	}
	return resp != nil && resp.StatusCode >= 500
}

// errBreakerSynthetic signals the breaker that an attempt failed even though
// RoundTrip returned a response. It is stripped before the response is
// returned to the caller.
var errBreakerSynthetic = errors.New("apiclient: breaker synthetic failure")

// breakerTransport wraps round trips in a gobreaker circuit breaker.
type breakerTransport struct {
	next       http.RoundTripper
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	classifier BreakerClassifier
}

func newBreakerTransport(next http.RoundTripper, name string, cfg *BreakerConfig) http.RoundTripper {
	if cfg == nil {
		return next
	}

	classifier := cfg.Classifier
	if classifier == nil {
		classifier = DefaultBreakerClassifier
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}
			if counts.Requests < cfg.FailureThreshold {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = cfg.OnStateChange
	}

	return &breakerTransport{
		next:       next,
		breaker:    gobreaker.NewCircuitBreaker[*http.Response](settings),
		classifier: classifier,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.next.RoundTrip(req) //nolint:bodyclose // caller owns the body

		if t.classifier(resp, err) {
			if err != nil {
				return resp, err
			}
			return resp, errBreakerSynthetic
		}
		return resp, nil
	})

	// A synthetic failure still produced a real response; hand it back so
	// the retry loop can classify the status itself.
	if errors.Is(err, errBreakerSynthetic) {
		return resp, nil
	}
	return resp, err
}
