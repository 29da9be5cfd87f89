// Package apiclient provides a resilient client for the provider's REST API
// with automatic retries, rate-limit handling, and OpenTelemetry
// instrumentation.
//
// # Quick Start
//
//	client := apiclient.New(
//	    apiclient.WithBaseURL("https://api.example.com/v7"),
//	    apiclient.WithBearerToken(token),
//	    apiclient.WithServiceName("probewatch"),
//	)
//
//	resp, err := client.Request("ListAgents").Get(ctx, "agents")
//
// Every call attaches the bearer token and JSON content type uniformly; the
// caller only supplies method, path, optional body, and optional query
// parameters.
//
// # Failure Handling
//
// Each attempt is classified into one of four outcomes:
//
//   - 2xx: returned immediately.
//   - 429: the provider's reset header is honored. The client waits out the
//     advertised delay and retries without consuming the transient-retry
//     budget, since the server has promised capacity will return.
//   - 5xx or a retryable network error: retried with exponential backoff
//     (1s doubling to 30s by default) up to the configured attempt budget.
//   - Any other non-2xx: terminal. Returned immediately as *Error with
//     KindTerminal; retrying a malformed request would not change the outcome.
//
// The client never returns a sentinel "failed" response: exhausted retries and
// terminal statuses surface as a typed *Error whose Kind callers can switch
// on with errors.As.
//
// # Configuration
//
// Transport tuning uses Config (see DefaultConfig), retry behavior uses
// RetryConfig, and 429 handling uses RateLimitConfig. An optional client-side
// throttle (ThrottleConfig) and circuit breaker (BreakerConfig) can be layered
// under the retry loop:
//
//	client := apiclient.New(
//	    apiclient.WithBaseURL(baseURL),
//	    apiclient.WithBearerToken(token),
//	    apiclient.WithRetryConfig(apiclient.AggressiveRetryConfig()),
//	    apiclient.WithThrottle(apiclient.ThrottleConfig{RequestsPerSecond: 5, Burst: 2}),
//	)
//
// # Testing
//
// MockTransport scripts response sequences for retry scenarios:
//
//	mt := apiclient.NewMockTransport().
//	    Enqueue(http.StatusServiceUnavailable, "").
//	    Enqueue(http.StatusOK, `{"agents":[]}`)
//	client := apiclient.New(apiclient.WithTransport(mt))
package apiclient
