package apiclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxErrorBodySnippet bounds how much of an error response body is carried
// in the returned *Error.
const maxErrorBodySnippet = 512

// RequestBuilder assembles a single API call.
//
//	resp, err := client.Request("CreateTest").
//	    Body(payload).
//	    Post(ctx, "tests/http-server")
type RequestBuilder struct {
	client        *Client
	operationName string
	path          string
	queryParams   url.Values
	headers       http.Header
	body          []byte
	hasBody       bool
	bodyErr       error
	result        any
}

// Query adds a single query parameter.
func (rb *RequestBuilder) Query(key, value string) *RequestBuilder {
	if rb.queryParams == nil {
		rb.queryParams = make(url.Values)
	}
	rb.queryParams.Set(key, value)
	return rb
}

// Queries adds multiple query parameters.
func (rb *RequestBuilder) Queries(params map[string]string) *RequestBuilder {
	for k, v := range params {
		rb.Query(k, v)
	}
	return rb
}

// Header sets a request-specific header. Authorization and Content-Type are
// managed by the client and do not need to be set here.
func (rb *RequestBuilder) Header(key, value string) *RequestBuilder {
	rb.headers.Set(key, value)
	return rb
}

// Body sets the JSON request payload. The value is marshaled once up front
// so every retry attempt replays identical bytes.
func (rb *RequestBuilder) Body(v any) *RequestBuilder {
	if v == nil {
		return rb
	}
	data, err := json.Marshal(v)
	if err != nil {
		rb.bodyErr = err
		return rb
	}
	rb.body = data
	rb.hasBody = true
	return rb
}

// Decode sets a target the response body is unmarshaled into on success.
func (rb *RequestBuilder) Decode(v any) *RequestBuilder {
	rb.result = v
	return rb
}

// Get executes a GET request against the endpoint path.
func (rb *RequestBuilder) Get(ctx context.Context, path string) (*Response, error) {
	rb.path = path
	return rb.execute(ctx, http.MethodGet)
}

// Post executes a POST request against the endpoint path.
func (rb *RequestBuilder) Post(ctx context.Context, path string) (*Response, error) {
	rb.path = path
	return rb.execute(ctx, http.MethodPost)
}

// Put executes a PUT request against the endpoint path.
func (rb *RequestBuilder) Put(ctx context.Context, path string) (*Response, error) {
	rb.path = path
	return rb.execute(ctx, http.MethodPut)
}

// Delete executes a DELETE request against the endpoint path.
func (rb *RequestBuilder) Delete(ctx context.Context, path string) (*Response, error) {
	rb.path = path
	return rb.execute(ctx, http.MethodDelete)
}

// execute runs the retry state machine for one logical call.
//
// Outcome handling:
//   - success: return the wrapped response immediately.
//   - rate-limited: wait out the provider's reset hint and retry; these
//     waits never consume the transient budget.
//   - transient: consume one attempt from the budget, back off
//     exponentially, retry; exhaustion returns KindExhausted.
//   - terminal: return KindTerminal without retrying.
func (rb *RequestBuilder) execute(ctx context.Context, method string) (*Response, error) {
	if rb.bodyErr != nil {
		return nil, rb.bodyErr
	}

	c := rb.client
	cfg := c.config

	targetURL, err := rb.buildURL()
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	logger := cfg.Logger.With().
		Str("operation", rb.operationName).
		Str("method", method).
		Str("url", targetURL).
		Str("request_id", requestID).
		Logger()

	attrs := append(cfg.baseAttributes(),
		attribute.String("api.operation", rb.operationName),
		attribute.String("http.request.method", method),
	)

	ctx, span := cfg.Tracer.Start(ctx, "API "+method+" "+rb.operationName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	bo := newBackOff(cfg.Retry)
	start := time.Now()

	var (
		attempts int // transient failures consumed from the budget
		calls    int // requests actually sent
	)

	for {
		calls++

		req, err := rb.newRequest(ctx, method, targetURL, requestID)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)

		switch Classify(resp, err) {
		case OutcomeSuccess:
			logger.Debug().Int("attempt", calls).Int("status", resp.StatusCode).Msg("request succeeded")
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
			cfg.Metrics.recordRequestDuration(ctx, time.Since(start), attrs)

			wrapped := &Response{Response: resp, request: req, result: rb.result}
			if rb.result != nil {
				if derr := wrapped.decode(); derr != nil {
					return wrapped, derr
				}
			}
			return wrapped, nil

		case OutcomeRateLimited:
			wait := resetWait(resp, cfg.RateLimit)
			drainAndClose(resp)

			logger.Warn().Int("attempt", calls).
				Int("status", http.StatusTooManyRequests).
				Dur("wait", wait).
				Msg("rate limited, waiting for reset")
			span.AddEvent("api.ratelimit.wait", trace.WithAttributes(
				attribute.Int64("wait_ms", wait.Milliseconds()),
			))
			cfg.Metrics.recordRateLimitWait(ctx, wait, attrs)

			// The server has promised capacity will return, so the wait
			// is unconditional; only the caller's context can cut it short.
			if serr := cfg.Sleep(ctx, wait); serr != nil {
				cfg.Metrics.recordError(ctx, KindRateLimited, attrs)
				return nil, rb.newError(method, KindRateLimited, http.StatusTooManyRequests, calls, "", serr)
			}

		case OutcomeTransient:
			attempts++
			status := 0
			if resp != nil {
				status = resp.StatusCode
				drainAndClose(resp)
			}

			if attempts >= int(cfg.Retry.MaxAttempts) {
				logger.Error().Int("attempt", calls).Int("status", status).Err(err).
					Msg("retry budget exhausted")
				span.SetStatus(codes.Error, "retry budget exhausted")
				cfg.Metrics.recordRetryExhausted(ctx, attrs)
				cfg.Metrics.recordError(ctx, KindExhausted, attrs)
				return nil, rb.newError(method, KindExhausted, status, calls, "", err)
			}

			wait := bo.NextBackOff()
			logger.Warn().Int("attempt", calls).Int("status", status).Err(err).
				Dur("backoff", wait).
				Msg("transient failure, retrying")
			span.AddEvent("api.retry", trace.WithAttributes(
				attribute.Int("retry.attempt", attempts),
				attribute.Int64("retry.delay_ms", wait.Milliseconds()),
			))
			cfg.Metrics.recordRetryAttempt(ctx, attempts, attrs)

			if serr := cfg.Sleep(ctx, wait); serr != nil {
				return nil, serr
			}

		case OutcomeTerminal:
			if err != nil {
				logger.Error().Int("attempt", calls).Err(err).Msg("request failed")
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				cfg.Metrics.recordError(ctx, KindTerminal, attrs)
				return nil, rb.newError(method, KindTerminal, 0, calls, "", err)
			}

			snippet := readSnippet(resp)
			logger.Error().Int("attempt", calls).Int("status", resp.StatusCode).
				Str("body", snippet).
				Msg("request failed")
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
			span.SetStatus(codes.Error, "terminal status")
			cfg.Metrics.recordError(ctx, KindTerminal, attrs)
			return nil, rb.newError(method, KindTerminal, resp.StatusCode, calls, snippet, nil)
		}
	}
}

// newRequest builds one attempt's http.Request with a fresh body reader and
// the client's uniform headers.
func (rb *RequestBuilder) newRequest(ctx context.Context, method, targetURL, requestID string) (*http.Request, error) {
	var body io.Reader
	if rb.hasBody {
		body = bytes.NewReader(rb.body)
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, body)
	if err != nil {
		return nil, err
	}

	cfg := rb.client.config
	for k, v := range cfg.DefaultHeaders {
		req.Header[k] = v
	}
	for k, v := range rb.headers {
		req.Header[k] = v
	}

	if cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.BearerToken)
	}
	if rb.hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", requestID)

	return req, nil
}

// buildURL joins the base URL, endpoint path, and query parameters.
func (rb *RequestBuilder) buildURL() (string, error) {
	fullURL := rb.path
	if base := rb.client.baseURL; base != "" {
		fullURL = strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(rb.path, "/")
	}

	if len(rb.queryParams) == 0 {
		return fullURL, nil
	}

	u, err := url.Parse(fullURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, vs := range rb.queryParams {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (rb *RequestBuilder) newError(method string, kind ErrorKind, status, attempts int, body string, cause error) *Error {
	return &Error{
		Kind:       kind,
		Operation:  rb.operationName,
		Method:     method,
		Path:       rb.path,
		StatusCode: status,
		Attempts:   attempts,
		Body:       body,
		cause:      cause,
	}
}

// drainAndClose discards a response body before a retry so the connection
// can be reused.
func drainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// readSnippet reads a bounded prefix of an error response body.
func readSnippet(resp *http.Response) string {
	if resp == nil || resp.Body == nil {
		return ""
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySnippet))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
