package apiclient

import (
	"errors"
	"fmt"
)

// ErrorKind identifies why the client gave up on a call.
type ErrorKind int

const (
	// KindTransient marks a 5xx response or a retryable network error.
	// The client retries these internally; a returned error never carries
	// this kind except as the cause inside KindExhausted.
	KindTransient ErrorKind = iota + 1

	// KindRateLimited marks a 429 response. Rate-limit waits are honored
	// unconditionally, so this kind only surfaces when the wait itself was
	// interrupted by context cancellation.
	KindRateLimited

	// KindTerminal marks a non-retryable failure: a 4xx other than 429, or
	// a permanent network error such as a certificate failure. These
	// indicate a defect in the request, not a transient condition.
	KindTerminal

	// KindExhausted marks a call abandoned after the transient-retry
	// budget was spent.
	KindExhausted
)

// String returns a short label for the kind, used in logs and error text.
func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate_limited"
	case KindTerminal:
		return "terminal"
	case KindExhausted:
		return "retry_exhausted"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by the client. Callers pattern-match
// with errors.As to decide whether to log-and-continue or abort:
//
//	var apiErr *apiclient.Error
//	if errors.As(err, &apiErr) && apiErr.Kind == apiclient.KindTerminal {
//	    // request-construction defect, do not retry at a higher level
//	}
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Operation is the caller-supplied operation name, e.g. "ListAgents".
	Operation string

	// Method and Path identify the endpoint.
	Method string
	Path   string

	// StatusCode is the last HTTP status observed, or zero when the
	// failure was network-level.
	StatusCode int

	// Attempts is the number of requests actually sent.
	Attempts int

	// Body holds a truncated snippet of the last response body, when one
	// was available. Useful for provider error messages.
	Body string

	cause error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("apiclient: %s %s %s failed (%s)", e.Operation, e.Method, e.Path, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap exposes the underlying transport error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// IsTerminal reports whether err is a client Error with KindTerminal.
func IsTerminal(err error) bool {
	return kindOf(err) == KindTerminal
}

// IsExhausted reports whether err is a client Error with KindExhausted.
func IsExhausted(err error) bool {
	return kindOf(err) == KindExhausted
}

func kindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}
