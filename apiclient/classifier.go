package apiclient

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
)

// Outcome is the classification of a single request attempt.
type Outcome int

const (
	// OutcomeSuccess is any 2xx response.
	OutcomeSuccess Outcome = iota

	// OutcomeRateLimited is a 429 response carrying a reset hint.
	OutcomeRateLimited

	// OutcomeTransient is a 5xx response or a retryable network error.
	OutcomeTransient

	// OutcomeTerminal is any other non-2xx status, a permanent network
	// error, or context cancellation.
	OutcomeTerminal
)

// String returns a short label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeTransient:
		return "transient"
	case OutcomeTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Classify maps a request attempt to its outcome.
//
// Rules:
//   - 2xx → OutcomeSuccess
//   - 429 → OutcomeRateLimited
//   - 5xx → OutcomeTransient (the provider may recover)
//   - any other status → OutcomeTerminal (caller defect, retrying won't help)
//   - context cancellation and permanent network errors (TLS verification,
//     DNS NXDOMAIN) → OutcomeTerminal
//   - remaining network errors → OutcomeTransient
func Classify(resp *http.Response, err error) Outcome {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return OutcomeTerminal
		}
		if isPermanentError(err) {
			return OutcomeTerminal
		}
		// Anything else at the network level is worth another attempt.
		return OutcomeTransient
	}

	if resp == nil {
		return OutcomeTerminal
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return OutcomeSuccess
	case resp.StatusCode == http.StatusTooManyRequests:
		return OutcomeRateLimited
	case resp.StatusCode >= 500:
		return OutcomeTransient
	default:
		return OutcomeTerminal
	}
}

// isRetryableNetworkError reports whether err is a network failure that is
// typically transient.
func isRetryableNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		// NXDOMAIN and friends are permanent; only resolver hiccups retry.
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, io.EOF) {
		return true
	}

	return containsTransientPattern(err)
}

// containsTransientPattern is a fallback for wrapped errors from third-party
// code where the type checks above fail.
func containsTransientPattern(err error) bool {
	errStr := strings.ToLower(err.Error())
	patterns := []string{
		"connection refused",
		"connection reset",
		"network is down",
		"network unreachable",
		"i/o timeout",
		"temporary failure",
		"broken pipe",
		"eof",
	}
	for _, p := range patterns {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}

// isPermanentError reports whether err will not succeed on retry.
func isPermanentError(err error) bool {
	if err == nil {
		return false
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return true
	}

	if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EHOSTDOWN) {
		return true
	}

	return containsPermanentPattern(err)
}

func containsPermanentPattern(err error) bool {
	errStr := strings.ToLower(err.Error())
	patterns := []string{
		"x509:",
		"certificate",
		"tls:",
		"no route to host",
		"permission denied",
		"unsupported protocol scheme",
	}
	for _, p := range patterns {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}
