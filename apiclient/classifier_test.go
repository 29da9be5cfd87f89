package apiclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		resp *http.Response
		err  error
		want Outcome
	}{
		{
			name: "given 200, then success",
			resp: &http.Response{StatusCode: http.StatusOK},
			want: OutcomeSuccess,
		},
		{
			name: "given 201, then success",
			resp: &http.Response{StatusCode: http.StatusCreated},
			want: OutcomeSuccess,
		},
		{
			name: "given 429, then rate limited",
			resp: &http.Response{StatusCode: http.StatusTooManyRequests},
			want: OutcomeRateLimited,
		},
		{
			name: "given 500, then transient",
			resp: &http.Response{StatusCode: http.StatusInternalServerError},
			want: OutcomeTransient,
		},
		{
			name: "given 503, then transient",
			resp: &http.Response{StatusCode: http.StatusServiceUnavailable},
			want: OutcomeTransient,
		},
		{
			name: "given 400, then terminal",
			resp: &http.Response{StatusCode: http.StatusBadRequest},
			want: OutcomeTerminal,
		},
		{
			name: "given 401, then terminal",
			resp: &http.Response{StatusCode: http.StatusUnauthorized},
			want: OutcomeTerminal,
		},
		{
			name: "given 404, then terminal",
			resp: &http.Response{StatusCode: http.StatusNotFound},
			want: OutcomeTerminal,
		},
		{
			name: "given connection refused, then transient",
			err:  syscall.ECONNREFUSED,
			want: OutcomeTransient,
		},
		{
			name: "given timeout, then transient",
			err:  &net.DNSError{IsTimeout: true},
			want: OutcomeTransient,
		},
		{
			name: "given DNS not found, then terminal",
			err:  &net.DNSError{IsNotFound: true},
			want: OutcomeTerminal,
		},
		{
			name: "given certificate error, then terminal",
			err:  errors.New("x509: certificate signed by unknown authority"),
			want: OutcomeTerminal,
		},
		{
			name: "given context canceled, then terminal",
			err:  context.Canceled,
			want: OutcomeTerminal,
		},
		{
			name: "given deadline exceeded, then terminal",
			err:  context.DeadlineExceeded,
			want: OutcomeTerminal,
		},
		{
			name: "given unknown error, then transient",
			err:  errors.New("something flaky happened"),
			want: OutcomeTransient,
		},
		{
			name: "given nil response and nil error, then terminal",
			want: OutcomeTerminal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.resp, tt.err))
		})
	}
}

func TestIsRetryableNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "connection reset", err: syscall.ECONNRESET, want: true},
		{name: "broken pipe", err: syscall.EPIPE, want: true},
		{name: "host unreachable", err: syscall.EHOSTUNREACH, want: true},
		{name: "temporary DNS failure", err: &net.DNSError{IsTemporary: true}, want: true},
		{name: "DNS NXDOMAIN", err: &net.DNSError{IsNotFound: true}, want: false},
		{name: "wrapped reset message", err: errors.New("read tcp: connection reset by peer"), want: true},
		{name: "plain application error", err: errors.New("bad payload"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableNetworkError(tt.err))
		})
	}
}

func TestIsPermanentError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "certificate failure", err: errors.New("x509: certificate has expired"), want: true},
		{name: "tls alert", err: errors.New("tls: handshake failure"), want: true},
		{name: "permission denied", err: syscall.EACCES, want: true},
		{name: "connection refused", err: syscall.ECONNREFUSED, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isPermanentError(tt.err))
		})
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "rate_limited", OutcomeRateLimited.String())
	assert.Equal(t, "transient", OutcomeTransient.String())
	assert.Equal(t, "terminal", OutcomeTerminal.String())
}
