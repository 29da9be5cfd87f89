package apiclient

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetWait(t *testing.T) {
	cfg := DefaultRateLimitConfig()

	tests := []struct {
		name   string
		header http.Header
		want   time.Duration
	}{
		{
			name:   "given whole seconds, then parses the delay",
			header: http.Header{"Retry-After": []string{"30"}},
			want:   30 * time.Second,
		},
		{
			name:   "given zero, then no wait",
			header: http.Header{"Retry-After": []string{"0"}},
			want:   0,
		},
		{
			name:   "given missing header, then fallback",
			header: http.Header{},
			want:   DefaultRateLimitWait,
		},
		{
			name:   "given non-numeric value, then fallback",
			header: http.Header{"Retry-After": []string{"Mon, 02 Jan 2006"}},
			want:   DefaultRateLimitWait,
		},
		{
			name:   "given negative value, then fallback",
			header: http.Header{"Retry-After": []string{"-1"}},
			want:   DefaultRateLimitWait,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: tt.header}
			assert.Equal(t, tt.want, resetWait(resp, cfg))
		})
	}
}

func TestResetWait_NilResponse(t *testing.T) {
	assert.Equal(t, DefaultRateLimitWait, resetWait(nil, DefaultRateLimitConfig()))
}

func TestResetWait_CustomHeader(t *testing.T) {
	cfg := RateLimitConfig{ResetHeader: "X-Org-Rate-Limit-Reset", FallbackWait: 5 * time.Second}
	resp := &http.Response{
		StatusCode: http.StatusTooManyRequests,
		Header:     http.Header{"X-Org-Rate-Limit-Reset": []string{"12"}},
	}
	assert.Equal(t, 12*time.Second, resetWait(resp, cfg))
}

func TestThrottleTransport_FailFast(t *testing.T) {
	mt := NewMockTransport().StubResponse(http.StatusOK, "{}")
	rt := newThrottleTransport(mt, ThrottleConfig{
		RequestsPerSecond: 1,
		Burst:             1,
		WaitOnLimit:       false,
	})

	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/v7/agents", nil)
	require.NoError(t, err)

	// First request consumes the only token.
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	// Second request in the same instant must be rejected.
	_, err = rt.RoundTrip(req)
	assert.ErrorIs(t, err, ErrThrottled)
	assert.Equal(t, 1, mt.CallCount())
}

func TestThrottleTransport_DisabledPassthrough(t *testing.T) {
	mt := NewMockTransport().StubResponse(http.StatusOK, "{}")
	rt := newThrottleTransport(mt, ThrottleConfig{})

	// Zero rate means the wrapper is not installed at all.
	assert.Equal(t, http.RoundTripper(mt), rt)
}
