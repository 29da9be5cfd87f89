package apiclient

import (
	"errors"
	"net/http"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerTransport_PassesSuccessThrough(t *testing.T) {
	mt := NewMockTransport().StubResponse(http.StatusOK, "{}")
	cfg := DefaultBreakerConfig()
	rt := newBreakerTransport(mt, "test", &cfg)

	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/v7/agents", nil)
	require.NoError(t, err)

	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestBreakerTransport_ReturnsFailureResponse(t *testing.T) {
	// A 500 counts toward tripping but the response is still handed back
	// so the retry loop can classify it.
	mt := NewMockTransport().StubResponse(http.StatusInternalServerError, "")
	cfg := DefaultBreakerConfig()
	rt := newBreakerTransport(mt, "test", &cfg)

	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/v7/agents", nil)
	require.NoError(t, err)

	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	resp.Body.Close()
}

func TestBreakerTransport_OpensAfterConsecutiveFailures(t *testing.T) {
	mt := NewMockTransport().StubError(errors.New("connection refused"))
	cfg := DefaultBreakerConfig()
	cfg.ConsecutiveFailures = 3
	rt := newBreakerTransport(mt, "test", &cfg)

	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/v7/agents", nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, rerr := rt.RoundTrip(req)
		require.Error(t, rerr)
	}

	// The circuit is open now; the transport is no longer reached.
	calls := mt.CallCount()
	_, err = rt.RoundTrip(req)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, calls, mt.CallCount())
}

func TestBreakerTransport_NilConfigDisables(t *testing.T) {
	mt := NewMockTransport()
	assert.Equal(t, http.RoundTripper(mt), newBreakerTransport(mt, "test", nil))
}

func TestDefaultBreakerClassifier(t *testing.T) {
	tests := []struct {
		name string
		resp *http.Response
		err  error
		want bool
	}{
		{name: "500 counts", resp: &http.Response{StatusCode: 500}, want: true},
		{name: "network error counts", err: errors.New("connection reset by peer"), want: true},
		{name: "429 does not count", resp: &http.Response{StatusCode: 429}, want: false},
		{name: "404 does not count", resp: &http.Response{StatusCode: 404}, want: false},
		{name: "200 does not count", resp: &http.Response{StatusCode: 200}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultBreakerClassifier(tt.resp, tt.err))
		})
	}
}
