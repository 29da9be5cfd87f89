package apiclient

import (
	"net/http"
)

// Client is the resilient API client. It holds one reusable http.Client for
// the process lifetime; calls are sequential and the client itself keeps no
// per-call state.
//
//	client := apiclient.New(
//	    apiclient.WithBaseURL("https://api.example.com/v7"),
//	    apiclient.WithBearerToken(token),
//	)
//
//	resp, err := client.Request("ListAgents").Get(ctx, "agents")
type Client struct {
	httpClient *http.Client
	config     *internalConfig
	baseURL    string
}

// New assembles a Client from functional options. All process-wide
// configuration (base URL, credentials, retry budget) is bound here once,
// at startup; nothing is read from the environment at package init.
func New(opts ...Option) *Client {
	cfg := newConfig(opts...)

	httpClient := &http.Client{
		Transport: cfg.buildTransport(),
		Timeout:   cfg.httpConfig.Timeout,
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		baseURL:    cfg.BaseURL,
	}
}

// HTTP returns the underlying *http.Client for advanced use. Requests issued
// through it bypass the retry loop but still pass the throttle and breaker.
func (c *Client) HTTP() *http.Client {
	return c.httpClient
}

// Request starts building a call. The operation name labels spans, metrics,
// log lines, and returned errors.
func (c *Client) Request(operationName string) *RequestBuilder {
	return &RequestBuilder{
		client:        c,
		operationName: operationName,
		headers:       make(http.Header),
	}
}
