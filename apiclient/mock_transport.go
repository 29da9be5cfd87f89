package apiclient

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// MockTransport is a scriptable http.RoundTripper for tests. Responses are
// enqueued in order, which makes retry sequences straightforward to express:
//
//	mt := apiclient.NewMockTransport().
//	    EnqueueWithHeader(429, "", map[string]string{"Retry-After": "60"}).
//	    Enqueue(200, `{"agents":[]}`)
//
// Once the queue is drained, the default stub (if set) answers remaining
// requests; otherwise RoundTrip fails.
type MockTransport struct {
	mu          sync.Mutex
	queue       []mockStub
	defaultResp *http.Response
	defaultErr  error
	requests    []*http.Request
}

type mockStub struct {
	status int
	body   string
	header http.Header
	err    error
}

// NewMockTransport creates an empty MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Enqueue appends a response with the given status and body to the script.
func (m *MockTransport) Enqueue(statusCode int, body string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockStub{status: statusCode, body: body})
	return m
}

// EnqueueWithHeader appends a response carrying the given headers.
func (m *MockTransport) EnqueueWithHeader(statusCode int, body string, header map[string]string) *MockTransport {
	h := make(http.Header, len(header))
	for k, v := range header {
		h.Set(k, v)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockStub{status: statusCode, body: body, header: h})
	return m
}

// EnqueueError appends a network-level error to the script.
func (m *MockTransport) EnqueueError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockStub{err: err})
	return m
}

// StubResponse sets the default response used once the queue is drained.
func (m *MockTransport) StubResponse(statusCode int, body string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResp = &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
	return m
}

// StubError sets the default error used once the queue is drained.
func (m *MockTransport) StubError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultErr = err
	return m
}

// RoundTrip implements http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.queue) > 0 {
		s := m.queue[0]
		m.queue = m.queue[1:]
		if s.err != nil {
			return nil, s.err
		}
		header := s.header
		if header == nil {
			header = make(http.Header)
		}
		return &http.Response{
			StatusCode: s.status,
			Status:     http.StatusText(s.status),
			Body:       io.NopCloser(bytes.NewBufferString(s.body)),
			Header:     header,
			Request:    req,
		}, nil
	}

	if m.defaultErr != nil {
		return nil, m.defaultErr
	}
	if m.defaultResp != nil {
		// Re-arm the body so the default can answer repeatedly.
		resp := *m.defaultResp
		buf, _ := io.ReadAll(m.defaultResp.Body)
		m.defaultResp.Body = io.NopCloser(bytes.NewReader(buf))
		resp.Body = io.NopCloser(bytes.NewReader(buf))
		resp.Request = req
		return &resp, nil
	}

	return nil, io.ErrUnexpectedEOF
}

// Requests returns the requests seen so far, in order.
func (m *MockTransport) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*http.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns how many round trips have been made.
func (m *MockTransport) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
