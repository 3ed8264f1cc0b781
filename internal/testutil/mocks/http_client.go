package mocks

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// MockHTTPClient is a mock implementation of ports.HTTPClient for testing
type MockHTTPClient struct {
	mu     sync.Mutex
	DoFunc func(req *http.Request) (*http.Response, error)
	Calls  []*http.Request
}

// NewMockHTTPClient creates a new mock HTTP client
func NewMockHTTPClient(doFunc func(req *http.Request) (*http.Response, error)) *MockHTTPClient {
	return &MockHTTPClient{
		DoFunc: doFunc,
		Calls:  []*http.Request{},
	}
}

// Do executes the mock function and captures the call
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()

	if m.DoFunc != nil {
		return m.DoFunc(req)
	}
	// Default approval
	return XMLResponse(http.StatusOK, `<txn><ssl_result>0</ssl_result><ssl_result_message>APPROVAL</ssl_result_message></txn>`), nil
}

// CallCount returns the number of requests sent
func (m *MockHTTPClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// XMLResponse builds an HTTP response carrying an XML body
func XMLResponse(status int, body string) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "text/xml")
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     header,
	}
}
