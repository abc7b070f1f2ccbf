// Package providertest provides a mock Anthropic-style HTTP server for
// testing the provider adapter and retry behavior.
package providertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockServer is a mock HTTP server that simulates provider API responses
// including errors and delays.
type MockServer struct {
	server       *httptest.Server
	responses    map[string]MockResponse
	requestCount int
	mu           sync.Mutex
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode int
	Body       any
	Delay      time.Duration
	Headers    map[string]string
}

// NewMockServer creates a new mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string]MockResponse),
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse sets a mock response for a specific endpoint.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[path] = response
}

// RequestCount returns the number of requests received.
func (ms *MockServer) RequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.requestCount
}

// ResetRequestCount resets the request counter.
func (ms *MockServer) ResetRequestCount() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.requestCount = 0
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	ms.mu.Lock()
	ms.requestCount++
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		time.Sleep(response.Delay)
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	w.WriteHeader(response.StatusCode)

	if response.Body != nil {
		switch v := response.Body.(type) {
		case string:
			_, _ = w.Write([]byte(v))
		case []byte:
			_, _ = w.Write(v)
		default:
			_ = json.NewEncoder(w).Encode(response.Body)
		}
	}
}

// MessagesResponse creates a mock Anthropic messages response.
func MessagesResponse(content string, model string) map[string]any {
	return map[string]any{
		"id":   "msg_123",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{
				"type": "text",
				"text": content,
			},
		},
		"model":       model,
		"stop_reason": "end_turn",
		"usage": map[string]any{
			"input_tokens":  10,
			"output_tokens": 20,
		},
	}
}

// ErrorResponse creates a mock error response.
func ErrorResponse(statusCode int, message string) MockResponse {
	body := map[string]any{
		"error": map[string]any{
			"type":    "invalid_request_error",
			"message": message,
		},
	}
	return MockResponse{
		StatusCode: statusCode,
		Body:       body,
	}
}

// AuthError creates a 401 authentication error response.
func AuthError() MockResponse {
	return ErrorResponse(http.StatusUnauthorized, "Invalid API key")
}

// RateLimitError creates a 429 rate limit error response.
func RateLimitError(retryAfter int) MockResponse {
	response := ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded")
	response.Headers = map[string]string{
		"Retry-After": fmt.Sprintf("%d", retryAfter),
	}
	return response
}

// ServerError creates a 500 internal server error response.
func ServerError() MockResponse {
	return ErrorResponse(http.StatusInternalServerError, "Internal server error")
}
