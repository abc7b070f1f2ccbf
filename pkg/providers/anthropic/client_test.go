package anthropic

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/ericmann/firebreak/internal/providertest"
	"github.com/ericmann/firebreak/pkg/providers"
)

func newTestClient(t *testing.T, ms *providertest.MockServer, maxRetries int) *Client {
	t.Helper()
	client, err := New(providers.Config{
		Name:       "anthropic",
		BaseURL:    ms.URL(),
		APIKey:     "test-key",
		Timeout:    10 * time.Second,
		MaxRetries: maxRetries,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func completionRequest() *providers.CompletionRequest {
	return &providers.CompletionRequest{
		Model:     "claude-sonnet-4-5",
		MaxTokens: 100,
		Messages: []providers.Message{
			{Role: "user", Content: "Hello"},
		},
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(providers.Config{BaseURL: "http://localhost"})
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T", err)
	}
	if cfgErr.Field != "api_key" {
		t.Errorf("unexpected field: %q", cfgErr.Field)
	}
}

func TestCompleteSuccess(t *testing.T) {
	ms := providertest.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/v1/messages", providertest.MockResponse{
		StatusCode: http.StatusOK,
		Body:       providertest.MessagesResponse("Hello there", "claude-sonnet-4-5"),
	})

	client := newTestClient(t, ms, 0)
	resp, err := client.Complete(context.Background(), completionRequest())
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.Content != "Hello there" {
		t.Errorf("unexpected content: %q", resp.Content)
	}
	if resp.Model != "claude-sonnet-4-5" {
		t.Errorf("unexpected model: %q", resp.Model)
	}
	if resp.StopReason != "end_turn" {
		t.Errorf("unexpected stop reason: %q", resp.StopReason)
	}
	if resp.Usage.TotalTokens != 30 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}
	if ms.RequestCount() != 1 {
		t.Errorf("expected 1 request, got %d", ms.RequestCount())
	}
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	ms := providertest.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/v1/messages", providertest.ServerError())

	client := newTestClient(t, ms, 1)
	_, err := client.Complete(context.Background(), completionRequest())
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}

	var provErr *providers.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %T: %v", err, err)
	}
	if provErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("unexpected status: %d", provErr.StatusCode)
	}
	// Initial attempt plus one retry.
	if ms.RequestCount() != 2 {
		t.Errorf("expected 2 requests, got %d", ms.RequestCount())
	}
}

func TestCompleteRecoversMidRetry(t *testing.T) {
	ms := providertest.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/v1/messages", providertest.ServerError())

	// The server heals during the backoff before the retry attempt.
	timer := time.AfterFunc(200*time.Millisecond, func() {
		ms.SetResponse("/v1/messages", providertest.MockResponse{
			StatusCode: http.StatusOK,
			Body:       providertest.MessagesResponse("recovered", "claude-sonnet-4-5"),
		})
	})
	defer timer.Stop()

	client := newTestClient(t, ms, 1)
	resp, err := client.Complete(context.Background(), completionRequest())
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if resp.Content != "recovered" {
		t.Errorf("unexpected content: %q", resp.Content)
	}
	if ms.RequestCount() != 2 {
		t.Errorf("expected 2 requests, got %d", ms.RequestCount())
	}
}

func TestCompleteDoesNotRetryAuthErrors(t *testing.T) {
	ms := providertest.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/v1/messages", providertest.AuthError())

	client := newTestClient(t, ms, 3)
	_, err := client.Complete(context.Background(), completionRequest())
	if err == nil {
		t.Fatal("expected auth error")
	}

	var provErr *providers.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if provErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("unexpected status: %d", provErr.StatusCode)
	}
	if provErr.Retryable() {
		t.Error("401 must not be retryable")
	}
	if ms.RequestCount() != 1 {
		t.Errorf("401 must not be retried, got %d requests", ms.RequestCount())
	}
}

func TestCompleteValidatesRequest(t *testing.T) {
	ms := providertest.NewMockServer()
	defer ms.Close()
	client := newTestClient(t, ms, 0)

	tests := []struct {
		name string
		req  *providers.CompletionRequest
	}{
		{"missing model", &providers.CompletionRequest{Messages: []providers.Message{{Role: "user", Content: "hi"}}}},
		{"no messages", &providers.CompletionRequest{Model: "claude-sonnet-4-5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Complete(context.Background(), tt.req)
			var cfgErr *providers.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected ConfigError, got %v", err)
			}
		})
	}
	if ms.RequestCount() != 0 {
		t.Errorf("invalid requests must not hit the wire, got %d", ms.RequestCount())
	}
}

func TestCompleteContextCancellation(t *testing.T) {
	ms := providertest.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/v1/messages", providertest.MockResponse{
		StatusCode: http.StatusOK,
		Body:       providertest.MessagesResponse("slow", "claude-sonnet-4-5"),
		Delay:      2 * time.Second,
	})

	client := newTestClient(t, ms, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Complete(ctx, completionRequest())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation took too long: %v", elapsed)
	}
	if !providers.IsTimeout(err) {
		t.Errorf("expected a timeout-shaped error, got %v", err)
	}
}

func TestCompleteEmptyContentBlocks(t *testing.T) {
	ms := providertest.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/v1/messages", providertest.MockResponse{
		StatusCode: http.StatusOK,
		Body: map[string]any{
			"id":          "msg_123",
			"type":        "message",
			"role":        "assistant",
			"content":     []any{},
			"model":       "claude-sonnet-4-5",
			"stop_reason": "end_turn",
		},
	})

	client := newTestClient(t, ms, 0)
	_, err := client.Complete(context.Background(), completionRequest())
	if err == nil {
		t.Fatal("expected error for empty content")
	}
	var provErr *providers.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
}
