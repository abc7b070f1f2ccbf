package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// HTTPClient is the shared base for HTTP provider adapters. It owns a pooled
// http.Client and implements retry with exponential backoff for transient
// failures. Concrete adapters embed it and supply wire transformation.
type HTTPClient struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// NewHTTPClient creates the base client with connection pooling.
func NewHTTPClient(config Config) *HTTPClient {
	config = config.withDefaults()

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPClient{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		logger: slog.Default().With("component", "providers", "provider", config.Name),
	}
}

// Config returns the client's configuration.
func (c *HTTPClient) Config() Config {
	return c.config
}

// Name returns the provider instance name.
func (c *HTTPClient) Name() string {
	return c.config.Name
}

// Close releases pooled idle connections.
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// DoJSON posts a JSON body and decodes a JSON response, retrying transient
// failures with exponential backoff. Non-2xx responses become *ProviderError
// carrying the status code; transport faults become *ProviderError with
// StatusCode 0.
func (c *HTTPClient) DoJSON(ctx context.Context, method, url string, reqBody, respBody any, headers map[string]string) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	var lastErr *ProviderError
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			c.logger.Debug("retrying provider request",
				"attempt", attempt,
				"max_retries", c.config.MaxRetries,
				"backoff", backoff,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = c.doOnce(ctx, method, url, payload, respBody, headers)
		if lastErr == nil {
			return nil
		}
		if !lastErr.Retryable() {
			return lastErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}

// doOnce performs a single request attempt.
func (c *HTTPClient) doOnce(ctx context.Context, method, url string, payload []byte, respBody any, headers map[string]string) *ProviderError {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return &ProviderError{Provider: c.config.Name, Message: err.Error(), Err: err}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &ProviderError{Provider: c.config.Name, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return &ProviderError{Provider: c.config.Name, Message: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ProviderError{
			Provider:   c.config.Name,
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	if err := json.Unmarshal(body, respBody); err != nil {
		return &ProviderError{
			Provider: c.config.Name,
			Message:  fmt.Sprintf("failed to decode response: %v", err),
			Err:      err,
		}
	}
	return nil
}
