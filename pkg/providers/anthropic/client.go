// Package anthropic implements the providers.Provider adapter for the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericmann/firebreak/pkg/providers"
)

// APIVersion is the Anthropic API version header value.
const APIVersion = "2023-06-01"

// DefaultBaseURL is the production Anthropic endpoint.
const DefaultBaseURL = "https://api.anthropic.com"

// Client is the Anthropic provider adapter.
type Client struct {
	*providers.HTTPClient
}

// New creates a new Anthropic client.
func New(config providers.Config) (*Client, error) {
	if config.Name == "" {
		config.Name = "anthropic"
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required",
		}
	}

	c := &Client{
		HTTPClient: providers.NewHTTPClient(config),
	}

	slog.Info("anthropic provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)
	return c, nil
}

// Complete sends a completion request to the Messages API.
func (c *Client) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/messages", c.Config().BaseURL)
	headers := map[string]string{
		"x-api-key":         c.Config().APIKey,
		"anthropic-version": APIVersion,
		"Content-Type":      "application/json",
	}

	var apiResp messagesResponse
	if err := c.DoJSON(ctx, "POST", url, transformRequest(req), &apiResp, headers); err != nil {
		return nil, err
	}

	resp, err := transformResponse(&apiResp)
	if err != nil {
		return nil, &providers.ProviderError{
			Provider: c.Name(),
			Message:  err.Error(),
			Err:      err,
		}
	}
	return resp, nil
}

// validateRequest rejects requests the API would refuse anyway.
func validateRequest(req *providers.CompletionRequest) error {
	if req.Model == "" {
		return &providers.ConfigError{Provider: "anthropic", Field: "model", Message: "model is required"}
	}
	if len(req.Messages) == 0 {
		return &providers.ConfigError{Provider: "anthropic", Field: "messages", Message: "at least one message is required"}
	}
	return nil
}

var _ providers.Provider = (*Client)(nil)
