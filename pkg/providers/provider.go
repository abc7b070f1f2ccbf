// Package providers defines the provider-agnostic client abstraction for
// downstream language-model APIs, plus a shared HTTP base with connection
// pooling, bounded timeouts, and retry with exponential backoff.
package providers

import (
	"context"
	"time"
)

// Provider is the interface all downstream model adapters implement.
//
// Implementations must respect context cancellation and deadlines: when the
// context is cancelled, Complete returns immediately with the context error.
type Provider interface {
	// Complete sends a completion request and returns the normalized
	// response. Transient transport failures are retried internally; the
	// returned error is the terminal failure, typed as *ProviderError
	// where a response or transport fault is attributable to the provider.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider's configured name (e.g. "anthropic").
	Name() string

	// Close releases held resources (idle HTTP connections).
	Close() error
}

// Config contains the settings shared by HTTP-based providers.
type Config struct {
	// Name identifies the provider instance.
	Name string

	// BaseURL is the provider's API endpoint base (no trailing slash).
	BaseURL string

	// APIKey authenticates requests to the provider.
	APIKey string

	// Timeout bounds a single request round trip, including retries' waits.
	// Default: 60s.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts for transient failures.
	// Default: 2.
	MaxRetries int

	// MaxIdleConns caps pooled idle connections. Default: 100.
	MaxIdleConns int

	// MaxIdleConnsPerHost caps pooled idle connections per host. Default: 10.
	MaxIdleConnsPerHost int
}

// withDefaults fills unset fields with conservative defaults.
func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 100
	}
	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = 10
	}
	return c
}
