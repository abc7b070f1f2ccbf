package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ProviderError describes a failure attributable to a downstream provider:
// a non-2xx API response or a terminal transport fault.
type ProviderError struct {
	// Provider is the provider instance name.
	Provider string

	// StatusCode is the HTTP status of the provider response, or 0 for
	// transport-level failures.
	StatusCode int

	// Message is the provider-supplied or transport error description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s returned status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s request failed: %s", e.Provider, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is worth retrying: transport
// faults, timeouts, 429 and 5xx responses.
func (e *ProviderError) Retryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// ConfigError describes an invalid provider configuration.
type ConfigError struct {
	Provider string
	Field    string
	Message  string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %s config: %s: %s", e.Provider, e.Field, e.Message)
}

// IsTimeout reports whether err represents a timed-out provider call.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
