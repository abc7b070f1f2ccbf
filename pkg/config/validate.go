package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "proxy.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// ValidationError if any validation rules fail. All validation errors are
// collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validatePolicy(&cfg.Policy)...)
	errs = append(errs, validateClassifier(&cfg.Classifier)...)
	errs = append(errs, validateProvider(&cfg.Provider)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateProxy validates proxy configuration.
func validateProxy(cfg *ProxyConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "proxy.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}

	return errs
}

// validatePolicy validates policy configuration.
func validatePolicy(cfg *PolicyConfig) []FieldError {
	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "policy.path",
			Message: "policy file path is required",
		})
	}

	return errs
}

// validateClassifier validates classifier configuration.
func validateClassifier(cfg *ClassifierConfig) []FieldError {
	var errs []FieldError

	if cfg.Model == "" {
		errs = append(errs, FieldError{
			Field:   "classifier.model",
			Message: "classifier model is required",
		})
	}
	if cfg.MaxTokens < 0 {
		errs = append(errs, FieldError{
			Field:   "classifier.max_tokens",
			Message: "max tokens must be non-negative",
		})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "classifier.timeout",
			Message: "timeout must be positive",
		})
	}

	return errs
}

// validateProvider validates provider configuration.
func validateProvider(cfg *ProviderConfig) []FieldError {
	var errs []FieldError

	if cfg.BaseURL == "" {
		errs = append(errs, FieldError{
			Field:   "provider.base_url",
			Message: "base URL is required",
		})
	} else if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "provider.base_url",
			Message: fmt.Sprintf("invalid base URL %q", cfg.BaseURL),
		})
	}

	if cfg.APIKey == "" {
		errs = append(errs, FieldError{
			Field:   "provider.api_key",
			Message: "API key is required",
		})
	}
	if cfg.Model == "" {
		errs = append(errs, FieldError{
			Field:   "provider.model",
			Message: "provider model is required",
		})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{
			Field:   "provider.max_retries",
			Message: "max retries must be non-negative",
		})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "provider.timeout",
			Message: "timeout must be positive",
		})
	}

	return errs
}

// validateAudit validates audit configuration.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("unknown backend %q (must be \"memory\" or \"sqlite\")", cfg.Backend),
		})
	}

	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite_path",
			Message: "sqlite path is required when backend is \"sqlite\"",
		})
	}

	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention_days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.PruneSchedule != "" && cfg.RetentionDays == 0 {
		errs = append(errs, FieldError{
			Field:   "audit.prune_schedule",
			Message: "prune schedule requires retention_days > 0",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown log level %q", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown log format %q", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with \"/\"",
		})
	}

	return errs
}
