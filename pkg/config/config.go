// Package config defines the Firebreak configuration structure, loading,
// defaults, and validation. Configuration comes from a YAML file with
// optional FIREBREAK_* environment variable overrides.
package config

import "time"

// Config is the root configuration structure for Firebreak. It contains
// all configuration sections for the proxy server, policy engine, intent
// classifier, downstream provider, audit trail, and telemetry.
type Config struct {
	// Proxy contains HTTP proxy server configuration including listen
	// address, timeouts, and header limits.
	Proxy ProxyConfig `yaml:"proxy"`

	// Policy contains configuration for the policy engine including the
	// policy file location and watch mode.
	Policy PolicyConfig `yaml:"policy"`

	// Classifier contains configuration for the intent classifier.
	Classifier ClassifierConfig `yaml:"classifier"`

	// Provider contains configuration for the downstream LLM provider
	// used for both classification and forwarding.
	Provider ProviderConfig `yaml:"provider"`

	// Audit contains configuration for the audit trail backend and
	// retention.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains configuration for observability including
	// logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains configuration for the HTTP proxy server.
type ProxyConfig struct {
	// ListenAddress is the address and port for the proxy to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of
	// the response. This bounds the whole pipeline run, including the
	// downstream model call, so it must exceed the provider timeout.
	// Default: 120s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next
	// request when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown before in-flight requests are abandoned.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// PolicyConfig contains configuration for the policy engine.
type PolicyConfig struct {
	// Path is the path to the policy YAML file.
	// Default: "policies/policy.yaml"
	Path string `yaml:"path"`

	// Watch enables automatic reloading when the policy file changes.
	// A reload that fails validation keeps the previous policy active.
	// Default: false
	Watch bool `yaml:"watch"`
}

// ClassifierConfig contains configuration for the intent classifier.
type ClassifierConfig struct {
	// Model is the model identifier used for classification calls.
	// Default: "claude-3-5-haiku-latest"
	Model string `yaml:"model"`

	// MaxTokens caps the classification completion length.
	// Default: 256
	MaxTokens int `yaml:"max_tokens"`

	// Timeout bounds a single classification call. On expiry the request
	// proceeds with the sentinel classification.
	// Default: 15s
	Timeout time.Duration `yaml:"timeout"`

	// CacheSnapshot is an optional path to a JSON snapshot of prior
	// classifications loaded into the cache at startup. Empty disables
	// snapshot loading.
	CacheSnapshot string `yaml:"cache_snapshot"`
}

// ProviderConfig contains configuration for the downstream LLM provider.
type ProviderConfig struct {
	// BaseURL is the base URL for the provider's API endpoint.
	// Default: "https://api.anthropic.com"
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication key for the provider.
	// This should typically be loaded from an environment variable.
	APIKey string `yaml:"api_key"`

	// Model is the model identifier used when forwarding allowed
	// requests downstream.
	// Default: "claude-sonnet-4-5"
	Model string `yaml:"model"`

	// MaxTokens caps the forwarded completion length.
	// Default: 1024
	MaxTokens int `yaml:"max_tokens"`

	// Timeout is the maximum duration for requests to the provider.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the maximum number of retry attempts for failed
	// requests.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`
}

// AuditConfig contains configuration for the audit trail.
type AuditConfig struct {
	// Backend specifies the audit storage backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the file path for the SQLite database when Backend
	// is "sqlite".
	// Default: "data/audit.db"
	SQLitePath string `yaml:"sqlite_path"`

	// RetentionDays is the number of days to retain audit entries.
	// 0 means keep entries forever.
	// Default: 0
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for scheduling retention
	// pruning. Empty disables scheduled pruning.
	// Example: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether the Prometheus endpoint is exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`
}
