package config

import "time"

// Default values for configuration fields.
const (
	// Proxy defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Policy defaults
	DefaultPolicyPath = "policies/policy.yaml"

	// Classifier defaults
	DefaultClassifierModel     = "claude-3-5-haiku-latest"
	DefaultClassifierMaxTokens = 256
	DefaultClassifierTimeout   = 15 * time.Second

	// Provider defaults
	DefaultProviderBaseURL    = "https://api.anthropic.com"
	DefaultProviderModel      = "claude-sonnet-4-5"
	DefaultProviderMaxTokens  = 1024
	DefaultProviderTimeout    = 60 * time.Second
	DefaultProviderMaxRetries = 3

	// Audit defaults
	DefaultAuditBackend    = "memory"
	DefaultAuditSQLitePath = "data/audit.db"

	// Telemetry defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"
	DefaultMetricsPath   = "/metrics"
)

// ApplyDefaults applies default values to a Config struct. It sets
// defaults for any fields that have zero values and is idempotent.
func ApplyDefaults(cfg *Config) {
	// Proxy defaults
	if cfg.Proxy.ListenAddress == "" {
		cfg.Proxy.ListenAddress = DefaultListenAddress
	}
	if cfg.Proxy.ReadTimeout == 0 {
		cfg.Proxy.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Proxy.WriteTimeout == 0 {
		cfg.Proxy.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Proxy.IdleTimeout == 0 {
		cfg.Proxy.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Proxy.ShutdownTimeout == 0 {
		cfg.Proxy.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Proxy.MaxHeaderBytes == 0 {
		cfg.Proxy.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Policy defaults
	if cfg.Policy.Path == "" {
		cfg.Policy.Path = DefaultPolicyPath
	}

	// Classifier defaults
	if cfg.Classifier.Model == "" {
		cfg.Classifier.Model = DefaultClassifierModel
	}
	if cfg.Classifier.MaxTokens == 0 {
		cfg.Classifier.MaxTokens = DefaultClassifierMaxTokens
	}
	if cfg.Classifier.Timeout == 0 {
		cfg.Classifier.Timeout = DefaultClassifierTimeout
	}

	// Provider defaults
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = DefaultProviderBaseURL
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultProviderModel
	}
	if cfg.Provider.MaxTokens == 0 {
		cfg.Provider.MaxTokens = DefaultProviderMaxTokens
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = DefaultProviderTimeout
	}
	if cfg.Provider.MaxRetries == 0 {
		cfg.Provider.MaxRetries = DefaultProviderMaxRetries
	}

	// Audit defaults
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.SQLitePath == "" {
		cfg.Audit.SQLitePath = DefaultAuditSQLitePath
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

// DefaultConfig returns a configuration with all defaults applied. The
// metrics endpoint is enabled by default.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}
