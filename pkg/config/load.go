package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = true
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow the
// naming convention FIREBREAK_SECTION_FIELD (e.g.,
// FIREBREAK_PROXY_LISTEN_ADDRESS) and always take precedence over
// file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables use the format FIREBREAK_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Proxy overrides
	if val := os.Getenv("FIREBREAK_PROXY_LISTEN_ADDRESS"); val != "" {
		cfg.Proxy.ListenAddress = val
	}
	if val := os.Getenv("FIREBREAK_PROXY_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.ReadTimeout = d
		}
	}
	if val := os.Getenv("FIREBREAK_PROXY_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.WriteTimeout = d
		}
	}
	if val := os.Getenv("FIREBREAK_PROXY_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.ShutdownTimeout = d
		}
	}

	// Policy overrides
	if val := os.Getenv("FIREBREAK_POLICY_PATH"); val != "" {
		cfg.Policy.Path = val
	}
	if val := os.Getenv("FIREBREAK_POLICY_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Policy.Watch = b
		}
	}

	// Classifier overrides
	if val := os.Getenv("FIREBREAK_CLASSIFIER_MODEL"); val != "" {
		cfg.Classifier.Model = val
	}
	if val := os.Getenv("FIREBREAK_CLASSIFIER_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Classifier.Timeout = d
		}
	}
	if val := os.Getenv("FIREBREAK_CLASSIFIER_CACHE_SNAPSHOT"); val != "" {
		cfg.Classifier.CacheSnapshot = val
	}

	// Provider overrides
	if val := os.Getenv("FIREBREAK_PROVIDER_BASE_URL"); val != "" {
		cfg.Provider.BaseURL = val
	}
	if val := os.Getenv("FIREBREAK_PROVIDER_API_KEY"); val != "" {
		cfg.Provider.APIKey = val
	}
	if val := os.Getenv("FIREBREAK_PROVIDER_MODEL"); val != "" {
		cfg.Provider.Model = val
	}
	if val := os.Getenv("FIREBREAK_PROVIDER_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Provider.Timeout = d
		}
	}
	if val := os.Getenv("FIREBREAK_PROVIDER_MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Provider.MaxRetries = i
		}
	}

	// Audit overrides
	if val := os.Getenv("FIREBREAK_AUDIT_BACKEND"); val != "" {
		cfg.Audit.Backend = val
	}
	if val := os.Getenv("FIREBREAK_AUDIT_SQLITE_PATH"); val != "" {
		cfg.Audit.SQLitePath = val
	}
	if val := os.Getenv("FIREBREAK_AUDIT_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.RetentionDays = i
		}
	}
	if val := os.Getenv("FIREBREAK_AUDIT_PRUNE_SCHEDULE"); val != "" {
		cfg.Audit.PruneSchedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("FIREBREAK_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("FIREBREAK_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("FIREBREAK_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("FIREBREAK_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
