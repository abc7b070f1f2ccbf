package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericmann/firebreak/pkg/audit"
	"github.com/ericmann/firebreak/pkg/classify"
	"github.com/ericmann/firebreak/pkg/config"
	"github.com/ericmann/firebreak/pkg/intercept"
	"github.com/ericmann/firebreak/pkg/policy"
	"github.com/ericmann/firebreak/pkg/policy/engine"
	"github.com/ericmann/firebreak/pkg/providers"
	"github.com/ericmann/firebreak/pkg/providers/anthropic"
	"github.com/ericmann/firebreak/pkg/server"
	"github.com/ericmann/firebreak/pkg/telemetry/logging"
	"github.com/ericmann/firebreak/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	policyPath    string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Firebreak proxy server",
	Long: `Start the Firebreak proxy server with the specified configuration.

The server listens on the configured address and runs every chat
completion request through the classification and policy evaluation
pipeline before forwarding it downstream.

Examples:
  # Start with default config
  firebreak run

  # Start with custom config
  firebreak run --config /etc/firebreak/config.yaml

  # Override listen address
  firebreak run --listen 0.0.0.0:8080

  # Validate config without starting server
  firebreak run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().StringVarP(&runFlags.policyPath, "policy", "p", "", "override policy file path")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config and policy without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if runFlags.policyPath != "" {
		cfg.Policy.Path = runFlags.policyPath
	}

	logger, err := logging.Setup(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return err
	}

	// Load and validate the policy before anything else touches the
	// network. An invalid policy must never leave the proxy half-armed.
	pol, err := policy.Load(cfg.Policy.Path)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		fmt.Printf("✓ Policy %q version %s valid (%d rules, %d categories)\n",
			pol.Name, pol.Version, len(pol.Rules), len(pol.Categories))
		return nil
	}

	fmt.Printf("Firebreak v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")
	fmt.Printf("✓ Policy loaded: %s (%d rules)\n", pol.Name, len(pol.Rules))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Audit backend.
	var auditLog audit.Log
	switch cfg.Audit.Backend {
	case "sqlite":
		sqliteLog, err := audit.NewSQLiteLog(audit.DefaultSQLiteConfig(cfg.Audit.SQLitePath))
		if err != nil {
			return fmt.Errorf("failed to open audit database: %w", err)
		}
		auditLog = sqliteLog

		if cfg.Audit.PruneSchedule != "" {
			scheduler := audit.NewScheduler(sqliteLog, audit.RetentionConfig{
				RetentionDays: cfg.Audit.RetentionDays,
				Schedule:      cfg.Audit.PruneSchedule,
			})
			if err := scheduler.Start(ctx); err != nil {
				logger.Warn("failed to start audit retention scheduler", "error", err)
			} else {
				defer scheduler.Stop()
			}
		}
	case "memory":
		auditLog = audit.NewMemoryLog()
	default:
		return fmt.Errorf("unsupported audit backend: %s", cfg.Audit.Backend)
	}
	defer auditLog.Close()
	fmt.Printf("✓ Audit trail initialized (%s)\n", cfg.Audit.Backend)

	// Downstream provider, shared by the classifier and the forwarder.
	provider, err := anthropic.New(providers.Config{
		Name:       "anthropic",
		BaseURL:    cfg.Provider.BaseURL,
		APIKey:     cfg.Provider.APIKey,
		Timeout:    cfg.Provider.Timeout,
		MaxRetries: cfg.Provider.MaxRetries,
	})
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}
	defer provider.Close()

	// Classifier with optional snapshot preload.
	cache := classify.NewCache()
	if cfg.Classifier.CacheSnapshot != "" {
		n, err := cache.LoadSnapshot(cfg.Classifier.CacheSnapshot)
		if err != nil {
			logger.Warn("failed to load classification snapshot",
				"path", cfg.Classifier.CacheSnapshot,
				"error", err,
			)
		} else {
			fmt.Printf("✓ Classification cache primed (%d entries)\n", n)
		}
	}
	oracle := classify.NewLLMOracle(provider, cfg.Classifier.Model, cfg.Classifier.MaxTokens)
	classifier := classify.NewClassifier(oracle, pol.Categories,
		classify.WithCache(cache),
		classify.WithTimeout(cfg.Classifier.Timeout),
	)

	// Policy engine with optional hot reload.
	eng := engine.New(pol)
	if cfg.Policy.Watch {
		watcher := engine.NewWatcher(eng, cfg.Policy.Path)
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Error("policy watcher stopped", "error", err)
			}
		}()
		fmt.Printf("✓ Watching policy file: %s\n", cfg.Policy.Path)
	}

	// Metrics.
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(metrics.Config{}, nil)
	}

	// Interception pipeline.
	bus := intercept.NewBus()
	intercept.AttachLogObserver(bus, logger)

	var interceptOpts []intercept.Option
	if collector != nil {
		interceptOpts = append(interceptOpts, intercept.WithMetrics(collector))
	}
	interceptor := intercept.New(eng, classifier, auditLog, provider, bus, intercept.Config{
		ForwardModel:     cfg.Provider.Model,
		ForwardMaxTokens: cfg.Provider.MaxTokens,
		ForwardTimeout:   cfg.Provider.Timeout,
	}, interceptOpts...)

	// HTTP front door.
	var serverOpts []server.Option
	if collector != nil {
		serverOpts = append(serverOpts, server.WithMetrics(collector, cfg.Telemetry.Metrics.Path))
	}
	srv := server.New(&cfg.Proxy, interceptor, serverOpts...)

	fmt.Printf("✓ Server listening on %s\n", cfg.Proxy.ListenAddress)
	fmt.Printf("✓ Chat endpoint: http://%s/v1/chat/completions\n", cfg.Proxy.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Proxy.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start(ctx)
}
