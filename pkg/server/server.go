// Package server provides the HTTP front door for the enforcement proxy.
// It owns the listener lifecycle, route registration, and graceful
// shutdown; request semantics live in the proxy handlers.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ericmann/firebreak/pkg/config"
	"github.com/ericmann/firebreak/pkg/intercept"
	"github.com/ericmann/firebreak/pkg/proxy"
	"github.com/ericmann/firebreak/pkg/telemetry/metrics"
)

// Server is the HTTP proxy server for enforced LLM traffic.
type Server struct {
	config       *config.ProxyConfig
	interceptor  *intercept.Interceptor
	collector    *metrics.Collector
	metricsPath  string
	httpServer   *http.Server
	logger       *slog.Logger
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics exposes the collector's Prometheus endpoint at path.
func WithMetrics(c *metrics.Collector, path string) Option {
	return func(s *Server) {
		s.collector = c
		s.metricsPath = path
	}
}

// New creates a proxy server around an interceptor.
func New(cfg *config.ProxyConfig, interceptor *intercept.Interceptor, opts ...Option) *Server {
	s := &Server{
		config:       cfg,
		interceptor:  interceptor,
		logger:       slog.Default().With("component", "server"),
		shutdownChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting proxy server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server, waiting up to the configured
// shutdown timeout for in-flight requests to drain.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("proxy server stopped")
	})

	return shutdownErr
}

// Stop requests an asynchronous shutdown from Start.
func (s *Server) Stop() {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/v1/chat/completions", proxy.NewChatHandler(s.interceptor))
	mux.Handle("/v1/models", proxy.NewModelsHandler())
	mux.Handle("/health", proxy.NewHealthHandler())

	if s.collector != nil && s.metricsPath != "" {
		mux.Handle(s.metricsPath, s.collector.Handler())
	}

	return mux
}
