// Package intercept orchestrates the request evaluation pipeline:
// receive, classify, evaluate, forward or block, audit, alert.
//
// Each request runs the stages strictly in order with no skipping:
//
//	received -> classified -> evaluated -> {forwarded | blocked} -> logged
//
// Observers subscribe to the typed event Bus and see every stage exactly
// once per request, in order. No error in classification or evaluation can
// produce an allow outcome: classification failures arrive as the sentinel
// result and unmatched categories collapse to the engine's fail-closed
// BLOCK default.
package intercept

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericmann/firebreak/pkg/audit"
	"github.com/ericmann/firebreak/pkg/classify"
	"github.com/ericmann/firebreak/pkg/policy/engine"
	"github.com/ericmann/firebreak/pkg/providers"
	"github.com/ericmann/firebreak/pkg/telemetry/metrics"
)

// Config contains interceptor configuration.
type Config struct {
	// ForwardModel is the downstream model invoked for allowed requests.
	ForwardModel string

	// ForwardMaxTokens caps the downstream completion length. Default: 1024.
	ForwardMaxTokens int

	// ForwardTimeout bounds the downstream model call. Default: 60s.
	ForwardTimeout time.Duration
}

// Interceptor runs prompts through the full evaluation pipeline. It holds
// no per-request state; concurrent calls to EvaluateRequest are
// independent.
type Interceptor struct {
	engine     *engine.Engine
	classifier *classify.Classifier
	auditLog   audit.Log
	provider   providers.Provider
	bus        *Bus
	config     Config
	collector  *metrics.Collector
	logger     *slog.Logger
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithMetrics attaches a metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(i *Interceptor) { i.collector = c }
}

// New creates an interceptor wired to its collaborators. The bus may be
// shared with any number of passive observers.
func New(eng *engine.Engine, classifier *classify.Classifier, auditLog audit.Log, provider providers.Provider, bus *Bus, config Config, opts ...Option) *Interceptor {
	if config.ForwardMaxTokens <= 0 {
		config.ForwardMaxTokens = 1024
	}
	if config.ForwardTimeout <= 0 {
		config.ForwardTimeout = 60 * time.Second
	}
	i := &Interceptor{
		engine:     eng,
		classifier: classifier,
		auditLog:   auditLog,
		provider:   provider,
		bus:        bus,
		config:     config,
		logger:     slog.Default().With("component", "intercept"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Bus returns the interceptor's event bus for observer registration.
func (i *Interceptor) Bus() *Bus {
	return i.bus
}

// EvaluateRequest runs one prompt through the pipeline and returns the
// final evaluation. It never returns an error to the caller: every failure
// mode resolves inside the pipeline (sentinel classification, fail-closed
// block, forwarding-failure fact on the evaluation).
func (i *Interceptor) EvaluateRequest(ctx context.Context, prompt string) *engine.Evaluation {
	i.bus.Publish(Event{Kind: EventPromptReceived, Prompt: prompt})

	// Classify, consulting the cache first.
	classifyStart := time.Now()
	classification, cacheHit := i.classifier.Classify(ctx, prompt)
	if i.collector != nil {
		source := "oracle"
		if cacheHit {
			source = "cache"
		}
		i.collector.RecordClassification(source, time.Since(classifyStart), classification.IsFailure())
	}
	i.bus.Publish(Event{Kind: EventClassified, Prompt: prompt, Classification: &classification})

	// Evaluate against policy. Always returns a result.
	evalStart := time.Now()
	evaluation := i.engine.Evaluate(classification.Category, classification)
	evalDuration := time.Since(evalStart)
	i.bus.Publish(Event{Kind: EventEvaluated, Prompt: prompt, Classification: &classification, Evaluation: evaluation})

	if evaluation.Decision.IsAllow() {
		i.forward(ctx, prompt, evaluation)
		i.bus.Publish(Event{Kind: EventResponse, Prompt: prompt, Classification: &classification, Evaluation: evaluation})
	} else {
		i.bus.Publish(Event{Kind: EventBlocked, Prompt: prompt, Classification: &classification, Evaluation: evaluation})
	}

	// Alert fan-out: one event per target, on any decision carrying targets.
	for _, target := range evaluation.Alerts {
		if i.collector != nil {
			i.collector.RecordAlert(target)
		}
		i.bus.Publish(Event{
			Kind:        EventAlert,
			Prompt:      prompt,
			Evaluation:  evaluation,
			AlertTarget: target,
		})
	}

	// Audit unconditionally, exactly once per completed evaluation. The
	// append is detached from request cancellation so a client disconnect
	// during forwarding still produces a complete entry.
	if _, err := i.auditLog.Append(context.WithoutCancel(ctx), prompt, classification, evaluation); err != nil {
		i.logger.Error("audit append failed",
			"rule_id", evaluation.MatchedRuleID,
			"error", err,
		)
	}

	if i.collector != nil {
		i.collector.RecordDecision(string(evaluation.Decision), evaluation.MatchedRuleID, evalDuration)
	}

	i.logger.Info("request evaluated",
		"decision", string(evaluation.Decision),
		"rule_id", evaluation.MatchedRuleID,
		"category", classification.Category,
		"confidence", classification.Confidence,
		"cache_hit", cacheHit,
		"forwarding_failed", evaluation.ForwardingFailed,
	)

	return evaluation
}

// forward invokes the downstream model for an allowed request under a
// bounded timeout. A failure is recorded on the evaluation as a transport
// fact; it never retroactively turns the decision into a block.
func (i *Interceptor) forward(ctx context.Context, prompt string, evaluation *engine.Evaluation) {
	callCtx, cancel := context.WithTimeout(ctx, i.config.ForwardTimeout)
	defer cancel()

	resp, err := i.provider.Complete(callCtx, &providers.CompletionRequest{
		Model:     i.config.ForwardModel,
		MaxTokens: i.config.ForwardMaxTokens,
		Messages: []providers.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		evaluation.ForwardingFailed = true
		evaluation.ForwardingError = err.Error()
		if i.collector != nil {
			i.collector.RecordForwardingFailure()
		}
		i.logger.Warn("downstream model call failed",
			"rule_id", evaluation.MatchedRuleID,
			"timeout", providers.IsTimeout(err),
			"error", err,
		)
		return
	}
	evaluation.Response = resp.Content
}
