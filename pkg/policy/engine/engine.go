// Package engine evaluates classified intents against a loaded policy.
//
// Evaluation is first-match-wins over the policy's ordered rule sequence and
// is total: every input category, including the classification-failure
// sentinel and categories absent from the declared set, produces a result.
// Unmatched categories collapse to the fail-closed BLOCK default. There is
// no configuration that disables that default.
package engine

import (
	"log/slog"
	"sync/atomic"

	"github.com/ericmann/firebreak/pkg/classify"
	"github.com/ericmann/firebreak/pkg/policy"
)

// Fail-closed default values, used when no rule matches a category.
const (
	// FallbackRuleID identifies the synthetic fail-closed rule.
	FallbackRuleID = "unknown-intent"

	// FallbackDescription explains the synthetic result.
	FallbackDescription = "No matching rule for intent category"

	// FallbackAlertTarget is notified on every fail-closed block.
	FallbackAlertTarget = "trust_safety"
)

// Evaluation is the result of evaluating a classified intent against policy.
// It is a pure function of (category, loaded policy): identical inputs
// always produce identical decisions.
type Evaluation struct {
	// Decision is the enforcement outcome.
	Decision policy.Decision `json:"decision"`

	// MatchedRuleID identifies the rule that produced the decision, or
	// FallbackRuleID for the fail-closed default.
	MatchedRuleID string `json:"matched_rule_id"`

	// RuleDescription is the matched rule's human-readable description.
	RuleDescription string `json:"rule_description"`

	// AuditLevel is the logging tier for this evaluation.
	AuditLevel policy.AuditLevel `json:"audit_level"`

	// Alerts lists notification targets triggered by this evaluation.
	Alerts []string `json:"alerts"`

	// Constraints lists operational constraints attached to the request.
	Constraints []string `json:"constraints"`

	// Color is the presentation tag for dashboard consumers.
	Color string `json:"color"`

	// Note is optional free-form text from the matched rule.
	Note string `json:"note"`

	// Classification is the intent classification that drove the evaluation.
	Classification classify.Result `json:"classification"`

	// Response is the downstream model response text, set only when the
	// request was forwarded successfully.
	Response string `json:"response,omitempty"`

	// ForwardingFailed records that the downstream call errored after an
	// allow decision. This is a transport fact, not a policy decision: the
	// decision stays ALLOW and the failure is surfaced separately.
	ForwardingFailed bool `json:"forwarding_failed,omitempty"`

	// ForwardingError carries the downstream failure description when
	// ForwardingFailed is set.
	ForwardingError string `json:"forwarding_error,omitempty"`
}

// Engine owns the currently loaded policy and evaluates intents against it.
// The policy is replaced atomically on reload; in-flight evaluations keep
// the instance they started with and never observe a partial update.
type Engine struct {
	current atomic.Pointer[policy.Policy]
	logger  *slog.Logger
}

// New creates an engine with the given initial policy.
func New(p *policy.Policy) *Engine {
	e := &Engine{
		logger: slog.Default().With("component", "policy.engine"),
	}
	e.current.Store(p)
	return e
}

// Policy returns the currently loaded policy.
func (e *Engine) Policy() *policy.Policy {
	return e.current.Load()
}

// Reload atomically swaps in a new policy instance. Readers holding the
// previous instance are unaffected.
func (e *Engine) Reload(p *policy.Policy) {
	old := e.current.Swap(p)
	e.logger.Info("policy reloaded",
		"name", p.Name,
		"version", p.Version,
		"rules", len(p.Rules),
		"previous_version", old.Version,
	)
}

// Evaluate scans the policy's rules in declared order and builds the result
// from the first rule whose match set contains category. It never fails: if
// no rule matches, including for the sentinel category, it returns the
// fail-closed BLOCK default.
func (e *Engine) Evaluate(category string, classification classify.Result) *Evaluation {
	p := e.current.Load()

	for i := range p.Rules {
		rule := &p.Rules[i]
		if rule.Matches(category) {
			return &Evaluation{
				Decision:        rule.Decision,
				MatchedRuleID:   rule.ID,
				RuleDescription: rule.Description,
				AuditLevel:      rule.Audit,
				Alerts:          append([]string(nil), rule.Alerts...),
				Constraints:     append([]string(nil), rule.Constraints...),
				Color:           rule.Color,
				Note:            rule.Note,
				Classification:  classification,
			}
		}
	}

	return &Evaluation{
		Decision:        policy.DecisionBlock,
		MatchedRuleID:   FallbackRuleID,
		RuleDescription: FallbackDescription,
		AuditLevel:      policy.AuditCritical,
		Alerts:          []string{FallbackAlertTarget},
		Constraints:     []string{},
		Color:           "red",
		Classification:  classification,
	}
}
