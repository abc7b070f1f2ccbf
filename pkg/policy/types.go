package policy

import "fmt"

// Decision is the enforcement decision a rule assigns to matched prompts.
type Decision string

const (
	// DecisionAllow forwards the request to the downstream model unchanged.
	DecisionAllow Decision = "ALLOW"

	// DecisionAllowConstrained forwards the request but attaches the rule's
	// constraint list to the result. Constraints are descriptive metadata;
	// they are not enforced at forward time.
	DecisionAllowConstrained Decision = "ALLOW_CONSTRAINED"

	// DecisionBlock rejects the request without contacting the downstream model.
	DecisionBlock Decision = "BLOCK"
)

// ParseDecision converts a raw document value into a Decision.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionAllow, DecisionAllowConstrained, DecisionBlock:
		return Decision(s), nil
	default:
		return "", fmt.Errorf("unknown decision %q", s)
	}
}

// IsAllow reports whether the decision permits forwarding to the
// downstream model. ALLOW_CONSTRAINED forwards exactly like ALLOW.
func (d Decision) IsAllow() bool {
	return d == DecisionAllow || d == DecisionAllowConstrained
}

// AuditLevel is the graded logging and alerting tier attached to a decision.
type AuditLevel string

const (
	AuditStandard AuditLevel = "standard"
	AuditEnhanced AuditLevel = "enhanced"
	AuditCritical AuditLevel = "critical"
)

// ParseAuditLevel converts a raw document value into an AuditLevel.
// An empty value defaults to AuditStandard.
func ParseAuditLevel(s string) (AuditLevel, error) {
	switch AuditLevel(s) {
	case AuditStandard, AuditEnhanced, AuditCritical:
		return AuditLevel(s), nil
	case "":
		return AuditStandard, nil
	default:
		return "", fmt.Errorf("unknown audit level %q", s)
	}
}

// Rule is a single rule within a policy. Rules are immutable after load.
type Rule struct {
	// ID uniquely identifies the rule within its policy (e.g. "allow-analysis").
	ID string

	// Description is the human-readable explanation surfaced on matches.
	Description string

	// MatchCategories lists the intent categories this rule applies to.
	MatchCategories []string

	// Decision is the enforcement outcome when this rule matches.
	Decision Decision

	// Audit is the logging tier for matched requests.
	Audit AuditLevel

	// RequiresHuman marks the rule for human-in-the-loop review.
	RequiresHuman bool

	// Constraints are operational constraints attached to allowed requests.
	Constraints []string

	// Alerts names the notification targets to fan out to when the rule fires.
	Alerts []string

	// Color is the presentation tag for dashboard consumers (green/yellow/red).
	Color string

	// Note is optional free-form text displayed alongside the decision.
	Note string
}

// Matches reports whether the rule's match set contains the given category.
func (r *Rule) Matches(category string) bool {
	for _, c := range r.MatchCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Policy is a complete, validated deployment policy. It is immutable after
// load; reloading produces a fresh instance.
type Policy struct {
	// Name identifies the policy (e.g. "defense-standard").
	Name string

	// Version is the policy version string.
	Version string

	// Effective is the effective date string as authored.
	Effective string

	// Signatories maps signing roles to party names.
	Signatories map[string]string

	// Rules is the ordered rule sequence. Order is the tie-break mechanism:
	// when two rules match the same category, the earlier one wins.
	Rules []Rule

	// Categories is the declared intent category set for this policy.
	Categories []string
}

// HasCategory reports whether the policy declares the given category.
func (p *Policy) HasCategory(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// RuleByID returns the rule with the given id, or nil if none exists.
func (p *Policy) RuleByID(id string) *Rule {
	for i := range p.Rules {
		if p.Rules[i].ID == id {
			return &p.Rules[i]
		}
	}
	return nil
}
