package policy

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validDocument = `
policy:
  name: test-policy
  version: "1.0"
  effective: "2026-01-01"
  signatories:
    ai_provider: Acme AI
    deploying_org: Example Corp

categories:
  - summarization
  - bulk_surveillance

rules:
  - id: allow-analysis
    description: Routine analytical work
    match_categories: [summarization]
    decision: ALLOW
    audit: standard

  - id: block-surveillance
    description: Bulk surveillance of individuals
    match_categories: [bulk_surveillance]
    decision: BLOCK
    audit: critical
    alerts: [trust_safety, inspector_general]
    color: red
`

func TestParseValidDocument(t *testing.T) {
	p, err := Parse([]byte(validDocument))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if p.Name != "test-policy" {
		t.Errorf("expected name %q, got %q", "test-policy", p.Name)
	}
	if p.Version != "1.0" {
		t.Errorf("expected version %q, got %q", "1.0", p.Version)
	}
	if p.Effective != "2026-01-01" {
		t.Errorf("expected effective %q, got %q", "2026-01-01", p.Effective)
	}
	if p.Signatories["ai_provider"] != "Acme AI" {
		t.Errorf("unexpected signatories: %v", p.Signatories)
	}
	if len(p.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(p.Rules))
	}
	if len(p.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(p.Categories))
	}

	rule := p.RuleByID("block-surveillance")
	if rule == nil {
		t.Fatal("expected rule block-surveillance")
	}
	if rule.Decision != DecisionBlock {
		t.Errorf("expected BLOCK, got %s", rule.Decision)
	}
	if rule.Audit != AuditCritical {
		t.Errorf("expected critical audit, got %s", rule.Audit)
	}
	if len(rule.Alerts) != 2 {
		t.Errorf("expected 2 alert targets, got %v", rule.Alerts)
	}
}

func TestParseNumericVersion(t *testing.T) {
	// Unquoted versions arrive as YAML scalars, not strings. They must
	// still load as their textual form.
	doc := `
policy:
  name: numeric
  version: 2.0
categories: [a]
rules:
  - id: r1
    match_categories: [a]
    decision: ALLOW
`
	p, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Version != "2.0" {
		t.Errorf("expected version %q, got %q", "2.0", p.Version)
	}
}

func TestParseDefaults(t *testing.T) {
	doc := `
policy:
  name: defaults
  version: "1.0"
categories: [a]
rules:
  - id: r1
    match_categories: [a]
    decision: ALLOW
`
	p, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	rule := p.Rules[0]
	if rule.Audit != AuditStandard {
		t.Errorf("expected default audit standard, got %s", rule.Audit)
	}
	if rule.Color != "green" {
		t.Errorf("expected default color green, got %q", rule.Color)
	}
	if rule.RequiresHuman {
		t.Error("expected requires_human to default to false")
	}
}

func TestParseValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{
			name:  "missing policy section",
			doc:   "categories: [a]\nrules:\n  - id: r1\n    match_categories: [a]\n    decision: ALLOW\n",
			field: "policy",
		},
		{
			name:  "missing policy name",
			doc:   "policy:\n  version: \"1.0\"\ncategories: [a]\nrules:\n  - id: r1\n    match_categories: [a]\n    decision: ALLOW\n",
			field: "policy.name",
		},
		{
			name:  "missing policy version",
			doc:   "policy:\n  name: p\ncategories: [a]\nrules:\n  - id: r1\n    match_categories: [a]\n    decision: ALLOW\n",
			field: "policy.version",
		},
		{
			name:  "empty rules",
			doc:   "policy:\n  name: p\n  version: \"1.0\"\ncategories: [a]\nrules: []\n",
			field: "rules",
		},
		{
			name:  "missing rule id",
			doc:   "policy:\n  name: p\n  version: \"1.0\"\ncategories: [a]\nrules:\n  - match_categories: [a]\n    decision: ALLOW\n",
			field: "rules[0].id",
		},
		{
			name:  "missing rule decision",
			doc:   "policy:\n  name: p\n  version: \"1.0\"\ncategories: [a]\nrules:\n  - id: r1\n    match_categories: [a]\n",
			field: "rules[0].decision",
		},
		{
			name:  "missing match categories",
			doc:   "policy:\n  name: p\n  version: \"1.0\"\ncategories: [a]\nrules:\n  - id: r1\n    decision: ALLOW\n",
			field: "rules[0].match_categories",
		},
		{
			name:  "invalid decision",
			doc:   "policy:\n  name: p\n  version: \"1.0\"\ncategories: [a]\nrules:\n  - id: r1\n    match_categories: [a]\n    decision: MAYBE\n",
			field: "rules[0].decision",
		},
		{
			name:  "invalid audit level",
			doc:   "policy:\n  name: p\n  version: \"1.0\"\ncategories: [a]\nrules:\n  - id: r1\n    match_categories: [a]\n    decision: ALLOW\n    audit: extreme\n",
			field: "rules[0].audit",
		},
		{
			name:  "undeclared match category",
			doc:   "policy:\n  name: p\n  version: \"1.0\"\ncategories: [a]\nrules:\n  - id: r1\n    match_categories: [b]\n    decision: ALLOW\n",
			field: "rules[0].match_categories",
		},
		{
			name:  "sentinel category declared",
			doc:   "policy:\n  name: p\n  version: \"1.0\"\ncategories: [a, unclassified]\nrules:\n  - id: r1\n    match_categories: [a]\n    decision: ALLOW\n",
			field: "categories[1]",
		},
		{
			name:  "duplicate rule ids",
			doc:   "policy:\n  name: p\n  version: \"1.0\"\ncategories: [a]\nrules:\n  - id: r1\n    match_categories: [a]\n    decision: ALLOW\n  - id: r1\n    match_categories: [a]\n    decision: BLOCK\n",
			field: "rules[1].id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T: %v", err, err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %q, got %q (%s)", tt.field, verr.Field, verr.Message)
			}
		})
	}
}

func TestParseDecisionValues(t *testing.T) {
	for _, s := range []string{"ALLOW", "ALLOW_CONSTRAINED", "BLOCK"} {
		if _, err := ParseDecision(s); err != nil {
			t.Errorf("ParseDecision(%q) failed: %v", s, err)
		}
	}
	for _, s := range []string{"", "allow", "DENY"} {
		if _, err := ParseDecision(s); err == nil {
			t.Errorf("ParseDecision(%q) should fail", s)
		}
	}
}

func TestDecisionIsAllow(t *testing.T) {
	if !DecisionAllow.IsAllow() {
		t.Error("ALLOW should be an allow decision")
	}
	if !DecisionAllowConstrained.IsAllow() {
		t.Error("ALLOW_CONSTRAINED should be an allow decision")
	}
	if DecisionBlock.IsAllow() {
		t.Error("BLOCK should not be an allow decision")
	}
}

func TestParseAuditLevelDefault(t *testing.T) {
	level, err := ParseAuditLevel("")
	if err != nil {
		t.Fatalf("ParseAuditLevel failed: %v", err)
	}
	if level != AuditStandard {
		t.Errorf("expected standard, got %s", level)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(validDocument), 0o644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Name != "test-policy" {
		t.Errorf("expected name %q, got %q", "test-policy", p.Name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "absent.yaml") {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestHasCategory(t *testing.T) {
	p, err := Parse([]byte(validDocument))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !p.HasCategory("summarization") {
		t.Error("expected declared category to be present")
	}
	if p.HasCategory(SentinelCategory) {
		t.Error("sentinel category must never be declared")
	}
}
