package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SentinelCategory is the reserved category label that represents a failed
// classification. It can never be declared by a policy document, which
// guarantees it matches no rule and falls through to the fail-closed default.
const SentinelCategory = "unclassified"

// rawDocument mirrors the on-disk YAML layout of a policy document.
// Pointer and yaml.Node fields distinguish "absent" from "zero value" so
// required-field checks follow document presence, not Go defaults.
type rawDocument struct {
	Policy     *rawMeta  `yaml:"policy"`
	Categories []string  `yaml:"categories"`
	Rules      []rawRule `yaml:"rules"`
}

type rawMeta struct {
	Name        *string           `yaml:"name"`
	Version     yaml.Node         `yaml:"version"`
	Effective   yaml.Node         `yaml:"effective"`
	Signatories map[string]string `yaml:"signatories"`
}

type rawRule struct {
	ID              *string  `yaml:"id"`
	Description     string   `yaml:"description"`
	MatchCategories []string `yaml:"match_categories"`
	Decision        *string  `yaml:"decision"`
	Audit           string   `yaml:"audit"`
	RequiresHuman   bool     `yaml:"requires_human"`
	Constraints     []string `yaml:"constraints"`
	Alerts          []string `yaml:"alerts"`
	Color           string   `yaml:"color"`
	Note            string   `yaml:"note"`
}

// Load reads and parses a policy document from the given path.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %q: %w", path, err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("policy file %q: %w", path, err)
	}
	return p, nil
}

// Parse parses and validates a YAML policy document. It returns a
// *ValidationError when the document is structurally invalid; no partial
// policy is ever returned.
func Parse(data []byte) (*Policy, error) {
	var doc rawDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, newValidationError("", "not a valid YAML policy document: %v", err)
	}

	if doc.Policy == nil {
		return nil, newValidationError("policy", "missing required section")
	}
	if doc.Policy.Name == nil || *doc.Policy.Name == "" {
		return nil, newValidationError("policy.name", "missing required field")
	}
	if doc.Policy.Version.IsZero() {
		return nil, newValidationError("policy.version", "missing required field")
	}
	if len(doc.Rules) == 0 {
		return nil, newValidationError("rules", "must be a non-empty list")
	}

	declared := make(map[string]struct{}, len(doc.Categories))
	for i, c := range doc.Categories {
		if c == SentinelCategory {
			return nil, newValidationError(
				fmt.Sprintf("categories[%d]", i),
				"%q is reserved for classification failures and cannot be declared", SentinelCategory)
		}
		declared[c] = struct{}{}
	}

	rules := make([]Rule, 0, len(doc.Rules))
	seen := make(map[string]struct{}, len(doc.Rules))
	for i, raw := range doc.Rules {
		rule, err := buildRule(i, raw, declared)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[rule.ID]; dup {
			return nil, newValidationError(
				fmt.Sprintf("rules[%d].id", i), "duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = struct{}{}
		rules = append(rules, rule)
	}

	return &Policy{
		Name:        *doc.Policy.Name,
		Version:     doc.Policy.Version.Value,
		Effective:   doc.Policy.Effective.Value,
		Signatories: doc.Policy.Signatories,
		Rules:       rules,
		Categories:  doc.Categories,
	}, nil
}

// buildRule validates a single raw rule and converts it to a Rule.
func buildRule(index int, raw rawRule, declared map[string]struct{}) (Rule, error) {
	field := func(name string) string {
		return fmt.Sprintf("rules[%d].%s", index, name)
	}

	if raw.ID == nil || *raw.ID == "" {
		return Rule{}, newValidationError(field("id"), "missing required field")
	}
	if raw.Decision == nil {
		return Rule{}, newValidationError(field("decision"), "missing required field")
	}
	if len(raw.MatchCategories) == 0 {
		return Rule{}, newValidationError(field("match_categories"), "missing required field")
	}

	decision, err := ParseDecision(*raw.Decision)
	if err != nil {
		return Rule{}, newValidationError(field("decision"), "%v", err)
	}

	audit, err := ParseAuditLevel(raw.Audit)
	if err != nil {
		return Rule{}, newValidationError(field("audit"), "%v", err)
	}

	// Every match category must come from the declared category set.
	for _, c := range raw.MatchCategories {
		if _, ok := declared[c]; !ok {
			return Rule{}, newValidationError(field("match_categories"),
				"category %q is not declared in the policy's category set", c)
		}
	}

	color := raw.Color
	if color == "" {
		color = "green"
	}

	return Rule{
		ID:              *raw.ID,
		Description:     raw.Description,
		MatchCategories: raw.MatchCategories,
		Decision:        decision,
		Audit:           audit,
		RequiresHuman:   raw.RequiresHuman,
		Constraints:     raw.Constraints,
		Alerts:          raw.Alerts,
		Color:           color,
		Note:            raw.Note,
	}, nil
}
