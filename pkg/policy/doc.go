// Package policy defines the immutable in-memory representation of a
// deployment policy document and the YAML parser that produces it.
//
// A policy document declares a set of intent categories and an ordered list
// of rules. Each rule maps one or more categories to an enforcement decision
// (ALLOW, ALLOW_CONSTRAINED, BLOCK) plus response metadata such as audit
// level, alert targets, and operational constraints. Rule order is
// significant: evaluation is first-match-wins.
//
// Parsing is all-or-nothing. A document missing required fields
// (policy.name, policy.version, or any rule's id/decision/match_categories)
// fails with a *ValidationError and no partial policy is ever returned.
package policy
