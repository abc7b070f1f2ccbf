package classify

import (
	"time"

	"github.com/ericmann/firebreak/pkg/policy"
)

// Result is the outcome of classifying a prompt's intent. Results are value
// objects: once produced they are never mutated, only embedded in audit
// entries and evaluation results.
type Result struct {
	// Category is the classified intent category, or policy.SentinelCategory
	// when classification failed.
	Category string `json:"category"`

	// Confidence is the classifier confidence in [0.0, 1.0]. Always 0.0 for
	// sentinel results.
	Confidence float64 `json:"confidence"`

	// Prompt is the original prompt text that was classified.
	Prompt string `json:"prompt"`

	// Timestamp records when the classification was performed.
	Timestamp time.Time `json:"timestamp"`
}

// Sentinel returns the classification-failure result for a prompt. The
// sentinel category matches no declared policy category, so downstream
// evaluation always collapses to the fail-closed BLOCK default.
func Sentinel(prompt string) Result {
	return Result{
		Category:   policy.SentinelCategory,
		Confidence: 0.0,
		Prompt:     prompt,
		Timestamp:  time.Now(),
	}
}

// IsFailure reports whether the result represents a failed classification.
func (r Result) IsFailure() bool {
	return r.Category == policy.SentinelCategory
}
