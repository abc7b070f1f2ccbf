// Package audit provides the append-only trail of completed policy
// evaluations. Every pipeline run produces exactly one entry, on both the
// allow and block paths; entries are never mutated or removed after append.
//
// Two backends are provided: an in-memory log for tests and ephemeral runs,
// and a SQLite-backed log for persistence across restarts.
package audit

import (
	"context"
	"time"

	"github.com/ericmann/firebreak/pkg/classify"
	"github.com/ericmann/firebreak/pkg/policy/engine"
)

// Entry is one immutable record in the audit log.
type Entry struct {
	// ID is the entry's unique identifier (UUID v4).
	ID string `json:"id"`

	// Timestamp records when the entry was appended.
	Timestamp time.Time `json:"timestamp"`

	// Prompt is the original prompt text.
	Prompt string `json:"prompt"`

	// Classification is the intent classification result.
	Classification classify.Result `json:"classification"`

	// Evaluation is the policy evaluation result, including any forwarded
	// response and forwarding-failure fact.
	Evaluation engine.Evaluation `json:"evaluation"`
}

// HasAlerts reports whether the entry's evaluation fired any alert targets.
func (e *Entry) HasAlerts() bool {
	return len(e.Evaluation.Alerts) > 0
}

// Log is the append-only audit store. Appends from concurrent requests
// preserve a total order consistent with append completion time; Entries
// and Alerts return that order and never expose internal state for
// mutation.
type Log interface {
	// Append constructs and stores an entry with a fresh unique id and the
	// current timestamp, returning the stored entry.
	Append(ctx context.Context, prompt string, classification classify.Result, evaluation *engine.Evaluation) (*Entry, error)

	// Entries returns all entries in insertion order.
	Entries(ctx context.Context) ([]*Entry, error)

	// Alerts returns the subsequence of entries whose evaluation carries at
	// least one alert target, in insertion order.
	Alerts(ctx context.Context) ([]*Entry, error)

	// Close releases backend resources.
	Close() error
}
