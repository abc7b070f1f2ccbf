package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericmann/firebreak/pkg/classify"
	"github.com/ericmann/firebreak/pkg/policy/engine"
)

// MemoryLog is the in-memory Log backend. Entries live for the process
// lifetime only.
type MemoryLog struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewMemoryLog creates an empty in-memory audit log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append stores a new entry and returns it.
func (l *MemoryLog) Append(ctx context.Context, prompt string, classification classify.Result, evaluation *engine.Evaluation) (*Entry, error) {
	entry := &Entry{
		ID:             uuid.NewString(),
		Timestamp:      time.Now(),
		Prompt:         prompt,
		Classification: classification,
		Evaluation:     *evaluation,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)

	return entry, nil
}

// Entries returns all entries in insertion order. The returned slice is a
// copy; appending to it cannot affect the log.
func (l *MemoryLog) Entries(ctx context.Context) ([]*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Entry, len(l.entries))
	copy(out, l.entries)
	return out, nil
}

// Alerts returns entries whose evaluation fired alert targets.
func (l *MemoryLog) Alerts(ctx context.Context) ([]*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*Entry
	for _, e := range l.entries {
		if e.HasAlerts() {
			out = append(out, e)
		}
	}
	return out, nil
}

// Close implements Log. It is a no-op for the in-memory backend.
func (l *MemoryLog) Close() error {
	return nil
}

var _ Log = (*MemoryLog)(nil)
