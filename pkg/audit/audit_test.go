package audit

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ericmann/firebreak/pkg/classify"
	"github.com/ericmann/firebreak/pkg/policy"
	"github.com/ericmann/firebreak/pkg/policy/engine"
)

func testClassification(category string) classify.Result {
	return classify.Result{
		Category:   category,
		Confidence: 0.9,
		Prompt:     "prompt for " + category,
		Timestamp:  time.Now(),
	}
}

func allowEvaluation() *engine.Evaluation {
	return &engine.Evaluation{
		Decision:        policy.DecisionAllow,
		MatchedRuleID:   "allow-analysis",
		RuleDescription: "Routine analytical work",
		AuditLevel:      policy.AuditStandard,
		Alerts:          []string{},
		Constraints:     []string{},
		Color:           "green",
		Classification:  testClassification("summarization"),
		Response:        "a summary",
	}
}

func blockEvaluation() *engine.Evaluation {
	return &engine.Evaluation{
		Decision:        policy.DecisionBlock,
		MatchedRuleID:   "block-surveillance",
		RuleDescription: "Bulk surveillance of individuals",
		AuditLevel:      policy.AuditCritical,
		Alerts:          []string{"trust_safety", "inspector_general"},
		Constraints:     []string{},
		Color:           "red",
		Classification:  testClassification("bulk_surveillance"),
	}
}

// logFactory builds a fresh Log per test so both backends run the same
// behavioral suite.
type logFactory func(t *testing.T) Log

func memoryFactory(t *testing.T) Log {
	t.Helper()
	return NewMemoryLog()
}

func sqliteFactory(t *testing.T) Log {
	t.Helper()
	log, err := NewSQLiteLog(DefaultSQLiteConfig(filepath.Join(t.TempDir(), "audit.db")))
	if err != nil {
		t.Fatalf("failed to open sqlite log: %v", err)
	}
	t.Cleanup(func() { log.Close() })
	return log
}

func backends() map[string]logFactory {
	return map[string]logFactory{
		"memory": memoryFactory,
		"sqlite": sqliteFactory,
	}
}

func TestAppendAndEntries(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			log := factory(t)
			ctx := context.Background()

			entry, err := log.Append(ctx, "Summarize this", testClassification("summarization"), allowEvaluation())
			if err != nil {
				t.Fatalf("Append failed: %v", err)
			}
			if entry.ID == "" {
				t.Error("entry must have a unique id")
			}
			if entry.Timestamp.IsZero() {
				t.Error("entry must carry a timestamp")
			}

			entries, err := log.Entries(ctx)
			if err != nil {
				t.Fatalf("Entries failed: %v", err)
			}
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			got := entries[0]
			if got.Prompt != "Summarize this" {
				t.Errorf("prompt mismatch: %q", got.Prompt)
			}
			if got.Classification.Category != "summarization" {
				t.Errorf("classification mismatch: %q", got.Classification.Category)
			}
			if got.Evaluation.MatchedRuleID != "allow-analysis" {
				t.Errorf("evaluation mismatch: %q", got.Evaluation.MatchedRuleID)
			}
			if got.Evaluation.Response != "a summary" {
				t.Errorf("forwarded response not persisted: %q", got.Evaluation.Response)
			}
		})
	}
}

func TestAppendOnlyGrowth(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			log := factory(t)
			ctx := context.Background()

			seen := make(map[string]struct{})
			for i := 0; i < 5; i++ {
				entry, err := log.Append(ctx, "prompt", testClassification("summarization"), allowEvaluation())
				if err != nil {
					t.Fatalf("Append %d failed: %v", i, err)
				}
				if _, dup := seen[entry.ID]; dup {
					t.Fatalf("duplicate entry id %q", entry.ID)
				}
				seen[entry.ID] = struct{}{}

				entries, err := log.Entries(ctx)
				if err != nil {
					t.Fatalf("Entries failed: %v", err)
				}
				if len(entries) != i+1 {
					t.Fatalf("expected %d entries, got %d", i+1, len(entries))
				}
			}
		})
	}
}

func TestConcurrentAppend(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			log := factory(t)
			ctx := context.Background()

			const writers = 8
			const perWriter = 25
			var wg sync.WaitGroup
			for w := 0; w < writers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < perWriter; i++ {
						if _, err := log.Append(ctx, "concurrent prompt", testClassification("summarization"), allowEvaluation()); err != nil {
							t.Errorf("Append failed: %v", err)
						}
					}
				}()
			}
			wg.Wait()

			entries, err := log.Entries(ctx)
			if err != nil {
				t.Fatalf("Entries failed: %v", err)
			}
			if len(entries) != writers*perWriter {
				t.Fatalf("expected %d entries, got %d", writers*perWriter, len(entries))
			}
			seen := make(map[string]struct{}, len(entries))
			for _, entry := range entries {
				if _, dup := seen[entry.ID]; dup {
					t.Fatalf("duplicate entry id %q", entry.ID)
				}
				seen[entry.ID] = struct{}{}
			}
		})
	}
}

func TestAlertsFilter(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			log := factory(t)
			ctx := context.Background()

			if _, err := log.Append(ctx, "allowed", testClassification("summarization"), allowEvaluation()); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
			if _, err := log.Append(ctx, "blocked", testClassification("bulk_surveillance"), blockEvaluation()); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
			if _, err := log.Append(ctx, "blocked again", testClassification("bulk_surveillance"), blockEvaluation()); err != nil {
				t.Fatalf("Append failed: %v", err)
			}

			alerts, err := log.Alerts(ctx)
			if err != nil {
				t.Fatalf("Alerts failed: %v", err)
			}
			if len(alerts) != 2 {
				t.Fatalf("expected 2 alert entries, got %d", len(alerts))
			}
			for _, entry := range alerts {
				if !entry.HasAlerts() {
					t.Errorf("entry %s should carry alerts", entry.ID)
				}
				if entry.Prompt == "allowed" {
					t.Error("alert filter must exclude alert-free entries")
				}
			}
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()

	log, err := NewSQLiteLog(DefaultSQLiteConfig(path))
	if err != nil {
		t.Fatalf("failed to open sqlite log: %v", err)
	}
	if _, err := log.Append(ctx, "persisted", testClassification("summarization"), allowEvaluation()); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteLog(DefaultSQLiteConfig(path))
	if err != nil {
		t.Fatalf("failed to reopen sqlite log: %v", err)
	}
	defer reopened.Close()

	entries, err := reopened.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Prompt != "persisted" {
		t.Fatalf("expected persisted entry after reopen, got %d entries", len(entries))
	}
}

func TestSQLitePruneBefore(t *testing.T) {
	log, err := NewSQLiteLog(DefaultSQLiteConfig(filepath.Join(t.TempDir(), "audit.db")))
	if err != nil {
		t.Fatalf("failed to open sqlite log: %v", err)
	}
	defer log.Close()
	ctx := context.Background()

	if _, err := log.Append(ctx, "old entry", testClassification("summarization"), allowEvaluation()); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Everything appended so far is before a future cutoff.
	pruned, err := log.PruneBefore(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("PruneBefore failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("expected 1 pruned entry, got %d", pruned)
	}

	entries, err := log.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty log after prune, got %d entries", len(entries))
	}

	// A cutoff in the past prunes nothing.
	if _, err := log.Append(ctx, "fresh", testClassification("summarization"), allowEvaluation()); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	pruned, err = log.PruneBefore(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("PruneBefore failed: %v", err)
	}
	if pruned != 0 {
		t.Errorf("expected 0 pruned entries, got %d", pruned)
	}
}
