package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePolicy(t *testing.T, path, version, decision string) {
	t.Helper()
	doc := `
policy:
  name: watch-test
  version: "` + version + `"
categories: [summarization]
rules:
  - id: r1
    match_categories: [summarization]
    decision: ` + decision + `
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}
}

func waitForVersion(t *testing.T, eng *Engine, version string) bool {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if eng.Policy().Version == version {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	writePolicy(t, path, "1.0", "ALLOW")

	eng := testEngine(t)
	initial := eng.Policy()
	watcher := NewWatcher(eng, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = watcher.Watch(ctx)
	}()

	// Give the watcher time to register before touching the file.
	time.Sleep(100 * time.Millisecond)
	writePolicy(t, path, "1.1", "ALLOW")

	if !waitForVersion(t, eng, "1.1") {
		t.Fatal("policy was not reloaded after file write")
	}
	if eng.Policy() == initial {
		t.Error("reload should swap in a fresh policy instance")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}

func TestWatcherKeepsPolicyOnInvalidEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	writePolicy(t, path, "1.0", "ALLOW")

	eng := testEngine(t)
	watcher := NewWatcher(eng, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = watcher.Watch(ctx) }()

	time.Sleep(100 * time.Millisecond)

	// First a valid reload so we know the watcher is live.
	writePolicy(t, path, "1.5", "ALLOW")
	if !waitForVersion(t, eng, "1.5") {
		t.Fatal("valid reload did not land")
	}

	// Then a broken edit. The previous policy must stay active.
	if err := os.WriteFile(path, []byte("rules: []\n"), 0o644); err != nil {
		t.Fatalf("failed to write broken policy: %v", err)
	}
	time.Sleep(500 * time.Millisecond)

	if got := eng.Policy().Version; got != "1.5" {
		t.Errorf("expected previous policy to remain after invalid edit, got version %s", got)
	}
}
