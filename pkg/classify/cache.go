package classify

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Cache is a concurrency-safe store of successful classification results,
// keyed by normalized prompt text. Two prompts that differ only in case or
// surrounding whitespace share one entry.
//
// Entries written during a run live for the process lifetime only. A cache
// may optionally be pre-populated from a JSON snapshot at startup; nothing
// is ever persisted back.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Result
}

// NewCache creates an empty classification cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]Result),
	}
}

// NormalizeKey canonicalizes prompt text into a cache key by trimming
// surrounding whitespace and case-folding.
func NormalizeKey(prompt string) string {
	return strings.ToLower(strings.TrimSpace(prompt))
}

// Get looks up the cached classification for a prompt.
func (c *Cache) Get(prompt string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.entries[NormalizeKey(prompt)]
	return r, ok
}

// Set stores a classification result under the prompt's normalized key.
// Writes are last-write-wins; concurrent writers for the same key carry
// equivalent successful classifications, so the race is benign.
func (c *Cache) Set(prompt string, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[NormalizeKey(prompt)] = result
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// snapshotEntry is one record in a pre-computed classification snapshot.
type snapshotEntry struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// LoadSnapshot pre-populates the cache from a JSON snapshot file mapping
// normalized prompt text to {category, confidence} records. Existing
// entries with the same key are overwritten.
func (c *Cache) LoadSnapshot(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache snapshot %q: %w", path, err)
	}

	var snapshot map[string]snapshotEntry
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return 0, fmt.Errorf("failed to parse cache snapshot %q: %w", path, err)
	}

	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for prompt, entry := range snapshot {
		c.entries[NormalizeKey(prompt)] = Result{
			Category:   entry.Category,
			Confidence: entry.Confidence,
			Prompt:     prompt,
			Timestamp:  now,
		}
	}
	return len(snapshot), nil
}
