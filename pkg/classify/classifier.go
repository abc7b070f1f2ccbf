package classify

import (
	"context"
	"log/slog"
	"time"
)

// DefaultTimeout bounds a single oracle call when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// Classifier is the failure boundary in front of the Oracle. Classify is
// total: it always returns a usable Result, converting every oracle failure
// mode into the sentinel result instead of propagating an error.
type Classifier struct {
	oracle     Oracle
	cache      *Cache
	categories []string
	timeout    time.Duration
	logger     *slog.Logger
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithCache attaches a classification cache. Cache hits bypass the oracle;
// only successful results are written back.
func WithCache(cache *Cache) ClassifierOption {
	return func(c *Classifier) { c.cache = cache }
}

// WithTimeout bounds each oracle call. Values <= 0 fall back to DefaultTimeout.
func WithTimeout(d time.Duration) ClassifierOption {
	return func(c *Classifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClassifier creates a classifier for the given allowed category set.
func NewClassifier(oracle Oracle, categories []string, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		oracle:     oracle,
		categories: categories,
		timeout:    DefaultTimeout,
		logger:     slog.Default().With("component", "classify"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Categories returns the allowed category set this classifier draws from.
func (c *Classifier) Categories() []string {
	return c.categories
}

// Classify determines the intent category of a prompt. The second return
// value reports whether the result came from the cache.
//
// The cache is consulted first; on a miss the oracle is invoked under a
// bounded timeout. Any oracle error yields the sentinel result, and sentinel
// results are never cached, so a transient oracle failure cannot poison a
// prompt for the rest of the run.
func (c *Classifier) Classify(ctx context.Context, prompt string) (Result, bool) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(prompt); ok {
			return cached, true
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.oracle.Classify(callCtx, prompt, c.categories)
	if err != nil {
		c.logger.Warn("classification failed, using sentinel result",
			"error", err,
		)
		return Sentinel(prompt), false
	}

	// The oracle contract requires a category from the allowed set, but the
	// boundary holds regardless of which Oracle implementation is plugged in.
	if !c.allowed(result.Category) {
		c.logger.Warn("oracle returned category outside the allowed set, using sentinel result",
			"category", result.Category,
		)
		return Sentinel(prompt), false
	}

	if c.cache != nil {
		c.cache.Set(prompt, result)
	}
	return result, false
}

// allowed reports whether category is in the classifier's category set.
func (c *Classifier) allowed(category string) bool {
	for _, candidate := range c.categories {
		if candidate == category {
			return true
		}
	}
	return false
}
