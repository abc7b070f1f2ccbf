package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericmann/firebreak/pkg/providers"
)

// Oracle is the external classification capability: given a prompt and the
// allowed category set, it returns a category and confidence or fails.
//
// Implementations report failures as errors; they never invent categories.
// Callers must go through Classifier, which converts every failure into the
// sentinel result.
type Oracle interface {
	Classify(ctx context.Context, prompt string, categories []string) (Result, error)
}

// Enumerated oracle failure modes. All of them are equivalent at the
// Classifier boundary: each collapses to the sentinel result.
var (
	// ErrOracleUnavailable wraps transport-level failures: the oracle was
	// unreachable or the call timed out.
	ErrOracleUnavailable = errors.New("classification oracle unavailable")

	// ErrUnparseableResponse indicates the oracle replied with output that
	// does not match the expected {"category": ..., "confidence": ...} shape.
	ErrUnparseableResponse = errors.New("unparseable oracle response")

	// ErrUnknownCategory indicates the oracle returned a category outside
	// the allowed set.
	ErrUnknownCategory = errors.New("oracle returned unknown category")
)

// systemPromptTemplate instructs the model to emit a bare JSON object.
// %s is the newline-joined allowed category list.
const systemPromptTemplate = "You are an intent classifier for an AI deployment" +
	" policy system.\n\n" +
	"Classify the following user prompt into exactly ONE of these categories:\n" +
	"%s\n\n" +
	"Respond with ONLY a JSON object in this exact format, no other text:\n" +
	`{"category": "<category_name>", "confidence": <float_between_0_and_1>}`

// oracleVerdict is the JSON shape the model is instructed to return.
type oracleVerdict struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// LLMOracle classifies prompts by asking a language model through a
// providers.Provider. It is the production Oracle implementation.
type LLMOracle struct {
	provider  providers.Provider
	model     string
	maxTokens int
}

// NewLLMOracle creates an oracle backed by the given provider and model.
func NewLLMOracle(provider providers.Provider, model string, maxTokens int) *LLMOracle {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return &LLMOracle{
		provider:  provider,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Classify asks the model for a category verdict and validates it against
// the allowed set.
func (o *LLMOracle) Classify(ctx context.Context, prompt string, categories []string) (Result, error) {
	req := &providers.CompletionRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		System:    fmt.Sprintf(systemPromptTemplate, strings.Join(categories, "\n")),
		Messages: []providers.Message{
			{Role: "user", Content: prompt},
		},
	}

	resp, err := o.provider.Complete(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}

	var verdict oracleVerdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Content)), &verdict); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnparseableResponse, err)
	}
	if verdict.Category == "" || verdict.Confidence < 0.0 || verdict.Confidence > 1.0 {
		return Result{}, fmt.Errorf("%w: category=%q confidence=%v",
			ErrUnparseableResponse, verdict.Category, verdict.Confidence)
	}

	allowed := false
	for _, c := range categories {
		if c == verdict.Category {
			allowed = true
			break
		}
	}
	if !allowed {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCategory, verdict.Category)
	}

	return Result{
		Category:   verdict.Category,
		Confidence: verdict.Confidence,
		Prompt:     prompt,
		Timestamp:  time.Now(),
	}, nil
}
