package providers

// Message is a single conversation turn in provider-agnostic form.
type Message struct {
	// Role identifies the sender (user, assistant).
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// CompletionRequest is a provider-agnostic completion request. Adapters
// transform it into their wire format.
type CompletionRequest struct {
	// Model is the model identifier to invoke.
	Model string `json:"model"`

	// System is an optional system prompt.
	System string `json:"system,omitempty"`

	// Messages is the conversation history, oldest first.
	Messages []Message `json:"messages"`

	// MaxTokens caps the generated completion length.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls sampling randomness.
	Temperature float64 `json:"temperature,omitempty"`
}

// TokenUsage reports token consumption for a completed request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the normalized response from a provider.
type CompletionResponse struct {
	// Content is the generated text.
	Content string `json:"content"`

	// Model is the model that actually served the request.
	Model string `json:"model"`

	// StopReason explains why generation ended (e.g. "end_turn").
	StopReason string `json:"stop_reason"`

	// Usage reports token consumption, when the provider supplies it.
	Usage TokenUsage `json:"usage"`
}
