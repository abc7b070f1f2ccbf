package anthropic

import (
	"fmt"
	"strings"

	"github.com/ericmann/firebreak/pkg/providers"
)

// messagesRequest is the Anthropic Messages API request shape.
type messagesRequest struct {
	Model       string         `json:"model"`
	Messages    []messageParam `json:"messages"`
	System      string         `json:"system,omitempty"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature float64        `json:"temperature,omitempty"`
}

type messageParam struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic Messages API response shape.
type messagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Content    []contentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      usage          `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// transformRequest converts a provider-agnostic request to the wire shape.
func transformRequest(req *providers.CompletionRequest) *messagesRequest {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	out := &messagesRequest{
		Model:       req.Model,
		System:      req.System,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Messages:    make([]messageParam, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, messageParam{Role: m.Role, Content: m.Content})
	}
	return out
}

// transformResponse normalizes a wire response, concatenating text blocks.
func transformResponse(resp *messagesResponse) (*providers.CompletionResponse, error) {
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("response contains no content blocks")
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &providers.CompletionResponse{
		Content:    text.String(),
		Model:      resp.Model,
		StopReason: resp.StopReason,
		Usage: providers.TokenUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}
