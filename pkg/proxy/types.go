// Package proxy is the OpenAI-compatible wire adapter in front of the
// interception pipeline. It parses chat-completion requests into prompts,
// runs them through the interceptor, and shapes the outcome back into the
// external wire format, including error envelopes.
//
// Wire compatibility is byte-level: clients built against the OpenAI chat
// completion API must be able to talk to these handlers unmodified.
package proxy

// ProxyModelID is the single model identifier the proxy advertises.
const ProxyModelID = "firebreak-proxy"

// ChatMessage is one message in a chat-completion request or response.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the inbound request body for
// POST /v1/chat/completions. Only the fields the proxy consumes are
// declared; unknown fields are ignored.
type ChatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// ChatCompletionChoice is one completion choice in a success envelope.
type ChatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatCompletionUsage reports token usage. The proxy does not meter
// tokens, so all counts are zero.
type ChatCompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionResponse is the success envelope for
// POST /v1/chat/completions.
type ChatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   ChatCompletionUsage    `json:"usage"`
}

// ModelObject describes one model in the /v1/models listing.
type ModelObject struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ModelList is the response envelope for GET /v1/models.
type ModelList struct {
	Object string        `json:"object"`
	Data   []ModelObject `json:"data"`
}

// ErrorResponse is the OpenAI-compatible error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error fields. Param is a pointer so the envelope
// serializes "param":null when no parameter is implicated, matching the
// OpenAI wire format exactly.
type ErrorDetail struct {
	Message string  `json:"message"`
	Type    string  `json:"type"`
	Param   *string `json:"param"`
	Code    string  `json:"code"`
}

// Error type constants for the envelopes this proxy emits.
const (
	// ErrorTypeInvalidRequest marks malformed client requests (400).
	ErrorTypeInvalidRequest = "invalid_request_error"

	// ErrorTypePolicyViolation marks requests blocked by policy (400).
	// A policy decision is a client-visible rejection, never a 5xx.
	ErrorTypePolicyViolation = "policy_violation"

	// ErrorTypeBadGateway marks downstream transport failures after an
	// allow decision (502). Distinct from a policy decision by both type
	// and code.
	ErrorTypeBadGateway = "bad_gateway"
)

// Error code constants.
const (
	// CodeInvalidJSON indicates an unparseable request body.
	CodeInvalidJSON = "invalid_json"

	// CodeInvalidRequest indicates a structurally invalid request.
	CodeInvalidRequest = "invalid_request"

	// CodePolicyViolation is the stable machine-readable code for blocks.
	CodePolicyViolation = "content_policy_violation"

	// CodeUpstreamError indicates the downstream model call failed.
	CodeUpstreamError = "upstream_error"
)

// NewErrorResponse builds an error envelope. Pass an empty param for
// "param":null.
func NewErrorResponse(message, errType, param, code string) *ErrorResponse {
	detail := ErrorDetail{
		Message: message,
		Type:    errType,
		Code:    code,
	}
	if param != "" {
		detail.Param = &param
	}
	return &ErrorResponse{Error: detail}
}
