package proxy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericmann/firebreak/pkg/intercept"
)

// ChatHandler serves POST /v1/chat/completions, translating each wire
// request into one interceptor pipeline run.
type ChatHandler struct {
	interceptor *intercept.Interceptor
	logger      *slog.Logger
}

// NewChatHandler creates the chat-completions handler.
func NewChatHandler(interceptor *intercept.Interceptor) *ChatHandler {
	return &ChatHandler{
		interceptor: interceptor,
		logger:      slog.Default().With("component", "proxy.chat"),
	}
}

// ServeHTTP implements http.Handler.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse(
			"Invalid JSON in request body",
			ErrorTypeInvalidRequest, "", CodeInvalidJSON,
		))
		return
	}

	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse(
			"Missing or empty 'messages' array",
			ErrorTypeInvalidRequest, "messages", CodeInvalidRequest,
		))
		return
	}

	prompt := lastUserMessage(req.Messages)
	if prompt == "" {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse(
			"No user message found in 'messages'",
			ErrorTypeInvalidRequest, "messages", CodeInvalidRequest,
		))
		return
	}

	evaluation := h.interceptor.EvaluateRequest(r.Context(), prompt)

	if !evaluation.Decision.IsAllow() {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse(
			fmt.Sprintf("Request blocked by policy: %s — %s",
				evaluation.MatchedRuleID, evaluation.RuleDescription),
			ErrorTypePolicyViolation, "", CodePolicyViolation,
		))
		return
	}

	// The decision was ALLOW but the downstream call failed: a transport
	// fault, shaped distinctly from a policy rejection.
	if evaluation.ForwardingFailed {
		writeJSON(w, http.StatusBadGateway, NewErrorResponse(
			"Upstream model request failed",
			ErrorTypeBadGateway, "", CodeUpstreamError,
		))
		return
	}

	writeJSON(w, http.StatusOK, &ChatCompletionResponse{
		ID:      "chatcmpl-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   ProxyModelID,
		Choices: []ChatCompletionChoice{
			{
				Index:        0,
				Message:      ChatMessage{Role: "assistant", Content: evaluation.Response},
				FinishReason: "stop",
			},
		},
		Usage: ChatCompletionUsage{},
	})
}

// lastUserMessage extracts the prompt: the content of the last user-role
// message in the conversation.
func lastUserMessage(messages []ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

// ModelsHandler serves GET /v1/models with the single proxy model.
type ModelsHandler struct{}

// NewModelsHandler creates the model-listing handler.
func NewModelsHandler() *ModelsHandler {
	return &ModelsHandler{}
}

// ServeHTTP implements http.Handler.
func (h *ModelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, &ModelList{
		Object: "list",
		Data: []ModelObject{
			{
				ID:      ProxyModelID,
				Object:  "model",
				Created: 0,
				OwnedBy: "firebreak",
			},
		},
	})
}

// HealthHandler serves GET /health for liveness probes.
type HealthHandler struct{}

// NewHealthHandler creates the health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}
