// Package llm defines the model-invocation contract used by the Worker
// Runtime Loop (spec.md §4.4 "Model invocation") and its reference
// implementation over the OpenAI-compatible chat completions API.
package llm

import (
	"context"
	"encoding/json"
)

// Role constants for Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in the message list assembled by the runtime loop
// (spec.md §4.4 "Message assembly": system message, then alternating
// user/assistant/tool messages).
type Message struct {
	Role             string    `json:"role"`
	Content          string    `json:"content"`
	ReasoningContent string    `json:"reasoning_content,omitempty"`
	ToolCallID       string    `json:"tool_call_id,omitempty"` // set on role=tool messages
	Name             string    `json:"name,omitempty"`
	ToolCalls        []ToolCall `json:"tool_calls,omitempty"` // set on role=assistant messages that invoke tools
}

// ToolDefinition is a tool's schema as presented to the model (spec.md
// §4 "Tool"): name, description, and a JSON Schema for its arguments.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a single tool invocation the model requested.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// StreamCallback is invoked with each chunk of streamed assistant text.
type StreamCallback func(chunk string)

// GenerateRequest is the input to Model.GenerateText (spec.md §4.4 "Model
// invocation").
type GenerateRequest struct {
	Messages []Message
	Tools    []ToolDefinition
	OnChunk  StreamCallback // non-nil enables streaming; providers without streaming support fall back to a single chunk
}

// GenerateResponse is a model turn: either direct text, one or more tool
// calls, or both.
type GenerateResponse struct {
	Message Message
	Usage   Usage
}

// Usage carries the token accounting a provider reports for one
// generation call (spec.md §6.3 "generateText(...) -> {text, toolCalls,
// usage}").
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Model is the interface the Worker Runtime Loop invokes once per
// iteration (spec.md §4.4). Implementations own retries, timeouts, and
// protocol-specific tool-call encoding; the loop only sees Message and
// ToolCall values.
type Model interface {
	// GenerateText sends the assembled messages and returns the model's
	// next turn. If req.OnChunk is non-nil the implementation should stream
	// content chunks to it as they arrive and still return the fully
	// assembled response.
	GenerateText(ctx context.Context, req GenerateRequest) (GenerateResponse, error)

	// ID returns the concrete model identifier this instance targets
	// (e.g. "gpt-4o"), used for compatible_models matching (spec.md §4.1).
	ID() string

	// ContextWindow returns the model's context window in tokens, used
	// to evaluate a worker's max_context_tokens warning (spec.md §4.4).
	ContextWindow() int
}
