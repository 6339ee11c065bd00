package events

// Display event payloads (runtime → UI).

// MessagePayload carries a finished assistant/user-visible message.
type MessagePayload struct {
	Role string
	Text string
}

// StreamingPayload carries a streaming token chunk, or an Open/Close
// marker when Chunk is empty and Done is true.
type StreamingPayload struct {
	Chunk string
	Done  bool
}

// StatusKind classifies a StatusPayload.
type StatusKind string

const (
	StatusInfo    StatusKind = "info"
	StatusWarning StatusKind = "warning"
	StatusError   StatusKind = "error"
)

// StatusPayload carries a status line, e.g. a context-usage warning or the
// error message of a failed run.
type StatusPayload struct {
	Kind    StatusKind
	Message string
}

// ToolStartedPayload announces the start of a single tool call.
type ToolStartedPayload struct {
	ToolCallID string
	ToolName   string
	Args       map[string]any
	BatchIndex int
	BatchSize  int
}

// ToolResultPayload announces the outcome of a single tool call.
type ToolResultPayload struct {
	ToolCallID string
	ToolName   string
	Output     string // truncated for display; full output is never lost to the model
	IsError    bool
	DurationMs int64
}

// WorkerUpdatePayload reports coarse-grained worker lifecycle status.
type WorkerUpdatePayload struct {
	WorkerName string
	Status     string // "running" | "completed" | "error"
	Detail     string
}

// ApprovalRequiredPayload is the display half of the approval
// request/response pattern (spec.md §4.4 "Request/response pattern").
type ApprovalRequiredPayload struct {
	RequestID   string
	ToolName    string
	ToolArgs    map[string]any
	Description string
}

// ManualToolDescriptor describes a manual_only or both-mode tool for the
// UI's manual-invocation catalogue (spec.md §3 "Tool" / manualExecution).
type ManualToolDescriptor struct {
	Name     string
	Label    string
	Category string
}

// ManualToolsAvailablePayload announces the manual-tool catalogue.
type ManualToolsAvailablePayload struct {
	Tools []ManualToolDescriptor
}

// DiffSummaryPayload and DiffContentPayload support drill-down diff
// display; the core never interprets the diff content itself.
type DiffSummaryPayload struct {
	RequestID string
	Files     []string
}

type DiffContentPayload struct {
	RequestID string
	File      string
	Diff      string
}

// InputPromptPayload is the display half of chat-mode's "ask the user for
// the next message" request/response round trip.
type InputPromptPayload struct {
	RequestID string
	Prompt    string
}

// SessionEndReason enumerates the terminal reasons for a root worker run.
type SessionEndReason string

const (
	SessionEndCompleted   SessionEndReason = "completed"
	SessionEndError       SessionEndReason = "error"
	SessionEndInterrupted SessionEndReason = "interrupted"
)

// SessionEndPayload is emitted exactly once by the root worker (depth==0)
// at the end of a run (spec.md §6 "Session end reasons").
type SessionEndPayload struct {
	Reason  SessionEndReason
	Message string
}

// Action event payloads (UI → runtime).

// UserInputPayload answers an InputPromptPayload request.
type UserInputPayload struct {
	RequestID string
	Text      string
}

// ApprovalResponsePayload answers an ApprovalRequiredPayload request.
type ApprovalResponsePayload struct {
	RequestID string
	Decision  DecisionPayload
}

// DecisionPayload mirrors approval.Decision without importing the
// approval package, keeping events dependency-free of the rest of the
// core (a leaf package, per the dependency order in spec.md §2).
type DecisionPayload struct {
	Approved bool
	Remember string // "none" | "session"
	Note     string
}

// ManualToolInvokePayload asks the runtime to execute a tool outside the
// model loop.
type ManualToolInvokePayload struct {
	RequestID string
	ToolName  string
	ToolArgs  map[string]any
}

// InterruptPayload carries no data; emitting ActionInterrupt is itself the
// signal.
type InterruptPayload struct{}

// GetDiffPayload requests diff content for a specific file.
type GetDiffPayload struct {
	RequestID string
	File      string
}

// TokensUsedPayload carries one model call's token usage, for metrics
// sinks that need per-call deltas rather than the loop's running total
// (spec.md §6.3 "generateText(...) -> {text, toolCalls, usage}").
type TokensUsedPayload struct {
	WorkerName   string
	InputTokens  int
	OutputTokens int
}

// DelegationDepthPayload announces the depth a sub-worker delegation call
// reached (spec.md §4.6).
type DelegationDepthPayload struct {
	WorkerName string
	Depth      int
}
