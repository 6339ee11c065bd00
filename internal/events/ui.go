package events

import "context"

// RuntimeUI is the facade the runtime uses to talk to a UI collaborator
// (spec.md §6 "UI collaborator (exposed contract)"). A RuntimeUI wraps a
// Bus: display methods Emit, request/response methods Emit then block on a
// matching action Subscribe.
type RuntimeUI interface {
	ShowMessage(role, text string)
	ShowStatus(kind StatusKind, message string)
	StartStreaming()
	AppendStreaming(chunk string)
	EndStreaming()
	ShowToolStarted(p ToolStartedPayload)
	ShowToolResult(p ToolResultPayload)
	UpdateWorker(p WorkerUpdatePayload)
	ShowManualTools(tools []ManualToolDescriptor)
	ShowDiffSummary(p DiffSummaryPayload)
	ShowDiffContent(p DiffContentPayload)

	// RequestApproval emits an approvalRequired display event and blocks
	// until the matching approvalResponse action arrives.
	RequestApproval(ctx context.Context, req ApprovalRequiredPayload) (DecisionPayload, error)

	// GetUserInput emits an inputPrompt display event and blocks until the
	// matching userInput action arrives.
	GetUserInput(ctx context.Context, prompt string) (string, error)

	OnInterrupt(fn func())
	OnManualToolInvoke(fn func(ManualToolInvokePayload))
	OnGetDiff(fn func(GetDiffPayload))

	EndSession(p SessionEndPayload)
}
