package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/golemforge/golem-forge/internal/approval"
	"github.com/golemforge/golem-forge/internal/events"
)

const outputTruncateLimit = 1000

// Approver is the subset of approval.Controller the executor needs. It is
// expressed as an interface so the executor package does not force callers
// into one concrete approval implementation.
type Approver interface {
	RequestApproval(ctx context.Context, req approval.Request) (approval.Decision, error)
}

// Executor runs tool calls against a Registry, resolving approval and
// emitting observability events per spec.md §4.2. It is independently
// constructible and testable from the Worker Runtime Loop, and reusable
// for manual UI-initiated invocations.
type Executor struct {
	registry *Registry
	approver Approver
	bus      *events.Bus
}

// NewExecutor creates an Executor. approver may be nil, in which case any
// tool requiring approval is denied outright (a defensive default, not a
// silent approve-all).
func NewExecutor(registry *Registry, approver Approver, bus *events.Bus) *Executor {
	return &Executor{registry: registry, approver: approver, bus: bus}
}

// ExecuteBatch runs calls sequentially, in order (spec.md §4.2 "Batch
// execution": "deterministic approval ordering ... predictable
// side-effect sequencing"). Each call's full event sequence
// (tool_call_start → [approval_request, approval_decision] →
// tool_call_end|tool_call_error) completes before the next call starts
// (spec.md §5 "Ordering guarantees").
func (e *Executor) ExecuteBatch(ctx context.Context, calls []Call) []Result {
	results := make([]Result, len(calls))
	for i, call := range calls {
		results[i] = e.executeOne(ctx, call, i, len(calls))
	}
	return results
}

// executeOne implements the single-call algorithm of spec.md §4.2.
func (e *Executor) executeOne(ctx context.Context, call Call, index, batchSize int) Result {
	start := time.Now()
	e.emit(events.EventToolCallStart, toolCallStartPayload(call, index, batchSize))

	t, ok := e.registry.Get(call.ToolName)
	if !ok {
		return e.finishError(call, start, fmt.Sprintf("Error: Tool not found: %s", call.ToolName))
	}

	needsApproval := t.NeedsApproval(call.ToolArgs)
	if needsApproval {
		decision, err := e.resolveApproval(ctx, call, t)
		if err != nil {
			return e.finishError(call, start, fmt.Sprintf("Error: %s", err.Error()))
		}
		if !decision.Approved {
			note := decision.Note
			return e.finishError(call, start, fmt.Sprintf("Error: [DENIED] %s%s", call.ToolName, denialSuffix(note)))
		}
	}

	output, err := e.invoke(ctx, t, call)
	if err != nil {
		return e.finishError(call, start, fmt.Sprintf("Error: %s", err.Error()))
	}

	result := Result{
		ToolCallID: call.ToolCallID,
		ToolName:   call.ToolName,
		Output:     output,
		IsError:    false,
		DurationMs: time.Since(start).Milliseconds(),
	}
	e.emit(events.EventToolCallEnd, toolCallResultPayload(result))
	return result
}

func (e *Executor) resolveApproval(ctx context.Context, call Call, t Tool) (approval.Decision, error) {
	if e.approver == nil {
		return approval.Decision{Approved: false, Note: "no approval controller configured"}, nil
	}
	req := approval.Request{
		ToolName:    call.ToolName,
		ToolArgs:    call.ToolArgs,
		Description: t.Description(),
	}
	e.emit(events.EventApprovalRequest, req)
	decision, err := e.approver.RequestApproval(ctx, req)
	if err != nil {
		return approval.Decision{}, err
	}
	e.emit(events.EventApprovalDecision, decision)
	return decision, nil
}

func (e *Executor) invoke(ctx context.Context, t Tool, call Call) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	tc := Context{ToolCallID: call.ToolCallID}
	return t.Execute(ctx, call.ToolArgs, tc)
}

func (e *Executor) finishError(call Call, start time.Time, message string) Result {
	result := Result{
		ToolCallID: call.ToolCallID,
		ToolName:   call.ToolName,
		Output:     message,
		IsError:    true,
		DurationMs: time.Since(start).Milliseconds(),
	}
	e.emit(events.EventToolCallError, toolCallResultPayload(result))
	return result
}

func (e *Executor) emit(name events.Name, payload any) {
	if e.bus == nil {
		return
	}
	e.bus.Emit(name, payload)
}

func toolCallStartPayload(call Call, index, batchSize int) events.ToolStartedPayload {
	return events.ToolStartedPayload{
		ToolCallID: call.ToolCallID,
		ToolName:   call.ToolName,
		Args:       call.ToolArgs,
		BatchIndex: index,
		BatchSize:  batchSize,
	}
}

func toolCallResultPayload(r Result) events.ToolResultPayload {
	return events.ToolResultPayload{
		ToolCallID: r.ToolCallID,
		ToolName:   r.ToolName,
		Output:     truncate(fmt.Sprintf("%v", r.Output), outputTruncateLimit),
		IsError:    r.IsError,
		DurationMs: r.DurationMs,
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "...(truncated)"
}

func denialSuffix(note string) string {
	if note == "" {
		return ""
	}
	return ": " + note
}
