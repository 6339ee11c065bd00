// Package events implements the typed pub/sub UI Event Bus of spec.md
// §4.4: display events (runtime → UI, fire-and-forget) and action events
// (UI → runtime), delivered synchronously in subscription order.
package events

import "log"

// Name identifies an event channel.
type Name string

// Display event names (runtime → UI).
const (
	EventMessage              Name = "message"
	EventStreaming             Name = "streaming"
	EventStatus                Name = "status"
	EventToolStarted           Name = "toolStarted"
	EventToolResult            Name = "toolResult"
	EventWorkerUpdate          Name = "workerUpdate"
	EventApprovalRequired      Name = "approvalRequired"
	EventManualToolsAvailable  Name = "manualToolsAvailable"
	EventDiffSummary           Name = "diffSummary"
	EventDiffContent           Name = "diffContent"
	EventInputPrompt           Name = "inputPrompt"
	EventSessionEnd            Name = "sessionEnd"
)

// Action event names (UI → runtime).
const (
	ActionUserInput        Name = "userInput"
	ActionApprovalResponse Name = "approvalResponse"
	ActionManualToolInvoke Name = "manualToolInvoke"
	ActionInterrupt        Name = "interrupt"
	ActionGetDiff          Name = "getDiff"
)

// Tool Executor observability events (spec.md §4.2, §5 "Ordering
// guarantees"). These are lower-level than the display events above —
// tests assert their strict per-call sequencing — but travel on the same
// Bus so a UI can subscribe to either layer.
const (
	EventToolCallStart    Name = "tool_call_start"
	EventApprovalRequest  Name = "approval_request"
	EventApprovalDecision Name = "approval_decision"
	EventToolCallEnd      Name = "tool_call_end"
	EventToolCallError    Name = "tool_call_error"
	EventMessageSend      Name = "message_send"
	EventResponseReceive  Name = "response_receive"
	EventExecutionError   Name = "execution_error"
	EventContextUsage     Name = "context_usage"
	EventTokensUsed       Name = "tokens_used"
	EventDelegationDepth  Name = "delegation_depth"
)

// Handler receives a payload emitted on a Name. Implementations must not
// block indefinitely — Emit delivers synchronously, in subscription order,
// within a single caller turn (spec.md §4.4 "Guarantees").
type Handler func(payload any)

// Bus is a typed pub/sub shared by display and action events. It has no
// internal concurrency of its own: emit/subscribe are not safe to call
// concurrently with each other, matching the single-threaded cooperative
// model of spec.md §5.
type Bus struct {
	handlers map[Name][]subscription
	nextID   int
}

type subscription struct {
	id int
	fn Handler
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[Name][]subscription)}
}

// Subscription is an opaque handle returned by Subscribe, used to
// Unsubscribe deterministically and idempotently.
type Subscription struct {
	name Name
	id   int
}

// Subscribe registers fn to be invoked whenever name is emitted. Handlers
// for the same name are invoked in the order they were subscribed.
func (b *Bus) Subscribe(name Name, fn Handler) Subscription {
	b.nextID++
	id := b.nextID
	b.handlers[name] = append(b.handlers[name], subscription{id: id, fn: fn})
	return Subscription{name: name, id: id}
}

// Unsubscribe removes a subscription. Safe to call more than once; the
// second call is a no-op (spec.md §4.4 "Unsubscribe is deterministic and
// idempotent").
func (b *Bus) Unsubscribe(sub Subscription) {
	subs := b.handlers[sub.name]
	for i, s := range subs {
		if s.id == sub.id {
			b.handlers[sub.name] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit delivers payload to every handler subscribed to name, in
// subscription order. A panic in one handler is trapped and logged so it
// cannot prevent subsequent handlers from running (spec.md §4.4 "An
// exception in one handler must not prevent subsequent handlers from
// running").
func (b *Bus) Emit(name Name, payload any) {
	for _, sub := range b.handlers[name] {
		invokeSafely(sub.fn, payload)
	}
}

func invokeSafely(fn Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[EventBus] handler panic recovered: %v", r)
		}
	}()
	fn(payload)
}
