// Package approval implements the Approval Controller and Session Approval
// Memory described in spec.md §4.3: mode-dispatched authorisation of tool
// calls, with a structural-equality cache for "remember: session"
// decisions.
package approval

import (
	"context"
	"fmt"
	"reflect"
)

// Mode selects how Controller.RequestApproval resolves a request.
type Mode string

const (
	// ModeApproveAll always approves and never prompts or caches.
	ModeApproveAll Mode = "approve_all"
	// ModeStrict always denies with a stock note.
	ModeStrict Mode = "strict"
	// ModeInteractive checks the session cache, then prompts via callback.
	ModeInteractive Mode = "interactive"
)

// Remember selects whether an approved decision is cached.
type Remember string

const (
	RememberNone    Remember = "none"
	RememberSession Remember = "session"
)

// Request describes a tool call awaiting authorisation (spec.md §3).
type Request struct {
	ToolName    string
	ToolArgs    map[string]any
	Description string
}

// Decision is the outcome of an approval request (spec.md §3).
type Decision struct {
	Approved bool
	Remember Remember
	Note     string
}

// Callback is the UI bridge invoked in interactive mode. It may block
// arbitrarily long and must not mutate req. Concurrent calls must resolve
// independently; the Controller never serialises them (spec.md §4.3
// "Callback contract").
type Callback func(ctx context.Context, req Request) (Decision, error)

// Controller dispatches approval requests by Mode, consulting and updating
// a shared Memory for interactive mode.
type Controller struct {
	mode     Mode
	callback Callback
	memory   *Memory
}

// New creates a Controller. In ModeInteractive, callback must be non-nil
// (spec.md §4.1 "Fails at construction when ... interactive mode has no
// callback and no shared controller" — the no-callback check lives here so
// every caller gets it for free).
func New(mode Mode, callback Callback, memory *Memory) (*Controller, error) {
	if mode == ModeInteractive && callback == nil {
		return nil, ErrNoCallback
	}
	if memory == nil {
		memory = NewMemory()
	}
	return &Controller{mode: mode, callback: callback, memory: memory}, nil
}

// Mode returns the controller's mode.
func (c *Controller) Mode() Mode { return c.mode }

// Memory returns the controller's session memory, so a delegating runtime
// can hand it to a child controller that shares the same mode/callback
// pairing but narrower tool visibility (spec.md §4.3 "Sharing across
// workers").
func (c *Controller) Memory() *Memory { return c.memory }

// RequestApproval resolves req per spec.md §4.3 "Modes" and "Cache
// semantics": approve_all never prompts or caches; strict always denies;
// interactive checks the cache, else prompts and caches only approved,
// remember=session decisions. Denials are never cached.
func (c *Controller) RequestApproval(ctx context.Context, req Request) (Decision, error) {
	switch c.mode {
	case ModeApproveAll:
		return Decision{Approved: true, Remember: RememberNone}, nil

	case ModeStrict:
		return Decision{
			Approved: false,
			Remember: RememberNone,
			Note:     fmt.Sprintf("Strict mode: %s requires approval", req.ToolName),
		}, nil

	case ModeInteractive:
		if cached, ok := c.memory.Lookup(req.ToolName, req.ToolArgs); ok {
			return cached, nil
		}
		decision, err := c.callback(ctx, req)
		if err != nil {
			return Decision{}, err
		}
		if decision.Approved && decision.Remember == RememberSession {
			c.memory.Store(req.ToolName, req.ToolArgs, decision)
		}
		return decision, nil

	default:
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownMode, c.mode)
	}
}

// Memory is the session approval cache (spec.md §3 "Session Approval
// Memory"). Keys are (toolName, deepEqual(toolArgs)); lookup is by
// structural equality, not identity. It is bound to a single Controller
// and is never persisted.
type Memory struct {
	entries []memoryEntry
}

type memoryEntry struct {
	toolName string
	args     map[string]any
	decision Decision
}

// NewMemory creates an empty Memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Lookup returns the cached decision for (toolName, args), if any, using
// recursive structural equality (internal/DESIGN.md "canonical arg
// comparison") rather than stringification, so key ordering and value
// types inside args never cause false negatives or positives.
func (m *Memory) Lookup(toolName string, args map[string]any) (Decision, bool) {
	for _, e := range m.entries {
		if e.toolName == toolName && deepEqualArgs(e.args, args) {
			return e.decision, true
		}
	}
	return Decision{}, false
}

// Store caches decision for (toolName, args). Only call with approved,
// remember=session decisions — Store itself does not enforce that so tests
// can exercise memory in isolation, but Controller.RequestApproval never
// calls it otherwise (spec.md §8 "No-cache on denial").
func (m *Memory) Store(toolName string, args map[string]any, decision Decision) {
	m.entries = append(m.entries, memoryEntry{toolName: toolName, args: args, decision: decision})
}

// Clear purges every cached entry (spec.md §3 "Cleared on controller
// disposal, never persisted by the core").
func (m *Memory) Clear() {
	m.entries = nil
}

// Len reports the number of cached entries (test/diagnostic helper).
func (m *Memory) Len() int { return len(m.entries) }

// deepEqualArgs compares two argument maps structurally. reflect.DeepEqual
// is sufficient here because tool args are always decoded from JSON into
// map[string]any/[]any/string/float64/bool/nil, a closed set of comparable
// shapes — no function values or channels can appear.
func deepEqualArgs(a, b map[string]any) bool {
	return reflect.DeepEqual(a, b)
}
