package approval

import (
	"context"
	"testing"
)

func TestApprovalCachingAcrossIdenticalCalls(t *testing.T) {
	// spec.md §8 scenario 1.
	calls := 0
	callback := func(_ context.Context, _ Request) (Decision, error) {
		calls++
		if calls == 1 {
			return Decision{Approved: true, Remember: RememberSession}, nil
		}
		return Decision{Approved: false}, nil
	}
	ctrl, err := New(ModeInteractive, callback, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	reqA := Request{ToolName: "write_file", ToolArgs: map[string]any{"path": "/w/a.txt", "content": "x"}, Description: "write"}
	reqB := Request{ToolName: "write_file", ToolArgs: map[string]any{"path": "/w/a.txt", "content": "x"}, Description: "write again"}

	decA, err := ctrl.RequestApproval(context.Background(), reqA)
	if err != nil {
		t.Fatalf("RequestApproval A: %v", err)
	}
	if !decA.Approved {
		t.Fatal("request A was not approved")
	}

	decB, err := ctrl.RequestApproval(context.Background(), reqB)
	if err != nil {
		t.Fatalf("RequestApproval B: %v", err)
	}
	if !decB.Approved {
		t.Fatal("request B was not approved from cache")
	}
	if calls != 1 {
		t.Fatalf("callback invoked %d times, want 1", calls)
	}
}

func TestStrictModeDenial(t *testing.T) {
	// spec.md §8 scenario 2.
	ctrl, err := New(ModeStrict, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dec, err := ctrl.RequestApproval(context.Background(), Request{ToolName: "bash"})
	if err != nil {
		t.Fatalf("RequestApproval: %v", err)
	}
	if dec.Approved {
		t.Fatal("strict mode approved a request")
	}
	if dec.Note != "Strict mode: bash requires approval" {
		t.Errorf("note = %q, want exact strict-mode message", dec.Note)
	}
	if dec.Remember != RememberNone {
		t.Errorf("remember = %q, want none", dec.Remember)
	}
}

func TestApproveAllNeverCaches(t *testing.T) {
	ctrl, err := New(ModeApproveAll, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := ctrl.RequestApproval(context.Background(), Request{ToolName: "x"}); err != nil {
		t.Fatalf("RequestApproval: %v", err)
	}
	if ctrl.Memory().Len() != 0 {
		t.Error("approve_all mode wrote to session memory")
	}
}

func TestDenialNeverCached(t *testing.T) {
	callback := func(_ context.Context, _ Request) (Decision, error) {
		return Decision{Approved: false, Remember: RememberSession}, nil
	}
	ctrl, err := New(ModeInteractive, callback, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req := Request{ToolName: "delete_file", ToolArgs: map[string]any{"path": "/x"}}
	if _, err := ctrl.RequestApproval(context.Background(), req); err != nil {
		t.Fatalf("RequestApproval: %v", err)
	}
	if _, ok := ctrl.Memory().Lookup(req.ToolName, req.ToolArgs); ok {
		t.Error("denied decision with remember=session was cached")
	}
}

func TestInteractiveModeRequiresCallback(t *testing.T) {
	if _, err := New(ModeInteractive, nil, nil); err == nil {
		t.Fatal("expected error constructing interactive controller without callback")
	}
}

func TestMemoryStructuralEquality(t *testing.T) {
	m := NewMemory()
	args := map[string]any{"b": 2, "a": 1, "nested": map[string]any{"x": []any{1, "two"}}}
	m.Store("t", args, Decision{Approved: true})

	reordered := map[string]any{"a": 1, "b": 2, "nested": map[string]any{"x": []any{1, "two"}}}
	if _, ok := m.Lookup("t", reordered); !ok {
		t.Error("lookup failed for structurally-equal args with different key order")
	}

	different := map[string]any{"a": 1, "b": 2, "nested": map[string]any{"x": []any{1, "three"}}}
	if _, ok := m.Lookup("t", different); ok {
		t.Error("lookup succeeded for structurally-different args")
	}
}

func TestMemoryClear(t *testing.T) {
	m := NewMemory()
	m.Store("t", map[string]any{"a": 1}, Decision{Approved: true})
	m.Clear()
	if m.Len() != 0 {
		t.Error("Clear did not purge entries")
	}
}
