package delegation

import (
	"context"
	"testing"

	"github.com/golemforge/golem-forge/internal/llm"
	"github.com/golemforge/golem-forge/internal/tool"
	"github.com/golemforge/golem-forge/internal/worker"
)

type fakeRegistry struct {
	defs map[string]*worker.Definition
}

func (r *fakeRegistry) GetDefinition(name string) (*worker.Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

type fakeModel struct{ id string }

func (m *fakeModel) ID() string        { return m.id }
func (m *fakeModel) ContextWindow() int { return 32000 }
func (m *fakeModel) GenerateText(_ context.Context, _ llm.GenerateRequest) (llm.GenerateResponse, error) {
	return llm.GenerateResponse{Message: llm.Message{Role: llm.RoleAssistant, Content: "child says hi"}}, nil
}

type fakeResolver struct{ model llm.Model }

func (r *fakeResolver) Resolve(*worker.Definition) (llm.Model, error) { return r.model, nil }

func helperDef() *worker.Definition {
	return &worker.Definition{
		Name:             "helper",
		Instructions:     "help out",
		Mode:             worker.ModeSingle,
		CompatibleModels: []string{"*"},
	}
}

func TestBuildToolsRejectsReservedName(t *testing.T) {
	_, err := BuildTools([]string{"write_file"}, Config{Registry: &fakeRegistry{}})
	if err == nil {
		t.Fatal("expected error for reserved tool name collision")
	}
}

func TestBuildToolsOneToolPerAllowedName(t *testing.T) {
	tools, err := BuildTools([]string{"helper", "reviewer"}, Config{Registry: &fakeRegistry{}})
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	if tools[0].Name() != "helper" || tools[1].Name() != "reviewer" {
		t.Fatalf("unexpected tool names: %s, %s", tools[0].Name(), tools[1].Name())
	}
}

func TestExecuteWorkerNotFound(t *testing.T) {
	tools, _ := BuildTools([]string{"missing"}, Config{Registry: &fakeRegistry{defs: map[string]*worker.Definition{}}})
	result, err := tools[0].Execute(context.Background(), map[string]any{"input": "hi"}, tool.Context{})
	if err != nil {
		t.Fatal(err)
	}
	dr := result.(delegationResult)
	if dr.Success {
		t.Fatal("expected failure for missing worker")
	}
	if dr.Error != "Worker 'missing' not found" {
		t.Errorf("Error = %q", dr.Error)
	}
}

func TestExecuteSucceeds(t *testing.T) {
	reg := &fakeRegistry{defs: map[string]*worker.Definition{"helper": helperDef()}}
	cfg := Config{
		Registry: reg,
		Models:   &fakeResolver{model: &fakeModel{id: "test-model"}},
	}
	tools, err := BuildTools([]string{"helper"}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	result, err := tools[0].Execute(context.Background(), map[string]any{"input": "hi"}, tool.Context{})
	if err != nil {
		t.Fatal(err)
	}
	dr := result.(delegationResult)
	if !dr.Success {
		t.Fatalf("expected success, got error: %s", dr.Error)
	}
	if dr.Response != "child says hi" {
		t.Errorf("Response = %q", dr.Response)
	}
}

// spec.md §4.6 step 2: "Circular delegation: a → b → a"
func TestExecuteDetectsCircularDelegation(t *testing.T) {
	reg := &fakeRegistry{defs: map[string]*worker.Definition{"a": helperDef()}}
	cfg := Config{
		Registry:       reg,
		Models:         &fakeResolver{model: &fakeModel{id: "test-model"}},
		DelegationPath: []string{"a", "b"},
	}
	tools, err := BuildTools([]string{"a"}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	result, err := tools[0].Execute(context.Background(), map[string]any{"input": "hi"}, tool.Context{})
	if err != nil {
		t.Fatal(err)
	}
	dr := result.(delegationResult)
	if dr.Success {
		t.Fatal("expected failure for circular delegation")
	}
	want := "Circular delegation: a → b → a"
	if dr.Error != want {
		t.Errorf("Error = %q, want %q", dr.Error, want)
	}
}

func TestExecuteRejectsDepthBeyondMax(t *testing.T) {
	reg := &fakeRegistry{defs: map[string]*worker.Definition{"helper": helperDef()}}
	cfg := Config{
		Registry: reg,
		Models:   &fakeResolver{model: &fakeModel{id: "test-model"}},
		Depth:    5,
		MaxDepth: 5,
	}
	tools, err := BuildTools([]string{"helper"}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	result, err := tools[0].Execute(context.Background(), map[string]any{"input": "hi"}, tool.Context{})
	if err != nil {
		t.Fatal(err)
	}
	dr := result.(delegationResult)
	if dr.Success {
		t.Fatal("expected failure beyond max delegation depth")
	}
	want := "Maximum delegation depth (5) exceeded"
	if dr.Error != want {
		t.Errorf("Error = %q, want %q", dr.Error, want)
	}
}
