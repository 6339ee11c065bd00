// Package delegation implements the Sub-worker Delegation Tool (spec.md
// §4.6): one tool per allowed worker name, with cycle and depth guards,
// sandbox restriction, and a shared approval controller across parent
// and child runtimes.
package delegation

import (
	"context"
	"fmt"
	"strings"

	"github.com/golemforge/golem-forge/internal/approval"
	"github.com/golemforge/golem-forge/internal/events"
	"github.com/golemforge/golem-forge/internal/llm"
	"github.com/golemforge/golem-forge/internal/runtime"
	"github.com/golemforge/golem-forge/internal/sandbox"
	"github.com/golemforge/golem-forge/internal/tool"
	"github.com/golemforge/golem-forge/internal/worker"
)

// reservedToolNames are built-in tool names an allowed worker name must
// not collide with (spec.md §4.6 "fallback name-collision check").
var reservedToolNames = map[string]bool{
	"read_file": true, "write_file": true, "list_dir": true,
	"delete_file": true, "stat_file": true, "grep_file": true,
	"bash": true,
}

// Registry is the external worker-definition lookup the core consumes
// (spec.md §6 "worker-file discovery ... are external collaborators").
type Registry interface {
	GetDefinition(name string) (*worker.Definition, bool)
}

// ModelResolver resolves the model a child worker should run against.
// Implementations may return the same model the parent used, or a
// different one selected by the child's compatible_models.
type ModelResolver interface {
	Resolve(def *worker.Definition) (llm.Model, error)
}

// Config carries everything a delegation tool needs beyond the child's
// own name to run the child worker.
type Config struct {
	Registry       Registry
	Models         ModelResolver
	Approval       *approval.Controller // shared with the parent; carries memory across the delegation boundary
	Bus            *events.Bus
	ParentSandbox  *sandbox.Sandbox
	Depth          int      // parent's depth; children run at Depth+1
	DelegationPath []string // worker names from the top-level run down to the parent
	MaxDepth       int      // 0 = runtime.DefaultMaxDelegationDepth
	Classifier     worker.MimeClassifier
}

// BuildTools creates one tool.Tool per name in allowed (spec.md §4.6
// "Shape"). It fails if any allowed name collides with a reserved tool
// name.
func BuildTools(allowed []string, cfg Config) ([]tool.Tool, error) {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = runtime.DefaultMaxDelegationDepth
	}
	if cfg.Classifier == nil {
		cfg.Classifier = worker.DefaultMimeClassifier{}
	}

	tools := make([]tool.Tool, 0, len(allowed))
	for _, name := range allowed {
		if reservedToolNames[name] {
			return nil, fmt.Errorf("delegation: worker name %q collides with a reserved tool name", name)
		}
		tools = append(tools, &delegationTool{workerName: name, cfg: cfg})
	}
	return tools, nil
}

type delegationTool struct {
	workerName string
	cfg        Config
}

func (t *delegationTool) Name() string        { return t.workerName }
func (t *delegationTool) Description() string {
	def, ok := t.cfg.Registry.GetDefinition(t.workerName)
	if !ok {
		return fmt.Sprintf("Delegate to worker %q", t.workerName)
	}
	return def.Description
}

func (t *delegationTool) InputSchema() []tool.SchemaField {
	return []tool.SchemaField{
		{Name: "input", Type: "string", Description: "Text input for the sub-worker", Required: true},
		{Name: "attachments", Type: "array", Description: "Optional attachment names to forward from the sandbox"},
	}
}

func (t *delegationTool) NeedsApproval(map[string]any) bool { return false }

func (t *delegationTool) ManualExecution() tool.ManualExecution { return tool.ManualExecution{} }

// delegationResult is the JSON shape surfaced to the parent's model
// (spec.md §4.6 step 5: "Surface {success, response | error,
// toolCallCount, tokens} to the caller").
type delegationResult struct {
	Success       bool   `json:"success"`
	WorkerName    string `json:"workerName,omitempty"`
	Response      string `json:"response,omitempty"`
	Error         string `json:"error,omitempty"`
	ToolCallCount int    `json:"toolCallCount"`
	Tokens        runtime.TokenUsage `json:"tokens"`
}

func (t *delegationTool) Execute(ctx context.Context, args map[string]any, _ tool.Context) (any, error) {
	def, ok := t.cfg.Registry.GetDefinition(t.workerName)
	if !ok {
		return delegationResult{Success: false, WorkerName: t.workerName, Error: fmt.Sprintf("Worker '%s' not found", t.workerName)}, nil
	}

	if err := checkCycle(t.cfg.DelegationPath, t.workerName); err != nil {
		return delegationResult{Success: false, WorkerName: t.workerName, Error: err.Error()}, nil
	}
	newDepth := t.cfg.Depth + 1
	if newDepth > t.cfg.MaxDepth {
		return delegationResult{Success: false, WorkerName: t.workerName, Error: fmt.Sprintf("Maximum delegation depth (%d) exceeded", t.cfg.MaxDepth)}, nil
	}
	if t.cfg.Bus != nil {
		t.cfg.Bus.Emit(events.EventDelegationDepth, events.DelegationDepthPayload{WorkerName: t.workerName, Depth: newDepth})
	}

	childSandbox, err := restrictedChildSandbox(t.cfg.ParentSandbox, def)
	if err != nil {
		return delegationResult{Success: false, WorkerName: t.workerName, Error: err.Error()}, nil
	}

	model, err := t.resolveModel(def)
	if err != nil {
		return delegationResult{Success: false, WorkerName: t.workerName, Error: err.Error()}, nil
	}

	input, err := t.buildInput(args, childSandbox)
	if err != nil {
		return delegationResult{Success: false, WorkerName: t.workerName, Error: err.Error()}, nil
	}

	path := append(append([]string{}, t.cfg.DelegationPath...), t.workerName)
	child, err := runtime.New(runtime.Options{
		Definition:     def,
		Model:          model,
		Sandbox:        childSandbox,
		Approval:       t.cfg.Approval,
		Bus:            t.cfg.Bus,
		Depth:          newDepth,
		DelegationPath: path,
	})
	if err != nil {
		return delegationResult{Success: false, WorkerName: t.workerName, Error: err.Error()}, nil
	}

	result := child.Run(ctx, input, nil)
	return delegationResult{
		Success:       result.Success,
		WorkerName:    t.workerName,
		Response:      result.Response,
		Error:         result.Error,
		ToolCallCount: result.ToolCallCount,
		Tokens:        result.Tokens,
	}, nil
}

func (t *delegationTool) resolveModel(def *worker.Definition) (llm.Model, error) {
	if t.cfg.Models == nil {
		return nil, fmt.Errorf("delegation: no model resolver configured")
	}
	return t.cfg.Models.Resolve(def)
}

// checkCycle implements spec.md §4.6 step 2's circular-delegation guard,
// producing the exact "a → b → a" format.
func checkCycle(path []string, childName string) error {
	for _, name := range path {
		if name == childName {
			cycle := append(append([]string{}, path...), childName)
			return fmt.Errorf("Circular delegation: %s", strings.Join(cycle, " → "))
		}
	}
	return nil
}

// restrictedChildSandbox applies the child's declared sandbox
// restriction to the parent's sandbox (spec.md §4.6 step 3). A child
// with no sandbox requirement and no restriction simply inherits the
// parent's sandbox unchanged.
func restrictedChildSandbox(parent *sandbox.Sandbox, def *worker.Definition) (*sandbox.Sandbox, error) {
	if parent == nil {
		if def.RequiresSandbox() {
			return nil, fmt.Errorf("delegation: worker %q requires a sandbox but the parent has none", def.Name)
		}
		return nil, nil
	}
	if def.Sandbox == nil {
		return parent, nil
	}
	restriction := sandbox.Restriction{Restrict: def.Sandbox.Path}
	if def.Sandbox.ReadOnly {
		ro := true
		restriction.ReadOnly = &ro
	}
	return parent.Restrict(restriction)
}

// buildInput decodes the delegation call's {input, attachments} shape
// and resolves named attachments against the child sandbox, choosing
// text vs. binary per the configured MIME classifier (spec.md §4.6
// "Attachment forwarding").
func (t *delegationTool) buildInput(args map[string]any, childSandbox *sandbox.Sandbox) (worker.Input, error) {
	text, _ := args["input"].(string)
	in := worker.Input{Content: text}

	rawAttachments, ok := args["attachments"].([]any)
	if !ok || len(rawAttachments) == 0 {
		return in, nil
	}
	if childSandbox == nil {
		return worker.Input{}, fmt.Errorf("delegation: attachments requested but no sandbox is available")
	}

	for _, raw := range rawAttachments {
		name, ok := raw.(string)
		if !ok {
			continue
		}
		mimeType := "" // sandbox.Stat does not carry MIME type; classify by extension only
		if t.cfg.Classifier.ClassifyAsText(name, mimeType) {
			text, err := childSandbox.Read(name)
			if err != nil {
				return worker.Input{}, fmt.Errorf("delegation: reading attachment %q: %w", name, err)
			}
			in.Attachments = append(in.Attachments, worker.Attachment{Name: name, Text: text, MimeType: mimeType})
			continue
		}
		data, err := childSandbox.ReadBinary(name)
		if err != nil {
			return worker.Input{}, fmt.Errorf("delegation: reading attachment %q: %w", name, err)
		}
		in.Attachments = append(in.Attachments, worker.Attachment{Name: name, Data: data, MimeType: mimeType})
	}
	return in, nil
}

