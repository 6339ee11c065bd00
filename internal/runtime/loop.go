// Package runtime implements the Worker Runtime Loop (spec.md §4.1): the
// orchestration loop that drives a model through an alternating sequence
// of generation and tool execution.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/golemforge/golem-forge/internal/approval"
	"github.com/golemforge/golem-forge/internal/events"
	"github.com/golemforge/golem-forge/internal/llm"
	"github.com/golemforge/golem-forge/internal/sandbox"
	"github.com/golemforge/golem-forge/internal/tool"
	"github.com/golemforge/golem-forge/internal/worker"
)

// DefaultMaxIterations is used when Options.MaxIterations is zero.
const DefaultMaxIterations = 10

// DefaultMaxDelegationDepth bounds sub-worker delegation depth (spec.md
// §4.6), consumed by internal/delegation.
const DefaultMaxDelegationDepth = 5

// Signal is a cooperative interrupt handle (spec.md §4.1 "Cancellation"):
// a plain flag polled at the top of every iteration.
type Signal struct {
	interrupted bool
}

// Set marks the signal interrupted.
func (s *Signal) Set() {
	if s != nil {
		s.interrupted = true
	}
}

// IsSet reports whether the signal has been raised.
func (s *Signal) IsSet() bool {
	return s != nil && s.interrupted
}

// Options configures a Runtime's construction (spec.md §4.1 "Construction
// contract").
type Options struct {
	Definition    *worker.Definition
	Model         llm.Model
	Tools         *tool.Registry
	Sandbox       *sandbox.Sandbox
	Approval      *approval.Controller // shared controller; nil denies every call that needs approval
	Bus           *events.Bus
	MaxIterations int
	MaxTokenBudget int // 0 = disabled; hard ceiling on accumulated input+output tokens for this run
	Depth         int
	Interrupt     *Signal
	DelegationPath []string // worker names from the top-level run down to (not including) this one
}

// Result is the outcome of a worker run (spec.md §4.1 "Output").
type Result struct {
	Success      bool
	Response     string
	Error        string
	ToolCallCount int
	Tokens       TokenUsage
}

// TokenUsage accumulates input/output token totals across iterations.
type TokenUsage struct {
	Input  int
	Output int
}

// Runtime drives one worker invocation through the iteration loop.
type Runtime struct {
	def       *worker.Definition
	model     llm.Model
	tools     *tool.Registry
	sandbox   *sandbox.Sandbox
	approval  *approval.Controller
	bus       *events.Bus
	executor  *tool.Executor
	maxIters  int
	depth     int
	interrupt *Signal
	delegationPath []string
	budget    *tokenBudget

	messages      []llm.Message
	toolCallCount int
	tokens        TokenUsage
	iterations    int
}

// New constructs a Runtime, validating the construction contract of
// spec.md §4.1: depth must be non-negative, interactive approval mode
// requires a callback, a worker that requires a sandbox must have one,
// and the resolved model must match one of the worker's
// compatible_models patterns.
func New(opts Options) (*Runtime, error) {
	if opts.Definition == nil {
		return nil, fmt.Errorf("runtime: worker definition is required")
	}
	if opts.Depth < 0 {
		return nil, fmt.Errorf("runtime: depth must be non-negative, got %d", opts.Depth)
	}
	if err := worker.ValidateCompatibleModels(opts.Definition.CompatibleModels); err != nil {
		return nil, err
	}
	if opts.Model != nil && !worker.MatchesAnyModel(opts.Definition.CompatibleModels, opts.Model.ID()) {
		return nil, fmt.Errorf("%w: %q does not match worker %q compatible_models", ErrModelMismatch, opts.Model.ID(), opts.Definition.Name)
	}
	if opts.Definition.RequiresSandbox() && opts.Sandbox == nil {
		return nil, fmt.Errorf("%w: worker %q", ErrSandboxRequired, opts.Definition.Name)
	}
	if opts.Approval != nil && opts.Approval.Mode() == approval.ModeInteractive && opts.Approval.Memory() == nil {
		// approval.New always attaches a session memory; this rejects an
		// interactive controller that has none (one built by other means).
		return nil, fmt.Errorf("runtime: interactive approval mode requires a configured controller")
	}

	maxIters := opts.MaxIterations
	if maxIters <= 0 {
		maxIters = DefaultMaxIterations
	}

	tools := opts.Tools
	if tools == nil {
		tools = tool.NewRegistry()
	}

	var executor *tool.Executor
	if opts.Approval != nil {
		executor = tool.NewExecutor(tools, opts.Approval, opts.Bus)
	} else {
		executor = tool.NewExecutor(tools, nil, opts.Bus)
	}

	return &Runtime{
		def:            opts.Definition,
		model:          opts.Model,
		tools:          tools,
		sandbox:        opts.Sandbox,
		approval:       opts.Approval,
		bus:            opts.Bus,
		executor:       executor,
		maxIters:       maxIters,
		depth:          opts.Depth,
		interrupt:      opts.Interrupt,
		delegationPath: opts.DelegationPath,
		budget:         &tokenBudget{max: opts.MaxTokenBudget},
	}, nil
}

// Run executes the input through the iteration loop (spec.md §4.1
// "Iteration"). In chat mode with a non-nil ui it keeps prompting for
// further user turns until the user enters "/exit"; with a nil ui chat
// mode returns after the first reply without tool calls. ui is optional
// in single mode.
func (r *Runtime) Run(ctx context.Context, in worker.Input, ui events.RuntimeUI) Result {
	if err := worker.ValidateEmptyInput(r.def, in); err != nil {
		return r.fail(err)
	}
	if err := worker.ValidateAttachments(r.def.AttachmentPolicy, in.Attachments); err != nil {
		return r.fail(err)
	}

	r.messages = r.assembleInitialMessages(in)

	for {
		result, done, err := r.iterate(ctx, ui)
		if err != nil {
			return r.fail(err)
		}
		if done {
			return result
		}
	}
}

// iterate runs a single loop iteration. done=true means the caller should
// return result immediately.
func (r *Runtime) iterate(ctx context.Context, ui events.RuntimeUI) (Result, bool, error) {
	if r.interrupt.IsSet() {
		return Result{Success: true, Response: "[Interrupted]", ToolCallCount: r.toolCallCount, Tokens: r.tokens}, true, nil
	}

	if r.iterations >= r.maxIters {
		return Result{}, false, &maxIterationsError{max: r.maxIters}
	}
	r.iterations++

	r.emit(events.EventMessageSend, r.messages)

	resp, err := r.model.GenerateText(ctx, llm.GenerateRequest{
		Messages: r.messages,
		Tools:    r.toolDefinitions(),
	})
	if err != nil {
		return Result{}, false, err
	}
	r.tokens.Input += resp.Usage.InputTokens
	r.tokens.Output += resp.Usage.OutputTokens
	r.emit(events.EventTokensUsed, events.TokensUsedPayload{
		WorkerName:   r.def.Name,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	})
	r.emit(events.EventResponseReceive, resp.Message)

	if err := r.budget.record(resp.Usage.InputTokens + resp.Usage.OutputTokens); err != nil {
		return Result{}, false, err
	}

	if r.def.Mode == worker.ModeChat && r.def.MaxContextTokens > 0 {
		r.checkContextUsage()
	}

	if len(resp.Message.ToolCalls) == 0 {
		return r.handleTerminalGeneration(resp.Message, ui)
	}

	r.messages = append(r.messages, resp.Message)
	calls := toExecutorCalls(resp.Message.ToolCalls)
	results := r.executor.ExecuteBatch(ctx, calls)
	r.toolCallCount += len(results)
	r.messages = append(r.messages, toolResultsMessage(results)...)

	return Result{}, false, nil
}

// handleTerminalGeneration implements spec.md §4.1's branch for "the
// model returns no tool calls": single mode returns immediately; chat
// mode prompts for the next user turn.
func (r *Runtime) handleTerminalGeneration(msg llm.Message, ui events.RuntimeUI) (Result, bool, error) {
	if r.def.Mode == worker.ModeSingle {
		return Result{Success: true, Response: msg.Content, ToolCallCount: r.toolCallCount, Tokens: r.tokens}, true, nil
	}

	// chat mode
	if ui == nil {
		return Result{Success: true, Response: msg.Content, ToolCallCount: r.toolCallCount, Tokens: r.tokens}, true, nil
	}
	next, err := r.promptNextTurn(ui)
	if err != nil {
		return Result{}, false, err
	}
	if next == nil {
		return Result{Success: true, Response: msg.Content, ToolCallCount: r.toolCallCount, Tokens: r.tokens}, true, nil
	}
	if next.reset {
		r.messages = r.messages[:1] // keep only the system message
		return Result{}, false, nil
	}
	r.messages = append(r.messages, llm.Message{Role: llm.RoleUser, Content: next.text})
	return Result{}, false, nil
}

type nextTurn struct {
	text  string
	reset bool
}

// promptNextTurn asks the UI for the next chat-mode user message,
// honoring the "/new" and "/exit" chat commands (spec.md §4.1).
func (r *Runtime) promptNextTurn(ui events.RuntimeUI) (*nextTurn, error) {
	text, err := ui.GetUserInput(context.Background(), "")
	if err != nil {
		return nil, err
	}
	switch text {
	case "/exit":
		return nil, nil
	case "/new":
		return &nextTurn{reset: true}, nil
	default:
		return &nextTurn{text: text}, nil
	}
}

func (r *Runtime) checkContextUsage() {
	r.trimToContextBudget()
	r.emit(events.EventContextUsage, r.tokens)
}

// estimatedTokens approximates a message's token count from its rune
// count, since no per-message tokenizer is wired into llm.Message.
func estimatedTokens(msg llm.Message) int {
	return len([]rune(msg.Content)) / 4
}

// trimToContextBudget drops the oldest messages once chat mode's running
// history would exceed def.MaxContextTokens: the system message at index
// 0 and the most recent message are always kept, even if that message
// alone exceeds budget (see
// DESIGN.md for grounding).
func (r *Runtime) trimToContextBudget() {
	budget := r.def.MaxContextTokens
	if budget <= 0 || len(r.messages) <= 2 {
		return
	}

	total := 0
	keepFrom := 1
	for i := len(r.messages) - 1; i >= 1; i-- {
		total += estimatedTokens(r.messages[i])
		if total > budget {
			keepFrom = i + 1
			break
		}
		keepFrom = i
	}
	if keepFrom <= 1 {
		return
	}
	if keepFrom >= len(r.messages) {
		keepFrom = len(r.messages) - 1
	}

	trimmed := make([]llm.Message, 0, 1+len(r.messages)-keepFrom)
	trimmed = append(trimmed, r.messages[0])
	trimmed = append(trimmed, r.messages[keepFrom:]...)
	r.messages = trimmed
}

func (r *Runtime) toolDefinitions() []llm.ToolDefinition {
	visible := r.tools.LLMVisible()
	defs := make([]llm.ToolDefinition, 0, len(visible))
	for _, t := range visible {
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  schemaToParameters(t.InputSchema()),
		})
	}
	return defs
}

func (r *Runtime) assembleInitialMessages(in worker.Input) []llm.Message {
	msgs := []llm.Message{{Role: llm.RoleSystem, Content: r.def.Instructions}}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: renderUserContent(in)})
	return msgs
}

func (r *Runtime) emit(name events.Name, payload any) {
	if r.bus == nil {
		return
	}
	r.bus.Emit(name, payload)
}

func (r *Runtime) fail(err error) Result {
	r.emit(events.EventExecutionError, err.Error())
	return Result{Success: false, Error: err.Error(), ToolCallCount: r.toolCallCount, Tokens: r.tokens}
}

func toExecutorCalls(calls []llm.ToolCall) []tool.Call {
	out := make([]tool.Call, len(calls))
	for i, c := range calls {
		out[i] = tool.Call{ToolCallID: c.ID, ToolName: c.Name, ToolArgs: decodeArgs(c.Arguments)}
	}
	return out
}

// decodeArgs parses a tool call's raw JSON arguments into the map shape
// Tool.Execute expects. Malformed arguments yield an empty map rather
// than failing the whole batch; the tool itself will reject missing
// required fields.
func decodeArgs(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return map[string]any{}
	}
	return args
}

func toolResultsMessage(results []tool.Result) []llm.Message {
	msgs := make([]llm.Message, len(results))
	for i, res := range results {
		content, ok := res.Output.(string)
		if !ok {
			if encoded, err := json.Marshal(res.Output); err == nil {
				content = string(encoded)
			} else {
				content = fmt.Sprintf("%v", res.Output)
			}
		}
		msgs[i] = llm.Message{
			Role:       llm.RoleTool,
			Content:    content,
			ToolCallID: res.ToolCallID,
			Name:       res.ToolName,
		}
	}
	return msgs
}

func renderUserContent(in worker.Input) string {
	if len(in.Attachments) == 0 {
		return in.Content
	}
	out := in.Content
	for _, a := range in.Attachments {
		out += fmt.Sprintf("\n\n[attachment: %s]", a.Name)
	}
	return out
}

func schemaToParameters(fields []tool.SchemaField) map[string]any {
	properties := make(map[string]any, len(fields))
	var required []string
	for _, f := range fields {
		prop := map[string]any{"type": f.Type, "description": f.Description}
		if len(f.Enum) > 0 {
			prop["enum"] = f.Enum
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}
	params := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		params["required"] = required
	}
	return params
}
