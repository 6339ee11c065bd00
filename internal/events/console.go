package events

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/golemforge/golem-forge/internal/util"
)

// maxToolOutputRunes caps how much of a tool's output is echoed to the
// console; full output still reaches the model, only the terminal
// rendering is capped.
const maxToolOutputRunes = 2000

// ConsoleUI is a minimal RuntimeUI that renders display events to stdout
// and resolves approval/input requests from stdin. It is the reference
// discharge of the "terminal/web UI rendering" external-collaborator
// boundary (spec.md §1) for this repo's CLI entrypoint, a plain
// fmt.Println/log.Printf-style console reporter, not an HTTP/SSE
// surface (see DESIGN.md).
type ConsoleUI struct {
	bus    *Bus
	out    *os.File
	reader *bufio.Reader
}

// NewConsoleUI creates a ConsoleUI writing to stdout and reading from stdin.
func NewConsoleUI() *ConsoleUI {
	return &ConsoleUI{
		bus:    New(),
		out:    os.Stdout,
		reader: bufio.NewReader(os.Stdin),
	}
}

func (c *ConsoleUI) ShowMessage(role, text string) {
	fmt.Fprintf(c.out, "[%s] %s\n", role, text)
}

func (c *ConsoleUI) ShowStatus(kind StatusKind, message string) {
	fmt.Fprintf(c.out, "[status:%s] %s\n", kind, message)
}

func (c *ConsoleUI) StartStreaming()          { fmt.Fprint(c.out, "[assistant] ") }
func (c *ConsoleUI) AppendStreaming(s string) { fmt.Fprint(c.out, s) }
func (c *ConsoleUI) EndStreaming()            { fmt.Fprintln(c.out) }

func (c *ConsoleUI) ShowToolStarted(p ToolStartedPayload) {
	fmt.Fprintf(c.out, "[tool %d/%d] %s %v\n", p.BatchIndex+1, p.BatchSize, p.ToolName, p.Args)
}

func (c *ConsoleUI) ShowToolResult(p ToolResultPayload) {
	status := "ok"
	if p.IsError {
		status = "error"
	}
	fmt.Fprintf(c.out, "[tool %s] %s (%dms): %s\n", status, p.ToolName, p.DurationMs, util.TruncateRunes(p.Output, maxToolOutputRunes))
}

func (c *ConsoleUI) UpdateWorker(p WorkerUpdatePayload) {
	fmt.Fprintf(c.out, "[worker %s] %s %s\n", p.WorkerName, p.Status, p.Detail)
}

func (c *ConsoleUI) ShowManualTools(tools []ManualToolDescriptor) {
	fmt.Fprintf(c.out, "[manual tools] %d available\n", len(tools))
	for _, t := range tools {
		fmt.Fprintf(c.out, "  - %s (%s): %s\n", t.Name, t.Category, t.Label)
	}
}

func (c *ConsoleUI) ShowDiffSummary(p DiffSummaryPayload) {
	fmt.Fprintf(c.out, "[diff] %d file(s) changed\n", len(p.Files))
}

func (c *ConsoleUI) ShowDiffContent(p DiffContentPayload) {
	fmt.Fprintf(c.out, "[diff:%s]\n%s\n", p.File, p.Diff)
}

// RequestApproval prompts on stdout/stdin and blocks until the user
// answers or ctx is cancelled.
func (c *ConsoleUI) RequestApproval(ctx context.Context, req ApprovalRequiredPayload) (DecisionPayload, error) {
	argsJSON, _ := json.Marshal(req.ToolArgs)
	fmt.Fprintf(c.out, "[approval] %s %s — %s\nApprove? [y/N/remember]: ", req.ToolName, string(argsJSON), req.Description)

	type result struct {
		line string
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		line, err := c.reader.ReadString('\n')
		resultCh <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return DecisionPayload{}, ctx.Err()
	case r := <-resultCh:
		if r.err != nil {
			return DecisionPayload{Approved: false, Remember: "none"}, nil
		}
		switch trimNewline(r.line) {
		case "y", "Y":
			return DecisionPayload{Approved: true, Remember: "none"}, nil
		case "remember":
			return DecisionPayload{Approved: true, Remember: "session"}, nil
		default:
			return DecisionPayload{Approved: false, Remember: "none"}, nil
		}
	}
}

// GetUserInput prompts on stdout/stdin and blocks until the user answers
// or ctx is cancelled.
func (c *ConsoleUI) GetUserInput(ctx context.Context, prompt string) (string, error) {
	fmt.Fprintf(c.out, "%s\n> ", prompt)

	type result struct {
		line string
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		line, err := c.reader.ReadString('\n')
		resultCh <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-resultCh:
		return trimNewline(r.line), r.err
	}
}

func (c *ConsoleUI) OnInterrupt(fn func()) {
	c.bus.Subscribe(ActionInterrupt, func(any) { fn() })
}

func (c *ConsoleUI) OnManualToolInvoke(fn func(ManualToolInvokePayload)) {
	c.bus.Subscribe(ActionManualToolInvoke, func(p any) {
		if payload, ok := p.(ManualToolInvokePayload); ok {
			fn(payload)
		}
	})
}

func (c *ConsoleUI) OnGetDiff(fn func(GetDiffPayload)) {
	c.bus.Subscribe(ActionGetDiff, func(p any) {
		if payload, ok := p.(GetDiffPayload); ok {
			fn(payload)
		}
	})
}

func (c *ConsoleUI) EndSession(p SessionEndPayload) {
	fmt.Fprintf(c.out, "[session end] %s %s\n", p.Reason, p.Message)
}

// NewRequestID generates an opaque correlation id for a request/response
// round trip (spec.md §4.4).
func NewRequestID() string {
	return uuid.NewString()
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
