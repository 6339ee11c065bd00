package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golemforge/golem-forge/internal/tool"
)

// callTimeout caps a single MCP tool call so a hung server fails quickly
// and control returns to the runtime loop, which still has the remainder
// of its own iteration budget to produce a terminal answer.
const callTimeout = 60 * time.Second

// toolAdapter bridges one MCP server tool to tool.Tool. Name() follows the
// mcp_<server>__<tool> convention; the double underscore cannot appear
// inside a single valid server or tool name, so it separates the two
// components unambiguously.
type toolAdapter struct {
	serverName string
	info       toolInfo
	client     *client      // shared persistent connection; nil for per_call
	cfg        ServerConfig // used by per_call Execute to rebuild a transient connection
	lifecycle  string
}

func newToolAdapter(serverName string, info toolInfo, cli *client, cfg ServerConfig) *toolAdapter {
	lc := cfg.Lifecycle
	if lc == "" {
		lc = "persistent"
	}
	return &toolAdapter{serverName: serverName, info: info, client: cli, cfg: cfg, lifecycle: lc}
}

func (a *toolAdapter) Name() string {
	return fmt.Sprintf("mcp_%s__%s", a.serverName, a.info.Name)
}

func (a *toolAdapter) Description() string { return a.info.Description }

// InputSchema flattens the server-advertised JSON Schema's top-level
// properties into []tool.SchemaField. MCP schemas may nest further than a
// SchemaField can express; each field keeps only its own type,
// description and enum, and nested structure is dropped.
func (a *toolAdapter) InputSchema() []tool.SchemaField {
	var parsed struct {
		Properties map[string]struct {
			Type        string   `json:"type"`
			Description string   `json:"description"`
			Enum        []string `json:"enum"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(a.info.InputSchema, &parsed); err != nil || parsed.Properties == nil {
		return nil
	}
	required := make(map[string]bool, len(parsed.Required))
	for _, name := range parsed.Required {
		required[name] = true
	}
	fields := make([]tool.SchemaField, 0, len(parsed.Properties))
	for name, p := range parsed.Properties {
		fields = append(fields, tool.SchemaField{
			Name:        name,
			Type:        p.Type,
			Description: p.Description,
			Required:    required[name],
			Enum:        p.Enum,
		})
	}
	return fields
}

func (a *toolAdapter) NeedsApproval(map[string]any) bool { return false }

func (a *toolAdapter) ManualExecution() tool.ManualExecution { return tool.ManualExecution{} }

func (a *toolAdapter) Execute(ctx context.Context, args map[string]any, _ tool.Context) (any, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if a.lifecycle == "per_call" {
		return a.executePerCall(callCtx, args)
	}
	return a.executePersistent(callCtx, args)
}

func (a *toolAdapter) executePersistent(ctx context.Context, args map[string]any) (any, error) {
	return a.client.callTool(ctx, a.info.Name, args)
}

// executePerCall creates an ephemeral client, connects, calls the tool,
// then closes the connection, leaving no residual process behind.
func (a *toolAdapter) executePerCall(ctx context.Context, args map[string]any) (any, error) {
	c := newClient(a.cfg)
	if err := c.connect(ctx); err != nil {
		return nil, fmt.Errorf("mcp per_call: connect to %q: %w", a.cfg.Name, err)
	}
	defer c.close()
	return c.callTool(ctx, a.info.Name, args)
}
