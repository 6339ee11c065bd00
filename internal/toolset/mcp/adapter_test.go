package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/golemforge/golem-forge/internal/tool"
)

func TestToolAdapterNameFollowsNamingConvention(t *testing.T) {
	cases := []struct {
		server, tool, want string
	}{
		{"csv-tool", "read_csv", "mcp_csv-tool__read_csv"},
		{"memory", "store", "mcp_memory__store"},
		{"my_server", "get_weather", "mcp_my_server__get_weather"},
	}
	for _, tc := range cases {
		a := newToolAdapter(tc.server, toolInfo{Name: tc.tool}, nil, ServerConfig{})
		if got := a.Name(); got != tc.want {
			t.Errorf("Name() = %q, want %q", got, tc.want)
		}
	}
}

func TestToolAdapterDescriptionPassthrough(t *testing.T) {
	a := newToolAdapter("svc", toolInfo{Name: "t", Description: "does things"}, nil, ServerConfig{})
	if a.Description() != "does things" {
		t.Errorf("Description() = %q", a.Description())
	}
}

func TestToolAdapterInputSchemaFlattensProperties(t *testing.T) {
	schema := json.RawMessage(`{"type":"object","properties":{"q":{"type":"string","description":"query"}},"required":["q"]}`)
	a := newToolAdapter("svc", toolInfo{Name: "search", InputSchema: schema}, nil, ServerConfig{})

	fields := a.InputSchema()
	if len(fields) != 1 {
		t.Fatalf("got %d fields, want 1", len(fields))
	}
	if fields[0].Name != "q" || fields[0].Type != "string" || !fields[0].Required {
		t.Errorf("field = %+v", fields[0])
	}
}

func TestToolAdapterInputSchemaEmptyWhenUnparseable(t *testing.T) {
	a := newToolAdapter("svc", toolInfo{Name: "noop"}, nil, ServerConfig{})
	if fields := a.InputSchema(); fields != nil {
		t.Errorf("expected nil fields for empty schema, got %v", fields)
	}
}

func TestToolAdapterDefaultLifecycleIsPersistent(t *testing.T) {
	a := newToolAdapter("svc", toolInfo{Name: "t"}, nil, ServerConfig{})
	if a.lifecycle != "persistent" {
		t.Errorf("lifecycle = %q, want persistent", a.lifecycle)
	}
}

func TestToolAdapterPerCallExecuteFailsWithoutServer(t *testing.T) {
	a := newToolAdapter("svc", toolInfo{Name: "t"}, nil, ServerConfig{Lifecycle: "per_call", Transport: "stdio", Command: "/nonexistent-binary"})
	if _, err := a.Execute(context.Background(), map[string]any{}, tool.Context{}); err == nil {
		t.Fatal("expected error connecting to a nonexistent per_call server")
	}
}
