package mcp

import (
	"context"
	"testing"

	"github.com/golemforge/golem-forge/internal/worker"
)

func TestToolsetRejectsServerMissingFromConfigs(t *testing.T) {
	cfg := worker.CustomToolsetConfig{Servers: []worker.CustomServerConfig{{Name: "unknown"}}}
	_, _, err := Toolset(context.Background(), cfg, map[string]ServerConfig{})
	if err == nil {
		t.Fatal("expected error for server with no connection config")
	}
}

func TestToolsetNoServersReturnsEmpty(t *testing.T) {
	tools, mgr, err := Toolset(context.Background(), worker.CustomToolsetConfig{}, map[string]ServerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) != 0 {
		t.Errorf("expected no tools, got %d", len(tools))
	}
	if err := mgr.Close(); err != nil {
		t.Errorf("Close() on an empty manager should not fail: %v", err)
	}
}
