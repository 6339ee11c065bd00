// Package mcp adapts a worker's toolsets.custom declaration (spec.md §3
// "custom: {...}", SPEC_FULL.md §4.8) into tool.Tool values, one per
// server-advertised tool, named mcp_<server>__<tool>. It generalises the
// teacher's internal/mcp/manager.go and internal/mcp/adapter.go onto the
// standalone internal/tool.Registry, keeping the same persistent/per_call
// lifecycle distinction and naming convention.
package mcp

import (
	"encoding/json"
	"fmt"
	"os"
)

// ServerConfig describes how to connect to one MCP server. Name must match
// the corresponding worker.CustomServerConfig.Name; the worker definition
// only names which servers a worker may use, connection details live here
// so they can be shared across workers and kept out of worker files.
type ServerConfig struct {
	Name      string
	Transport string   `json:"transport"` // "stdio" | "sse"
	Command   string   `json:"command,omitempty"`
	Args      []string `json:"args,omitempty"`
	URL       string   `json:"url,omitempty"`
	Env       []string `json:"env,omitempty"`
	Lifecycle string   `json:"lifecycle,omitempty"` // "persistent" (default) | "per_call"
}

type configFile struct {
	Servers map[string]ServerConfig `json:"mcpServers"`
}

// LoadConfig reads a JSON file of the same shape as the teacher's mcp.json
// and populates each ServerConfig's Name from its map key.
func LoadConfig(path string) (map[string]ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mcp: read config %q: %w", path, err)
	}
	var file configFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("mcp: parse config %q: %w", path, err)
	}
	if file.Servers == nil {
		return map[string]ServerConfig{}, nil
	}
	for name, cfg := range file.Servers {
		cfg.Name = name
		file.Servers[name] = cfg
	}
	return file.Servers, nil
}
