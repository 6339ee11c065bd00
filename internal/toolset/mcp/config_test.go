package mcp

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mcp.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigNameFromKey(t *testing.T) {
	path := writeConfig(t, `{"mcpServers":{"csv-tool":{"transport":"stdio","command":"python3","args":["tool.py"]}}}`)
	configs, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg, ok := configs["csv-tool"]
	if !ok {
		t.Fatal("expected server 'csv-tool'")
	}
	if cfg.Name != "csv-tool" {
		t.Errorf("Name = %q, want csv-tool", cfg.Name)
	}
	if cfg.Command != "python3" {
		t.Errorf("Command = %q, want python3", cfg.Command)
	}
}

func TestLoadConfigEmpty(t *testing.T) {
	path := writeConfig(t, `{"mcpServers":{}}`)
	configs, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(configs) != 0 {
		t.Errorf("expected empty config map, got %d entries", len(configs))
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
