package workerfile

import (
	"strings"
	"testing"

	"github.com/golemforge/golem-forge/internal/worker"
)

func TestParseNoFrontMatterDefaultsNameAndBody(t *testing.T) {
	def, err := Parse([]byte("  be helpful  \n"), "assistant")
	if err != nil {
		t.Fatal(err)
	}
	if def.Name != "assistant" {
		t.Errorf("Name = %q, want assistant", def.Name)
	}
	if def.Instructions != "be helpful" {
		t.Errorf("Instructions = %q", def.Instructions)
	}
	if def.Mode != worker.ModeSingle {
		t.Errorf("Mode = %q, want single", def.Mode)
	}
}

func TestParseFrontMatterOverridesName(t *testing.T) {
	data := []byte("---\nname: reviewer\nmode: chat\ncompatible_models:\n  - \"gpt-*\"\n---\nReview the diff.\n")
	def, err := Parse(data, "fallback")
	if err != nil {
		t.Fatal(err)
	}
	if def.Name != "reviewer" {
		t.Errorf("Name = %q, want reviewer", def.Name)
	}
	if def.Mode != worker.ModeChat {
		t.Errorf("Mode = %q, want chat", def.Mode)
	}
	if len(def.CompatibleModels) != 1 || def.CompatibleModels[0] != "gpt-*" {
		t.Errorf("CompatibleModels = %v", def.CompatibleModels)
	}
	if strings.TrimSpace(def.Instructions) != "Review the diff." {
		t.Errorf("Instructions = %q", def.Instructions)
	}
}

func TestParseUnknownKeysIgnored(t *testing.T) {
	data := []byte("---\nname: x\nsome_future_key: 42\n---\nbody\n")
	def, err := Parse(data, "fallback")
	if err != nil {
		t.Fatal(err)
	}
	if def.Name != "x" {
		t.Errorf("Name = %q, want x", def.Name)
	}
}

func TestParseUnterminatedFrontMatterErrors(t *testing.T) {
	data := []byte("---\nname: x\nno closing delimiter\n")
	if _, err := Parse(data, "fallback"); err == nil {
		t.Fatal("expected error for unterminated front matter")
	}
}

func TestParseToolsetsAndSandbox(t *testing.T) {
	data := []byte(`---
name: fs-worker
toolsets:
  filesystem: {}
  workers:
    allowed: ["helper"]
sandbox:
  path: /scratch
  read_only: true
---
Do filesystem things.
`)
	def, err := Parse(data, "fallback")
	if err != nil {
		t.Fatal(err)
	}
	if def.Toolsets.Filesystem == nil {
		t.Error("expected filesystem toolset to be declared")
	}
	if def.Toolsets.Workers == nil || len(def.Toolsets.Workers.Allowed) != 1 || def.Toolsets.Workers.Allowed[0] != "helper" {
		t.Errorf("Workers toolset = %+v", def.Toolsets.Workers)
	}
	if def.Sandbox == nil || def.Sandbox.Path != "/scratch" || !def.Sandbox.ReadOnly {
		t.Errorf("Sandbox = %+v", def.Sandbox)
	}
	if !def.RequiresSandbox() {
		t.Error("expected RequiresSandbox() true")
	}
}

func TestParseFileDerivesBasenameFromPath(t *testing.T) {
	def, err := ParseFile([]byte("hello"), "/workers/translator.md")
	if err != nil {
		t.Fatal(err)
	}
	if def.Name != "translator" {
		t.Errorf("Name = %q, want translator", def.Name)
	}
}
