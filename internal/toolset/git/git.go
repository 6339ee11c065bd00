// Package git is the registration contract for a worker's toolsets.git
// declaration. spec.md §1 names git backends as an external-collaborator
// concern: the threat model this core addresses is a mistaken LLM
// invoking an approved tool, not re-implementing a git porcelain. No
// example in the retrieved corpus carries a git library, so this package
// supplies only the contract a real integrator's tools must satisfy; it
// registers none itself.
package git

import (
	"github.com/golemforge/golem-forge/internal/tool"
	"github.com/golemforge/golem-forge/internal/worker"
)

// Toolset returns the tools backing a worker's git toolset. The core
// implementation always returns an empty set: a real git backend is an
// external collaborator that must implement tool.Tool the same way
// internal/toolset/filesystem does, routing every mutating operation
// through the worker's sandbox and NeedsApproval.
func Toolset(cfg worker.GitToolsetConfig) ([]tool.Tool, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return nil, nil
}
