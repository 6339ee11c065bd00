// Package worker defines the immutable Worker Definition record of
// spec.md §3 and the attachment-policy and model-pattern-matching rules
// that gate a Worker Runtime Loop's construction and input validation.
package worker

// Mode selects single-shot vs. multi-turn chat execution (spec.md §3).
type Mode string

const (
	ModeSingle Mode = "single"
	ModeChat   Mode = "chat"
)

// AttachmentPolicy limits the number, size and extensions of attachments a
// worker's input may carry (spec.md §3, §4.1 "Attachment policy").
type AttachmentPolicy struct {
	MaxAttachments  int
	MaxTotalBytes   int64
	AllowedSuffixes []string // lowercased, with leading dot, e.g. ".txt"
	DeniedSuffixes  []string
}

// SandboxRestriction is the optional narrowing a worker declares for its
// own sub-workers (spec.md §3 "sandbox restriction block").
type SandboxRestriction struct {
	Path     string // virtual path to narrow to; empty means "no narrowing"
	ReadOnly bool
}

// WorkersToolsetConfig configures the sub-worker delegation toolset
// (spec.md §4.6).
type WorkersToolsetConfig struct {
	Allowed []string // worker names this worker may delegate to
}

// GitToolsetConfig configures the git toolset. Actual git operations are
// an external-collaborator concern (spec.md §1); this only carries enough
// configuration to decide whether a sandbox is required (see
// RequiresSandbox).
type GitToolsetConfig struct {
	Enabled bool
}

// CustomToolsetConfig configures MCP-backed custom tools (spec.md §3
// "custom: {...}"), consumed by internal/toolset/mcp.
type CustomToolsetConfig struct {
	Servers []CustomServerConfig
}

// CustomServerConfig names one configured MCP server; the connection
// details are provider-specific and owned by internal/toolset/mcp.
type CustomServerConfig struct {
	Name string
}

// Toolsets is the declarative toolsets map of spec.md §3. A nil pointer
// field means the worker did not declare that toolset.
type Toolsets struct {
	Filesystem *struct{}
	Git        *GitToolsetConfig
	Workers    *WorkersToolsetConfig
	Custom     *CustomToolsetConfig
}

// Definition is the immutable, parsed Worker Definition record of
// spec.md §3. It never changes once constructed.
type Definition struct {
	Name              string
	Instructions      string
	Description       string
	Mode              Mode
	CompatibleModels  []string // shell-style glob patterns; nil/empty is a config error at construction, not "matches none"
	MaxContextTokens  int
	AllowEmptyInput   bool
	AttachmentPolicy  AttachmentPolicy
	Toolsets          Toolsets
	Sandbox           *SandboxRestriction
}

// RequiresSandbox reports whether this definition needs a sandbox at
// runtime (spec.md §3 invariant: "a worker declaring a filesystem/git
// toolset or a sandbox restriction block requires a sandbox at runtime").
func (d *Definition) RequiresSandbox() bool {
	if d.Sandbox != nil {
		return true
	}
	if d.Toolsets.Filesystem != nil {
		return true
	}
	if d.Toolsets.Git != nil {
		return true
	}
	return false
}
