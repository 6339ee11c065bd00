// Package workerfile implements the worker file format of spec.md §6:
// UTF-8 text with optional leading YAML front matter delimited by
// "---\n" ... "\n---\n", the remainder being the instructions body.
// yaml.v3-unmarshalled front-matter struct, file-to-struct pattern (see
// DESIGN.md for grounding).
package workerfile

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/golemforge/golem-forge/internal/worker"
)

const delimiter = "---"

// frontMatter mirrors the recognised keys of worker.Definition (spec.md
// §6: "recognised keys are exactly those of the Worker Definition in
// §3. Unknown keys are ignored").
type frontMatter struct {
	Name             string             `yaml:"name"`
	Description      string             `yaml:"description"`
	Mode             string             `yaml:"mode"`
	CompatibleModels []string           `yaml:"compatible_models"`
	MaxContextTokens int                `yaml:"max_context_tokens"`
	AllowEmptyInput  bool               `yaml:"allow_empty_input"`
	AttachmentPolicy *attachmentPolicy  `yaml:"attachment_policy"`
	Toolsets         *toolsets          `yaml:"toolsets"`
	Sandbox          *sandboxRestriction `yaml:"sandbox"`
}

type attachmentPolicy struct {
	MaxAttachments  int      `yaml:"max_attachments"`
	MaxTotalBytes   int64    `yaml:"max_total_bytes"`
	AllowedSuffixes []string `yaml:"allowed_suffixes"`
	DeniedSuffixes  []string `yaml:"denied_suffixes"`
}

type sandboxRestriction struct {
	Path     string `yaml:"path"`
	ReadOnly bool   `yaml:"read_only"`
}

type toolsets struct {
	Filesystem *struct{}         `yaml:"filesystem"`
	Git        *gitToolset       `yaml:"git"`
	Workers    *workersToolset   `yaml:"workers"`
	Custom     *customToolset    `yaml:"custom"`
}

type gitToolset struct {
	Enabled bool `yaml:"enabled"`
}

type workersToolset struct {
	Allowed []string `yaml:"allowed"`
}

type customToolset struct {
	Servers []customServer `yaml:"servers"`
}

type customServer struct {
	Name string `yaml:"name"`
}

// Parse implements the worker file grammar: optional "---\n"-delimited
// YAML front matter followed by an instructions body, trimmed of
// surrounding whitespace. basename names the file this data came from,
// used as the default worker name when front matter is absent or omits
// "name".
func Parse(data []byte, basename string) (*worker.Definition, error) {
	text := string(data)
	fm, body, err := splitFrontMatter(text)
	if err != nil {
		return nil, fmt.Errorf("workerfile: %w", err)
	}

	def := &worker.Definition{
		Name:             basename,
		Instructions:     strings.TrimSpace(body),
		Mode:             worker.ModeSingle,
		CompatibleModels: []string{"*"},
	}
	if fm == nil {
		return def, nil
	}

	if fm.Name != "" {
		def.Name = fm.Name
	}
	def.Description = fm.Description
	if fm.Mode != "" {
		def.Mode = worker.Mode(fm.Mode)
	}
	if len(fm.CompatibleModels) > 0 {
		def.CompatibleModels = fm.CompatibleModels
	}
	def.MaxContextTokens = fm.MaxContextTokens
	def.AllowEmptyInput = fm.AllowEmptyInput

	if fm.AttachmentPolicy != nil {
		def.AttachmentPolicy = worker.AttachmentPolicy{
			MaxAttachments:  fm.AttachmentPolicy.MaxAttachments,
			MaxTotalBytes:   fm.AttachmentPolicy.MaxTotalBytes,
			AllowedSuffixes: fm.AttachmentPolicy.AllowedSuffixes,
			DeniedSuffixes:  fm.AttachmentPolicy.DeniedSuffixes,
		}
	}
	if fm.Sandbox != nil {
		def.Sandbox = &worker.SandboxRestriction{Path: fm.Sandbox.Path, ReadOnly: fm.Sandbox.ReadOnly}
	}
	if fm.Toolsets != nil {
		def.Toolsets = toWorkerToolsets(fm.Toolsets)
	}
	return def, nil
}

func toWorkerToolsets(t *toolsets) worker.Toolsets {
	var out worker.Toolsets
	out.Filesystem = t.Filesystem
	if t.Git != nil {
		out.Git = &worker.GitToolsetConfig{Enabled: t.Git.Enabled}
	}
	if t.Workers != nil {
		out.Workers = &worker.WorkersToolsetConfig{Allowed: t.Workers.Allowed}
	}
	if t.Custom != nil {
		servers := make([]worker.CustomServerConfig, len(t.Custom.Servers))
		for i, s := range t.Custom.Servers {
			servers[i] = worker.CustomServerConfig{Name: s.Name}
		}
		out.Custom = &worker.CustomToolsetConfig{Servers: servers}
	}
	return out
}

// splitFrontMatter separates a leading "---\n" ... "\n---\n" YAML block
// from the remainder. Absent front matter returns a nil *frontMatter and
// the whole text as body (spec.md §6: "An absent front matter is
// equivalent to {name: <file basename>, instructions: <body>}").
func splitFrontMatter(text string) (*frontMatter, string, error) {
	if !strings.HasPrefix(text, delimiter+"\n") {
		return nil, text, nil
	}
	rest := text[len(delimiter)+1:]

	idx := strings.Index(rest, "\n"+delimiter+"\n")
	if idx == -1 {
		// A trailing "---" with no body is also a valid close.
		if strings.HasSuffix(rest, "\n"+delimiter) {
			idx = len(rest) - len(delimiter) - 1
		} else {
			return nil, text, fmt.Errorf("unterminated front matter (no closing %q)", delimiter)
		}
	}

	yamlBlock := rest[:idx]
	body := ""
	if start := idx + len(delimiter) + 2; start <= len(rest) {
		body = rest[start:]
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(yamlBlock), &fm); err != nil {
		return nil, "", fmt.Errorf("parse front matter: %w", err)
	}
	return &fm, body, nil
}

// ParseFile is a convenience wrapper deriving basename from path.
func ParseFile(data []byte, path string) (*worker.Definition, error) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return Parse(data, base)
}
