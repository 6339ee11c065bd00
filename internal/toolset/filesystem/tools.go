// Package filesystem provides the filesystem toolset referenced by a
// worker's toolsets.filesystem declaration (spec.md §4.1, §4.7): read_file,
// write_file, list_dir, delete_file, stat_file, grep_file. Every tool
// operates exclusively through an injected *sandbox.Sandbox, never os
// directly, so sandbox containment extends to every filesystem-facing
// tool.
package filesystem

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/golemforge/golem-forge/internal/sandbox"
	"github.com/golemforge/golem-forge/internal/tool"
)

const (
	maxReadBytes   = 1 << 20 // 1MB read limit
	maxWriteBytes  = 1 << 20 // 1MB write limit
	maxGrepResults = 200
)

// Tools returns the six filesystem tools bound to sb.
func Tools(sb *sandbox.Sandbox) []tool.Tool {
	return []tool.Tool{
		&readFileTool{sb: sb},
		&writeFileTool{sb: sb},
		&listDirTool{sb: sb},
		&deleteFileTool{sb: sb},
		&statFileTool{sb: sb},
		&grepFileTool{sb: sb},
	}
}

func pathArg(args map[string]any) (string, error) {
	p, _ := args["path"].(string)
	if p == "" {
		return "", fmt.Errorf("missing required argument: path")
	}
	return p, nil
}

// ── read_file ──

type readFileTool struct{ sb *sandbox.Sandbox }

func (t *readFileTool) Name() string        { return "read_file" }
func (t *readFileTool) Description() string { return "Read a file's contents through the sandbox." }
func (t *readFileTool) InputSchema() []tool.SchemaField {
	return []tool.SchemaField{{Name: "path", Type: "string", Description: "Virtual path of the file to read", Required: true}}
}
func (t *readFileTool) NeedsApproval(map[string]any) bool         { return false }
func (t *readFileTool) ManualExecution() tool.ManualExecution     { return tool.ManualExecution{} }

func (t *readFileTool) Execute(_ context.Context, args map[string]any, _ tool.Context) (any, error) {
	path, err := pathArg(args)
	if err != nil {
		return nil, err
	}
	st, err := t.sb.Stat(path)
	if err != nil {
		return nil, err
	}
	if st.IsDirectory {
		return nil, fmt.Errorf("%s is a directory, use list_dir", path)
	}
	if st.Size > maxReadBytes {
		return nil, fmt.Errorf("file too large (%d bytes), limit is %d bytes", st.Size, maxReadBytes)
	}
	return t.sb.Read(path)
}

// ── write_file ──

type writeFileTool struct{ sb *sandbox.Sandbox }

func (t *writeFileTool) Name() string        { return "write_file" }
func (t *writeFileTool) Description() string { return "Write content to a file through the sandbox, creating or overwriting it." }
func (t *writeFileTool) InputSchema() []tool.SchemaField {
	return []tool.SchemaField{
		{Name: "path", Type: "string", Description: "Virtual path of the file to write", Required: true},
		{Name: "content", Type: "string", Description: "Content to write", Required: true},
	}
}
func (t *writeFileTool) NeedsApproval(map[string]any) bool     { return true }
func (t *writeFileTool) ManualExecution() tool.ManualExecution { return tool.ManualExecution{} }

func (t *writeFileTool) Execute(_ context.Context, args map[string]any, _ tool.Context) (any, error) {
	path, err := pathArg(args)
	if err != nil {
		return nil, err
	}
	content, _ := args["content"].(string)
	if len(content) > maxWriteBytes {
		return nil, fmt.Errorf("content too large (%d bytes), limit is %d bytes", len(content), maxWriteBytes)
	}
	if err := t.sb.Write(path, content); err != nil {
		return nil, err
	}
	return fmt.Sprintf("wrote %s (%d bytes)", path, len(content)), nil
}

// ── list_dir ──

type listDirTool struct{ sb *sandbox.Sandbox }

func (t *listDirTool) Name() string        { return "list_dir" }
func (t *listDirTool) Description() string { return "List the entries of a directory through the sandbox." }
func (t *listDirTool) InputSchema() []tool.SchemaField {
	return []tool.SchemaField{{Name: "path", Type: "string", Description: "Virtual path of the directory to list", Required: true}}
}
func (t *listDirTool) NeedsApproval(map[string]any) bool     { return false }
func (t *listDirTool) ManualExecution() tool.ManualExecution { return tool.ManualExecution{} }

func (t *listDirTool) Execute(_ context.Context, args map[string]any, _ tool.Context) (any, error) {
	path, err := pathArg(args)
	if err != nil {
		return nil, err
	}
	return t.sb.List(path)
}

// ── delete_file ──

type deleteFileTool struct{ sb *sandbox.Sandbox }

func (t *deleteFileTool) Name() string        { return "delete_file" }
func (t *deleteFileTool) Description() string { return "Delete a file through the sandbox." }
func (t *deleteFileTool) InputSchema() []tool.SchemaField {
	return []tool.SchemaField{{Name: "path", Type: "string", Description: "Virtual path of the file to delete", Required: true}}
}
func (t *deleteFileTool) NeedsApproval(map[string]any) bool     { return true }
func (t *deleteFileTool) ManualExecution() tool.ManualExecution { return tool.ManualExecution{} }

func (t *deleteFileTool) Execute(_ context.Context, args map[string]any, _ tool.Context) (any, error) {
	path, err := pathArg(args)
	if err != nil {
		return nil, err
	}
	if err := t.sb.Delete(path); err != nil {
		return nil, err
	}
	return fmt.Sprintf("deleted %s", path), nil
}

// ── stat_file ──

type statFileTool struct{ sb *sandbox.Sandbox }

func (t *statFileTool) Name() string        { return "stat_file" }
func (t *statFileTool) Description() string { return "Report metadata for a file or directory through the sandbox." }
func (t *statFileTool) InputSchema() []tool.SchemaField {
	return []tool.SchemaField{{Name: "path", Type: "string", Description: "Virtual path to stat", Required: true}}
}
func (t *statFileTool) NeedsApproval(map[string]any) bool     { return false }
func (t *statFileTool) ManualExecution() tool.ManualExecution { return tool.ManualExecution{} }

func (t *statFileTool) Execute(_ context.Context, args map[string]any, _ tool.Context) (any, error) {
	path, err := pathArg(args)
	if err != nil {
		return nil, err
	}
	return t.sb.Stat(path)
}

// ── grep_file ──

type grepFileTool struct{ sb *sandbox.Sandbox }

func (t *grepFileTool) Name() string        { return "grep_file" }
func (t *grepFileTool) Description() string { return "Search file contents under a directory by regular expression, through the sandbox." }
func (t *grepFileTool) InputSchema() []tool.SchemaField {
	return []tool.SchemaField{
		{Name: "pattern", Type: "string", Description: "Regular expression to search for", Required: true},
		{Name: "path", Type: "string", Description: "Directory to search, defaults to /", Required: false},
	}
}
func (t *grepFileTool) NeedsApproval(map[string]any) bool     { return false }
func (t *grepFileTool) ManualExecution() tool.ManualExecution { return tool.ManualExecution{} }

type grepMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

func (t *grepFileTool) Execute(_ context.Context, args map[string]any, _ tool.Context) (any, error) {
	pattern, _ := args["pattern"].(string)
	if pattern == "" {
		return nil, fmt.Errorf("missing required argument: pattern")
	}
	root, _ := args["path"].(string)
	if root == "" {
		root = "/"
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}

	var matches []grepMatch
	if err := t.walk(root, re, &matches); err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Path != matches[j].Path {
			return matches[i].Path < matches[j].Path
		}
		return matches[i].Line < matches[j].Line
	})
	return matches, nil
}

func (t *grepFileTool) walk(virtualPath string, re *regexp.Regexp, matches *[]grepMatch) error {
	if len(*matches) >= maxGrepResults {
		return nil
	}
	st, err := t.sb.Stat(virtualPath)
	if err != nil {
		return err
	}
	if st.IsDirectory {
		entries, err := t.sb.List(virtualPath)
		if err != nil {
			return err
		}
		for _, name := range entries {
			if len(*matches) >= maxGrepResults {
				return nil
			}
			child := strings.TrimSuffix(virtualPath, "/") + "/" + name
			if err := t.walk(child, re, matches); err != nil {
				continue // skip unreadable entries, don't fail the whole search
			}
		}
		return nil
	}
	return t.grepFile(virtualPath, re, matches)
}

func (t *grepFileTool) grepFile(virtualPath string, re *regexp.Regexp, matches *[]grepMatch) error {
	content, err := t.sb.Read(virtualPath)
	if err != nil {
		return err
	}
	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if re.MatchString(line) {
			*matches = append(*matches, grepMatch{Path: virtualPath, Line: lineNum, Text: line})
			if len(*matches) >= maxGrepResults {
				return nil
			}
		}
	}
	return nil
}

