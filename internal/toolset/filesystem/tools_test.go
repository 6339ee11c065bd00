package filesystem

import (
	"context"
	"testing"

	"github.com/golemforge/golem-forge/internal/sandbox"
	"github.com/golemforge/golem-forge/internal/tool"
)

func newTestSandbox(t *testing.T) *sandbox.Sandbox {
	t.Helper()
	sb, err := sandbox.New(sandbox.Config{Root: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	return sb
}

func findTool(tools []tool.Tool, name string) tool.Tool {
	for _, t := range tools {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

func TestToolsReturnsSixTools(t *testing.T) {
	tools := Tools(newTestSandbox(t))
	want := []string{"read_file", "write_file", "list_dir", "delete_file", "stat_file", "grep_file"}
	if len(tools) != len(want) {
		t.Fatalf("got %d tools, want %d", len(tools), len(want))
	}
	for _, name := range want {
		if findTool(tools, name) == nil {
			t.Errorf("missing tool %q", name)
		}
	}
}

func TestWriteThenReadFileRoundTrip(t *testing.T) {
	sb := newTestSandbox(t)
	tools := Tools(sb)
	write := findTool(tools, "write_file")
	read := findTool(tools, "read_file")

	if _, err := write.Execute(context.Background(), map[string]any{"path": "/notes.txt", "content": "hello"}, tool.Context{}); err != nil {
		t.Fatal(err)
	}
	out, err := read.Execute(context.Background(), map[string]any{"path": "/notes.txt"}, tool.Context{})
	if err != nil {
		t.Fatal(err)
	}
	if out != "hello" {
		t.Errorf("read output = %v, want %q", out, "hello")
	}
}

func TestWriteFileNeedsApproval(t *testing.T) {
	tools := Tools(newTestSandbox(t))
	if !findTool(tools, "write_file").NeedsApproval(nil) {
		t.Error("write_file should require approval by default")
	}
	if !findTool(tools, "delete_file").NeedsApproval(nil) {
		t.Error("delete_file should require approval by default")
	}
	if findTool(tools, "read_file").NeedsApproval(nil) {
		t.Error("read_file should not require approval")
	}
	if findTool(tools, "list_dir").NeedsApproval(nil) {
		t.Error("list_dir should not require approval")
	}
	if findTool(tools, "stat_file").NeedsApproval(nil) {
		t.Error("stat_file should not require approval")
	}
	if findTool(tools, "grep_file").NeedsApproval(nil) {
		t.Error("grep_file should not require approval")
	}
}

func TestListDirSorted(t *testing.T) {
	sb := newTestSandbox(t)
	tools := Tools(sb)
	write := findTool(tools, "write_file")
	for _, name := range []string{"/b.txt", "/a.txt", "/c.txt"} {
		if _, err := write.Execute(context.Background(), map[string]any{"path": name, "content": "x"}, tool.Context{}); err != nil {
			t.Fatal(err)
		}
	}
	out, err := findTool(tools, "list_dir").Execute(context.Background(), map[string]any{"path": "/"}, tool.Context{})
	if err != nil {
		t.Fatal(err)
	}
	entries := out.([]string)
	want := []string{"a.txt", "b.txt", "c.txt"}
	if len(entries) != len(want) {
		t.Fatalf("entries = %v", entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i], want[i])
		}
	}
}

func TestDeleteFileRemovesEntry(t *testing.T) {
	sb := newTestSandbox(t)
	tools := Tools(sb)
	write := findTool(tools, "write_file")
	del := findTool(tools, "delete_file")
	if _, err := write.Execute(context.Background(), map[string]any{"path": "/x.txt", "content": "y"}, tool.Context{}); err != nil {
		t.Fatal(err)
	}
	if _, err := del.Execute(context.Background(), map[string]any{"path": "/x.txt"}, tool.Context{}); err != nil {
		t.Fatal(err)
	}
	if ok, _ := sb.Exists("/x.txt"); ok {
		t.Error("file should have been deleted")
	}
}

func TestStatFileReportsMetadata(t *testing.T) {
	sb := newTestSandbox(t)
	tools := Tools(sb)
	write := findTool(tools, "write_file")
	if _, err := write.Execute(context.Background(), map[string]any{"path": "/x.txt", "content": "abcde"}, tool.Context{}); err != nil {
		t.Fatal(err)
	}
	out, err := findTool(tools, "stat_file").Execute(context.Background(), map[string]any{"path": "/x.txt"}, tool.Context{})
	if err != nil {
		t.Fatal(err)
	}
	st := out.(sandbox.Stat)
	if st.Size != 5 {
		t.Errorf("Size = %d, want 5", st.Size)
	}
	if st.IsDirectory {
		t.Error("expected IsDirectory false")
	}
}

func TestGrepFileFindsMatchesAcrossDirectories(t *testing.T) {
	sb := newTestSandbox(t)
	tools := Tools(sb)
	write := findTool(tools, "write_file")
	if _, err := write.Execute(context.Background(), map[string]any{"path": "/a.txt", "content": "hello world\nfoo"}, tool.Context{}); err != nil {
		t.Fatal(err)
	}
	if _, err := write.Execute(context.Background(), map[string]any{"path": "/sub/b.txt", "content": "hello again"}, tool.Context{}); err != nil {
		t.Fatal(err)
	}
	out, err := findTool(tools, "grep_file").Execute(context.Background(), map[string]any{"pattern": "hello", "path": "/"}, tool.Context{})
	if err != nil {
		t.Fatal(err)
	}
	matches := out.([]grepMatch)
	if len(matches) != 2 {
		t.Fatalf("matches = %v, want 2", matches)
	}
}

func TestReadFileRejectsDirectory(t *testing.T) {
	sb := newTestSandbox(t)
	tools := Tools(sb)
	write := findTool(tools, "write_file")
	if _, err := write.Execute(context.Background(), map[string]any{"path": "/sub/b.txt", "content": "x"}, tool.Context{}); err != nil {
		t.Fatal(err)
	}
	if _, err := findTool(tools, "read_file").Execute(context.Background(), map[string]any{"path": "/sub"}, tool.Context{}); err == nil {
		t.Fatal("expected error reading a directory as a file")
	}
}

func TestWriteFileRejectsReadOnlySandbox(t *testing.T) {
	sb, err := sandbox.New(sandbox.Config{Root: t.TempDir(), ReadOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	tools := Tools(sb)
	if _, err := findTool(tools, "write_file").Execute(context.Background(), map[string]any{"path": "/x.txt", "content": "y"}, tool.Context{}); err == nil {
		t.Fatal("expected read-only rejection")
	}
}
