// Package sandbox implements the mount-based virtual filesystem described
// in spec.md §4.5: a Docker-style bind-mount overlay rooted at "/", with a
// restriction operation that produces narrower, never-wider views for
// sub-workers.
package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Mount overlays a host directory at a virtual path.
type Mount struct {
	Source   string // absolute host path
	Target   string // absolute virtual path
	ReadOnly bool
}

// Config is the resolved sandbox configuration (spec.md §3, "Sandbox Configuration").
type Config struct {
	Root     string // absolute host path that virtual "/" maps to
	ReadOnly bool   // applies wherever no mount matches
	Mounts   []Mount
}

// Sandbox is an immutable, resolvable view over a host filesystem subtree.
// Restrict() derives new, narrower Sandbox values; it never mutates the
// receiver (internal/DESIGN.md "shallow-copy bug" note, spec.md §9).
type Sandbox struct {
	root     string
	readOnly bool
	mounts   []Mount // sorted by Target length, descending
}

// New validates cfg and returns a Sandbox. root must be an absolute path.
func New(cfg Config) (*Sandbox, error) {
	if !filepath.IsAbs(cfg.Root) {
		return nil, fmt.Errorf("sandbox: root %q is not absolute", cfg.Root)
	}
	mounts := make([]Mount, len(cfg.Mounts))
	copy(mounts, cfg.Mounts)
	for i, m := range mounts {
		if !filepath.IsAbs(m.Source) {
			return nil, fmt.Errorf("sandbox: mount[%d] source %q is not absolute", i, m.Source)
		}
		if !isAbsoluteVirtual(m.Target) {
			return nil, fmt.Errorf("sandbox: mount[%d] target %q is not an absolute virtual path", i, m.Target)
		}
		mounts[i].Target = normalizeVirtual(m.Target)
		mounts[i].Source = filepath.Clean(m.Source)
	}
	sortMountsByTargetDesc(mounts)
	return &Sandbox{
		root:     filepath.Clean(cfg.Root),
		readOnly: cfg.ReadOnly,
		mounts:   mounts,
	}, nil
}

func sortMountsByTargetDesc(mounts []Mount) {
	sort.SliceStable(mounts, func(i, j int) bool {
		return len(mounts[i].Target) > len(mounts[j].Target)
	})
}

func isAbsoluteVirtual(p string) bool {
	return strings.HasPrefix(p, "/")
}

// normalizeVirtual collapses "." and ".." segments, rejecting ".." that
// would rise above "/" by clamping at the root rather than erroring — used
// only for mount targets, which are trusted configuration, not untrusted
// tool input. Untrusted paths go through resolveVirtual, which errors.
func normalizeVirtual(p string) string {
	cleaned := filepath.ToSlash(filepath.Clean("/" + p))
	if cleaned == "." {
		return "/"
	}
	return cleaned
}

// resolveVirtual normalises an untrusted virtual path, rejecting any ".."
// that would rise above "/" (spec.md §3 "Virtual Path", §8 "Sandbox
// non-escape").
func resolveVirtual(p string) (string, error) {
	if !isAbsoluteVirtual(p) {
		return "", fmt.Errorf("%w: path %q must be absolute", ErrInvalidPath, p)
	}
	segments := strings.Split(p, "/")
	var stack []string
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(stack) == 0 {
				return "", fmt.Errorf("%w: path %q escapes root", ErrInvalidPath, p)
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, seg)
		}
	}
	return "/" + strings.Join(stack, "/"), nil
}

// findMount returns the longest-target mount whose target equals or is a
// proper prefix of p (spec.md §4.5 "Path resolution").
func (s *Sandbox) findMount(p string) (Mount, bool) {
	for _, m := range s.mounts {
		if p == m.Target || strings.HasPrefix(p, strings.TrimSuffix(m.Target, "/")+"/") {
			return m, true
		}
	}
	return Mount{}, false
}

// Resolve maps a virtual path to its real host path, validating containment.
func (s *Sandbox) Resolve(virtualPath string) (string, error) {
	p, err := resolveVirtual(virtualPath)
	if err != nil {
		return "", err
	}

	var real string
	if m, ok := s.findMount(p); ok {
		rel := strings.TrimPrefix(p, m.Target)
		rel = strings.TrimPrefix(rel, "/")
		real = filepath.Join(m.Source, rel)
	} else {
		real = filepath.Join(s.root, strings.TrimPrefix(p, "/"))
	}
	real = filepath.Clean(real)

	if !s.underAnyAllowedRoot(real) {
		return "", fmt.Errorf("%w: %q resolves outside root/mounts", ErrInvalidPath, virtualPath)
	}
	return real, nil
}

func (s *Sandbox) underAnyAllowedRoot(real string) bool {
	if isUnder(real, s.root) {
		return true
	}
	for _, m := range s.mounts {
		if isUnder(real, m.Source) {
			return true
		}
	}
	return false
}

func isUnder(path, root string) bool {
	if path == root {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IsValidPath reports whether virtualPath has a real backing file or
// directory. This is stricter than Resolve's containment check alone:
// containment only confirms a path would not escape the sandbox, but after
// Restrict narrows a sandbox to a mount's subtree, the root fallback and the
// rebased mount can resolve to the same host directory, so containment
// alone would accept any syntactically-nested virtual path whether or not
// it actually addresses anything.
func (s *Sandbox) IsValidPath(virtualPath string) bool {
	real, err := s.Resolve(virtualPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(real)
	return err == nil
}

// effectiveReadOnly reports the readonly flag in effect at p: the matching
// mount's flag, or the sandbox's global flag if no mount matches.
func (s *Sandbox) effectiveReadOnly(p string) bool {
	normalized, err := resolveVirtual(p)
	if err != nil {
		return s.readOnly
	}
	if m, ok := s.findMount(normalized); ok {
		return m.ReadOnly
	}
	return s.readOnly
}

// CanWrite reports whether p lies in a writable zone.
func (s *Sandbox) CanWrite(virtualPath string) bool {
	return !s.effectiveReadOnly(virtualPath)
}

// Exists reports whether virtualPath has a backing file or directory.
// Errors other than not-found propagate (spec.md §4.5 "Operations").
func (s *Sandbox) Exists(virtualPath string) (bool, error) {
	real, err := s.Resolve(virtualPath)
	if err != nil {
		return false, err
	}
	_, statErr := os.Stat(real)
	if statErr == nil {
		return true, nil
	}
	if errors.Is(statErr, fs.ErrNotExist) {
		return false, nil
	}
	return false, statErr
}

// Read reads a file's contents as text.
func (s *Sandbox) Read(virtualPath string) (string, error) {
	data, err := s.ReadBinary(virtualPath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadBinary reads a file's raw bytes.
func (s *Sandbox) ReadBinary(virtualPath string) ([]byte, error) {
	real, err := s.Resolve(virtualPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(real)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, virtualPath)
		}
		return nil, err
	}
	return data, nil
}

// Write writes text content to a file, failing on a read-only zone.
func (s *Sandbox) Write(virtualPath, content string) error {
	return s.WriteBinary(virtualPath, []byte(content))
}

// WriteBinary writes raw bytes to a file, failing on a read-only zone.
func (s *Sandbox) WriteBinary(virtualPath string, data []byte) error {
	if !s.CanWrite(virtualPath) {
		return fmt.Errorf("%w: %s", ErrReadOnly, virtualPath)
	}
	real, err := s.Resolve(virtualPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(real), 0o755); err != nil {
		return err
	}
	return os.WriteFile(real, data, 0o644)
}

// Delete removes a file, failing on a read-only zone.
func (s *Sandbox) Delete(virtualPath string) error {
	if !s.CanWrite(virtualPath) {
		return fmt.Errorf("%w: %s", ErrReadOnly, virtualPath)
	}
	real, err := s.Resolve(virtualPath)
	if err != nil {
		return err
	}
	if err := os.Remove(real); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, virtualPath)
		}
		return err
	}
	return nil
}

// List returns the sorted entry names of a directory.
func (s *Sandbox) List(virtualPath string) ([]string, error) {
	real, err := s.Resolve(virtualPath)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(real)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, virtualPath)
		}
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sort.Strings(names)
	return names, nil
}

// Stat describes a file or directory (spec.md §4.5 "Operations").
type Stat struct {
	Path        string
	Size        int64
	CreatedAt   time.Time
	ModifiedAt  time.Time
	IsDirectory bool
}

// Stat returns metadata for virtualPath.
func (s *Sandbox) Stat(virtualPath string) (Stat, error) {
	real, err := s.Resolve(virtualPath)
	if err != nil {
		return Stat{}, err
	}
	info, err := os.Stat(real)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Stat{}, fmt.Errorf("%w: %s", ErrNotFound, virtualPath)
		}
		return Stat{}, err
	}
	return Stat{
		Path:        virtualPath,
		Size:        info.Size(),
		CreatedAt:   createdAt(info),
		ModifiedAt:  info.ModTime(),
		IsDirectory: info.IsDir(),
	}, nil
}

// Restriction narrows a sandbox for delegation to a sub-worker (spec.md §4.5
// "Sub-worker restriction"). ReadOnly is a tri-state: nil means "leave as
// inherited", &true tightens to read-only, &false explicitly asks for
// read-write (which is only legal when the parent is not already
// read-only).
type Restriction struct {
	Restrict string
	ReadOnly *bool
}

// Restrict derives a new, never-wider Sandbox. The receiver is never
// mutated: mounts are deep-cloned before any field is forced to read-only.
func (s *Sandbox) Restrict(r Restriction) (*Sandbox, error) {
	if s.readOnly && r.ReadOnly != nil && !*r.ReadOnly {
		return nil, fmt.Errorf("%w: cannot restrict a read-only sandbox to read-write", ErrEscalation)
	}

	newRoot := s.root
	clonedMounts := cloneMounts(s.mounts)

	if r.Restrict != "" {
		resolvedRoot, err := s.Resolve(r.Restrict)
		if err != nil {
			return nil, err
		}
		newRoot = resolvedRoot

		var surviving []Mount
		for _, m := range clonedMounts {
			if !isUnder(m.Source, newRoot) && !isUnder(newRoot, m.Source) {
				continue
			}
			rebased, ok := rebaseMountUnderNewRoot(m, r.Restrict)
			if !ok {
				continue
			}
			surviving = append(surviving, rebased)
		}
		clonedMounts = surviving
	}

	newReadOnly := s.readOnly
	if r.ReadOnly != nil && *r.ReadOnly {
		newReadOnly = true
		for i := range clonedMounts {
			clonedMounts[i].ReadOnly = true
		}
	}

	sortMountsByTargetDesc(clonedMounts)
	return &Sandbox{
		root:     newRoot,
		readOnly: newReadOnly,
		mounts:   clonedMounts,
	}, nil
}

func cloneMounts(mounts []Mount) []Mount {
	out := make([]Mount, len(mounts))
	copy(out, mounts)
	return out
}

// rebaseMountUnderNewRoot rebases a mount's target relative to the new
// virtual root (the virtual path that was just restricted to). A mount
// whose target lies strictly outside the new root's virtual subtree does
// not survive.
func rebaseMountUnderNewRoot(m Mount, newVirtualRoot string) (Mount, bool) {
	normalizedRoot, err := resolveVirtual(newVirtualRoot)
	if err != nil {
		return Mount{}, false
	}
	if normalizedRoot == "/" {
		return m, true
	}
	if m.Target == normalizedRoot {
		return Mount{Source: m.Source, Target: "/", ReadOnly: m.ReadOnly}, true
	}
	prefix := strings.TrimSuffix(normalizedRoot, "/") + "/"
	if strings.HasPrefix(m.Target, prefix) {
		rebased := "/" + strings.TrimPrefix(m.Target, prefix)
		return Mount{Source: m.Source, Target: rebased, ReadOnly: m.ReadOnly}, true
	}
	// The mount target does not fall under the restricted virtual root, so
	// it no longer has any virtual address in the child's view and is
	// dropped (spec.md §4.5: "mounts whose targets lie outside are
	// dropped").
	return Mount{}, false
}

func createdAt(info os.FileInfo) time.Time {
	// os.FileInfo does not expose creation time portably; ModTime is the
	// closest cross-platform approximation, matching common Go practice
	// (no birthtime syscall is used here to avoid a platform-specific dep).
	return info.ModTime()
}
