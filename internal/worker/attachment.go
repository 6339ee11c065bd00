package worker

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Attachment is a file attached to a worker input (spec.md §3
// "Attachment"). Exactly one of Text or Data is populated, chosen by a
// MimeClassifier at read time (spec.md §4.10): Text for attachments
// classified as text, Data for everything else.
type Attachment struct {
	Name     string
	MimeType string
	Text     string
	Data     []byte
}

// Size returns the attachment's payload size in bytes, whichever of
// Text or Data is populated.
func (a Attachment) Size() int {
	if a.Text != "" {
		return len(a.Text)
	}
	return len(a.Data)
}

// Input is a worker invocation's input (spec.md §3 "Inputs: either a
// plain string prompt, or {content, attachments}").
type Input struct {
	Content     string
	Attachments []Attachment
}

// IsEmpty reports whether the input carries neither text nor attachments
// (spec.md §4.1 "Input validation").
func (in Input) IsEmpty() bool {
	return strings.TrimSpace(in.Content) == "" && len(in.Attachments) == 0
}

// ValidateEmptyInput implements spec.md §4.1 "Input validation": a run
// must fail immediately, before any tool registration or model call, if
// the input is empty and the worker does not allow it.
func ValidateEmptyInput(def *Definition, in Input) error {
	if in.IsEmpty() && !def.AllowEmptyInput {
		return fmt.Errorf("no input: worker %q requires non-empty input or allow_empty_input", def.Name)
	}
	return nil
}

// ValidateAttachments implements spec.md §4.1 "Attachment policy": count,
// total size, and suffix rules are enforced in that exact order, and
// violations name the offending attachment and rule.
func ValidateAttachments(policy AttachmentPolicy, attachments []Attachment) error {
	if len(attachments) == 0 {
		return nil
	}

	if policy.MaxAttachments > 0 && len(attachments) > policy.MaxAttachments {
		return fmt.Errorf("attachment policy violation: %d attachments exceed max_attachments (%d)",
			len(attachments), policy.MaxAttachments)
	}

	if policy.MaxTotalBytes > 0 {
		var total int64
		for _, a := range attachments {
			total += int64(a.Size())
		}
		if total > policy.MaxTotalBytes {
			return fmt.Errorf("attachment policy violation: total size %d bytes exceeds max_total_bytes (%d)",
				total, policy.MaxTotalBytes)
		}
	}

	if len(policy.AllowedSuffixes) > 0 {
		allowed := toSet(policy.AllowedSuffixes)
		for _, a := range attachments {
			ext := strings.ToLower(filepath.Ext(a.Name))
			if !allowed[ext] {
				return fmt.Errorf("attachment policy violation: %q has extension %q, not in allowed_suffixes", a.Name, ext)
			}
		}
	}

	if len(policy.DeniedSuffixes) > 0 {
		denied := toSet(policy.DeniedSuffixes)
		for _, a := range attachments {
			ext := strings.ToLower(filepath.Ext(a.Name))
			if denied[ext] {
				return fmt.Errorf("attachment policy violation: %q has extension %q, in denied_suffixes", a.Name, ext)
			}
		}
	}

	return nil
}

func toSet(suffixes []string) map[string]bool {
	set := make(map[string]bool, len(suffixes))
	for _, s := range suffixes {
		set[strings.ToLower(s)] = true
	}
	return set
}

// MimeClassifier decides whether an attachment should be treated as text
// or binary. It is pluggable per spec.md §9 Open Questions ("Attachment
// MIME detection currently relies on file-extension heuristics ... should
// be made pluggable").
type MimeClassifier interface {
	ClassifyAsText(name, mimeType string) bool
}

// DefaultMimeClassifier is an extension/MIME-table heuristic classifier,
// grounded in the teacher's file-extension-based tool dispatch
// (internal/tool/builtin/file.go's suffix checks).
type DefaultMimeClassifier struct{}

var textMimePrefixes = []string{"text/", "application/json", "application/xml", "application/yaml"}

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".go": true, ".py": true, ".js": true, ".ts": true,
	".json": true, ".yaml": true, ".yml": true, ".csv": true, ".html": true, ".css": true,
	".xml": true, ".toml": true, ".ini": true, ".sh": true, ".env": true,
}

// ClassifyAsText returns true when the attachment should be read from the
// sandbox as a string rather than raw bytes.
func (DefaultMimeClassifier) ClassifyAsText(name, mimeType string) bool {
	for _, prefix := range textMimePrefixes {
		if strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	return textExtensions[strings.ToLower(filepath.Ext(name))]
}
