package worker

import "testing"

func TestValidateEmptyInputRejectedByDefault(t *testing.T) {
	def := &Definition{Name: "w"}
	if err := ValidateEmptyInput(def, Input{}); err == nil {
		t.Fatal("expected error for empty input when allow_empty_input is false")
	}
}

func TestValidateEmptyInputAllowed(t *testing.T) {
	def := &Definition{Name: "w", AllowEmptyInput: true}
	if err := ValidateEmptyInput(def, Input{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateEmptyInputWithAttachmentsOnly(t *testing.T) {
	def := &Definition{Name: "w"}
	in := Input{Attachments: []Attachment{{Name: "a.txt"}}}
	if err := ValidateEmptyInput(def, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateAttachmentsNoPolicy(t *testing.T) {
	attachments := []Attachment{{Name: "a.bin", Data: make([]byte, 10)}}
	if err := ValidateAttachments(AttachmentPolicy{}, attachments); err != nil {
		t.Fatalf("unexpected error with zero-value policy: %v", err)
	}
}

// spec.md §8 "Attachment policy" scenario: policy {max_attachments:1,
// max_total_bytes:1024, allowed_suffixes:[".txt"]}, input with two
// attachments a.txt (500B) and b.pdf (200B). The run must fail before any
// model call, naming the count violation, and attachments are never read.
func TestAttachmentPolicyCountViolationScenario(t *testing.T) {
	policy := AttachmentPolicy{
		MaxAttachments:  1,
		MaxTotalBytes:   1024,
		AllowedSuffixes: []string{".txt"},
	}
	attachments := []Attachment{
		{Name: "a.txt", Data: make([]byte, 500)},
		{Name: "b.pdf", Data: make([]byte, 200)},
	}
	err := ValidateAttachments(policy, attachments)
	if err == nil {
		t.Fatal("expected a count violation error")
	}
	if got := err.Error(); got == "" {
		t.Fatal("expected a non-empty message naming the violation")
	}
}

func TestAttachmentPolicyTotalBytesViolation(t *testing.T) {
	policy := AttachmentPolicy{MaxTotalBytes: 100}
	attachments := []Attachment{
		{Name: "a.txt", Data: make([]byte, 60)},
		{Name: "b.txt", Data: make([]byte, 60)},
	}
	if err := ValidateAttachments(policy, attachments); err == nil {
		t.Fatal("expected total-size violation")
	}
}

func TestAttachmentPolicyAllowedSuffixes(t *testing.T) {
	policy := AttachmentPolicy{AllowedSuffixes: []string{".txt", ".md"}}
	ok := []Attachment{{Name: "notes.MD", Data: []byte("x")}}
	if err := ValidateAttachments(policy, ok); err != nil {
		t.Fatalf("uppercase suffix should match case-insensitively: %v", err)
	}
	bad := []Attachment{{Name: "image.png", Data: []byte("x")}}
	if err := ValidateAttachments(policy, bad); err == nil {
		t.Fatal("expected allowed_suffixes violation")
	}
}

func TestAttachmentPolicyDeniedSuffixes(t *testing.T) {
	policy := AttachmentPolicy{DeniedSuffixes: []string{".exe"}}
	bad := []Attachment{{Name: "payload.EXE", Data: []byte("x")}}
	if err := ValidateAttachments(policy, bad); err == nil {
		t.Fatal("expected denied_suffixes violation")
	}
}

func TestAttachmentPolicyEmptyAttachmentsAlwaysPasses(t *testing.T) {
	policy := AttachmentPolicy{MaxAttachments: 1, MaxTotalBytes: 1}
	if err := ValidateAttachments(policy, nil); err != nil {
		t.Fatalf("no attachments should never violate a policy: %v", err)
	}
}

func TestDefaultMimeClassifierByExtension(t *testing.T) {
	c := DefaultMimeClassifier{}
	if !c.ClassifyAsText("notes.md", "") {
		t.Fatal("expected .md to classify as text")
	}
	if c.ClassifyAsText("photo.png", "") {
		t.Fatal("expected .png to classify as binary")
	}
}

func TestDefaultMimeClassifierByMimeType(t *testing.T) {
	c := DefaultMimeClassifier{}
	if !c.ClassifyAsText("data.bin", "text/plain") {
		t.Fatal("expected text/* mime type to classify as text regardless of extension")
	}
	if !c.ClassifyAsText("data.bin", "application/json") {
		t.Fatal("expected application/json to classify as text")
	}
}
