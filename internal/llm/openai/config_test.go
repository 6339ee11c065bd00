package openai

import "testing"

func TestConfigValidateRequiresAPIKey(t *testing.T) {
	c := &Config{Model: "gpt-4o"}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for missing APIKey")
	}
}

func TestConfigValidateRequiresModel(t *testing.T) {
	c := &Config{APIKey: "sk-test"}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for missing Model")
	}
}

func TestConfigValidateTemperatureRange(t *testing.T) {
	bad := float32(3.0)
	c := &Config{APIKey: "sk-test", Model: "gpt-4o", Temperature: &bad}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for out-of-range temperature")
	}
}

func TestConfigValidateOK(t *testing.T) {
	c := &Config{APIKey: "sk-test", Model: "gpt-4o"}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolveContextWindowExplicit(t *testing.T) {
	c := &Config{APIKey: "sk-test", Model: "gpt-4o", ContextWindow: 99999}
	if got := c.ResolveContextWindow(); got != 99999 {
		t.Errorf("ResolveContextWindow() = %d, want 99999", got)
	}
}

func TestResolveContextWindowAutoDetect(t *testing.T) {
	c := &Config{APIKey: "sk-test", Model: "gpt-4o"}
	if got := c.ResolveContextWindow(); got != 128_000 {
		t.Errorf("ResolveContextWindow() = %d, want 128000", got)
	}
}

func TestResolveContextWindowUnknownModelDefault(t *testing.T) {
	c := &Config{APIKey: "sk-test", Model: "totally-unknown-model"}
	if got := c.ResolveContextWindow(); got != 32_000 {
		t.Errorf("ResolveContextWindow() = %d, want 32000", got)
	}
}
