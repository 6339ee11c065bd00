package worker

import "testing"

func TestMatchesAnyModelExact(t *testing.T) {
	if !MatchesAnyModel([]string{"gpt-4o"}, "gpt-4o") {
		t.Fatal("exact match should match")
	}
}

func TestMatchesAnyModelGlob(t *testing.T) {
	if !MatchesAnyModel([]string{"gpt-4*"}, "gpt-4o-mini") {
		t.Fatal("glob should match prefix")
	}
	if MatchesAnyModel([]string{"gpt-4*"}, "gpt-3.5-turbo") {
		t.Fatal("glob should not match a different prefix")
	}
}

func TestMatchesAnyModelMultiplePatterns(t *testing.T) {
	patterns := []string{"claude-*", "gpt-4*"}
	if !MatchesAnyModel(patterns, "claude-opus-4") {
		t.Fatal("should match first pattern")
	}
	if !MatchesAnyModel(patterns, "gpt-4o") {
		t.Fatal("should match second pattern")
	}
	if MatchesAnyModel(patterns, "llama-3") {
		t.Fatal("should not match any pattern")
	}
}

func TestMatchesAnyModelEmptyList(t *testing.T) {
	if MatchesAnyModel(nil, "gpt-4o") {
		t.Fatal("empty pattern list must match nothing, not everything")
	}
}

func TestValidateCompatibleModelsEmpty(t *testing.T) {
	if err := ValidateCompatibleModels(nil); err == nil {
		t.Fatal("expected error for empty compatible_models")
	}
}

func TestValidateCompatibleModelsNonEmpty(t *testing.T) {
	if err := ValidateCompatibleModels([]string{"gpt-4*"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGlobSpecialCharactersAreEscaped(t *testing.T) {
	if !MatchesAnyModel([]string{"gpt-4.5"}, "gpt-4.5") {
		t.Fatal("literal dot should match itself")
	}
	if MatchesAnyModel([]string{"gpt-4.5"}, "gpt-4x5") {
		t.Fatal("literal dot must not behave like regexp wildcard")
	}
}
