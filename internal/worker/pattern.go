package worker

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchesAnyModel implements spec.md §4.1 "Model-pattern matching":
// compatible_models entries are shell-style globs where "*" matches any
// run of characters; each id is matched against each pattern in order and
// admitted if any matches. An empty pattern list is a configuration error,
// never "matches nothing" — callers must check that separately (see
// ValidateCompatibleModels).
func MatchesAnyModel(patterns []string, modelID string) bool {
	for _, p := range patterns {
		if matchesGlob(p, modelID) {
			return true
		}
	}
	return false
}

// ValidateCompatibleModels returns an error if patterns is empty
// (spec.md §4.1: "An empty list is a configuration error").
func ValidateCompatibleModels(patterns []string) error {
	if len(patterns) == 0 {
		return fmt.Errorf("worker: compatible_models must not be empty")
	}
	return nil
}

func matchesGlob(pattern, s string) bool {
	re := globToRegexp(pattern)
	return re.MatchString(s)
}

func globToRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	// Every character besides "*" is quoted, so the generated pattern is
	// always valid regexp syntax.
	return regexp.MustCompile(b.String())
}
