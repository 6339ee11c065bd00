package runtime

import "fmt"

// tokenBudget enforces an optional hard ceiling on a single run's
// accumulated token usage, adapted from the teacher's
// CostGuard.RecordTokens (internal/agent/cost_guard.go): a running total
// checked against a configured maximum, erroring once exceeded. It drops
// the teacher's duration guard, since spec.md §4.1 "Timeout semantics"
// leaves wall-clock limits to upstream callers, not the core loop, and
// its atomic counter, since the runtime loop already runs on a single
// goroutine per run.
type tokenBudget struct {
	max  int
	used int
}

// record adds n tokens to the running total and reports whether the
// configured maximum (0 = disabled) has now been exceeded.
func (b *tokenBudget) record(n int) error {
	if b == nil || b.max <= 0 {
		return nil
	}
	b.used += n
	if b.used > b.max {
		return fmt.Errorf("%w: used %d / limit %d", ErrTokenBudgetExceeded, b.used, b.max)
	}
	return nil
}
