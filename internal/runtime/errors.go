package runtime

import (
	"errors"
	"fmt"
)

// ErrMaxIterationsExceeded is the sentinel callers can match with errors.Is
// when a worker run hits its iteration ceiling (spec.md §4.1 "Iteration
// limit"). The error actually returned is a *maxIterationsError, which
// keeps spec.md's literal "Maximum iterations (N) exceeded" text while
// still satisfying errors.Is(err, ErrMaxIterationsExceeded).
var ErrMaxIterationsExceeded = errors.New("runtime: maximum iterations exceeded")

type maxIterationsError struct{ max int }

func (e *maxIterationsError) Error() string {
	return fmt.Sprintf("Maximum iterations (%d) exceeded", e.max)
}

func (e *maxIterationsError) Is(target error) bool {
	return target == ErrMaxIterationsExceeded
}

// ErrModelMismatch is returned by New when the resolved model does not
// match the worker's compatible_models patterns.
var ErrModelMismatch = errors.New("runtime: model does not match worker compatible_models")

// ErrSandboxRequired is returned by New when the worker's
// Definition.RequiresSandbox reports true but no sandbox was provided.
var ErrSandboxRequired = errors.New("runtime: worker requires a sandbox but none was provided")

// ErrTokenBudgetExceeded is the sentinel wrapped by a run's error when
// Options.MaxTokenBudget is set and the accumulated input+output token
// total exceeds it.
var ErrTokenBudgetExceeded = errors.New("runtime: token budget exceeded")
