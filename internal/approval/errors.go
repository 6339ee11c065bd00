package approval

import "errors"

// ErrNoCallback is returned by New when ModeInteractive is requested
// without a callback (spec.md §4.1 "Fails at construction when ...
// interactive mode has no callback").
var ErrNoCallback = errors.New("approval: interactive mode requires a callback")

// ErrUnknownMode is returned by RequestApproval for a Mode value outside
// ModeApproveAll, ModeStrict, ModeInteractive.
var ErrUnknownMode = errors.New("approval: unknown mode")
