package sandbox

import "errors"

// ErrReadOnly is returned by mutating operations against a non-writable zone.
var ErrReadOnly = errors.New("sandbox: read-only")

// ErrInvalidPath is returned when a resolved real path would escape the
// sandbox's root and every configured mount source.
var ErrInvalidPath = errors.New("sandbox: invalid path")

// ErrNotFound is returned by reads against a path with no backing file.
var ErrNotFound = errors.New("sandbox: not found")

// ErrEscalation is returned by Restrict when the requested view would be
// wider than the sandbox it is derived from.
var ErrEscalation = errors.New("sandbox: permission escalation")
