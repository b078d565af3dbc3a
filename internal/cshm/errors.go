package cshm

import "errors"

// Error taxonomy for measure computations. Callers should match with
// errors.Is; all errors returned by Compute wrap one of these sentinels.
var (
	// ErrInvalidInput marks point-count mismatches, empty inputs and
	// non-finite coordinates. Detected before any numeric work.
	ErrInvalidInput = errors.New("cshm: invalid input")

	// ErrDegenerateGeometry marks an actual structure where a ligand
	// coincides with the metal center; no rotation can score it.
	ErrDegenerateGeometry = errors.New("cshm: degenerate geometry")

	// ErrCancelled marks a computation aborted through its context. Not a
	// failure of the input; safe to retry.
	ErrCancelled = errors.New("cshm: cancelled")
)
