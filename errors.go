// Copyright (c) 2026 Colin McRae

package fconv

import "errors"

// The package distinguishes exactly two failure classes. Neither is
// recoverable: a caller that depends on soundness must abort rather
// than accept a possibly-unsound relaxation.
var (
	// ErrInvalidInput reports a contract violation by the caller:
	// wrong matrix shape, K outside the supported range, coefficients
	// that do not match the canonical octahedral layout, or bounds
	// that do not straddle zero.
	ErrInvalidInput = errors.New("fconv: invalid input")

	// ErrInternal reports an invariant violation inside the pipeline,
	// such as an incidence size mismatch. It indicates a programming
	// error, never bad input.
	ErrInternal = errors.New("fconv: internal inconsistency")
)
