// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.2
//

package gorssi

import "errors"

// Errors returned by the estimator. Callers match them with errors.Is,
// since most are wrapped with details about the failing value.
var (
	// Invalid argument or configuration (readings, initial values, dimensions)
	ErrInvalidConfig = errors.New("invalid configuration")

	// Estimate() called without enough readings
	ErrNotReady = errors.New("estimator is not ready")

	// Mutation or Estimate() attempted while an estimation is running
	ErrLocked = errors.New("estimator is locked")

	// Degenerate geometry: a reader located on the emitter, or a singular
	// normal matrix (identical reader positions, rank deficiency)
	ErrSingular = errors.New("degenerate propagation geometry")

	// Iteration budget exhausted before the fit converged
	ErrNotConverged = errors.New("fit did not converge")
)
