// Copyright 2025 Casskit Contributors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package solver defines the boundary between the engine and the external
// tableau implementation. The engine never runs the simplex algorithm itself;
// it installs, replaces and removes linear constraints through an Adapter and
// asks it to re-optimize after coefficient changes.
package solver

import (
	"errors"

	"github.com/casskit/casskit/constraint"
)

// Handle identifies a constraint installed in the external solver.
type Handle uint32

// ErrInfeasible is reported by an Adapter when the installed constraint set
// admits no solution. Adapters may wrap it to attach numeric detail.
var ErrInfeasible = errors.New("solver: system is infeasible")

// Adapter is the narrow interface the engine consumes from the tableau
// implementation. All methods are synchronous; the engine serializes calls
// (see the single-writer model in the engine package).
type Adapter interface {
	// Install adds a new linear constraint and returns its handle.
	Install(c constraint.Constraint) (Handle, error)

	// Replace atomically swaps a previously installed constraint's
	// coefficients, offset and relation.
	Replace(h Handle, c constraint.Constraint) error

	// Remove detaches a previously installed constraint.
	Remove(h Handle)

	// Reoptimize re-derives variable values after structural or coefficient
	// changes. It may be expensive; the engine batches it to one call per
	// constant update.
	Reoptimize() error
}
