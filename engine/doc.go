// Copyright 2025 Casskit Contributors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package engine implements the constant resolution and incremental
// linearization core.
//
// An Engine owns a table of named constants whose values are defined by
// arithmetic formulas over literals and other constants. Constants resolve in
// call order: a formula may only reference constants resolved by strictly
// earlier Set calls, so forward references always fail and cyclic definitions
// are impossible to construct through the API. Constraint expressions mixing
// constants and decision variables are lowered to the pure linear form the
// tableau requires; when a constant changes, every installed constraint that
// consumed it is relinearized, replaced through the solver adapter, and the
// solver is re-optimized once per update.
//
// The engine is single-writer: all mutating calls must come from the thread
// that owns the solver instance. It holds no locks; callers sharing a solver
// across goroutines must serialize externally around the engine+solver pair.
package engine
