// Package casskit provides constant resolution and incremental linearization
// for Cassowary-family linear constraint solvers.
//
// A layout or data system often needs to feed externally-owned, read-only
// scalars (scroll offsets, intrinsic sizes, aspect ratios, list counts) into
// constraints, and to update those scalars over time, without the solver ever
// treating them as variables it may adjust. casskit maintains a table of named
// constants defined by arithmetic formulas, lowers mixed constant/variable
// expressions to the pure linear form a tableau solver requires, and, when a
// constant changes, re-derives every affected coefficient and pushes the new
// linear forms back through a narrow solver adapter.
//
// The packages are organized as follows:
//   - expr: immutable arithmetic expression trees
//   - constraint: the solver-ready linear form (terms, offset, relation)
//   - engine: constant table, dependency evaluation, linearization, update propagation
//   - solver: the adapter boundary to the external tableau implementation
package casskit

import "github.com/blang/semver/v4"

// Version of the casskit module.
var Version = semver.MustParse("0.1.0")
