// Copyright 2025 Casskit Contributors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package engine

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/casskit/casskit/expr"
	"github.com/casskit/casskit/solver"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// propagate relinearizes and replaces every installed constraint whose last
// linearization consumed any constant in touched, in ascending install order,
// then asks the adapter to re-optimize exactly once. A constant update with
// no installed consumers does not wake the solver.
//
// Failures are fail-fast: the failing constraint keeps its previous installed
// form, later constraints are not processed, and earlier replacements stay.
func (e *Engine) propagate(touched *bitset.BitSet) error {
	affected := make(map[solver.Handle]struct{})
	for i, ok := touched.NextSet(0); ok; i, ok = touched.NextSet(i + 1) {
		for h := range e.byConstant[expr.ConstantID(i)] {
			affected[h] = struct{}{}
		}
	}
	if len(affected) == 0 {
		return nil
	}

	records := make([]*installedConstraint, 0, len(affected))
	for _, h := range maps.Keys(affected) {
		records = append(records, e.installed[h])
	}
	slices.SortFunc(records, func(a, b *installedConstraint) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		default:
			return 0
		}
	})

	for _, rec := range records {
		c, err := e.table.linearize(rec.lhs, rec.relation, rec.rhs, rec.strength)
		if err != nil {
			return &RelinearizationError{Handle: rec.handle, Cause: err}
		}
		if err := e.adapter.Replace(rec.handle, c); err != nil {
			return &RelinearizationError{Handle: rec.handle, Cause: err}
		}
		// the constant set may have shifted (e.g. a formula redefined which
		// constants reach this constraint); keep the reverse index current
		e.unindex(rec)
		rec.constants = c.Constants
		e.index(rec)
	}

	e.log.Debug().Int("constraints", len(records)).Msg("relinearized after constant update")
	return e.adapter.Reoptimize()
}
