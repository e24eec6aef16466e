// Copyright 2025 Casskit Contributors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package engine

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/casskit/casskit/expr"
	"golang.org/x/exp/slices"
)

// resolve computes the current value of id from its stored definition,
// reading referenced constants' cached values from the table.
func (t *table) resolve(id expr.ConstantID) (float64, error) {
	rec := &t.records[id]
	if rec.def == nil {
		return 0, fmt.Errorf("%w: %q", ErrConstantNotSet, rec.label)
	}
	v, err := expr.Evaluate(rec.def, t.valueOf)
	if err != nil {
		return 0, t.mapEvalError(err, id)
	}
	return v, nil
}

// sweep re-resolves the transitive dependents of root, visiting each dependent
// at most once even under diamond dependencies. Ids whose cached value changed
// are recorded in changed. A dependent whose re-resolution fails keeps its
// stale value and is reported as a warning; this is reachable when an upstream
// change invalidates a formula arithmetically, e.g. a divisor constant updated
// to zero.
//
// Ids follow declare order, which says nothing about resolution order, so the
// closure is re-resolved in ascending record.order: by the call-order rule a
// formula only references constants with strictly lower order, making it a
// valid evaluation order. Resolving in id order instead would let a dependent
// with a low id read a not-yet-re-resolved intermediate with a higher id.
func (t *table) sweep(root expr.ConstantID, changed *bitset.BitSet) []error {
	visited := bitset.New(uint(len(t.records)))
	visited.Set(uint(root))
	queue := []expr.ConstantID{root}
	var closure []expr.ConstantID

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		deps := &t.records[cur].dependents
		for i, ok := deps.NextSet(0); ok; i, ok = deps.NextSet(i + 1) {
			if visited.Test(i) {
				continue
			}
			visited.Set(i)
			closure = append(closure, expr.ConstantID(i))
			queue = append(queue, expr.ConstantID(i))
		}
	}

	slices.SortFunc(closure, func(a, b expr.ConstantID) int {
		switch {
		case t.records[a].order < t.records[b].order:
			return -1
		case t.records[a].order > t.records[b].order:
			return 1
		default:
			return 0
		}
	})

	var warnings []error
	for _, id := range closure {
		rec := &t.records[id]
		// upstream values are final here; skip when no referenced constant
		// actually changed value
		stale := false
		for _, ref := range expr.Constants(rec.def) {
			if changed.Test(uint(ref)) {
				stale = true
				break
			}
		}
		if !stale {
			continue
		}
		v, err := t.resolve(id)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("re-resolving %q: %w", rec.label, err))
			continue
		}
		if rec.resolved && rec.value == v {
			continue
		}
		rec.value = v
		rec.resolved = true
		changed.Set(uint(id))
	}
	return warnings
}
