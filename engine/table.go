// Copyright 2025 Casskit Contributors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package engine

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/casskit/casskit/expr"
)

// constantRecord is one entry of the constant table.
type constantRecord struct {
	label    string
	def      expr.Expr // nil when unset
	value    float64
	resolved bool

	// order is the resolution sequence number assigned by the first
	// successful set call; 0 means never set. Redefinitions keep it, so a
	// formula can never reference a constant resolved later than its own
	// first resolution.
	order uint64

	// dependents holds the ids of constants whose current formula references
	// this constant directly.
	dependents bitset.BitSet
}

// table owns the constant records and the dependent index. It is the single
// authority for constant values; the evaluator in the expr package stays pure
// and caches nothing.
type table struct {
	records   []constantRecord
	nextOrder uint64
}

func newTable(capacity int) *table {
	return &table{records: make([]constantRecord, 0, capacity), nextOrder: 1}
}

// declare creates a new unset constant and returns its id. O(1), never fails.
func (t *table) declare(label string) expr.ConstantID {
	t.records = append(t.records, constantRecord{label: label})
	return expr.ConstantID(len(t.records) - 1)
}

// valueOf returns the cached resolved value of id.
func (t *table) valueOf(id expr.ConstantID) (float64, bool) {
	if int(id) >= len(t.records) {
		return 0, false
	}
	rec := &t.records[id]
	if !rec.resolved {
		return 0, false
	}
	return rec.value, true
}

func (t *table) labelOf(id expr.ConstantID) string {
	if int(id) >= len(t.records) {
		return fmt.Sprintf("c%d", id)
	}
	return t.records[id].label
}

// set stores def as the new definition of id and immediately attempts
// resolution against the current table. On failure the table is left exactly
// as it was (no partial write). On success the transitive dependents of id
// are re-resolved breadth-first; set returns the set of ids whose cached
// value changed, plus non-fatal re-resolution warnings.
//
// A formula may only reference constants that are already resolved, i.e. set
// by strictly earlier calls. There is no topological sort: a forward
// reference is always an error, even if the referenced constant is set later.
func (t *table) set(id expr.ConstantID, def expr.Expr) (*bitset.BitSet, []error, error) {
	if int(id) >= len(t.records) {
		return nil, nil, fmt.Errorf("%w: c%d", ErrUnknownConstant, id)
	}
	if def == nil {
		return nil, nil, ErrNilDefinition
	}
	if expr.ContainsVariable(def) {
		return nil, nil, ErrVariableInFormula
	}
	rec := &t.records[id]
	refs := expr.Constants(def)
	for _, ref := range refs {
		if ref == id {
			return nil, nil, ErrSelfReference
		}
		if int(ref) >= len(t.records) {
			return nil, nil, fmt.Errorf("%w: c%d", ErrUnknownConstant, ref)
		}
		// a reference is usable only if it resolved in a strictly earlier
		// call than id's own first resolution; this is what makes cycles
		// impossible to construct and keeps resolution order == call order
		refRec := &t.records[ref]
		if !refRec.resolved || (rec.order != 0 && refRec.order >= rec.order) {
			return nil, nil, &UnresolvedDependencyError{
				Missing:      ref,
				While:        id,
				MissingLabel: t.labelOf(ref),
				WhileLabel:   t.labelOf(id),
			}
		}
	}

	value, err := expr.Evaluate(def, t.valueOf)
	if err != nil {
		return nil, nil, t.mapEvalError(err, id)
	}

	wasResolved, oldValue := rec.resolved, rec.value

	// re-point the dependent index at the new reference set
	if rec.def != nil {
		for _, ref := range expr.Constants(rec.def) {
			t.records[ref].dependents.Clear(uint(id))
		}
	}
	for _, ref := range refs {
		t.records[ref].dependents.Set(uint(id))
	}
	rec.def = def
	rec.value = value
	rec.resolved = true
	if rec.order == 0 {
		rec.order = t.nextOrder
		t.nextOrder++
	}

	changed := bitset.New(uint(len(t.records)))
	if wasResolved && oldValue == value {
		// idempotent re-set: no dependent value can change
		return changed, nil, nil
	}
	changed.Set(uint(id))
	warnings := t.sweep(id, changed)
	return changed, warnings, nil
}

// mapEvalError translates the pure evaluator's errors into the engine's
// taxonomy, attaching labels for diagnostics.
func (t *table) mapEvalError(err error, while expr.ConstantID) error {
	var unresolved *expr.UnresolvedConstantError
	switch {
	case errors.As(err, &unresolved):
		return &UnresolvedDependencyError{
			Missing:      unresolved.Constant,
			While:        while,
			MissingLabel: t.labelOf(unresolved.Constant),
			WhileLabel:   t.labelOf(while),
		}
	case errors.Is(err, expr.ErrDivideByZero):
		return &DivisionByZeroError{While: while, Label: t.labelOf(while), InFormula: true}
	case errors.Is(err, expr.ErrVariableInScalarContext):
		return ErrVariableInFormula
	default:
		return err
	}
}
