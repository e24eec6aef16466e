// Copyright 2025 Casskit Contributors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package engine

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/casskit/casskit/constraint"
	"github.com/casskit/casskit/expr"
	"golang.org/x/exp/slices"
)

// linearForm is the intermediate of the linearizer's recursive descent: a
// term map plus a scalar offset. A form with no terms is a constant subtree.
type linearForm struct {
	terms  map[expr.VariableID]float64
	offset float64
}

func (f linearForm) isConstant() bool { return len(f.terms) == 0 }

// linearize lowers "lhs rel rhs" to the tableau form Σ coeff·var + offset rel 0,
// substituting resolved constant values and rejecting expressions that remain
// nonlinear. Duplicate variable references merge by summing coefficients;
// terms that cancel to exactly zero are dropped. The returned constraint
// records which constant ids it consumed, so the propagator can find it when
// one of them changes.
func (t *table) linearize(lhs expr.Expr, rel constraint.Relation, rhs expr.Expr, s constraint.Strength) (constraint.Constraint, error) {
	consumed := bitset.New(uint(len(t.records)))
	f, err := t.lower(expr.Sub(lhs, rhs), consumed)
	if err != nil {
		return constraint.Constraint{}, err
	}

	terms := make(constraint.LinearExpression, 0, len(f.terms))
	for v, coeff := range f.terms {
		if coeff == 0 {
			continue // canceled exactly
		}
		terms = append(terms, constraint.Term{VID: v, Coeff: coeff})
	}
	if len(terms) == 0 {
		// a relation with no adjustable unknown: either it already holds
		// numerically (nothing to add) or it can never hold
		if relationHolds(f.offset, rel) {
			return constraint.Constraint{}, fmt.Errorf("%w: residual %g %s 0 already holds", ErrNoVariables, f.offset, rel)
		}
		return constraint.Constraint{}, fmt.Errorf("%w: residual %g %s 0", ErrTriviallyUnsatisfiable, f.offset, rel)
	}
	slices.SortFunc(terms, func(a, b constraint.Term) int {
		switch {
		case a.VID < b.VID:
			return -1
		case a.VID > b.VID:
			return 1
		default:
			return 0
		}
	})

	constants := make([]expr.ConstantID, 0, consumed.Count())
	for i, ok := consumed.NextSet(0); ok; i, ok = consumed.NextSet(i + 1) {
		constants = append(constants, expr.ConstantID(i))
	}

	return constraint.Constraint{
		Terms:     terms,
		Offset:    f.offset,
		Relation:  rel,
		Strength:  s,
		Constants: constants,
	}, nil
}

func relationHolds(offset float64, rel constraint.Relation) bool {
	switch rel {
	case constraint.Eq:
		return offset == 0
	case constraint.Le:
		return offset <= 0
	case constraint.Ge:
		return offset >= 0
	default:
		panic("unknown relation")
	}
}

// lower walks e bottom-up, classifying every subtree as constant (no variable
// beneath it) or linear, and rejecting the nonlinear shapes: a product of two
// variable subtrees, or a variable divisor.
func (t *table) lower(e expr.Expr, consumed *bitset.BitSet) (linearForm, error) {
	switch n := e.(type) {
	case expr.Literal:
		return linearForm{offset: n.Value}, nil
	case expr.ConstantRef:
		v, ok := t.valueOf(n.Constant)
		if !ok {
			return linearForm{}, &UnresolvedConstantError{Constant: n.Constant, Label: t.labelOf(n.Constant)}
		}
		consumed.Set(uint(n.Constant))
		return linearForm{offset: v}, nil
	case expr.VariableRef:
		return linearForm{terms: map[expr.VariableID]float64{n.Variable: 1}}, nil
	case expr.Binary:
		l, err := t.lower(n.Left, consumed)
		if err != nil {
			return linearForm{}, err
		}
		r, err := t.lower(n.Right, consumed)
		if err != nil {
			return linearForm{}, err
		}
		switch n.Op {
		case expr.OpAdd:
			return combine(l, r, 1), nil
		case expr.OpSub:
			return combine(l, r, -1), nil
		case expr.OpMul:
			if !l.isConstant() && !r.isConstant() {
				return linearForm{}, fmt.Errorf("%w: product of two variable subtrees", ErrNonlinear)
			}
			if l.isConstant() {
				return scale(r, l.offset), nil
			}
			return scale(l, r.offset), nil
		case expr.OpDiv:
			if !r.isConstant() {
				return linearForm{}, fmt.Errorf("%w: variable divisor", ErrNonlinear)
			}
			if r.offset == 0 {
				return linearForm{}, &DivisionByZeroError{}
			}
			return scale(l, 1/r.offset), nil
		default:
			panic("unknown operator")
		}
	default:
		panic("unknown expression node")
	}
}

// combine returns l + sign·r, merging duplicate variable references.
func combine(l, r linearForm, sign float64) linearForm {
	out := linearForm{offset: l.offset + sign*r.offset}
	if len(l.terms) == 0 && len(r.terms) == 0 {
		return out
	}
	out.terms = make(map[expr.VariableID]float64, len(l.terms)+len(r.terms))
	for v, c := range l.terms {
		out.terms[v] = c
	}
	for v, c := range r.terms {
		out.terms[v] += sign * c
	}
	return out
}

// scale returns k·f.
func scale(f linearForm, k float64) linearForm {
	out := linearForm{offset: f.offset * k}
	if len(f.terms) == 0 {
		return out
	}
	out.terms = make(map[expr.VariableID]float64, len(f.terms))
	for v, c := range f.terms {
		out.terms[v] = c * k
	}
	return out
}
