// Copyright 2025 Casskit Contributors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package constraint defines the solver-ready linear form: a sum of
// coefficient·variable terms plus a scalar offset, related to zero.
package constraint

import "github.com/casskit/casskit/expr"

// Relation relates a linear form to zero.
type Relation uint8

const (
	Eq Relation = iota // terms + offset == 0
	Le                 // terms + offset <= 0
	Ge                 // terms + offset >= 0
)

func (r Relation) String() string {
	switch r {
	case Eq:
		return "=="
	case Le:
		return "<="
	case Ge:
		return ">="
	default:
		panic("unknown relation")
	}
}

// Strength is an opaque constraint priority, forwarded untouched to the
// solver adapter. The values follow the classic cassowary ladder.
type Strength float64

const (
	Weak     Strength = 1
	Medium   Strength = 1e3
	Strong   Strength = 1e6
	Required Strength = 1e9
)

// A Constraint is a linear constraint in the form the tableau accepts:
// Terms + Offset  Relation  0. A Constraint produced by the engine's
// linearizer always carries at least one term with a nonzero coefficient.
type Constraint struct {
	Terms    LinearExpression
	Offset   float64
	Relation Relation
	Strength Strength

	// Constants lists the constant ids whose resolved values were substituted
	// while building Terms and Offset, sorted ascending. The update propagator
	// keys its reverse index on this set.
	Constants []expr.ConstantID
}

// Clone returns a deep copy of c.
func (c Constraint) Clone() Constraint {
	out := c
	out.Terms = c.Terms.Clone()
	out.Constants = make([]expr.ConstantID, len(c.Constants))
	copy(out.Constants, c.Constants)
	return out
}

func (c Constraint) String(r Resolver) string {
	sbb := NewStringBuilder(r)
	sbb.WriteConstraint(c)
	return sbb.String()
}
