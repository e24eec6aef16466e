// Copyright 2025 Casskit Contributors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package expr defines the immutable arithmetic expression trees consumed by
// the engine: scalar formulas over literals and named constants, and
// constraint expressions that may additionally reference decision variables.
//
// Trees are values; redefining a constant builds a new tree, it never mutates
// an existing one. The node set is closed: Literal, ConstantRef, VariableRef
// and Binary. Scalar contexts (constant formulas) reject VariableRef leaves.
package expr

import (
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// ConstantID identifies a named constant in the engine's constant table.
type ConstantID uint32

// VariableID identifies a decision variable owned by the external solver.
type VariableID uint32

// Op is a binary arithmetic operator.
type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
)

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		panic("unknown operator")
	}
}

// Expr is a node of an expression tree.
type Expr interface {
	isExpr()
}

// Literal is a scalar leaf.
type Literal struct {
	Value float64
}

// ConstantRef references a named constant by id. Its value is substituted at
// resolution (scalar formulas) or linearization (constraint expressions) time.
type ConstantRef struct {
	Constant ConstantID
}

// VariableRef references a decision variable. Valid only in constraint
// expressions.
type VariableRef struct {
	Variable VariableID
}

// Binary applies Op to two subtrees.
type Binary struct {
	Op          Op
	Left, Right Expr
}

func (Literal) isExpr()     {}
func (ConstantRef) isExpr() {}
func (VariableRef) isExpr() {}
func (Binary) isExpr()      {}

// Lit returns a literal leaf.
func Lit(v float64) Expr { return Literal{Value: v} }

// Const returns a constant reference leaf.
func Const(id ConstantID) Expr { return ConstantRef{Constant: id} }

// Var returns a decision variable leaf.
func Var(id VariableID) Expr { return VariableRef{Variable: id} }

// Add returns l + r.
func Add(l, r Expr) Expr { return Binary{Op: OpAdd, Left: l, Right: r} }

// Sub returns l - r.
func Sub(l, r Expr) Expr { return Binary{Op: OpSub, Left: l, Right: r} }

// Mul returns l * r.
func Mul(l, r Expr) Expr { return Binary{Op: OpMul, Left: l, Right: r} }

// Div returns l / r.
func Div(l, r Expr) Expr { return Binary{Op: OpDiv, Left: l, Right: r} }

// Constants returns the set of constant ids referenced anywhere in e,
// deduplicated and sorted ascending.
func Constants(e Expr) []ConstantID {
	seen := map[ConstantID]struct{}{}
	walk(e, func(n Expr) {
		if c, ok := n.(ConstantRef); ok {
			seen[c.Constant] = struct{}{}
		}
	})
	out := make([]ConstantID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// ContainsVariable reports whether any VariableRef appears in e.
func ContainsVariable(e Expr) bool {
	found := false
	walk(e, func(n Expr) {
		if _, ok := n.(VariableRef); ok {
			found = true
		}
	})
	return found
}

// References reports whether e references the constant id.
func References(e Expr, id ConstantID) bool {
	found := false
	walk(e, func(n Expr) {
		if c, ok := n.(ConstantRef); ok && c.Constant == id {
			found = true
		}
	})
	return found
}

func walk(e Expr, fn func(Expr)) {
	fn(e)
	if b, ok := e.(Binary); ok {
		walk(b.Left, fn)
		walk(b.Right, fn)
	}
}

// String renders e for diagnostics. Constants print as c<id>, variables as
// v<id>; binary nodes are fully parenthesized.
func String(e Expr) string {
	var sbb strings.Builder
	write(&sbb, e)
	return sbb.String()
}

func write(sbb *strings.Builder, e Expr) {
	switch n := e.(type) {
	case Literal:
		sbb.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
	case ConstantRef:
		sbb.WriteByte('c')
		sbb.WriteString(strconv.FormatUint(uint64(n.Constant), 10))
	case VariableRef:
		sbb.WriteByte('v')
		sbb.WriteString(strconv.FormatUint(uint64(n.Variable), 10))
	case Binary:
		sbb.WriteByte('(')
		write(sbb, n.Left)
		sbb.WriteString(n.Op.String())
		write(sbb, n.Right)
		sbb.WriteByte(')')
	default:
		panic("unknown expression node")
	}
}
