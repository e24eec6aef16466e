// Copyright 2025 Casskit Contributors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package expr

import (
	"errors"
	"fmt"
)

// Lookup resolves a constant id to its current cached value. The second
// return is false when the constant has no resolved value.
type Lookup func(ConstantID) (float64, bool)

// ErrDivideByZero is returned by Evaluate when a division's right operand
// evaluates to zero.
var ErrDivideByZero = errors.New("expr: division by zero")

// ErrVariableInScalarContext is returned by Evaluate when the tree contains a
// VariableRef; scalar formulas may only reference literals and constants.
var ErrVariableInScalarContext = errors.New("expr: decision variable in scalar formula")

// UnresolvedConstantError is returned by Evaluate when a referenced constant
// has no resolved value.
type UnresolvedConstantError struct {
	Constant ConstantID
}

func (e *UnresolvedConstantError) Error() string {
	return fmt.Sprintf("expr: constant c%d is not resolved", e.Constant)
}

// Evaluate computes the value of e, resolving constant references through
// lookup. It is pure: no caching, no side effects. Binary nodes evaluate the
// left child first and fail fast on its error.
func Evaluate(e Expr, lookup Lookup) (float64, error) {
	switch n := e.(type) {
	case Literal:
		return n.Value, nil
	case ConstantRef:
		v, ok := lookup(n.Constant)
		if !ok {
			return 0, &UnresolvedConstantError{Constant: n.Constant}
		}
		return v, nil
	case VariableRef:
		return 0, ErrVariableInScalarContext
	case Binary:
		l, err := Evaluate(n.Left, lookup)
		if err != nil {
			return 0, err
		}
		r, err := Evaluate(n.Right, lookup)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case OpAdd:
			return l + r, nil
		case OpSub:
			return l - r, nil
		case OpMul:
			return l * r, nil
		case OpDiv:
			if r == 0 {
				return 0, ErrDivideByZero
			}
			return l / r, nil
		default:
			panic("unknown operator")
		}
	default:
		panic("unknown expression node")
	}
}
