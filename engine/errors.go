// Copyright 2025 Casskit Contributors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package engine

import (
	"errors"
	"fmt"

	"github.com/casskit/casskit/expr"
	"github.com/casskit/casskit/solver"
)

var (
	// ErrUnknownConstant reports a constant id that was never declared.
	ErrUnknownConstant = errors.New("engine: unknown constant id")

	// ErrSelfReference reports a formula referencing the constant being set.
	ErrSelfReference = errors.New("engine: formula references the constant being set")

	// ErrVariableInFormula reports a constant formula containing a decision
	// variable leaf; constants are scalar-only.
	ErrVariableInFormula = errors.New("engine: constant formula references a decision variable")

	// ErrNilDefinition reports a nil expression passed to SetConstant.
	ErrNilDefinition = errors.New("engine: nil constant definition")

	// ErrConstantNotSet reports resolution of a constant with no definition.
	ErrConstantNotSet = errors.New("engine: constant is not set")

	// ErrNonlinear reports a constraint expression that stays nonlinear after
	// constant substitution: two variable subtrees multiplied, or a variable
	// divisor.
	ErrNonlinear = errors.New("engine: expression is nonlinear")

	// ErrNoVariables reports a constraint whose variable terms all canceled
	// (or never existed) and whose residual happens to satisfy the relation.
	ErrNoVariables = errors.New("engine: constraint contains no variable term")

	// ErrTriviallyUnsatisfiable reports a constant-only constraint whose
	// residual violates the relation numerically.
	ErrTriviallyUnsatisfiable = errors.New("engine: constant-only constraint does not hold")
)

// UnresolvedDependencyError reports a SetConstant call whose formula
// references a constant that is not resolved yet. Resolution order is exactly
// call order, so the referenced constant must be set by a strictly earlier
// call.
type UnresolvedDependencyError struct {
	Missing      expr.ConstantID
	While        expr.ConstantID
	MissingLabel string
	WhileLabel   string
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("engine: cannot set constant %q: constant %q is not set", e.WhileLabel, e.MissingLabel)
}

// UnresolvedConstantError reports a constraint expression referencing a
// constant with no resolved value.
type UnresolvedConstantError struct {
	Constant expr.ConstantID
	Label    string
}

func (e *UnresolvedConstantError) Error() string {
	return fmt.Sprintf("engine: constant %q has no resolved value", e.Label)
}

// DivisionByZeroError reports a division whose divisor evaluated to zero.
// While and Label identify the constant whose formula failed and are only
// meaningful when InFormula is true; a constraint-expression failure has no
// constant context.
type DivisionByZeroError struct {
	While     expr.ConstantID
	Label     string
	InFormula bool
}

func (e *DivisionByZeroError) Error() string {
	if !e.InFormula {
		return "engine: division by zero in constraint expression"
	}
	return fmt.Sprintf("engine: division by zero while resolving constant %q", e.Label)
}

// RelinearizationError reports a failed relinearization (or replacement)
// during update propagation. The constraint behind Handle keeps its previous
// installed form; constraints replaced earlier in the same update stay
// replaced. The caller decides whether to retry or roll back.
type RelinearizationError struct {
	Handle solver.Handle
	Cause  error
}

func (e *RelinearizationError) Error() string {
	return fmt.Sprintf("engine: relinearization of constraint #%d failed: %v", e.Handle, e.Cause)
}

func (e *RelinearizationError) Unwrap() error { return e.Cause }
