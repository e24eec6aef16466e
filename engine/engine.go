// Copyright 2025 Casskit Contributors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package engine

import (
	"strconv"

	"github.com/casskit/casskit/constraint"
	"github.com/casskit/casskit/expr"
	"github.com/casskit/casskit/logger"
	"github.com/casskit/casskit/solver"
	"github.com/rs/zerolog"
)

// Engine is the caller-facing entry point. It owns the constant table and the
// registry of installed constraints, and talks to the external tableau
// through a solver.Adapter.
//
// An Engine is not safe for concurrent use; see the package documentation.
type Engine struct {
	adapter solver.Adapter
	table   *table

	// installed is the authoritative registry of constraints this engine has
	// sent to the solver, keyed by adapter handle. Each record keeps the
	// original pre-substitution expressions so relinearization never needs
	// the caller to resubmit.
	installed  map[solver.Handle]*installedConstraint
	byConstant map[expr.ConstantID]map[solver.Handle]struct{}
	seq        uint64

	log zerolog.Logger
}

type installedConstraint struct {
	handle   solver.Handle
	seq      uint64
	lhs, rhs expr.Expr
	relation constraint.Relation
	strength constraint.Strength

	// constants consumed by the last successful linearization
	constants []expr.ConstantID
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger overrides the package logger for this engine instance.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithCapacity pre-allocates the constant table for n constants.
func WithCapacity(n int) Option {
	return func(e *Engine) { e.table = newTable(n) }
}

// New returns an Engine bound to adapter.
func New(adapter solver.Adapter, opts ...Option) *Engine {
	e := &Engine{
		adapter:    adapter,
		table:      newTable(0),
		installed:  make(map[solver.Handle]*installedConstraint),
		byConstant: make(map[expr.ConstantID]map[solver.Handle]struct{}),
		log:        logger.Logger().With().Str("component", "engine").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DeclareConstant creates a new unset constant. The label is used for
// diagnostics only; identity is the returned id.
func (e *Engine) DeclareConstant(label string) expr.ConstantID {
	return e.table.declare(label)
}

// SetConstant (re)defines id with def, a scalar formula over literals and
// already-resolved constants, then resolves it, re-resolves its transitive
// dependents, relinearizes every installed constraint that consumed any
// changed constant, and re-optimizes the solver once.
//
// On error the table and all installed constraints are exactly as before the
// call, except for a RelinearizationError, which leaves constraints replaced
// earlier in the same sweep in place (see its documentation).
func (e *Engine) SetConstant(id expr.ConstantID, def expr.Expr) error {
	changed, warnings, err := e.table.set(id, def)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		e.log.Warn().Err(w).Msg("dependent re-resolution failed")
	}
	// relinearize constraints keyed on id even when the value is unchanged;
	// the pass is cheap and keeps the registry authoritative
	changed.Set(uint(id))
	return e.propagate(changed)
}

// SetConstantValue is shorthand for SetConstant(id, expr.Lit(v)).
func (e *Engine) SetConstantValue(id expr.ConstantID, v float64) error {
	return e.SetConstant(id, expr.Lit(v))
}

// ValueOf returns the current resolved value of id, for diagnostics and
// testing. The second return is false while id is unset.
func (e *Engine) ValueOf(id expr.ConstantID) (float64, bool) {
	return e.table.valueOf(id)
}

// AddConstraint linearizes "lhs rel rhs", installs the result in the solver
// and registers it for update propagation. strength is forwarded opaquely.
func (e *Engine) AddConstraint(lhs expr.Expr, rel constraint.Relation, rhs expr.Expr, s constraint.Strength) (solver.Handle, error) {
	c, err := e.table.linearize(lhs, rel, rhs, s)
	if err != nil {
		return 0, err
	}
	h, err := e.adapter.Install(c)
	if err != nil {
		return 0, err
	}
	rec := &installedConstraint{
		handle:    h,
		seq:       e.seq,
		lhs:       lhs,
		rhs:       rhs,
		relation:  rel,
		strength:  s,
		constants: c.Constants,
	}
	e.seq++
	e.installed[h] = rec
	e.index(rec)
	return h, nil
}

// RemoveConstraint detaches h from the solver and drops it from the
// propagation registry. Unknown handles are ignored.
func (e *Engine) RemoveConstraint(h solver.Handle) {
	rec, ok := e.installed[h]
	if !ok {
		return
	}
	e.adapter.Remove(h)
	e.unindex(rec)
	delete(e.installed, h)
}

func (e *Engine) index(rec *installedConstraint) {
	for _, id := range rec.constants {
		set, ok := e.byConstant[id]
		if !ok {
			set = make(map[solver.Handle]struct{})
			e.byConstant[id] = set
		}
		set[rec.handle] = struct{}{}
	}
}

func (e *Engine) unindex(rec *installedConstraint) {
	for _, id := range rec.constants {
		set, ok := e.byConstant[id]
		if !ok {
			continue
		}
		delete(set, rec.handle)
		if len(set) == 0 {
			delete(e.byConstant, id)
		}
	}
}

// ConstantToString implements constraint.Resolver.
func (e *Engine) ConstantToString(id expr.ConstantID) string {
	return e.table.labelOf(id)
}

// VariableToString implements constraint.Resolver. The engine does not own
// variables; they print by id.
func (e *Engine) VariableToString(id expr.VariableID) string {
	return "v" + strconv.FormatUint(uint64(id), 10)
}
