package engine_test

import (
	"errors"
	"testing"

	"github.com/casskit/casskit/constraint"
	"github.com/casskit/casskit/engine"
	"github.com/casskit/casskit/expr"
	"github.com/casskit/casskit/solver"
	"github.com/stretchr/testify/require"
)

// installAspect installs width == aspectRatio * height with aspectRatio = 16/9
// and returns the engine, recorder, constant id and handle.
func installAspect(t *testing.T) (*engine.Engine, *solver.Recorder, expr.ConstantID, solver.Handle) {
	t.Helper()
	assert := require.New(t)

	rec := solver.NewRecorder()
	e := engine.New(rec)
	aspect := e.DeclareConstant("aspectRatio")
	assert.NoError(e.SetConstant(aspect, expr.Div(expr.Lit(16), expr.Lit(9))))

	h, err := e.AddConstraint(
		expr.Var(width), constraint.Eq,
		expr.Mul(expr.Const(aspect), expr.Var(height)),
		constraint.Required,
	)
	assert.NoError(err)
	return e, rec, aspect, h
}

func TestConstantUpdateReplacesCoefficients(t *testing.T) {
	assert := require.New(t)
	e, rec, aspect, h := installAspect(t)

	before := rec.Reoptimizations
	assert.NoError(e.SetConstant(aspect, expr.Div(expr.Lit(4), expr.Lit(3))))

	assert.Equal(-4.0/3.0, rec.Installed[h].Terms.CoeffOf(height))
	assert.Equal(1.0, rec.Installed[h].Terms.CoeffOf(width))
	assert.Equal(before+1, rec.Reoptimizations, "exactly one reoptimize per update")
}

func TestUpdateWithNoConsumersSkipsSolver(t *testing.T) {
	assert := require.New(t)
	e, rec, _, _ := installAspect(t)

	unrelated := e.DeclareConstant("unrelated")
	before := rec.Reoptimizations
	replaced := len(rec.Replaced)

	assert.NoError(e.SetConstantValue(unrelated, 1))
	assert.Equal(before, rec.Reoptimizations)
	assert.Len(rec.Replaced, replaced)
}

func TestFanOutBatchesReoptimize(t *testing.T) {
	assert := require.New(t)
	rec := solver.NewRecorder()
	e := engine.New(rec)

	gap := e.DeclareConstant("gap")
	assert.NoError(e.SetConstantValue(gap, 10))

	// three constraints all consuming gap, installed in order
	var handles []solver.Handle
	for _, v := range []expr.VariableID{0, 1, 2} {
		h, err := e.AddConstraint(
			expr.Var(v), constraint.Ge, expr.Const(gap), constraint.Weak)
		assert.NoError(err)
		handles = append(handles, h)
	}

	before := rec.Reoptimizations
	assert.NoError(e.SetConstantValue(gap, 24))

	assert.Equal(before+1, rec.Reoptimizations)
	// replacement order follows install order
	assert.Equal(handles, rec.Replaced[len(rec.Replaced)-3:])
	for _, h := range handles {
		assert.Equal(-24.0, rec.Installed[h].Offset)
	}
}

func TestDependentConstantReachesConstraint(t *testing.T) {
	assert := require.New(t)
	rec := solver.NewRecorder()
	e := engine.New(rec)

	base := e.DeclareConstant("base")
	double := e.DeclareConstant("double")
	assert.NoError(e.SetConstantValue(base, 3))
	assert.NoError(e.SetConstant(double, expr.Mul(expr.Const(base), expr.Lit(2))))

	h, err := e.AddConstraint(
		expr.Var(width), constraint.Eq, expr.Const(double), constraint.Required)
	assert.NoError(err)
	assert.Equal(-6.0, rec.Installed[h].Offset)

	// updating base must flow through double into the installed constraint
	assert.NoError(e.SetConstantValue(base, 5))
	assert.Equal(-10.0, rec.Installed[h].Offset)
}

func TestIdempotentResetProducesNoChangeEvents(t *testing.T) {
	assert := require.New(t)
	rec := solver.NewRecorder()
	e := engine.New(rec)

	base := e.DeclareConstant("base")
	derived := e.DeclareConstant("derived")
	assert.NoError(e.SetConstantValue(base, 2))
	assert.NoError(e.SetConstant(derived, expr.Mul(expr.Const(base), expr.Lit(3))))

	// constraint consumes only the derived constant
	_, err := e.AddConstraint(
		expr.Var(width), constraint.Eq, expr.Const(derived), constraint.Required)
	assert.NoError(err)

	replaced := len(rec.Replaced)
	assert.NoError(e.SetConstantValue(base, 2)) // same value

	v, _ := e.ValueOf(derived)
	assert.Equal(6.0, v)
	// derived did not change, so the constraint keyed on it is not touched
	assert.Len(rec.Replaced, replaced)
}

func TestRemoveConstraintStopsPropagation(t *testing.T) {
	assert := require.New(t)
	e, rec, aspect, h := installAspect(t)

	e.RemoveConstraint(h)
	_, live := rec.Installed[h]
	assert.False(live, "removed from the adapter")

	replaced := len(rec.Replaced)
	assert.NoError(e.SetConstant(aspect, expr.Lit(2)))
	assert.Len(rec.Replaced, replaced, "removed constraints are not relinearized")
}

func TestReplaceFailureIsFailFast(t *testing.T) {
	assert := require.New(t)
	rec := solver.NewRecorder()
	e := engine.New(rec)

	gap := e.DeclareConstant("gap")
	assert.NoError(e.SetConstantValue(gap, 10))

	var handles []solver.Handle
	for _, v := range []expr.VariableID{0, 1, 2} {
		h, err := e.AddConstraint(
			expr.Var(v), constraint.Eq, expr.Const(gap), constraint.Required)
		assert.NoError(err)
		handles = append(handles, h)
	}

	rec.FailReplace = func(h solver.Handle) error {
		if h == handles[1] {
			return solver.ErrInfeasible
		}
		return nil
	}

	before := rec.Reoptimizations
	err := e.SetConstantValue(gap, 99)

	var relinErr *engine.RelinearizationError
	assert.ErrorAs(err, &relinErr)
	assert.Equal(handles[1], relinErr.Handle)
	assert.ErrorIs(err, solver.ErrInfeasible)

	// the first constraint was already replaced and stays; the failing and
	// later ones keep their previous form; the solver is not re-optimized
	assert.Equal(-99.0, rec.Installed[handles[0]].Offset)
	assert.Equal(-10.0, rec.Installed[handles[1]].Offset)
	assert.Equal(-10.0, rec.Installed[handles[2]].Offset)
	assert.Equal(before, rec.Reoptimizations)
}

func TestRelinearizationDegenerationIsReported(t *testing.T) {
	assert := require.New(t)
	rec := solver.NewRecorder()
	e := engine.New(rec)

	k := e.DeclareConstant("k")
	assert.NoError(e.SetConstantValue(k, 2))

	// k*w == 10; when k becomes 0 the variable term vanishes
	h, err := e.AddConstraint(
		expr.Mul(expr.Const(k), expr.Var(width)), constraint.Eq, expr.Lit(10),
		constraint.Required,
	)
	assert.NoError(err)

	err = e.SetConstantValue(k, 0)
	var relinErr *engine.RelinearizationError
	assert.ErrorAs(err, &relinErr)
	assert.Equal(h, relinErr.Handle)
	assert.ErrorIs(err, engine.ErrTriviallyUnsatisfiable)

	// fail-safe: the previous form is still installed
	assert.Equal(-10.0, rec.Installed[h].Offset)
	assert.Equal(2.0, rec.Installed[h].Terms.CoeffOf(width))
}

func TestInstallInfeasiblePropagates(t *testing.T) {
	assert := require.New(t)
	rec := solver.NewRecorder()
	e := engine.New(rec)

	rec.FailInstall = solver.ErrInfeasible
	_, err := e.AddConstraint(expr.Var(width), constraint.Eq, expr.Lit(1), constraint.Required)
	assert.True(errors.Is(err, solver.ErrInfeasible))

	// nothing registered: a later constant update must not touch the solver
	assert.Empty(rec.Installed)
}
