package engine

import (
	"testing"

	"github.com/casskit/casskit/expr"
	"github.com/stretchr/testify/require"
)

func TestTableSweepReportsNonFatalFailures(t *testing.T) {
	assert := require.New(t)
	tbl := newTable(0)

	b := tbl.declare("b")
	a := tbl.declare("a")

	_, _, err := tbl.set(b, expr.Lit(2))
	assert.NoError(err)
	_, _, err = tbl.set(a, expr.Div(expr.Lit(10), expr.Const(b)))
	assert.NoError(err)
	v, _ := tbl.valueOf(a)
	assert.Equal(5.0, v)

	// b becomes zero; re-resolving a now divides by zero. The set itself
	// succeeds, a keeps its stale value and the failure is reported as a
	// warning, never silently dropped.
	changed, warnings, err := tbl.set(b, expr.Lit(0))
	assert.NoError(err)
	assert.Len(warnings, 1)
	assert.ErrorContains(warnings[0], "division by zero")

	assert.True(changed.Test(uint(b)))
	assert.False(changed.Test(uint(a)), "a's value did not change")
	v, ok := tbl.valueOf(a)
	assert.True(ok)
	assert.Equal(5.0, v)
}

func TestTableChangedSetIsTransitiveClosure(t *testing.T) {
	assert := require.New(t)
	tbl := newTable(4)

	d := tbl.declare("d")
	a := tbl.declare("a")
	b := tbl.declare("b")
	c := tbl.declare("c")

	mustSet := func(id expr.ConstantID, e expr.Expr) {
		_, _, err := tbl.set(id, e)
		assert.NoError(err)
	}
	mustSet(d, expr.Lit(1))
	mustSet(a, expr.Add(expr.Const(d), expr.Lit(1)))
	mustSet(b, expr.Add(expr.Const(d), expr.Lit(2)))
	mustSet(c, expr.Add(expr.Const(a), expr.Const(b)))

	changed, warnings, err := tbl.set(d, expr.Lit(7))
	assert.NoError(err)
	assert.Empty(warnings)
	for _, id := range []expr.ConstantID{d, a, b, c} {
		assert.True(changed.Test(uint(id)), "id %d must be in the changed set", id)
	}

	// a dependent whose value is unchanged prunes its subtree
	mustSet(a, expr.Mul(expr.Const(d), expr.Lit(0))) // a == 0 regardless of d
	changed, _, err = tbl.set(d, expr.Lit(9))
	assert.NoError(err)
	assert.True(changed.Test(uint(d)))
	assert.False(changed.Test(uint(a)))
}

func TestTableRedefinitionRepointsDependentIndex(t *testing.T) {
	assert := require.New(t)
	tbl := newTable(0)

	x := tbl.declare("x")
	y := tbl.declare("y")
	z := tbl.declare("z")

	_, _, err := tbl.set(x, expr.Lit(1))
	assert.NoError(err)
	_, _, err = tbl.set(y, expr.Lit(2))
	assert.NoError(err)
	_, _, err = tbl.set(z, expr.Const(x))
	assert.NoError(err)

	// re-point z from x to y; an x update must no longer reach z
	_, _, err = tbl.set(z, expr.Const(y))
	assert.NoError(err)

	changed, _, err := tbl.set(x, expr.Lit(5))
	assert.NoError(err)
	assert.False(changed.Test(uint(z)))

	changed, _, err = tbl.set(y, expr.Lit(6))
	assert.NoError(err)
	assert.True(changed.Test(uint(z)))
	v, _ := tbl.valueOf(z)
	assert.Equal(6.0, v)
}
