package engine_test

import (
	"bytes"
	"testing"

	"github.com/casskit/casskit/engine"
	"github.com/casskit/casskit/expr"
	"github.com/casskit/casskit/solver"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	assert := require.New(t)
	e := engine.New(solver.NewRecorder())

	base := e.DeclareConstant("base")
	derived := e.DeclareConstant("derived")
	unset := e.DeclareConstant("unset")
	_ = unset

	assert.NoError(e.SetConstantValue(base, 3))
	assert.NoError(e.SetConstant(derived, expr.Mul(expr.Const(base), expr.Lit(4))))

	var buf bytes.Buffer
	n, err := e.WriteTo(&buf)
	assert.NoError(err)
	assert.Equal(int64(buf.Len()), n)

	restored := engine.New(solver.NewRecorder())
	m, err := restored.ReadFrom(&buf)
	assert.NoError(err)
	assert.Equal(n, m)

	v, ok := restored.ValueOf(base)
	assert.True(ok)
	assert.Equal(3.0, v)
	v, ok = restored.ValueOf(derived)
	assert.True(ok)
	assert.Equal(12.0, v)
	_, ok = restored.ValueOf(unset)
	assert.False(ok)

	// the dependent index must have been rebuilt: updating base flows to
	// derived in the restored engine
	assert.NoError(restored.SetConstantValue(base, 5))
	v, _ = restored.ValueOf(derived)
	assert.Equal(20.0, v)
}

func TestSnapshotRefusesLiveConstraints(t *testing.T) {
	assert := require.New(t)
	e := engine.New(solver.NewRecorder())
	assert.NoError(e.SetConstantValue(e.DeclareConstant("c"), 1))

	var buf bytes.Buffer
	_, err := e.WriteTo(&buf)
	assert.NoError(err)

	target := engine.New(solver.NewRecorder())
	_, err = target.AddConstraint(expr.Var(0), 0, expr.Lit(1), 1e9)
	assert.NoError(err)

	_, err = target.ReadFrom(&buf)
	assert.Error(err)
}

func TestSnapshotRejectsGarbage(t *testing.T) {
	assert := require.New(t)
	e := engine.New(solver.NewRecorder())

	_, err := e.ReadFrom(bytes.NewReader([]byte("not a snapshot")))
	assert.Error(err)
}
