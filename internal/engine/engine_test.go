package engine_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/gokando/tempnet/internal/constraints"
	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
)

func newTestEngine(mods ...func(*engine.Config)) *engine.Engine {
	cfg := engine.DefaultConfig()
	cfg.UseTemporalPropagator = false
	for _, mod := range mods {
		mod(&cfg)
	}
	return engine.New(cfg, zerolog.Nop())
}

func intVar(eng *engine.Engine, name string, lb, ub int) *engine.Variable {
	dt := domain.NewIntType(lb, ub)
	return eng.CreateVariable(dt, domain.NewIntInterval(lb, ub, false), name, false, true, nil, 0)
}

// TestSnapshotRestoreFidelity covers the undo-fidelity property: a
// commit (specify + propagate) followed by a snapshot restore yields
// the pre-commit observable state.
func TestSnapshotRestoreFidelity(t *testing.T) {
	eng := newTestEngine()
	x := intVar(eng, "x", 0, 10)
	y := intVar(eng, "y", 0, 10)
	_, err := eng.CreateConstraint("leq", []*engine.Variable{x, y})
	require.NoError(t, err)
	require.Equal(t, engine.Consistent, eng.Propagate())

	snap := eng.TakeSnapshot()

	require.NoError(t, y.Specify(domain.IntValue(3)))
	require.Equal(t, engine.Consistent, eng.Propagate())
	_, xub, _ := x.Derived().Bounds()
	require.Equal(t, 3.0, xub)

	eng.RestoreSnapshot(snap)
	xlb, xub, _ := x.Derived().Bounds()
	assert.Equal(t, 0.0, xlb)
	assert.Equal(t, 10.0, xub)
	ylb, yub, _ := y.Specified().Bounds()
	assert.Equal(t, 0.0, ylb)
	assert.Equal(t, 10.0, yub)

	// The restored derived domain must still route events: a fresh
	// specify propagates as before.
	require.NoError(t, y.Specify(domain.IntValue(4)))
	require.Equal(t, engine.Consistent, eng.Propagate())
	_, xub, _ = x.Derived().Bounds()
	assert.Equal(t, 4.0, xub)
}

func TestViolationToleranceKeepsPropagating(t *testing.T) {
	eng := newTestEngine(func(c *engine.Config) { c.AllowViolations = true })
	x := intVar(eng, "x", 0, 5)
	y := intVar(eng, "y", 10, 20)
	z := intVar(eng, "z", 0, 100)
	_, err := eng.CreateConstraint("eq", []*engine.Variable{x, y})
	require.NoError(t, err)
	_, err = eng.CreateConstraint("leq", []*engine.Variable{z, z})
	require.NoError(t, err)

	// x and y cannot agree; with violations allowed the cycle still
	// finishes and records the emptying instead of halting.
	status := eng.Propagate()
	assert.Equal(t, engine.Consistent, status)
	assert.NotEmpty(t, eng.Violations())
	assert.True(t, eng.CanContinuePropagation())
}

func TestStrictModeHaltsOnEmpty(t *testing.T) {
	eng := newTestEngine()
	x := intVar(eng, "x", 0, 5)
	y := intVar(eng, "y", 10, 20)
	_, err := eng.CreateConstraint("eq", []*engine.Variable{x, y})
	require.NoError(t, err)

	assert.Equal(t, engine.Inconsistent, eng.Propagate())
	assert.True(t, eng.IsInconsistent())
	assert.False(t, eng.CanContinuePropagation())

	eng.Relax()
	assert.False(t, eng.IsInconsistent())
}

func TestDiscardConstraintStopsPropagation(t *testing.T) {
	eng := newTestEngine()
	x := intVar(eng, "x", 0, 10)
	y := intVar(eng, "y", 0, 10)
	c, err := eng.CreateConstraint("leq", []*engine.Variable{x, y})
	require.NoError(t, err)
	require.Equal(t, engine.Consistent, eng.Propagate())

	eng.DiscardConstraint(c)
	_, ok := eng.Constraint(c.Key())
	assert.False(t, ok)
	assert.False(t, eng.Registry.IsAlive(c.Key()))

	// y tightening no longer reaches x.
	require.NoError(t, y.Specify(domain.IntValue(2)))
	require.Equal(t, engine.Consistent, eng.Propagate())
	_, xub, _ := x.Derived().Bounds()
	assert.Equal(t, 10.0, xub)
}

func TestStaleKeyLookupFailsCleanly(t *testing.T) {
	eng := newTestEngine()
	v := intVar(eng, "v", 0, 1)
	require.True(t, eng.Registry.IsAlive(v.Key()))
	eng.Registry.Destroy(v.Key())
	assert.False(t, eng.Registry.IsAlive(v.Key()))
	_, ok := eng.Registry.Lookup(v.Key())
	assert.False(t, ok)
}
