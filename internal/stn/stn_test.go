package stn_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
	"github.com/gokando/tempnet/internal/stn"
)

func timepoint(eng *engine.Engine, name string, lb, ub float64) *engine.Variable {
	dt := domain.NewIntType(int(lb), int(ub))
	return eng.CreateVariable(dt, domain.NewIntInterval(int(lb), int(ub), false), name, false, true, nil, 0)
}

// TestTemporalDistanceChain chains two distance constraints from a
// pinned origin and expects tight bounds on both timepoints.
func TestTemporalDistanceChain(t *testing.T) {
	cfg := engine.DefaultConfig()
	eng := engine.New(cfg, zerolog.Nop())
	stn.Install(eng, 5)

	t0 := timepoint(eng, "t0", 0, 0)
	t1 := timepoint(eng, "t1", 0, 1000)
	t2 := timepoint(eng, "t2", 0, 1000)

	delta01 := timepoint(eng, "d01", 5, 10)
	delta12 := timepoint(eng, "d12", 3, 3)

	_, err := eng.CreateConstraint("temporalDistance", []*engine.Variable{t0, t1, delta01})
	require.NoError(t, err)
	_, err = eng.CreateConstraint("temporalDistance", []*engine.Variable{t1, t2, delta12})
	require.NoError(t, err)

	status := eng.Propagate()
	require.Equal(t, engine.Consistent, status)

	lb, ub, _ := t1.Derived().Bounds()
	assert.Equal(t, 5.0, lb)
	assert.Equal(t, 10.0, ub)

	lb, ub, _ = t2.Derived().Bounds()
	assert.Equal(t, 8.0, lb)
	assert.Equal(t, 13.0, ub)
}

func TestPrecedesTightensOrder(t *testing.T) {
	cfg := engine.DefaultConfig()
	eng := engine.New(cfg, zerolog.Nop())
	stn.Install(eng, 5)

	a := timepoint(eng, "a", 0, 100)
	b := timepoint(eng, "b", 0, 100)

	_, err := eng.CreateConstraint("precedes", []*engine.Variable{a, b})
	require.NoError(t, err)

	require.NoError(t, a.Specify(domain.IntValue(40)))
	status := eng.Propagate()
	require.Equal(t, engine.Consistent, status)

	lb, _, _ := b.Derived().Bounds()
	assert.Equal(t, 40.0, lb)
}

func TestNegativeCycleDetected(t *testing.T) {
	cfg := engine.DefaultConfig()
	eng := engine.New(cfg, zerolog.Nop())
	stn.Install(eng, 5)

	a := timepoint(eng, "a", 0, 100)
	b := timepoint(eng, "b", 0, 100)
	d := timepoint(eng, "d", 10, 10)

	// a precedes b, and b is forced at least 10 before a: inconsistent.
	_, err := eng.CreateConstraint("precedes", []*engine.Variable{a, b})
	require.NoError(t, err)
	_, err = eng.CreateConstraint("temporalDistance", []*engine.Variable{b, a, d})
	require.NoError(t, err)
	require.NoError(t, a.Specify(domain.IntValue(0)))

	status := eng.Propagate()
	assert.Equal(t, engine.Inconsistent, status)
}

func TestFallbackWhenTemporalDisabled(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.UseTemporalPropagator = false
	eng := engine.New(cfg, zerolog.Nop())
	assert.Nil(t, stn.Install(eng, 5))

	a := timepoint(eng, "a", 0, 100)
	b := timepoint(eng, "b", 0, 100)
	d := timepoint(eng, "d", 5, 5)

	_, err := eng.CreateConstraint("temporalDistance", []*engine.Variable{a, b, d})
	require.NoError(t, err)

	require.NoError(t, a.Specify(domain.IntValue(10)))
	status := eng.Propagate()
	require.Equal(t, engine.Consistent, status)

	lb, ub, _ := b.Derived().Bounds()
	assert.Equal(t, 15.0, lb)
	assert.Equal(t, 15.0, ub)
}

func TestAdvisorMostRecentAndCanPrecede(t *testing.T) {
	cfg := engine.DefaultConfig()
	eng := engine.New(cfg, zerolog.Nop())
	stn.Install(eng, 5)

	a := timepoint(eng, "a", 0, 100)
	b := timepoint(eng, "b", 0, 100)
	_, err := eng.CreateConstraint("precedes", []*engine.Variable{a, b})
	require.NoError(t, err)
	require.NoError(t, a.Specify(domain.IntValue(30)))
	eng.Propagate()

	adv := stn.NewAdvisor(eng)
	assert.Equal(t, 30.0, adv.MostRecent(b))
	assert.True(t, adv.CanPrecede(a, b))
}
