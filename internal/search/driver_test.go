package search_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokando/tempnet/internal/decision"
	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
	"github.com/gokando/tempnet/internal/plandb"
	"github.com/gokando/tempnet/internal/search"
)

func newSearch(mods ...func(*engine.Config)) (*engine.Engine, *plandb.PlanDatabase, *search.Driver) {
	cfg := engine.DefaultConfig()
	cfg.UseTemporalPropagator = false
	for _, mod := range mods {
		mod(&cfg)
	}
	eng := engine.New(cfg, zerolog.Nop())
	pdb := plandb.New(eng, zerolog.Nop(), nil)
	mgr := decision.NewManager(pdb, nil, zerolog.Nop(), nil)
	return eng, pdb, search.NewDriver(pdb, mgr, zerolog.Nop(), nil)
}

func intVar(eng *engine.Engine, name string, lb, ub int) *engine.Variable {
	dt := domain.NewIntType(lb, ub)
	return eng.CreateVariable(dt, domain.NewIntInterval(lb, ub, false), name, false, true, nil, 0)
}

func TestSolveSimpleCSP(t *testing.T) {
	eng, _, drv := newSearch()
	x := intVar(eng, "x", 1, 2)
	y := intVar(eng, "y", 1, 2)
	_, err := eng.CreateConstraint("neq", []*engine.Variable{x, y})
	require.NoError(t, err)

	require.Equal(t, search.InProgress, drv.InitRun(0))
	drv.CompleteRun()
	require.Equal(t, search.PlanFound, drv.GetStatus())

	assert.True(t, x.Derived().IsSingleton())
	assert.True(t, y.Derived().IsSingleton())
	assert.NotEqual(t, x.Derived().SingletonValue(), y.Derived().SingletonValue())
}

// TestRetractionRecovers drives the S5 shape on a small scale: the
// first choice for x wipes out y, forcing a retraction that succeeds on
// x's second value.
func TestRetractionRecovers(t *testing.T) {
	eng, _, drv := newSearch()
	x := intVar(eng, "x", 1, 2)
	y := intVar(eng, "y", 1, 2)
	_, err := eng.CreateConstraint("leq", []*engine.Variable{y, x})
	require.NoError(t, err)
	_, err = eng.CreateConstraint("neq", []*engine.Variable{x, y})
	require.NoError(t, err)

	drv.InitRun(0)
	drv.CompleteRun()
	require.Equal(t, search.PlanFound, drv.GetStatus())

	// Only x=2, y=1 satisfies y<=x and x!=y.
	assert.Equal(t, domain.IntValue(2), x.Derived().SingletonValue())
	assert.Equal(t, domain.IntValue(1), y.Derived().SingletonValue())
	assert.GreaterOrEqual(t, drv.StepCount(), 2)
}

func TestSearchExhausted(t *testing.T) {
	eng, _, drv := newSearch()
	x := intVar(eng, "x", 1, 2)
	y := intVar(eng, "y", 1, 2)
	z := intVar(eng, "z", 1, 2)
	_, err := eng.CreateConstraint("allDiff", []*engine.Variable{x, y, z})
	require.NoError(t, err)

	drv.InitRun(0)
	drv.CompleteRun()
	assert.Equal(t, search.SearchExhausted, drv.GetStatus())
}

func TestInconsistentInputExhaustsImmediately(t *testing.T) {
	eng, _, drv := newSearch()
	x := intVar(eng, "x", 1, 2)
	y := intVar(eng, "y", 1, 2)
	_, err := eng.CreateConstraint("lt", []*engine.Variable{x, y})
	require.NoError(t, err)
	_, err = eng.CreateConstraint("lt", []*engine.Variable{y, x})
	require.NoError(t, err)

	assert.Equal(t, search.SearchExhausted, drv.InitRun(0))
	assert.Equal(t, 0, drv.StepCount())
}

func TestStepBudgetTimeout(t *testing.T) {
	eng, _, drv := newSearch()
	intVar(eng, "x", 1, 5)
	intVar(eng, "y", 1, 5)

	drv.InitRun(1)
	drv.CompleteRun()
	assert.Equal(t, search.TimeoutReached, drv.GetStatus())
	assert.Equal(t, 1, drv.StepCount())
}

func TestWriteStepSuspends(t *testing.T) {
	eng, _, drv := newSearch()
	intVar(eng, "x", 1, 5)
	intVar(eng, "y", 1, 5)

	drv.InitRun(0)
	last := drv.WriteStep(1)
	assert.Equal(t, 1, last)
	assert.Equal(t, search.InProgress, drv.GetStatus())

	last = drv.WriteNext(1)
	assert.Equal(t, 2, last)

	drv.CompleteRun()
	assert.Equal(t, search.PlanFound, drv.GetStatus())
}

func TestAbortReturnsTimeout(t *testing.T) {
	eng, _, drv := newSearch()
	intVar(eng, "x", 1, 5)
	intVar(eng, "y", 1, 5)

	drv.SetAbort(func() bool { return true })
	drv.InitRun(0)
	drv.CompleteRun()
	assert.Equal(t, search.TimeoutReached, drv.GetStatus())
}

// TestTokenSearch activates and places a token end to end: the driver
// resolves the token's state decision, the placement decision, and the
// timepoint variable decisions.
func TestTokenSearch(t *testing.T) {
	eng, pdb, drv := newSearch()
	line := pdb.CreateObject("Line", "L", nil, true)
	tok := pdb.CreateToken("P", false)
	require.NoError(t, pdb.AddToken(line, tok))

	drv.InitRun(0)
	drv.CompleteRun()
	require.Equal(t, search.PlanFound, drv.GetStatus())

	assert.True(t, tok.IsActive())
	assert.Contains(t, line.Ordered(), tok)
	assert.True(t, tok.Start.Derived().IsSingleton())
	assert.True(t, tok.End.Derived().IsSingleton())
	assert.True(t, tok.Duration.Derived().IsSingleton())
	_ = eng
}

func TestResourceFlawSearch(t *testing.T) {
	eng, pdb, drv := newSearch()
	res := pdb.CreateResource("Battery", 0, 1, nil)

	intType := domain.NewIntType(0, 100)
	ta := eng.CreateVariable(intType, domain.NewIntInterval(0, 10, false), "ta", false, true, nil, 0)
	tb := eng.CreateVariable(intType, domain.NewIntInterval(5, 15, false), "tb", false, true, nil, 0)
	_, err := pdb.AddTransaction(res, ta, -1)
	require.NoError(t, err)
	_, err = pdb.AddTransaction(res, tb, -1)
	require.NoError(t, err)

	drv.InitRun(0)
	drv.CompleteRun()
	require.Equal(t, search.PlanFound, drv.GetStatus())
	assert.Empty(t, pdb.Flaws())
}

func TestRunParallelStrategies(t *testing.T) {
	build := func() *search.Driver {
		eng, _, drv := newSearch()
		x := intVar(eng, "x", 1, 3)
		y := intVar(eng, "y", 1, 3)
		_, err := eng.CreateConstraint("neq", []*engine.Variable{x, y})
		if err != nil {
			t.Fatal(err)
		}
		return drv
	}
	winner, status, err := search.RunParallelStrategies(context.Background(), 0, []func() *search.Driver{build, build})
	require.NoError(t, err)
	assert.Equal(t, search.PlanFound, status)
	require.NotNil(t, winner)
	assert.Equal(t, search.PlanFound, winner.GetStatus())
}
