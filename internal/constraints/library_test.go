package constraints_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/gokando/tempnet/internal/constraints"
	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
)

func newTestEngine() *engine.Engine {
	return engine.New(engine.DefaultConfig(), zerolog.Nop())
}

func intVar(eng *engine.Engine, name string, lb, ub int) *engine.Variable {
	dt := domain.NewIntType(lb, ub)
	return eng.CreateVariable(dt, domain.NewIntInterval(lb, ub, false), name, false, true, nil, 0)
}

// TestAdditionTriangle pins two corners of x+y=z and expects the third
// to be derived.
func TestAdditionTriangle(t *testing.T) {
	eng := newTestEngine()
	x := intVar(eng, "x", 0, 10)
	y := intVar(eng, "y", 0, 10)
	z := intVar(eng, "z", 0, 10)

	_, err := eng.CreateConstraint("addEq", []*engine.Variable{x, y, z})
	require.NoError(t, err)

	require.NoError(t, x.Specify(domain.IntValue(3)))
	require.NoError(t, z.Specify(domain.IntValue(5)))

	status := eng.Propagate()
	assert.Equal(t, engine.Consistent, status)
	assert.True(t, y.Derived().IsSingleton())
	assert.Equal(t, domain.IntValue(2), y.Derived().SingletonValue())
}

// TestEqualityClass restricts one member of a chained equality class
// and expects the restriction to reach every member.
func TestEqualityClass(t *testing.T) {
	eng := newTestEngine()
	a := intVar(eng, "a", 0, 5)
	b := intVar(eng, "b", 0, 5)
	c := intVar(eng, "c", 0, 5)

	_, err := eng.CreateConstraint("eq", []*engine.Variable{a, b})
	require.NoError(t, err)
	_, err = eng.CreateConstraint("eq", []*engine.Variable{b, c})
	require.NoError(t, err)

	a.Derived().IntersectBounds(2, 3)
	status := eng.Propagate()
	require.Equal(t, engine.Consistent, status)

	for _, v := range []*engine.Variable{a, b, c} {
		lb, ub, _ := v.Derived().Bounds()
		assert.Equal(t, 2.0, lb, "var %s", v.Name())
		assert.Equal(t, 3.0, ub, "var %s", v.Name())
	}
}

func TestNeqRemovesSingletonFromOther(t *testing.T) {
	eng := newTestEngine()
	x := intVar(eng, "x", 0, 3)
	y := intVar(eng, "y", 0, 3)
	_, err := eng.CreateConstraint("neq", []*engine.Variable{x, y})
	require.NoError(t, err)

	require.NoError(t, x.Specify(domain.IntValue(0)))
	status := eng.Propagate()
	require.Equal(t, engine.Consistent, status)
	assert.False(t, y.Derived().Contains(domain.IntValue(0)))
}

func TestAllDiffRemovesBoundSingletons(t *testing.T) {
	eng := newTestEngine()
	a := intVar(eng, "a", 1, 3)
	b := intVar(eng, "b", 1, 3)
	c := intVar(eng, "c", 1, 3)
	_, err := eng.CreateConstraint("allDiff", []*engine.Variable{a, b, c})
	require.NoError(t, err)

	require.NoError(t, a.Specify(domain.IntValue(1)))
	require.NoError(t, b.Specify(domain.IntValue(2)))
	status := eng.Propagate()
	require.Equal(t, engine.Consistent, status)
	assert.True(t, c.Derived().IsSingleton())
	assert.Equal(t, domain.IntValue(3), c.Derived().SingletonValue())
}

func TestAllDiffDetectsCollision(t *testing.T) {
	eng := newTestEngine()
	a := intVar(eng, "a", 1, 3)
	b := intVar(eng, "b", 1, 3)
	_, err := eng.CreateConstraint("allDiff", []*engine.Variable{a, b})
	require.NoError(t, err)

	require.NoError(t, a.Specify(domain.IntValue(2)))
	require.NoError(t, b.Specify(domain.IntValue(2)))
	status := eng.Propagate()
	assert.Equal(t, engine.Inconsistent, status)
}

func TestEqSumDecomposition(t *testing.T) {
	eng := newTestEngine()
	a := intVar(eng, "a", 0, 10)
	b := intVar(eng, "b", 0, 10)
	c := intVar(eng, "c", 0, 10)
	total := intVar(eng, "total", 0, 30)

	_, err := eng.CreateConstraint("eqSum", []*engine.Variable{a, b, c, total})
	require.NoError(t, err)

	require.NoError(t, a.Specify(domain.IntValue(1)))
	require.NoError(t, b.Specify(domain.IntValue(2)))
	require.NoError(t, c.Specify(domain.IntValue(3)))
	status := eng.Propagate()
	require.Equal(t, engine.Consistent, status)
	assert.True(t, total.Derived().IsSingleton())
	assert.Equal(t, domain.IntValue(6), total.Derived().SingletonValue())
}

func TestTestLEQReifiesTruth(t *testing.T) {
	eng := newTestEngine()
	boolDT := domain.NewBoolType()
	r := eng.CreateVariable(boolDT, domain.NewIntInterval(0, 1, false), "r", false, true, nil, 0)
	b := intVar(eng, "b", 0, 5)
	c := intVar(eng, "c", 0, 5)

	_, err := eng.CreateConstraint("testLEQ", []*engine.Variable{r, b, c})
	require.NoError(t, err)

	require.NoError(t, b.Specify(domain.IntValue(1)))
	require.NoError(t, c.Specify(domain.IntValue(4)))
	status := eng.Propagate()
	require.Equal(t, engine.Consistent, status)
	assert.True(t, r.Derived().IsSingleton())
	assert.Equal(t, domain.IntValue(1), r.Derived().SingletonValue())
}
