package plandb_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
	"github.com/gokando/tempnet/internal/plandb"
	"github.com/gokando/tempnet/internal/txlog"
)

// newTestDB runs with the temporal propagator disabled: these tests
// exercise object/token/resource mechanics, not the distance graph
// (covered separately by internal/stn), so the simpler fallback bound
// propagation for precedes/temporalDistance is sufficient and avoids an
// unrelated stn.Install call in every test.
func newTestDB() (*engine.Engine, *plandb.PlanDatabase) {
	cfg := engine.DefaultConfig()
	cfg.UseTemporalPropagator = false
	eng := engine.New(cfg, zerolog.Nop())
	return eng, plandb.New(eng, zerolog.Nop(), nil)
}

func TestCreateObjectAndConstrain(t *testing.T) {
	eng, pdb := newTestDB()
	line := pdb.CreateObject("Line", "L", nil, true)
	require.True(t, line.IsTimeline())

	a := pdb.CreateToken("P", false)
	b := pdb.CreateToken("P", false)
	require.NoError(t, pdb.AddToken(line, a))
	require.NoError(t, pdb.AddToken(line, b))

	require.NoError(t, pdb.Activate(a))
	require.NoError(t, pdb.Activate(b))
	_, err := pdb.Constrain(line, a, b)
	require.NoError(t, err)

	assert.Equal(t, eng.Propagate(), engine.Consistent)
	assert.Equal(t, []*plandb.Token{a, b}, line.Ordered())
}

// TestTokenMerge merges an inactive token onto a compatible active one
// and expects their variables equated.
func TestTokenMerge(t *testing.T) {
	eng, pdb := newTestDB()
	line := pdb.CreateObject("Line", "L", nil, true)

	a := pdb.CreateToken("P", false)
	require.NoError(t, pdb.AddToken(line, a))
	require.NoError(t, a.Start.Specify(domain.IntValue(0)))
	require.NoError(t, a.End.Specify(domain.IntValue(10)))
	require.NoError(t, pdb.Activate(a))
	require.Equal(t, eng.Propagate(), engine.Consistent)

	tok := pdb.CreateToken("P", false)
	require.NoError(t, pdb.AddToken(line, tok))
	assert.False(t, tok.State.Derived().IsSingleton())

	require.True(t, pdb.Compatible(a, tok))
	require.NoError(t, pdb.Merge(tok, a))
	require.Equal(t, eng.Propagate(), engine.Consistent)

	assert.True(t, tok.State.Derived().IsSingleton())
	assert.Equal(t, domain.SymbolValue(plandb.StateMerged), tok.State.Derived().SingletonValue())

	slb, sub, _ := tok.Start.Derived().Bounds()
	alb, aub, _ := a.Start.Derived().Bounds()
	assert.Equal(t, alb, slb)
	assert.Equal(t, aub, sub)
}

func TestMergeCancelRestoresBaseDomain(t *testing.T) {
	eng, pdb := newTestDB()
	line := pdb.CreateObject("Line", "L", nil, true)

	a := pdb.CreateToken("P", false)
	require.NoError(t, pdb.AddToken(line, a))
	require.NoError(t, pdb.Activate(a))
	require.Equal(t, eng.Propagate(), engine.Consistent)

	tok := pdb.CreateToken("P", false)
	require.NoError(t, pdb.AddToken(line, tok))
	require.NoError(t, pdb.Merge(tok, a))
	require.Equal(t, eng.Propagate(), engine.Consistent)

	require.NoError(t, pdb.Cancel(tok))
	assert.False(t, tok.State.Derived().IsSingleton())
}

func TestMergeRequiresActiveTarget(t *testing.T) {
	eng, pdb := newTestDB()
	line := pdb.CreateObject("Line", "L", nil, true)

	a := pdb.CreateToken("P", false)
	require.NoError(t, pdb.AddToken(line, a))

	tok := pdb.CreateToken("P", false)
	require.NoError(t, pdb.AddToken(line, tok))

	// a is still INACTIVE/ACTIVE non-singleton: not a legal merge target.
	assert.Error(t, pdb.Merge(tok, a))

	require.NoError(t, pdb.Activate(a))
	require.Equal(t, eng.Propagate(), engine.Consistent)
	assert.NoError(t, pdb.Merge(tok, a))
}

func TestRejectRequiresRejectable(t *testing.T) {
	_, pdb := newTestDB()
	tok := pdb.CreateToken("P", false)
	assert.Error(t, pdb.Reject(tok))

	rej := pdb.CreateToken("Q", true)
	assert.NoError(t, pdb.Reject(rej))
}

// TestResourceFlaw overlaps two unit consumers on a unary resource and
// expects one flaw, resolvable by ordering.
func TestResourceFlaw(t *testing.T) {
	eng, pdb := newTestDB()
	res := pdb.CreateResource("Battery", 0, 1, nil)

	intType := domain.NewIntType(0, 100)
	ta := eng.CreateVariable(intType, domain.NewIntInterval(0, 10, false), "ta", false, true, nil, 0)
	tb := eng.CreateVariable(intType, domain.NewIntInterval(5, 15, false), "tb", false, true, nil, 0)

	txA, err := pdb.AddTransaction(res, ta, -1)
	require.NoError(t, err)
	txB, err := pdb.AddTransaction(res, tb, -1)
	require.NoError(t, err)

	flaws := pdb.Flaws()
	require.Len(t, flaws, 1)
	assert.Equal(t, res, flaws[0].Resource)

	_, err = pdb.ResolveFlaw(flaws[0], false)
	require.NoError(t, err)
	assert.Equal(t, eng.Propagate(), engine.Consistent)
	assert.Empty(t, pdb.Flaws())
	_ = txA
	_ = txB
}

func TestReplayReconstructsDatabase(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.UseTemporalPropagator = false
	tlog := txlog.New(nil)
	eng := engine.New(cfg, zerolog.Nop())
	pdb := plandb.New(eng, zerolog.Nop(), tlog)

	line := pdb.CreateObject("Line", "L", nil, true)
	a := pdb.CreateToken("P", false)
	b := pdb.CreateToken("P", false)
	require.NoError(t, pdb.AddToken(line, a))
	require.NoError(t, pdb.AddToken(line, b))
	require.NoError(t, pdb.Activate(a))
	require.NoError(t, pdb.Activate(b))
	_, err := pdb.Constrain(line, a, b)
	require.NoError(t, err)

	eng2 := engine.New(cfg, zerolog.Nop())
	pdb2 := plandb.New(eng2, zerolog.Nop(), nil)
	require.NoError(t, plandb.Replay(tlog, pdb2))

	require.Len(t, pdb2.Objects(), 1)
	require.Len(t, pdb2.Tokens(), 2)
	line2 := pdb2.Objects()[0]
	assert.True(t, line2.IsTimeline())
	assert.Equal(t, "L", line2.Name())
	assert.Len(t, line2.Ordered(), 2)
	for _, tok := range pdb2.Tokens() {
		assert.Equal(t, "P", tok.Predicate())
		assert.True(t, tok.IsActive())
	}
}

func TestNotTimelineConstrainFails(t *testing.T) {
	_, pdb := newTestDB()
	plain := pdb.CreateObject("Widget", "W", nil, false)
	a := pdb.CreateToken("P", false)
	b := pdb.CreateToken("P", false)
	_, err := pdb.Constrain(plain, a, b)
	assert.Error(t, err)
}
