package decision_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokando/tempnet/internal/decision"
	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
	"github.com/gokando/tempnet/internal/plandb"
)

func newTestManager(mods ...func(*engine.Config)) (*engine.Engine, *plandb.PlanDatabase, *decision.Manager) {
	cfg := engine.DefaultConfig()
	cfg.UseTemporalPropagator = false
	for _, mod := range mods {
		mod(&cfg)
	}
	eng := engine.New(cfg, zerolog.Nop())
	pdb := plandb.New(eng, zerolog.Nop(), nil)
	return eng, pdb, decision.NewManager(pdb, nil, zerolog.Nop(), nil)
}

func intVar(eng *engine.Engine, name string, lb, ub int) *engine.Variable {
	dt := domain.NewIntType(lb, ub)
	return eng.CreateVariable(dt, domain.NewIntInterval(lb, ub, false), name, false, true, nil, 0)
}

func pointsOfKind(m *decision.Manager, k decision.Kind) []*decision.Point {
	var out []*decision.Point
	for _, p := range m.Open() {
		if p.Kind() == k {
			out = append(out, p)
		}
	}
	return out
}

func TestVariableDecisionDiscoveryAndResolution(t *testing.T) {
	eng, _, mgr := newTestManager()
	x := intVar(eng, "x", 1, 3)

	mgr.Recompute()
	pts := pointsOfKind(mgr, decision.KindNonUnitVariable)
	require.Len(t, pts, 1)
	require.Equal(t, x, pts[0].Variable())

	choices := pts[0].Choices()
	require.Len(t, choices, 3)
	assert.Equal(t, domain.IntValue(1), choices[0].Value)
	assert.Equal(t, domain.IntValue(3), choices[2].Value)

	require.NoError(t, x.Specify(domain.IntValue(2)))
	require.Equal(t, engine.Consistent, eng.Propagate())
	mgr.Recompute()
	assert.Empty(t, pointsOfKind(mgr, decision.KindNonUnitVariable))
}

func TestHeuristicValueOrderDescending(t *testing.T) {
	eng, _, mgr := newTestManager()
	intVar(eng, "x", 1, 3)
	mgr.Heuristics().Set(decision.Ident{Predicate: "x"}, decision.Entry{ValueOrder: decision.OrderDescending})

	mgr.Recompute()
	pts := pointsOfKind(mgr, decision.KindNonUnitVariable)
	require.Len(t, pts, 1)
	choices := pts[0].Choices()
	require.Len(t, choices, 3)
	assert.Equal(t, domain.IntValue(3), choices[0].Value)
	assert.Equal(t, domain.IntValue(1), choices[2].Value)
}

func TestPriorityPreference(t *testing.T) {
	eng, _, mgr := newTestManager()
	intVar(eng, "low", 1, 2)
	intVar(eng, "high", 1, 2)
	mgr.Heuristics().Set(decision.Ident{Predicate: "low"}, decision.Entry{Priority: 1})
	mgr.Heuristics().Set(decision.Ident{Predicate: "high"}, decision.Entry{Priority: 5})

	mgr.Recompute()
	best := mgr.NextDecision()
	require.NotNil(t, best)
	assert.Equal(t, "high", best.Variable().Name())

	// Same plan under LOW preference picks the other end.
	eng2, _, mgr2 := newTestManager(func(c *engine.Config) { c.PriorityPreference = "LOW" })
	intVar(eng2, "low", 1, 2)
	intVar(eng2, "high", 1, 2)
	mgr2.Heuristics().Set(decision.Ident{Predicate: "low"}, decision.Entry{Priority: 1})
	mgr2.Heuristics().Set(decision.Ident{Predicate: "high"}, decision.Entry{Priority: 5})
	mgr2.Recompute()
	best2 := mgr2.NextDecision()
	require.NotNil(t, best2)
	assert.Equal(t, "low", best2.Variable().Name())
}

func TestTokenChoicesMergeBeforeActivate(t *testing.T) {
	eng, pdb, mgr := newTestManager()
	line := pdb.CreateObject("Line", "L", nil, true)

	a := pdb.CreateToken("P", false)
	require.NoError(t, pdb.AddToken(line, a))
	require.NoError(t, pdb.Activate(a))
	require.Equal(t, engine.Consistent, eng.Propagate())

	tok := pdb.CreateToken("P", true)
	require.NoError(t, pdb.AddToken(line, tok))

	mgr.Recompute()
	pts := pointsOfKind(mgr, decision.KindNonUnitToken)
	require.Len(t, pts, 1)
	require.Equal(t, tok, pts[0].Token())

	choices := pts[0].Choices()
	require.Len(t, choices, 3)
	assert.Equal(t, plandb.StateMerged, choices[0].State)
	assert.Equal(t, a, choices[0].MergeTarget)
	assert.Equal(t, plandb.StateActive, choices[1].State)
	assert.Equal(t, plandb.StateRejected, choices[2].State)
}

func TestObjectPlacementChoices(t *testing.T) {
	eng, pdb, mgr := newTestManager()
	line := pdb.CreateObject("Line", "L", nil, true)

	placedTok := pdb.CreateToken("P", false)
	require.NoError(t, pdb.AddToken(line, placedTok))
	require.NoError(t, pdb.Activate(placedTok))
	_, err := pdb.Place(line, placedTok, nil, nil)
	require.NoError(t, err)

	tok := pdb.CreateToken("P", false)
	require.NoError(t, pdb.AddToken(line, tok))
	require.NoError(t, pdb.Activate(tok))
	require.Equal(t, engine.Consistent, eng.Propagate())

	mgr.Recompute()
	pts := pointsOfKind(mgr, decision.KindObject)
	require.Len(t, pts, 1)
	require.Equal(t, tok, pts[0].Token())

	// Both windows are wide open: before and after the placed token.
	choices := pts[0].Choices()
	require.Len(t, choices, 2)
	assert.Nil(t, choices[0].Pred)
	assert.Equal(t, placedTok, choices[0].Succ)
	assert.Equal(t, placedTok, choices[1].Pred)
	assert.Nil(t, choices[1].Succ)
}

func TestResourceFlawDecision(t *testing.T) {
	eng, pdb, mgr := newTestManager()
	res := pdb.CreateResource("Battery", 0, 1, nil)

	intType := domain.NewIntType(0, 100)
	ta := eng.CreateVariable(intType, domain.NewIntInterval(0, 10, false), "ta", false, true, nil, 0)
	tb := eng.CreateVariable(intType, domain.NewIntInterval(5, 15, false), "tb", false, true, nil, 0)
	_, err := pdb.AddTransaction(res, ta, -1)
	require.NoError(t, err)
	_, err = pdb.AddTransaction(res, tb, -1)
	require.NoError(t, err)

	mgr.Recompute()
	pts := pointsOfKind(mgr, decision.KindResourceFlaw)
	require.Len(t, pts, 1)
	choices := pts[0].Choices()
	require.Len(t, choices, 2)
	assert.False(t, choices[0].Reversed)
	assert.True(t, choices[1].Reversed)
}

func TestExhaustedAfterAllChoicesTaken(t *testing.T) {
	eng, _, mgr := newTestManager()
	intVar(eng, "x", 1, 2)

	mgr.Recompute()
	p := mgr.NextDecision()
	require.NotNil(t, p)
	require.NotNil(t, mgr.NextChoice(p))
	require.NotNil(t, mgr.NextChoice(p))
	assert.Nil(t, mgr.NextChoice(p))
	assert.True(t, p.Exhausted())
}
