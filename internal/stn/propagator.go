package stn

import (
	"fmt"

	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
)

// Propagator is the temporal propagator: it owns
// the distance graph and, on each queued edge constraint's turn, posts
// that constraint's edges and re-runs shortest paths over the whole
// graph, tightening every timepoint's derived domain. The agenda
// bookkeeping (insertion order, re-entry guard) is inherited from
// engine.DefaultPropagator rather than inventing a second queue
// discipline.
type Propagator struct {
	*engine.DefaultPropagator
	g *graph

	posted     map[engine.Key]*edgeConstraint
	cycleStamp int
}

// NewPropagator constructs an empty temporal propagator at the given
// priority. Priority 5 is conventional (between the equality propagator
// at 0 and the default bound propagator at 10), so temporal distance
// tightening settles before general bound constraints re-check it.
func NewPropagator(priority int) *Propagator {
	return &Propagator{DefaultPropagator: engine.NewDefaultPropagator("temporal", priority), g: newGraph(), posted: make(map[engine.Key]*edgeConstraint)}
}

// Install registers a temporal propagator on eng when
// Config.UseTemporalPropagator is set, and returns it. Returns nil
// (without registering anything) when temporal propagation is disabled,
// in which case the temporal constraint factories fall back to plain
// bound propagation on the default propagator (see fallback.go).
func Install(eng *engine.Engine, priority int) *Propagator {
	if !eng.Config.UseTemporalPropagator {
		return nil
	}
	tp := NewPropagator(priority)
	eng.RegisterPropagator(tp)
	return tp
}

func (tp *Propagator) post(c *edgeConstraint) {
	tp.posted[c.Key()] = c
	switch c.kind {
	case "concurrent":
		aLB, aUB := boundsOf(c.a)
		bLB, bUB := boundsOf(c.b)
		tp.g.ensureNode(c.a.Key(), aLB, aUB)
		tp.g.ensureNode(c.b.Key(), bLB, bUB)
		tp.g.addEdge(c.a.Key(), c.b.Key(), 0)
		tp.g.addEdge(c.b.Key(), c.a.Key(), 0)
	case "precedes":
		aLB, aUB := boundsOf(c.a)
		bLB, bUB := boundsOf(c.b)
		tp.g.ensureNode(c.a.Key(), aLB, aUB)
		tp.g.ensureNode(c.b.Key(), bLB, bUB)
		// a<=b, i.e. a-b<=0: edge b->a weight 0 (v-u<=w with u=b,v=a).
		tp.g.addEdge(c.b.Key(), c.a.Key(), 0)
	case "strictlyPrecedes":
		aLB, aUB := boundsOf(c.a)
		bLB, bUB := boundsOf(c.b)
		tp.g.ensureNode(c.a.Key(), aLB, aUB)
		tp.g.ensureNode(c.b.Key(), bLB, bUB)
		// a<b, i.e. a-b<=-minDelta: edge b->a weight -minDelta.
		tp.g.addEdge(c.b.Key(), c.a.Key(), -c.minDelta)
	case "temporalDistance":
		aLB, aUB := boundsOf(c.a)
		bLB, bUB := boundsOf(c.b)
		tp.g.ensureNode(c.a.Key(), aLB, aUB)
		tp.g.ensureNode(c.b.Key(), bLB, bUB)
		dlb, dub, _ := c.delta.Derived().Bounds()
		// b-a<=δ.ub (edge a->b weight δ.ub); a-b<=-δ.lb (edge b->a
		// weight -δ.lb)
		tp.g.addEdge(c.a.Key(), c.b.Key(), dub)
		tp.g.addEdge(c.b.Key(), c.a.Key(), -dlb)
	}
}

// recompute re-runs shortest paths over the whole graph and tightens
// every known timepoint's derived domain to the resulting bounds. A
// negative cycle signals temporal inconsistency: the offending
// constraint's first scope variable is emptied so the engine's normal
// inconsistency channel picks it up ("emit
// EMPTIED on a variable participating in the cycle and halt").
func (tp *Propagator) recompute(eng *engine.Engine, onCycle *engine.Variable) error {
	tp.cycleStamp++
	if o := eng.Observer(); o != nil {
		o.ShortestPathRun()
	}
	lb, ub, negCycle := tp.g.all()
	if negCycle {
		if onCycle != nil {
			forceEmptyVar(onCycle)
		}
		return nil
	}
	for key := range tp.g.nodes {
		if key == origin {
			continue
		}
		v, ok := eng.Variable(key)
		if !ok {
			continue
		}
		v.Derived().IntersectBounds(lb[key], ub[key])
	}
	return nil
}

func boundsOf(v *engine.Variable) (float64, float64) {
	lb, ub, _ := v.Derived().Bounds()
	return lb, ub
}

func forceEmptyVar(v *engine.Variable) {
	if id, ok := v.Derived().(*domain.IntervalDomain); ok {
		id.IntersectBounds(1, 0)
		return
	}
	for _, val := range v.Derived().Values() {
		v.Derived().Remove(val)
	}
}

// edgeConstraint is the Constraint posted by concurrent/precedes/
// strictlyPrecedes/temporalDistance when the temporal propagator is
// active: it has no standalone filtering logic of its own, it exists
// only to carry its edge description into the shared graph on its
// propagator turn.
type edgeConstraint struct {
	engine.BaseConstraint
	kind     string
	a, b     *engine.Variable
	delta    *engine.Variable // temporalDistance only
	minDelta float64          // strictlyPrecedes only
}

func (c *edgeConstraint) CanIgnore(argIndex int, e domain.Event) bool {
	// Any bound restriction on a, b, or delta can tighten an edge weight
	// (delta) or an origin-anchored seed edge (a, b), so every
	// restriction event re-triggers a post-and-recompute pass.
	return engine.CanIgnoreDefault(e)
}

// rebuild reconstructs the distance graph from every still-live posted
// edge constraint, re-seeding node edges from the variables' current
// derived bounds. Used when an edge constraint is discarded: edges are
// shared and tightened in place, so removal is rebuild-from-survivors
// rather than per-edge subtraction.
func (tp *Propagator) rebuild() {
	tp.g = newGraph()
	survivors := tp.posted
	tp.posted = make(map[engine.Key]*edgeConstraint, len(survivors))
	for _, c := range survivors {
		if c.Active() && !c.Discarded() {
			tp.post(c)
		}
	}
	tp.cycleStamp++
}

// OnDiscard is invoked by Engine.DiscardConstraint: the constraint's
// edges must leave the graph so a retracted ordering decision stops
// tightening timepoints it no longer governs.
func (c *edgeConstraint) OnDiscard(eng *engine.Engine) {
	p, ok := eng.Propagator("temporal")
	if !ok {
		return
	}
	tp, ok := p.(*Propagator)
	if !ok {
		return
	}
	if _, present := tp.posted[c.Key()]; !present {
		return
	}
	delete(tp.posted, c.Key())
	tp.rebuild()
}

func (c *edgeConstraint) Execute(eng *engine.Engine) error {
	p, ok := eng.Propagator("temporal")
	if !ok {
		return fmt.Errorf("%w: temporal propagator not installed; call stn.Install before posting %s", engine.ErrConstructionError, c.kind)
	}
	tp, ok := p.(*Propagator)
	if !ok {
		return fmt.Errorf("%w: propagator registered under name %q is not *stn.Propagator", engine.ErrConstructionError, "temporal")
	}
	tp.post(c)
	return tp.recompute(eng, c.a)
}

func init() {
	engine.RegisterConstraintFactory("concurrent", newTemporalFactory("concurrent"))
	engine.RegisterConstraintFactory("precedes", newTemporalFactory("precedes"))
	engine.RegisterConstraintFactory("strictlyPrecedes", newTemporalFactory("strictlyPrecedes"))
	engine.RegisterConstraintFactory("temporalDistance", newTemporalDistanceFactory())
}

func newTemporalFactory(kind string) engine.Factory {
	return func(eng *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
		if len(scope) != 2 {
			return nil, fmt.Errorf("%s requires exactly 2 arguments, got %d", kind, len(scope))
		}
		if !eng.Config.UseTemporalPropagator {
			return newFallbackEdge(key, kind, scope[0], scope[1], nil)
		}
		minDelta := scope[0].DataType().MinDelta()
		c := &edgeConstraint{BaseConstraint: engine.NewBaseConstraint(key, kind, scope, "temporal"), kind: kind, a: scope[0], b: scope[1], minDelta: minDelta}
		return c, nil
	}
}

func newTemporalDistanceFactory() engine.Factory {
	return func(eng *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
		if len(scope) != 3 {
			return nil, fmt.Errorf("temporalDistance requires exactly 3 arguments (a, b, delta), got %d", len(scope))
		}
		if !eng.Config.UseTemporalPropagator {
			return newFallbackEdge(key, "temporalDistance", scope[0], scope[1], scope[2])
		}
		c := &edgeConstraint{BaseConstraint: engine.NewBaseConstraint(key, "temporalDistance", scope, "temporal"), kind: "temporalDistance", a: scope[0], b: scope[1], delta: scope[2]}
		return c, nil
	}
}
