package stn

import (
	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
)

// fallbackEdge implements the Fallback clause: with
// temporal propagation disabled by configuration, concurrent/precedes/
// strictlyPrecedes/temporalDistance degrade to plain bound-consistent
// propagation on the pair (and, for temporalDistance, the distance
// variable) with no distance graph involved, attached to the engine's
// always-present default propagator rather than the temporal one.
type fallbackEdge struct {
	engine.BaseConstraint
	kind  string
	a, b  *engine.Variable
	delta *engine.Variable
}

func newFallbackEdge(key engine.Key, kind string, a, b, delta *engine.Variable) (engine.Constraint, error) {
	scope := []*engine.Variable{a, b}
	if delta != nil {
		scope = append(scope, delta)
	}
	return &fallbackEdge{BaseConstraint: engine.NewBaseConstraint(key, kind, scope, "default"), kind: kind, a: a, b: b, delta: delta}, nil
}

func (c *fallbackEdge) CanIgnore(argIndex int, e domain.Event) bool {
	return engine.CanIgnoreDefault(e)
}

func (c *fallbackEdge) Execute(eng *engine.Engine) error {
	switch c.kind {
	case "concurrent":
		domain.Equate(c.a.Derived(), c.b.Derived())
	case "precedes":
		c.boundLeq(0)
	case "strictlyPrecedes":
		c.boundLeq(c.a.DataType().MinDelta())
	case "temporalDistance":
		c.boundDistance()
	}
	return nil
}

// boundLeq tightens a<=b-delta (delta=0 for precedes, minDelta for
// strictlyPrecedes), the same forward/backward bound-consistency Leq
// applies in internal/constraints/comparisons.go.
func (c *fallbackEdge) boundLeq(delta float64) {
	alb, _, _ := c.a.Derived().Bounds()
	_, bub, _ := c.b.Derived().Bounds()
	c.a.Derived().IntersectBounds(alb, bub-delta)
	alb, _, _ = c.a.Derived().Bounds()
	c.b.Derived().IntersectBounds(alb+delta, bub)
}

// boundDistance applies the same four-way bound tightening AddEq uses
// for b=a+delta, since a distance constraint is exactly that shape with
// delta ranging over [delta.lb, delta.ub] instead of a point value.
func (c *fallbackEdge) boundDistance() {
	alb, aub, _ := c.a.Derived().Bounds()
	blb, bub, _ := c.b.Derived().Bounds()
	dlb, dub, _ := c.delta.Derived().Bounds()

	c.b.Derived().IntersectBounds(alb+dlb, aub+dub)
	blb, bub, _ = c.b.Derived().Bounds()
	c.a.Derived().IntersectBounds(blb-dub, bub-dlb)
	alb, aub, _ = c.a.Derived().Bounds()
	c.delta.Derived().IntersectBounds(blb-aub, bub-alb)
}
