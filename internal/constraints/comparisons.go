package constraints

import (
	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
)

// Neq implements `neq`: X ≠ Y. When one side is singleton, its value is
// removed from the other (for interval domains, only when that value
// sits at an endpoint, since interior removal cannot be represented).
type Neq struct{ engine.BaseConstraint }

func newNeq(_ *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("neq", scope, 2, false); err != nil {
		return nil, err
	}
	if err := requireComparable("neq", scope[0], scope[1]); err != nil {
		return nil, err
	}
	return &Neq{engine.NewBaseConstraint(key, "neq", scope, "default")}, nil
}

func requireComparable(name string, a, b *engine.Variable) error {
	if !a.DataType().CanBeCompared(b.DataType()) {
		return errIncompatibleTypes(name, a, b)
	}
	return nil
}

func (c *Neq) CanIgnore(argIndex int, e domain.Event) bool {
	return !(e == domain.EventRestrictToSingleton || e == domain.EventSetToSingleton || e.IsRestriction())
}

func (c *Neq) Execute(eng *engine.Engine) error {
	x, y := c.Scope()[0], c.Scope()[1]
	if x.Derived().IsSingleton() {
		y.Derived().Remove(x.Derived().SingletonValue())
	}
	if y.Derived().IsSingleton() {
		x.Derived().Remove(y.Derived().SingletonValue())
	}
	return nil
}

// Leq implements `leq`: X ≤ Y, tightened as X.ub <- min(X.ub, Y.ub) and
// Y.lb <- max(Y.lb, X.lb).
type Leq struct{ engine.BaseConstraint }

func newLeq(_ *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("leq", scope, 2, false); err != nil {
		return nil, err
	}
	if err := requireNumeric("leq", scope); err != nil {
		return nil, err
	}
	return &Leq{engine.NewBaseConstraint(key, "leq", scope, "default")}, nil
}

func (c *Leq) CanIgnore(argIndex int, e domain.Event) bool { return engine.CanIgnoreDefault(e) }

func (c *Leq) Execute(eng *engine.Engine) error {
	x, y := c.Scope()[0], c.Scope()[1]
	_, yub, _ := y.Derived().Bounds()
	xlb, xub, _ := x.Derived().Bounds()
	if xub > yub {
		x.Derived().IntersectBounds(xlb, yub)
	}
	xlb, _, _ = x.Derived().Bounds()
	ylb, yub, _ := y.Derived().Bounds()
	if ylb < xlb {
		y.Derived().IntersectBounds(xlb, yub)
	}
	return nil
}

// Lt implements `lt`: X < Y, tightened with minDelta so integer domains
// get the correct strict-inequality rounding.
type Lt struct{ engine.BaseConstraint }

func newLt(_ *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("lt", scope, 2, false); err != nil {
		return nil, err
	}
	if err := requireNumeric("lt", scope); err != nil {
		return nil, err
	}
	return &Lt{engine.NewBaseConstraint(key, "lt", scope, "default")}, nil
}

func (c *Lt) CanIgnore(argIndex int, e domain.Event) bool { return engine.CanIgnoreDefault(e) }

func (c *Lt) Execute(eng *engine.Engine) error {
	x, y := c.Scope()[0], c.Scope()[1]
	delta := minDeltaOf(x)
	if dy := minDeltaOf(y); dy > delta {
		delta = dy
	}
	xlb, xub, _ := x.Derived().Bounds()
	ylb, yub, _ := y.Derived().Bounds()
	if xub > yub-delta {
		x.Derived().IntersectBounds(xlb, yub-delta)
	}
	xlb, _, _ = x.Derived().Bounds()
	if ylb < xlb+delta {
		y.Derived().IntersectBounds(xlb+delta, yub)
	}
	return nil
}

func minDeltaOf(v *engine.Variable) float64 {
	if id, ok := v.Derived().(*domain.IntervalDomain); ok {
		return id.MinDelta()
	}
	return 1
}
