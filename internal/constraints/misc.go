package constraints

import (
	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
)

// SubsetOf implements `subsetOf`: X ⊆ Y, where Y acts as a fixed
// reference domain -- only X is restricted; Y is read-only with respect
// to this constraint.
type SubsetOf struct{ engine.BaseConstraint }

func newSubsetOf(_ *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("subsetOf", scope, 2, false); err != nil {
		return nil, err
	}
	return &SubsetOf{engine.NewBaseConstraint(key, "subsetOf", scope, "default")}, nil
}

func (c *SubsetOf) CanIgnore(argIndex int, e domain.Event) bool { return engine.CanIgnoreDefault(e) }

func (c *SubsetOf) Execute(eng *engine.Engine) error {
	x, y := c.Scope()[0], c.Scope()[1]
	x.Derived().Intersect(y.Derived())
	return nil
}

// Lock implements `lock`: X must equal a locked reference domain Y
// exactly. If Y is not a subset of X's current domain the constraint
// empties X, signalling inconsistency through the normal event channel
// .
type Lock struct{ engine.BaseConstraint }

func newLock(_ *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("lock", scope, 2, false); err != nil {
		return nil, err
	}
	return &Lock{engine.NewBaseConstraint(key, "lock", scope, "default")}, nil
}

func (c *Lock) CanIgnore(argIndex int, e domain.Event) bool { return engine.CanIgnoreDefault(e) }

func (c *Lock) Execute(eng *engine.Engine) error {
	x, y := c.Scope()[0], c.Scope()[1]
	if !y.Derived().IsSubsetOf(x.Derived()) {
		// Y is not achievable within X's current domain: force
		// emptiness rather than silently under-constraining.
		forceEmpty(x.Derived())
		return nil
	}
	x.Derived().Intersect(y.Derived())
	return nil
}

// forceEmpty drains every admitted value from d, working for both
// interval and enumerated domains (IntersectBounds alone cannot empty a
// non-numeric enumerated domain).
func forceEmpty(d domain.Domain) {
	if id, ok := d.(*domain.IntervalDomain); ok {
		id.IntersectBounds(1, 0)
		return
	}
	for _, v := range d.Values() {
		d.Remove(v)
	}
}
