package constraints

import (
	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
)

// AllDiff implements `allDiff`: pairwise distinctness over the scope.
// Any value held as a singleton by one variable is removed from every
// other variable's domain, repeated until no domain changes, and two
// variables pinned to the same value empty one of them. Values are not
// counted against the number of variables that could take them, so too
// few values for the scope (three variables over {1,2}) is detected only
// once enough of the variables are singletons. Full matching-based
// (Regin) filtering is intentionally out of scope for this primitive.
type AllDiff struct{ engine.BaseConstraint }

func newAllDiff(_ *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("allDiff", scope, 2, true); err != nil {
		return nil, err
	}
	return &AllDiff{engine.NewBaseConstraint(key, "allDiff", scope, "default")}, nil
}

func (c *AllDiff) CanIgnore(argIndex int, e domain.Event) bool {
	return !(e == domain.EventRestrictToSingleton || e == domain.EventSetToSingleton || e == domain.EventEmptied)
}

func (c *AllDiff) Execute(eng *engine.Engine) error {
	scope := c.Scope()
	// The engine does not re-enqueue a constraint for events raised
	// while it executes, so singletons created by this pass's removals
	// are handled by another pass here.
	for changed := true; changed; {
		changed = false
		singletons := make(map[domain.Value]bool)
		for _, v := range scope {
			if v.Derived().IsSingleton() {
				val := v.Derived().SingletonValue()
				if singletons[val] {
					// Two variables already pinned to the same value: no
					// further pruning can fix this, force an emptied domain
					// so the inconsistency is reported through the normal
					// event channel.
					v.Derived().Remove(val)
					return nil
				}
				singletons[val] = true
			}
		}
		for _, v := range scope {
			if v.Derived().IsSingleton() {
				continue
			}
			for val := range singletons {
				if v.Derived().Remove(val) {
					changed = true
				}
			}
		}
	}
	return nil
}
