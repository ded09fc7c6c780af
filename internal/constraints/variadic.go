package constraints

import (
	"fmt"

	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
)

// decomposeBinary builds a left-leaning binary tree of auxiliary
// variables over vars, posting a binary constraint (built by post) at
// each internal node, and returns the root auxiliary representing the
// combination of all of vars. This is the "variadic via binary-tree
// decomposition into auxiliaries" strategy used
// for eqSum/eqProduct/eqMin/eqMax.
func decomposeBinary(eng *engine.Engine, name string, vars []*engine.Variable, post func(a, b, r *engine.Variable) error) (*engine.Variable, error) {
	if len(vars) == 1 {
		return vars[0], nil
	}
	acc := vars[0]
	for i := 1; i < len(vars); i++ {
		lb, ub := auxBoundsFor(name, acc, vars[i])
		aux := eng.CreateVariable(acc.DataType(), wrapDomain(acc.DataType(), lb, ub), fmt.Sprintf("%s_aux%d", name, i), true, false, nil, 0)
		if err := post(acc, vars[i], aux); err != nil {
			return nil, err
		}
		acc = aux
	}
	return acc, nil
}

func auxBoundsFor(name string, a, b *engine.Variable) (float64, float64) {
	alb, aub, _ := a.Derived().Bounds()
	blb, bub, _ := b.Derived().Bounds()
	switch name {
	case "eqSum":
		return alb + blb, aub + bub
	case "eqProduct":
		lo, hi := productBounds(alb, aub, blb, bub)
		return lo, hi
	case "eqMin":
		return minF(alb, blb), minF(aub, bub)
	case "eqMax":
		return maxF(alb, blb), maxF(aub, bub)
	default:
		return alb, aub
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// EqSum implements `eqSum`: scope[last] = sum(scope[:last]).
type EqSum struct{ engine.BaseConstraint }

func newEqSum(eng *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("eqSum", scope, 3, true); err != nil {
		return nil, err
	}
	if err := requireNumeric("eqSum", scope); err != nil {
		return nil, err
	}
	total := scope[len(scope)-1]
	addends := scope[:len(scope)-1]
	root, err := decomposeBinary(eng, "eqSum", addends, func(a, b, r *engine.Variable) error {
		_, err := eng.CreateConstraint("addEq", []*engine.Variable{a, b, r})
		return err
	})
	if err != nil {
		return nil, err
	}
	if _, err := eng.CreateConstraint("eq", []*engine.Variable{root, total}); err != nil {
		return nil, err
	}
	return &EqSum{engine.NewBaseConstraint(key, "eqSum", scope, "default")}, nil
}

func (c *EqSum) CanIgnore(argIndex int, e domain.Event) bool { return true }
func (c *EqSum) Execute(eng *engine.Engine) error            { return nil }

// EqProduct implements `eqProduct`: scope[last] = product(scope[:last]).
type EqProduct struct{ engine.BaseConstraint }

func newEqProduct(eng *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("eqProduct", scope, 3, true); err != nil {
		return nil, err
	}
	if err := requireNumeric("eqProduct", scope); err != nil {
		return nil, err
	}
	total := scope[len(scope)-1]
	factors := scope[:len(scope)-1]
	root, err := decomposeBinary(eng, "eqProduct", factors, func(a, b, r *engine.Variable) error {
		_, err := eng.CreateConstraint("multEq", []*engine.Variable{a, b, r})
		return err
	})
	if err != nil {
		return nil, err
	}
	if _, err := eng.CreateConstraint("eq", []*engine.Variable{root, total}); err != nil {
		return nil, err
	}
	return &EqProduct{engine.NewBaseConstraint(key, "eqProduct", scope, "default")}, nil
}

func (c *EqProduct) CanIgnore(argIndex int, e domain.Event) bool { return true }
func (c *EqProduct) Execute(eng *engine.Engine) error            { return nil }

// eqMinMax is shared machinery for eqMin/eqMax: scope[last] is the
// min/max of scope[:last], decomposed via auxiliary `minPair`/`maxPair`
// constraints (see minPair and maxPair below).
type eqMinMax struct {
	engine.BaseConstraint
}

func (c *eqMinMax) CanIgnore(argIndex int, e domain.Event) bool { return true }
func (c *eqMinMax) Execute(eng *engine.Engine) error            { return nil }

// EqMin implements `eqMin`: scope[last] = min(scope[:last]).
type EqMin struct{ eqMinMax }

func newEqMin(eng *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("eqMin", scope, 3, true); err != nil {
		return nil, err
	}
	if err := requireNumeric("eqMin", scope); err != nil {
		return nil, err
	}
	total := scope[len(scope)-1]
	tail := scope[:len(scope)-1]
	root, err := decomposeBinary(eng, "eqMin", tail, func(a, b, r *engine.Variable) error {
		return postMinPair(eng, a, b, r)
	})
	if err != nil {
		return nil, err
	}
	if _, err := eng.CreateConstraint("eq", []*engine.Variable{root, total}); err != nil {
		return nil, err
	}
	return &EqMin{eqMinMax{engine.NewBaseConstraint(key, "eqMin", scope, "default")}}, nil
}

// EqMax implements `eqMax`: scope[last] = max(scope[:last]).
type EqMax struct{ eqMinMax }

func newEqMax(eng *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("eqMax", scope, 3, true); err != nil {
		return nil, err
	}
	if err := requireNumeric("eqMax", scope); err != nil {
		return nil, err
	}
	total := scope[len(scope)-1]
	tail := scope[:len(scope)-1]
	root, err := decomposeBinary(eng, "eqMax", tail, func(a, b, r *engine.Variable) error {
		return postMaxPair(eng, a, b, r)
	})
	if err != nil {
		return nil, err
	}
	if _, err := eng.CreateConstraint("eq", []*engine.Variable{root, total}); err != nil {
		return nil, err
	}
	return &EqMax{eqMinMax{engine.NewBaseConstraint(key, "eqMax", scope, "default")}}, nil
}

// postMinPair / postMaxPair post the raw min/max binary relation r=min(a,b)
// or r=max(a,b) as a "minPair"/"maxPair" internal constraint, since min/max
// is not expressible as a composition of the other primitives.
func postMinPair(eng *engine.Engine, a, b, r *engine.Variable) error {
	_, err := eng.CreateConstraint("minPair", []*engine.Variable{a, b, r})
	return err
}
func postMaxPair(eng *engine.Engine, a, b, r *engine.Variable) error {
	_, err := eng.CreateConstraint("maxPair", []*engine.Variable{a, b, r})
	return err
}

func init() {
	engine.RegisterConstraintFactory("minPair", newMinPair)
	engine.RegisterConstraintFactory("maxPair", newMaxPair)
}

type minPair struct{ engine.BaseConstraint }

func newMinPair(_ *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("minPair", scope, 3, false); err != nil {
		return nil, err
	}
	return &minPair{engine.NewBaseConstraint(key, "minPair", scope, "default")}, nil
}
func (c *minPair) CanIgnore(argIndex int, e domain.Event) bool { return engine.CanIgnoreDefault(e) }
func (c *minPair) Execute(eng *engine.Engine) error {
	a, b, r := c.Scope()[0], c.Scope()[1], c.Scope()[2]
	alb, aub, _ := a.Derived().Bounds()
	blb, bub, _ := b.Derived().Bounds()
	r.Derived().IntersectBounds(minF(alb, blb), minF(aub, bub))
	// r = min(a, b) always satisfies r <= a and r <= b, so both sides
	// inherit r's lower bound.
	rlb, _, _ := r.Derived().Bounds()
	a.Derived().IntersectBounds(rlb, aub)
	b.Derived().IntersectBounds(rlb, bub)
	return nil
}

type maxPair struct{ engine.BaseConstraint }

func newMaxPair(_ *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("maxPair", scope, 3, false); err != nil {
		return nil, err
	}
	return &maxPair{engine.NewBaseConstraint(key, "maxPair", scope, "default")}, nil
}
func (c *maxPair) CanIgnore(argIndex int, e domain.Event) bool { return engine.CanIgnoreDefault(e) }
func (c *maxPair) Execute(eng *engine.Engine) error {
	a, b, r := c.Scope()[0], c.Scope()[1], c.Scope()[2]
	alb, aub, _ := a.Derived().Bounds()
	blb, bub, _ := b.Derived().Bounds()
	r.Derived().IntersectBounds(maxF(alb, blb), maxF(aub, bub))
	// r = max(a, b) always satisfies a <= r and b <= r, so both sides
	// inherit r's upper bound.
	_, rub, _ := r.Derived().Bounds()
	a.Derived().IntersectBounds(alb, rub)
	b.Derived().IntersectBounds(blb, rub)
	return nil
}
