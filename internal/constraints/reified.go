package constraints

import (
	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
)

// relation is a reifiable binary numeric relation used by testEq,
// testLEQ, testLT, and testNEQ.
type relation struct {
	name string
	// holds reports whether the relation b `op` c is provably true given
	// their bounds, and violated reports whether it is provably false.
	holds    func(blb, bub, clb, cub float64) bool
	violated func(blb, bub, clb, cub float64) bool
	// enforceTrue / enforceFalse tighten b and c's bounds to force the
	// relation true or false, used when the boolean side is bound.
	enforceTrue  func(b, c *engine.Variable)
	enforceFalse func(b, c *engine.Variable)
}

func relEq() relation {
	return relation{
		name:     "testEq",
		holds:    func(blb, bub, clb, cub float64) bool { return blb == bub && clb == cub && blb == clb },
		violated: func(blb, bub, clb, cub float64) bool { return bub < clb || cub < blb },
		enforceTrue: func(b, c *engine.Variable) {
			domain.Equate(b.Derived(), c.Derived())
		},
		enforceFalse: func(b, c *engine.Variable) {
			if b.Derived().IsSingleton() {
				c.Derived().Remove(b.Derived().SingletonValue())
			}
			if c.Derived().IsSingleton() {
				b.Derived().Remove(c.Derived().SingletonValue())
			}
		},
	}
}

func relLEQ() relation {
	return relation{
		name:     "testLEQ",
		holds:    func(blb, bub, clb, cub float64) bool { return bub <= clb },
		violated: func(blb, bub, clb, cub float64) bool { return blb > cub },
		enforceTrue: func(b, c *engine.Variable) {
			blb, _, _ := b.Derived().Bounds()
			_, cub, _ := c.Derived().Bounds()
			b.Derived().IntersectBounds(blb, cub)
			c.Derived().IntersectBounds(blb, cub)
		},
		enforceFalse: func(b, c *engine.Variable) {
			// b > c: b.lb >= c.lb+delta is not generally derivable
			// without a shared delta; leave bounds as-is beyond the
			// forward implication already checked by violated().
		},
	}
}

func relLT() relation {
	return relation{
		name:     "testLT",
		holds:    func(blb, bub, clb, cub float64) bool { return bub < clb },
		violated: func(blb, bub, clb, cub float64) bool { return blb >= cub },
	}
}

func relNEQ() relation {
	return relation{
		name:     "testNEQ",
		holds:    func(blb, bub, clb, cub float64) bool { return bub < clb || cub < blb },
		violated: func(blb, bub, clb, cub float64) bool { return blb == bub && clb == cub && blb == clb },
		enforceFalse: func(b, c *engine.Variable) {
			domain.Equate(b.Derived(), c.Derived())
		},
		enforceTrue: func(b, c *engine.Variable) {
			if b.Derived().IsSingleton() {
				c.Derived().Remove(b.Derived().SingletonValue())
			}
			if c.Derived().IsSingleton() {
				b.Derived().Remove(c.Derived().SingletonValue())
			}
		},
	}
}

// TestRel implements the testEq/testLEQ/testLT/testNEQ family: scope[0]
// is a boolean variable equivalent to relation(scope[1], scope[2]),
// propagated in both directions.
type TestRel struct {
	engine.BaseConstraint
	rel relation
}

func newTestRel(mk func() relation) engine.Factory {
	return func(_ *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
		rel := mk()
		if err := requireArity(rel.name, scope, 3, false); err != nil {
			return nil, err
		}
		if err := requireNumeric(rel.name, scope[1:]); err != nil {
			return nil, err
		}
		return &TestRel{engine.NewBaseConstraint(key, rel.name, scope, "default"), rel}, nil
	}
}

func (c *TestRel) CanIgnore(argIndex int, e domain.Event) bool { return engine.CanIgnoreDefault(e) }

func (c *TestRel) Execute(eng *engine.Engine) error {
	boolVar, b, cv := c.Scope()[0], c.Scope()[1], c.Scope()[2]
	blb, bub, _ := b.Derived().Bounds()
	clb, cub, _ := cv.Derived().Bounds()

	if boolVar.Derived().IsSingleton() {
		truth := boolVar.Derived().SingletonValue().Int != 0
		if truth && c.rel.enforceTrue != nil {
			c.rel.enforceTrue(b, cv)
		} else if !truth && c.rel.enforceFalse != nil {
			c.rel.enforceFalse(b, cv)
		}
		return nil
	}

	if c.rel.holds(blb, bub, clb, cub) {
		boolVar.Derived().IntersectBounds(1, 1)
	} else if c.rel.violated(blb, bub, clb, cub) {
		boolVar.Derived().IntersectBounds(0, 0)
	}
	return nil
}

// boolOp combines two boolean operands into a result per a truth table,
// used by testAnd/testOr.
type boolOp struct {
	name    string
	combine func(a, b bool) bool
	// inverse derives the required value of one operand given the
	// result and the other operand, when that is forced.
	forced func(result bool, other bool, otherKnown bool) (val bool, known bool)
}

func boolAnd() boolOp {
	return boolOp{
		name:    "testAnd",
		combine: func(a, b bool) bool { return a && b },
		forced: func(result, other bool, otherKnown bool) (bool, bool) {
			if result {
				return true, true // and result true => both operands true
			}
			if otherKnown && other {
				return false, true // and false, other true => this one false
			}
			return false, false
		},
	}
}

func boolOr() boolOp {
	return boolOp{
		name:    "testOr",
		combine: func(a, b bool) bool { return a || b },
		forced: func(result, other bool, otherKnown bool) (bool, bool) {
			if !result {
				return false, true // or result false => both operands false
			}
			if otherKnown && !other {
				return true, true // or true, other false => this one true
			}
			return false, false
		},
	}
}

// TestBool implements testAnd/testOr: scope[0] = scope[1] OP scope[2],
// all boolean-typed.
type TestBool struct {
	engine.BaseConstraint
	op boolOp
}

func newTestBool(mk func() boolOp) engine.Factory {
	return func(_ *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
		op := mk()
		if err := requireArity(op.name, scope, 3, false); err != nil {
			return nil, err
		}
		return &TestBool{engine.NewBaseConstraint(key, op.name, scope, "default"), op}, nil
	}
}

func (c *TestBool) CanIgnore(argIndex int, e domain.Event) bool { return engine.CanIgnoreDefault(e) }

func boolOf(v *engine.Variable) (val bool, known bool) {
	if !v.Derived().IsSingleton() {
		return false, false
	}
	return v.Derived().SingletonValue().Int != 0, true
}

func setBool(v *engine.Variable, val bool) {
	b := int64(0)
	if val {
		b = 1
	}
	v.Derived().IntersectBounds(float64(b), float64(b))
}

func (c *TestBool) Execute(eng *engine.Engine) error {
	r, a, b := c.Scope()[0], c.Scope()[1], c.Scope()[2]
	av, aKnown := boolOf(a)
	bv, bKnown := boolOf(b)

	if aKnown && bKnown {
		setBool(r, c.op.combine(av, bv))
		return nil
	}
	if rv, rKnown := boolOf(r); rKnown {
		if aKnown {
			if val, known := c.op.forced(rv, av, true); known {
				setBool(b, val)
			}
		}
		if bKnown {
			if val, known := c.op.forced(rv, bv, true); known {
				setBool(a, val)
			}
		}
	}
	return nil
}
