// Package constraints implements the constraint library: eq, neq,
// leq, lt, addEq, multEq, divEq, absVal, eqSum,
// eqProduct, eqMin, eqMax, allDiff, the test* reified boolean relations,
// subsetOf, and lock. Each constraint registers a Factory with the
// engine package's CreateConstraint dispatch via an init function,
// operating on the interval/enumerated domain algebra of
// internal/domain.
package constraints

import (
	"fmt"

	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
)

func init() {
	engine.RegisterConstraintFactory("eq", newEq)
	engine.RegisterConstraintFactory("neq", newNeq)
	engine.RegisterConstraintFactory("leq", newLeq)
	engine.RegisterConstraintFactory("lt", newLt)
	engine.RegisterConstraintFactory("addEq", newAddEq)
	engine.RegisterConstraintFactory("multEq", newMultEq)
	engine.RegisterConstraintFactory("divEq", newDivEq)
	engine.RegisterConstraintFactory("absVal", newAbsVal)
	engine.RegisterConstraintFactory("eqSum", newEqSum)
	engine.RegisterConstraintFactory("eqProduct", newEqProduct)
	engine.RegisterConstraintFactory("eqMin", newEqMin)
	engine.RegisterConstraintFactory("eqMax", newEqMax)
	engine.RegisterConstraintFactory("allDiff", newAllDiff)
	engine.RegisterConstraintFactory("testEq", newTestRel(relEq))
	engine.RegisterConstraintFactory("testLEQ", newTestRel(relLEQ))
	engine.RegisterConstraintFactory("testLT", newTestRel(relLT))
	engine.RegisterConstraintFactory("testNEQ", newTestRel(relNEQ))
	engine.RegisterConstraintFactory("testAnd", newTestBool(boolAnd))
	engine.RegisterConstraintFactory("testOr", newTestBool(boolOr))
	engine.RegisterConstraintFactory("subsetOf", newSubsetOf)
	engine.RegisterConstraintFactory("lock", newLock)
}

func requireArity(name string, scope []*engine.Variable, n int, atLeast bool) error {
	if atLeast {
		if len(scope) < n {
			return fmt.Errorf("%s requires at least %d arguments, got %d", name, n, len(scope))
		}
		return nil
	}
	if len(scope) != n {
		return fmt.Errorf("%s requires exactly %d arguments, got %d", name, n, len(scope))
	}
	return nil
}

func requireNumeric(name string, scope []*engine.Variable) error {
	for i, v := range scope {
		k := v.DataType().Kind()
		if k != domain.KindInt && k != domain.KindFloat && k != domain.KindBool {
			return fmt.Errorf("%s argument %d (%s) must be numeric", name, i, v.Name())
		}
	}
	return nil
}

func wrapDomain(dt *domain.DataType, lb, ub float64) domain.Domain {
	if dt.Kind() == domain.KindFloat {
		return domain.NewFloatInterval(lb, ub, false)
	}
	return domain.NewIntInterval(int(lb), int(ub), false)
}
