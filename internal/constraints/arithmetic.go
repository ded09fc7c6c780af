package constraints

import (
	"math"

	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
)

// AddEq implements `addEq`: X + Y = Z, bound-consistent three-way
// propagation.
type AddEq struct{ engine.BaseConstraint }

func newAddEq(_ *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("addEq", scope, 3, false); err != nil {
		return nil, err
	}
	if err := requireNumeric("addEq", scope); err != nil {
		return nil, err
	}
	return &AddEq{engine.NewBaseConstraint(key, "addEq", scope, "default")}, nil
}

func (c *AddEq) CanIgnore(argIndex int, e domain.Event) bool { return engine.CanIgnoreDefault(e) }

func (c *AddEq) Execute(eng *engine.Engine) error {
	x, y, z := c.Scope()[0], c.Scope()[1], c.Scope()[2]
	xlb, xub, _ := x.Derived().Bounds()
	ylb, yub, _ := y.Derived().Bounds()
	zlb, zub, _ := z.Derived().Bounds()

	z.Derived().IntersectBounds(xlb+ylb, xub+yub)
	x.Derived().IntersectBounds(zlb-yub, zub-ylb)
	y.Derived().IntersectBounds(zlb-xub, zub-xlb)

	// A second pass tightens further since the first pass's writes may
	// have narrowed the bounds used by later lines.
	xlb, xub, _ = x.Derived().Bounds()
	ylb, yub, _ = y.Derived().Bounds()
	zlb, zub, _ = z.Derived().Bounds()
	z.Derived().IntersectBounds(xlb+ylb, xub+yub)
	return nil
}

// MultEq implements `multEq`: X * Y = Z, handling sign cases and the
// division-by-zero-straddling case correctly
type MultEq struct{ engine.BaseConstraint }

func newMultEq(_ *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("multEq", scope, 3, false); err != nil {
		return nil, err
	}
	if err := requireNumeric("multEq", scope); err != nil {
		return nil, err
	}
	return &MultEq{engine.NewBaseConstraint(key, "multEq", scope, "default")}, nil
}

func (c *MultEq) CanIgnore(argIndex int, e domain.Event) bool { return engine.CanIgnoreDefault(e) }

func productBounds(alb, aub, blb, bub float64) (float64, float64) {
	corners := []float64{alb * blb, alb * bub, aub * blb, aub * bub}
	lo, hi := corners[0], corners[0]
	for _, v := range corners[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// quotientBounds divides [alb,aub] by [blb,bub]. A divisor interval
// straddling zero makes the quotient unbounded, so the caller gets an
// unconstraining envelope and ok=false.
func quotientBounds(alb, aub, blb, bub float64) (float64, float64, bool) {
	if blb <= 0 && bub >= 0 {
		return math.Inf(-1), math.Inf(1), false
	}
	corners := []float64{alb / blb, alb / bub, aub / blb, aub / bub}
	lo, hi := corners[0], corners[0]
	for _, v := range corners[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, true
}

func (c *MultEq) Execute(eng *engine.Engine) error {
	x, y, z := c.Scope()[0], c.Scope()[1], c.Scope()[2]
	xlb, xub, _ := x.Derived().Bounds()
	ylb, yub, _ := y.Derived().Bounds()

	zlo, zhi := productBounds(xlb, xub, ylb, yub)
	z.Derived().IntersectBounds(zlo, zhi)

	zlb, zub, _ := z.Derived().Bounds()
	if xlo, xhi, ok := quotientBounds(zlb, zub, ylb, yub); ok {
		x.Derived().IntersectBounds(xlo, xhi)
	}
	xlb, xub, _ = x.Derived().Bounds()
	if ylo, yhi, ok := quotientBounds(zlb, zub, xlb, xub); ok {
		y.Derived().IntersectBounds(ylo, yhi)
	}
	return nil
}

// DivEq implements `divEq`: X / Y = Z, i.e. X = Y * Z, reusing the
// product/quotient envelope math of MultEq.
type DivEq struct{ engine.BaseConstraint }

func newDivEq(_ *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("divEq", scope, 3, false); err != nil {
		return nil, err
	}
	if err := requireNumeric("divEq", scope); err != nil {
		return nil, err
	}
	return &DivEq{engine.NewBaseConstraint(key, "divEq", scope, "default")}, nil
}

func (c *DivEq) CanIgnore(argIndex int, e domain.Event) bool { return engine.CanIgnoreDefault(e) }

func (c *DivEq) Execute(eng *engine.Engine) error {
	x, y, z := c.Scope()[0], c.Scope()[1], c.Scope()[2]
	ylb, yub, _ := y.Derived().Bounds()
	zlb, zub, _ := z.Derived().Bounds()

	xlo, xhi := productBounds(ylb, yub, zlb, zub)
	x.Derived().IntersectBounds(xlo, xhi)

	xlb, xub, _ := x.Derived().Bounds()
	if zlo, zhi, ok := quotientBounds(xlb, xub, ylb, yub); ok {
		z.Derived().IntersectBounds(zlo, zhi)
	}
	zlb, zub, _ = z.Derived().Bounds()
	if ylo, yhi, ok := quotientBounds(xlb, xub, zlb, zub); ok {
		y.Derived().IntersectBounds(ylo, yhi)
	}
	return nil
}

// AbsVal implements `absVal`: X = |Y|.
type AbsVal struct{ engine.BaseConstraint }

func newAbsVal(_ *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("absVal", scope, 2, false); err != nil {
		return nil, err
	}
	if err := requireNumeric("absVal", scope); err != nil {
		return nil, err
	}
	return &AbsVal{engine.NewBaseConstraint(key, "absVal", scope, "default")}, nil
}

func (c *AbsVal) CanIgnore(argIndex int, e domain.Event) bool { return engine.CanIgnoreDefault(e) }

func (c *AbsVal) Execute(eng *engine.Engine) error {
	x, y := c.Scope()[0], c.Scope()[1]
	ylb, yub, _ := y.Derived().Bounds()
	candidates := []float64{math.Abs(ylb), math.Abs(yub)}
	lo, hi := candidates[0], candidates[0]
	for _, v := range candidates[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if ylb <= 0 && yub >= 0 {
		lo = 0
	}
	x.Derived().IntersectBounds(lo, hi)

	xlb, xub, _ := x.Derived().Bounds()
	if ylb >= 0 {
		y.Derived().IntersectBounds(xlb, xub)
	} else if yub <= 0 {
		y.Derived().IntersectBounds(-xub, -xlb)
	} else {
		y.Derived().IntersectBounds(-xub, xub)
	}
	return nil
}
