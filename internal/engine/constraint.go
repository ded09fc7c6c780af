package engine

import "github.com/gokando/tempnet/internal/domain"

// Constraint is the engine-facing contract every constraint primitive
// implements. Execute reads the derived domains of Scope and writes
// back restrictions; it must never relax a domain.
type Constraint interface {
	Key() Key
	Kind() EntityKind
	Name() string
	Scope() []*Variable
	PropagatorName() string
	Active() bool
	SetActive(bool)
	Discarded() bool

	// CanIgnore asks whether event e at scope position argIndex can be
	// safely skipped without enqueuing this constraint for re-execution.
	CanIgnore(argIndex int, e domain.Event) bool

	// Execute runs one propagation pass over Scope, returning an error
	// only for a genuine construction-time type mismatch; domain
	// emptying is reported via the engine's inconsistency tracking, not
	// as a Go error.
	Execute(eng *Engine) error
}

// BaseConstraint provides the bookkeeping shared by every concrete
// constraint: key, name, scope, propagator assignment, active/discard
// flags. Concrete constraints embed it and implement Execute and
// CanIgnore themselves.
type BaseConstraint struct {
	key        Key
	name       string
	scope      []*Variable
	propagator string
	active     bool
	discarded  bool
}

func NewBaseConstraint(key Key, name string, scope []*Variable, propagator string) BaseConstraint {
	return BaseConstraint{key: key, name: name, scope: scope, propagator: propagator, active: true}
}

func (c *BaseConstraint) Key() Key               { return c.key }
func (c *BaseConstraint) Kind() EntityKind       { return KindConstraint }
func (c *BaseConstraint) Name() string           { return c.name }
func (c *BaseConstraint) Scope() []*Variable     { return c.scope }
func (c *BaseConstraint) PropagatorName() string { return c.propagator }
func (c *BaseConstraint) Active() bool           { return c.active }
func (c *BaseConstraint) SetActive(a bool)       { c.active = a }
func (c *BaseConstraint) Discarded() bool        { return c.discarded }
func (c *BaseConstraint) discard()               { c.discarded = true }

// CanIgnoreDefault is the conservative default CanIgnore: any restriction
// event wakes the constraint. Concrete constraints may override with a
// tighter rule (e.g. ignore VALUE_REMOVED events on an argument they
// never inspect by individual value).
func CanIgnoreDefault(e domain.Event) bool {
	return !e.IsRestriction()
}

// Factory constructs a Constraint over scope, validating arity and
// per-argument data-type requirements. Registered per constraint name via
// RegisterConstraintFactory so internal/constraints can supply the
// library without an import cycle back into engine.
type Factory func(eng *Engine, key Key, scope []*Variable) (Constraint, error)

var constraintFactories = map[string]Factory{}

// RegisterConstraintFactory registers the constructor for a named
// constraint. Called from internal/constraints package init functions.
func RegisterConstraintFactory(name string, f Factory) {
	constraintFactories[name] = f
}
