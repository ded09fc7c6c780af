package engine

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gokando/tempnet/internal/domain"
)

// Status is the outcome of a propagation cycle.
type Status int

const (
	Consistent Status = iota
	Inconsistent
)

func (s Status) String() string {
	if s == Consistent {
		return "Consistent"
	}
	return "Inconsistent"
}

// Config mirrors the property map, resolved into typed
// fields by internal/config before reaching the engine.
type Config struct {
	AllowViolations        bool
	UseTemporalPropagator  bool
	PriorityPreference     string // "HIGH" or "LOW"
	MaxChoices             int
	AllowPushBeyondHorizon bool
}

// DefaultConfig returns the stock defaults: strict propagation,
// temporal propagation on, HIGH priority preference, no choice cap.
func DefaultConfig() Config {
	return Config{UseTemporalPropagator: true, PriorityPreference: "HIGH"}
}

// Engine is the constraint engine facade:
// createVariable, createConstraint, propagate, and the consistency
// predicates, plus change routing from domain events to propagator
// agendas.
type Engine struct {
	Registry *Registry
	Config   Config
	Log      zerolog.Logger

	variables   map[Key]*Variable
	constraints map[Key]Constraint

	propagators    []Propagator
	byName         map[string]Propagator
	equality       *EqualityPropagator
	listenersByVar map[Key][]constraintListener

	inconsistent bool
	violations   []Violation

	abort    func() bool // external interrupt flag, checked between propagator executions
	observer Observer
}

// Observer receives propagation instrumentation callbacks. Defined here
// (rather than importing the telemetry package, which sits above the
// engine in the dependency order) so any collector with matching
// methods can plug in; internal/telemetry.Metrics satisfies it.
type Observer interface {
	PropagationCycle()
	PropagatorExecuted(name string)
	SetAgendaDepth(name string, depth int)
	ShortestPathRun()
}

type constraintListener struct {
	constraint Constraint
	argIndex   int
}

// New constructs an Engine with the given configuration and logger. A
// zero-value zerolog.Logger behaves as a no-op per zerolog convention.
func New(cfg Config, log zerolog.Logger) *Engine {
	eng := &Engine{
		Registry:       NewRegistry(),
		Config:         cfg,
		Log:            log,
		variables:      make(map[Key]*Variable),
		constraints:    make(map[Key]Constraint),
		byName:         make(map[string]Propagator),
		listenersByVar: make(map[Key][]constraintListener),
	}
	eng.equality = NewEqualityPropagator("equality", 0)
	eng.registerPropagator(eng.equality)
	eng.registerPropagator(NewDefaultPropagator("default", 10))
	return eng
}

func (eng *Engine) registerPropagator(p Propagator) {
	eng.propagators = append(eng.propagators, p)
	eng.byName[p.Name()] = p
	sort.SliceStable(eng.propagators, func(i, j int) bool {
		return eng.propagators[i].Priority() < eng.propagators[j].Priority()
	})
}

// RegisterPropagator installs an additional propagator (used by
// internal/stn to plug in the temporal propagator at a chosen priority).
func (eng *Engine) RegisterPropagator(p Propagator) { eng.registerPropagator(p) }

// Propagator looks up a registered propagator by name.
func (eng *Engine) Propagator(name string) (Propagator, bool) {
	p, ok := eng.byName[name]
	return p, ok
}

// CreateVariable registers a new ConstrainedVariable. base is cloned so
// later mutation of the caller's Domain value does not alias engine
// state.
func (eng *Engine) CreateVariable(dt *domain.DataType, base domain.Domain, name string, internal, specifiable bool, parent *Key, index int) *Variable {
	key := eng.Registry.NewKey()
	v := &Variable{
		key: key, name: name, dt: dt,
		base: base.Clone(), spec: base.Clone(), derived: base.Clone(),
		internal: internal, specifiable: specifiable, parent: parent, index: index,
		eng: eng,
	}
	v.derived.SetListener(domain.ListenerFunc(func(e domain.Event) {
		eng.routeEvent(v, e)
	}))
	eng.variables[key] = v
	eng.Registry.Register(v)
	return v
}

// CreateConstraint validates arity/scope via the registered factory for
// name and installs the resulting constraint, subscribing it to every
// variable in its scope. An unknown name or illegal scope is a fatal
// construction error with no partial registration.
func (eng *Engine) CreateConstraint(name string, scope []*Variable) (Constraint, error) {
	factory, ok := constraintFactories[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown constraint %q", ErrConstructionError, name)
	}
	key := eng.Registry.NewKey()
	c, err := factory(eng, key, scope)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConstructionError, name, err)
	}
	eng.constraints[key] = c
	eng.Registry.Register(entityAdapter{k: key, kind: KindConstraint})

	if name == "eq" {
		keys := make([]Key, len(scope))
		for i, v := range scope {
			keys[i] = v.key
		}
		for i := 1; i < len(keys); i++ {
			eng.equality.Union(keys[0], keys[i])
		}
	} else if dp, ok := eng.byName[c.PropagatorName()]; ok {
		for i := range scope {
			eng.listenersByVar[scope[i].key] = append(eng.listenersByVar[scope[i].key], constraintListener{c, i})
		}
		dp.Enqueue(c)
	}

	eng.Log.Debug().Str("constraint", name).Int64("key", int64(key)).Msg("constraint created")
	return c, nil
}

// DiscardConstraint removes c from its propagator's agenda and the
// registry, and notifies listeners.
func (eng *Engine) DiscardConstraint(c Constraint) {
	if bc, ok := c.(interface{ discard() }); ok {
		bc.discard()
	}
	c.SetActive(false)
	if h, ok := c.(interface{ OnDiscard(*Engine) }); ok {
		// Lets a constraint undo side effects held outside its scope's
		// domains (the temporal propagator's distance-graph edges).
		h.OnDiscard(eng)
	}
	delete(eng.constraints, c.Key())
	eng.Registry.Destroy(c.Key())
	for _, v := range c.Scope() {
		ls := eng.listenersByVar[v.key]
		kept := ls[:0]
		for _, l := range ls {
			if l.constraint.Key() != c.Key() {
				kept = append(kept, l)
			}
		}
		eng.listenersByVar[v.key] = kept
	}
	if c.Name() == "eq" {
		eng.equality.Remove()
		eng.equality.Rebuild()
		for _, other := range eng.constraints {
			if other.Name() == "eq" {
				scope := other.Scope()
				for i := 1; i < len(scope); i++ {
					eng.equality.Union(scope[0].key, scope[i].key)
				}
			}
		}
	}
}

type entityAdapter struct {
	k    Key
	kind EntityKind
}

func (e entityAdapter) Key() Key         { return e.k }
func (e entityAdapter) Kind() EntityKind { return e.kind }

// routeEvent routes a domain change: for every
// constraint subscribed to v at argument index i, ask CanIgnore; if
// false, enqueue the constraint into its propagator.
func (eng *Engine) routeEvent(v *Variable, e domain.Event) {
	if e == domain.EventEmptied {
		if eng.Config.AllowViolations {
			eng.violations = append(eng.violations, Violation{VarKey: v.key, Event: e, Detail: fmt.Sprintf("variable %q emptied", v.name)})
			eng.Log.Debug().Str("var", v.name).Msg("violation recorded, propagation continues")
		} else {
			eng.inconsistent = true
			eng.Log.Debug().Str("var", v.name).Msg("variable emptied, propagation halts")
		}
	}
	eng.equality.OnVariableChanged(v.key)
	for _, l := range eng.listenersByVar[v.key] {
		if !l.constraint.CanIgnore(l.argIndex, e) {
			if dp, ok := eng.byName[l.constraint.PropagatorName()]; ok {
				dp.Enqueue(l.constraint)
			}
		}
	}
}

func (eng *Engine) onVariableChanged(v *Variable) {
	eng.routeEvent(v, domain.EventBoundsRestricted)
}

// Propagate runs propagators round-robin by priority until every agenda
// is empty (quiescent) or inconsistency is proven. Returns the
// resulting status.
func (eng *Engine) Propagate() Status {
	if eng.inconsistent && !eng.Config.AllowViolations {
		return Inconsistent
	}
	if eng.observer != nil {
		eng.observer.PropagationCycle()
	}
	for {
		if eng.abort != nil && eng.abort() {
			break
		}
		progressed := false
		for _, p := range eng.propagators {
			if p.IsEmpty() {
				continue
			}
			if eng.observer != nil {
				eng.observer.PropagatorExecuted(p.Name())
				if dp, ok := p.(*DefaultPropagator); ok {
					eng.observer.SetAgendaDepth(p.Name(), dp.AgendaDepth())
				}
			}
			ran, err := p.Execute(eng)
			if err != nil {
				eng.Log.Error().Err(err).Msg("propagator execution error")
				eng.inconsistent = true
			}
			if ran {
				progressed = true
			}
			if eng.inconsistent && !eng.Config.AllowViolations {
				return Inconsistent
			}
			break // re-scan from highest priority after each step
		}
		if !progressed {
			break
		}
	}
	if eng.inconsistent && !eng.Config.AllowViolations {
		return Inconsistent
	}
	return Consistent
}

// IsInconsistent reports whether propagation has proven the network
// inconsistent.
func (eng *Engine) IsInconsistent() bool { return eng.inconsistent }

// CanContinuePropagation reports whether another Propagate call is
// meaningful: false once proven inconsistent without violation
// tolerance, until the caller explicitly Relax()es.
func (eng *Engine) CanContinuePropagation() bool {
	return !eng.inconsistent || eng.Config.AllowViolations
}

// Relax clears the inconsistency flag after an external relaxation
// (e.g. search retraction).
func (eng *Engine) Relax() {
	eng.inconsistent = false
}

// Violations returns the violations recorded while AllowViolations is
// set.
func (eng *Engine) Violations() []Violation { return append([]Violation(nil), eng.violations...) }

// ProvenInconsistent is a synonym of IsInconsistent.
func (eng *Engine) ProvenInconsistent() bool { return eng.inconsistent }

// SetObserver installs a propagation instrumentation collector; nil
// disables callbacks.
func (eng *Engine) SetObserver(o Observer) { eng.observer = o }

// Observer returns the installed instrumentation collector, or nil.
func (eng *Engine) Observer() Observer { return eng.observer }

// SetAbortFlag installs a predicate the propagation loop polls between
// propagator executions, allowing an external caller to interrupt a
// long-running cycle.
func (eng *Engine) SetAbortFlag(f func() bool) { eng.abort = f }

// Variable looks up a live variable by key.
func (eng *Engine) Variable(k Key) (*Variable, bool) {
	v, ok := eng.variables[k]
	return v, ok
}

// Variables returns every variable currently registered, for decision
// scanning and diagnostics.
func (eng *Engine) Variables() []*Variable {
	out := make([]*Variable, 0, len(eng.variables))
	for _, v := range eng.variables {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// EqualityClassOf exposes the equality propagator's class membership for
// v, used by the plan database's merge-compatibility checks and tests.
func (eng *Engine) EqualityClassOf(v Key) []Key { return eng.equality.ClassOf(v) }

// Constraint looks up a live constraint by key, used by callers (e.g.
// the plan database's merge/cancel bookkeeping) that stashed a key
// earlier and now need the constraint back to discard it.
func (eng *Engine) Constraint(k Key) (Constraint, bool) {
	c, ok := eng.constraints[k]
	return c, ok
}
