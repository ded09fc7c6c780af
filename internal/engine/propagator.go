package engine

import "fmt"

// Propagator owns an agenda of constraints pending execution plus a
// priority; the engine runs propagators in fixed priority order (lower
// number first), ties broken by insertion order.
type Propagator interface {
	Name() string
	Priority() int
	Enqueue(c Constraint)
	IsEmpty() bool
	// Execute runs one step of this propagator's agenda (DefaultPropagator
	// pops and runs a single constraint; EqualityPropagator processes one
	// dirty equivalence class). Returns whether anything was executed.
	Execute(eng *Engine) (ran bool, err error)
}

// DefaultPropagator maintains an insertion-ordered pending set of
// constraints. A constraint's own execution must
// not re-enqueue itself within the same call; this is enforced by the
// activeKey re-entry guard.
type DefaultPropagator struct {
	name      string
	priority  int
	pending   []Constraint
	queued    map[Key]bool
	activeKey Key
	inExec    bool
}

func NewDefaultPropagator(name string, priority int) *DefaultPropagator {
	return &DefaultPropagator{name: name, priority: priority, queued: make(map[Key]bool)}
}

func (p *DefaultPropagator) Name() string  { return p.name }
func (p *DefaultPropagator) Priority() int { return p.priority }
func (p *DefaultPropagator) IsEmpty() bool { return len(p.pending) == 0 }

func (p *DefaultPropagator) Enqueue(c Constraint) {
	if p.inExec && c.Key() == p.activeKey {
		// Re-entry guard: a constraint executing right now must not
		// re-enqueue itself from within its own Execute call.
		return
	}
	if p.queued[c.Key()] {
		return
	}
	p.queued[c.Key()] = true
	p.pending = append(p.pending, c)
}

func (p *DefaultPropagator) Execute(eng *Engine) (bool, error) {
	if len(p.pending) == 0 {
		return false, nil
	}
	c := p.pending[0]
	p.pending = p.pending[1:]
	delete(p.queued, c.Key())

	if !c.Active() || c.Discarded() {
		return true, nil
	}

	p.inExec = true
	p.activeKey = c.Key()
	err := c.Execute(eng)
	p.inExec = false

	if err != nil {
		return true, fmt.Errorf("propagator %s: constraint %s: %w", p.name, c.Name(), err)
	}
	return true, nil
}

// AgendaDepth reports the current pending-constraint count, exposed for
// telemetry (internal/telemetry.Metrics agendaDepth gauge).
func (p *DefaultPropagator) AgendaDepth() int { return len(p.pending) }
