package engine

import "github.com/gokando/tempnet/internal/domain"

// Snapshot captures every variable's specified and derived domains at a
// point in time, so a search retraction can restore the exact pre-commit
// state (the undo-fidelity property). Restoration is by
// key: variables created after the snapshot was taken (auxiliaries of
// later-posted constraints) are simply left alone, since the retraction
// that triggered the restore also discards the constraints that own them.
type Snapshot struct {
	domains      map[Key][2]domain.Domain // spec, derived
	inconsistent bool
	violations   int
}

// TakeSnapshot clones the current specified/derived domain of every live
// variable.
func (eng *Engine) TakeSnapshot() *Snapshot {
	s := &Snapshot{
		domains:      make(map[Key][2]domain.Domain, len(eng.variables)),
		inconsistent: eng.inconsistent,
		violations:   len(eng.violations),
	}
	for k, v := range eng.variables {
		s.domains[k] = [2]domain.Domain{v.spec.Clone(), v.derived.Clone()}
	}
	return s
}

// RestoreSnapshot puts every variable present in s back to its captured
// domains and re-arms the derived-domain listener. Domains are restored
// silently (no RELAXED events fire): the caller is unwinding to a state
// the engine has already been in, and re-notifying constraints about a
// relaxation they never see as a restriction would only churn agendas.
func (eng *Engine) RestoreSnapshot(s *Snapshot) {
	for k, saved := range s.domains {
		v, ok := eng.variables[k]
		if !ok {
			continue
		}
		v.spec = saved[0].Clone()
		v.derived = saved[1].Clone()
		v.derived.SetListener(domain.ListenerFunc(func(e domain.Event) {
			eng.routeEvent(v, e)
		}))
	}
	eng.inconsistent = s.inconsistent
	if s.violations < len(eng.violations) {
		eng.violations = eng.violations[:s.violations]
	}
}
