package stn

import "github.com/gokando/tempnet/internal/engine"

// Advisor answers the plan database's ordering questions. When the
// temporal propagator is active it answers from the distance graph's
// current shortest-path bounds; when disabled by configuration it
// answers conservatively from static domain inspection only,
// which happens to be the same bound-reading code path either way since
// the fallback constraints (see fallback.go) keep each timepoint's own
// derived domain correctly bound-consistent without a graph.
type Advisor struct {
	tp *Propagator // nil when temporal propagation is disabled

	lastStamp int
	cache     map[engine.Key]float64
}

// NewAdvisor builds an Advisor bound to eng's temporal propagator, or a
// fallback advisor if none is installed (Config.UseTemporalPropagator
// false, or stn.Install was never called).
func NewAdvisor(eng *engine.Engine) *Advisor {
	a := &Advisor{cache: make(map[engine.Key]float64)}
	if p, ok := eng.Propagator("temporal"); ok {
		if tp, ok := p.(*Propagator); ok {
			a.tp = tp
		}
	}
	return a
}

// CanPrecede reports whether it remains consistent for a to precede b
// (a<=b) given their current derived bounds: true unless a's lower
// bound already exceeds b's upper bound.
func (a *Advisor) CanPrecede(x, y *engine.Variable) bool {
	xlb, _, _ := x.Derived().Bounds()
	_, yub, _ := y.Derived().Bounds()
	return xlb <= yub
}

// CanFitBetween reports whether a token with the given start/end
// timepoints can be placed strictly between prevEnd and nextStart: its
// start cannot precede prevEnd's lower bound and its end cannot exceed
// nextStart's upper bound becoming infeasible.
func (a *Advisor) CanFitBetween(start, end, prevEnd, nextStart *engine.Variable) bool {
	return a.CanPrecede(prevEnd, start) && a.CanPrecede(end, nextStart)
}

// MostRecent returns the current lower bound of a timepoint variable,
// i.e. the earliest point consistent with everything propagated so far.
// Answers are memoized per propagation cycle when a live temporal
// propagator is present; in fallback mode there is no cycle concept to
// stamp against, so it always reads fresh.
func (a *Advisor) MostRecent(t *engine.Variable) float64 {
	if a.tp == nil {
		lb, _, _ := t.Derived().Bounds()
		return lb
	}
	if a.tp.cycleStamp != a.lastStamp {
		a.lastStamp = a.tp.cycleStamp
		a.cache = make(map[engine.Key]float64)
	}
	if v, ok := a.cache[t.Key()]; ok {
		return v
	}
	lb, _, _ := t.Derived().Bounds()
	a.cache[t.Key()] = lb
	return lb
}
