package decision

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
	"github.com/gokando/tempnet/internal/plandb"
	"github.com/gokando/tempnet/internal/stn"
	"github.com/gokando/tempnet/internal/telemetry"
)

// defaultValueCap bounds value enumeration over wide interval domains
// when no MaxChoices configuration is set; without it a timepoint over
// [0, MAX_FINITE] would enumerate a billion choices.
const defaultValueCap = 100

// Manager maintains the open-decision caches,
// one per decision kind, refreshed from the engine and plan database
// after each propagation cycle. Selection returns the best-priority
// decision under the configured preference, ties broken by the Kind
// enumeration order and then by entity key.
type Manager struct {
	eng     *engine.Engine
	pdb     *plandb.PlanDatabase
	heur    *Heuristics
	advisor *stn.Advisor
	log     zerolog.Logger
	metrics *telemetry.Metrics

	// HorizonUB is the planning horizon's upper bound; the
	// push-beyond-horizon resource choice is only enumerated when it is
	// finite and the configuration allows it.
	HorizonUB float64

	points map[engine.Key]*Point // all live decision points by their own key
	byFlaw map[engine.Key]*Point // index: flawed entity key -> point
}

// NewManager builds a manager over pdb's engine. heur may be nil for
// all-default heuristics; metrics may be nil.
func NewManager(pdb *plandb.PlanDatabase, heur *Heuristics, log zerolog.Logger, metrics *telemetry.Metrics) *Manager {
	if heur == nil {
		heur = NewHeuristics(0)
	}
	eng := pdb.Engine()
	return &Manager{
		eng:       eng,
		pdb:       pdb,
		heur:      heur,
		advisor:   stn.NewAdvisor(eng),
		log:       log,
		metrics:   metrics,
		HorizonUB: domain.MaxFinite,
		points:    make(map[engine.Key]*Point),
		byFlaw:    make(map[engine.Key]*Point),
	}
}

// Heuristics exposes the manager's heuristic table for configuration.
func (m *Manager) Heuristics() *Heuristics { return m.heur }

// Open returns every live decision point, sorted by key, for
// diagnostics and tests.
func (m *Manager) Open() []*Point {
	out := make([]*Point, 0, len(m.points))
	for _, p := range m.points {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// Recompute synchronizes the decision caches with the current engine
// and plan-database state: resolved flaws drop their decisions, new
// flaws gain one. Points whose choice cursor is already advanced
// (current or retracted) keep their cursor; still-open points have
// their choices re-enumerated so they reflect post-propagation domains.
func (m *Manager) Recompute() {
	m.syncVariables()
	m.syncTokens()
	m.syncObjects()
	m.syncResources()
}

func (m *Manager) addPoint(flawKey engine.Key, p *Point) {
	p.key = m.eng.Registry.NewKey()
	m.eng.Registry.Register(pointEntity{p})
	m.points[p.key] = p
	m.byFlaw[flawKey] = p
	m.metrics.DecisionOpened(p.kind.String())
	m.log.Debug().Stringer("decision", p).Int64("key", int64(p.key)).Msg("decision opened")
}

func (m *Manager) dropPoint(flawKey engine.Key) {
	p, ok := m.byFlaw[flawKey]
	if !ok {
		return
	}
	delete(m.byFlaw, flawKey)
	delete(m.points, p.key)
	m.eng.Registry.Destroy(p.key)
}

type pointEntity struct{ p *Point }

func (e pointEntity) Key() engine.Key         { return e.p.key }
func (e pointEntity) Kind() engine.EntityKind { return engine.KindDecisionPoint }

// tokenStateKeys collects the variables the token machinery owns whose
// flaws are expressed as token decisions (state) rather than variable
// decisions.
func (m *Manager) tokenStateKeys() map[engine.Key]bool {
	keys := make(map[engine.Key]bool)
	for _, t := range m.pdb.Tokens() {
		keys[t.State.Key()] = true
	}
	return keys
}

func (m *Manager) syncVariables() {
	stateKeys := m.tokenStateKeys()
	for _, v := range m.eng.Variables() {
		if stateKeys[v.Key()] {
			// State variables are token decisions (syncTokens), indexed
			// in byFlaw under the same key.
			continue
		}
		d := v.Derived()
		flawed := !v.Internal() && !d.IsOpen() && !d.IsSingleton() && !d.IsEmpty()
		p, have := m.byFlaw[v.Key()]
		switch {
		case flawed && !have:
			kind := KindNonUnitVariable
			if v.Specified().IsSingleton() {
				kind = KindUnitVariable
			}
			np := &Point{kind: kind, variable: v}
			np.priority = m.heur.Lookup(Ident{Predicate: v.Name()}).Priority
			np.choices = m.variableChoices(v)
			m.addPoint(v.Key(), np)
		case flawed && have && p.status == StatusOpen:
			p.choices = m.variableChoices(v)
			p.ResetChoices()
		case !flawed && have && p.status != StatusClosed && p.status != StatusCurrent:
			m.dropPoint(v.Key())
		}
	}
}

func (m *Manager) variableChoices(v *engine.Variable) []Choice {
	entry := m.heur.Lookup(Ident{Predicate: v.Name()})
	limit := m.choiceCap()
	vals := enumerateValues(v, limit)
	vals = m.heur.OrderValues(entry, vals)
	if len(vals) > limit {
		m.log.Debug().Str("var", v.Name()).Int("cap", limit).Int("total", len(vals)).Msg("variable choices capped")
		vals = vals[:limit]
	}
	choices := make([]Choice, len(vals))
	for i, val := range vals {
		choices[i] = Choice{Label: v.Name() + "=" + val.String(), Value: val}
	}
	return choices
}

// enumerateValues lists candidate values without materializing wide
// interval domains: an int interval wider than limit yields only its
// first limit values from the lower bound up, a non-singleton float
// interval yields its two bounds.
func enumerateValues(v *engine.Variable, limit int) []domain.Value {
	d := v.Derived()
	lb, ub, numeric := d.Bounds()
	if !numeric {
		return d.Values()
	}
	switch v.DataType().Kind() {
	case domain.KindFloat:
		if lb == ub {
			return []domain.Value{domain.FloatValue(lb)}
		}
		return []domain.Value{domain.FloatValue(lb), domain.FloatValue(ub)}
	default:
		if ub-lb+1 > float64(limit) {
			vals := make([]domain.Value, 0, limit)
			for i := 0; i < limit; i++ {
				vals = append(vals, domain.IntValue(int64(lb)+int64(i)))
			}
			return vals
		}
		return d.Values()
	}
}

func (m *Manager) choiceCap() int {
	if mc := m.eng.Config.MaxChoices; mc > 0 {
		return mc
	}
	return defaultValueCap
}

func (m *Manager) syncTokens() {
	for _, t := range m.sortedTokens() {
		d := t.State.Derived()
		flawed := !d.IsSingleton() && !d.IsEmpty()
		p, have := m.byFlaw[t.State.Key()]
		switch {
		case flawed && !have:
			kind := KindNonUnitToken
			if t.State.Specified().IsSingleton() {
				kind = KindUnitToken
			}
			np := &Point{kind: kind, token: t}
			np.priority = m.heur.Lookup(m.tokenIdent(t)).Priority
			np.choices = m.tokenChoices(t)
			m.addPoint(t.State.Key(), np)
		case flawed && have && p.status == StatusOpen:
			p.choices = m.tokenChoices(t)
			p.ResetChoices()
		case !flawed && have && p.status != StatusClosed && p.status != StatusCurrent:
			m.dropPoint(t.State.Key())
		}
	}
}

func (m *Manager) tokenIdent(t *plandb.Token) Ident {
	ident := Ident{Predicate: t.Predicate()}
	if master := t.Master(); master != nil {
		ident.ParentPredicate = master.Predicate()
		ident.Relationship = "slave"
	}
	return ident
}

// tokenChoices enumerates MERGED candidates (one per compatible active
// token), then ACTIVE, then REJECTED if rejectable; INACTIVE is never
// offered. The heuristic entry's state order
// rearranges the three groups.
func (m *Manager) tokenChoices(t *plandb.Token) []Choice {
	entry := m.heur.Lookup(m.tokenIdent(t))
	byState := map[string][]Choice{}

	if t.State.Derived().Contains(domain.SymbolValue(plandb.StateMerged)) {
		for _, a := range m.sortedTokens() {
			if a == t || !a.IsActive() || a.MergedOnto() != nil {
				continue
			}
			if m.pdb.Compatible(a, t) {
				byState[plandb.StateMerged] = append(byState[plandb.StateMerged], Choice{
					Label:       "merge:" + t.Predicate(),
					State:       plandb.StateMerged,
					MergeTarget: a,
				})
			}
		}
	}
	if t.State.Derived().Contains(domain.SymbolValue(plandb.StateActive)) {
		byState[plandb.StateActive] = []Choice{{Label: "activate:" + t.Predicate(), State: plandb.StateActive}}
	}
	if t.Rejectable() && t.State.Derived().Contains(domain.SymbolValue(plandb.StateRejected)) {
		byState[plandb.StateRejected] = []Choice{{Label: "reject:" + t.Predicate(), State: plandb.StateRejected}}
	}

	var choices []Choice
	for _, state := range entry.StateOrder {
		choices = append(choices, byState[state]...)
	}
	if limit := m.choiceCap(); len(choices) > limit {
		choices = choices[:limit]
	}
	return choices
}

func (m *Manager) sortedTokens() []*plandb.Token {
	toks := m.pdb.Tokens()
	sort.Slice(toks, func(i, j int) bool { return toks[i].Key() < toks[j].Key() })
	return toks
}

func (m *Manager) sortedObjects() []*plandb.Object {
	objs := m.pdb.Objects()
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key() < objs[j].Key() })
	return objs
}

// syncObjects maintains the object decisions: an active token bound to
// a timeline object but absent from that timeline's ordered sequence
// needs a placement choice.
func (m *Manager) syncObjects() {
	for _, o := range m.sortedObjects() {
		if !o.IsTimeline() {
			continue
		}
		placed := map[engine.Key]bool{}
		for _, t := range o.Ordered() {
			placed[t.Key()] = true
		}
		for _, t := range o.Tokens() {
			flawed := t.IsActive() && !placed[t.Key()]
			flawKey := objectFlawKey(o, t)
			p, have := m.byFlaw[flawKey]
			switch {
			case flawed && !have:
				np := &Point{kind: KindObject, token: t, object: o}
				np.priority = m.heur.Lookup(m.tokenIdent(t)).Priority
				np.choices = m.placementChoices(o, t)
				m.addPoint(flawKey, np)
			case flawed && have && p.status == StatusOpen:
				p.choices = m.placementChoices(o, t)
				p.ResetChoices()
			case !flawed && have && p.status != StatusClosed && p.status != StatusCurrent:
				m.dropPoint(flawKey)
			}
		}
	}
}

// objectFlawKey identifies an object-placement flaw by the token's own
// key: a token needs placement on at most one timeline at a time, so
// the token key is unique enough and survives the object's other
// tokens coming and going.
func objectFlawKey(o *plandb.Object, t *plandb.Token) engine.Key {
	return t.Key()
}

// placementChoices enumerates (pred, succ) insertion slots on the
// timeline whose temporal window can still contain the token, asking
// the temporal advisor (the advisor interface).
func (m *Manager) placementChoices(o *plandb.Object, t *plandb.Token) []Choice {
	seq := o.Ordered()
	var choices []Choice
	addSlot := func(pred, succ *plandb.Token) {
		if pred != nil && !m.advisor.CanPrecede(pred.End, t.Start) {
			return
		}
		if succ != nil && !m.advisor.CanPrecede(t.End, succ.Start) {
			return
		}
		label := "place:" + t.Predicate()
		choices = append(choices, Choice{Label: label, Pred: pred, Succ: succ})
	}
	if len(seq) == 0 {
		addSlot(nil, nil)
		return choices
	}
	addSlot(nil, seq[0])
	for i := 0; i < len(seq)-1; i++ {
		addSlot(seq[i], seq[i+1])
	}
	addSlot(seq[len(seq)-1], nil)
	if limit := m.choiceCap(); len(choices) > limit {
		choices = choices[:limit]
	}
	return choices
}

// syncResources maintains at most one open resource-flaw decision per
// resource.
func (m *Manager) syncResources() {
	flawsByResource := map[engine.Key]plandb.ResourceFlaw{}
	for _, f := range m.pdb.Flaws() {
		if _, seen := flawsByResource[f.Resource.Key()]; !seen {
			flawsByResource[f.Resource.Key()] = f
		}
	}
	for _, o := range m.sortedObjects() {
		if !o.IsResource() {
			continue
		}
		f, flawed := flawsByResource[o.Key()]
		p, have := m.byFlaw[o.Key()]
		switch {
		case flawed && (!have || p.status == StatusClosed):
			// No decision yet, or the slot holder is committed on the
			// stack having resolved its own pair: a remaining flaw gets
			// the resource's one open decision. The committed point
			// lives on through its stack frame only.
			if have {
				m.dropPoint(o.Key())
			}
			flaw := f
			np := &Point{kind: KindResourceFlaw, object: o, flaw: &flaw}
			np.priority = m.heur.Lookup(Ident{Predicate: o.Name()}).Priority
			np.choices = m.flawChoices(&flaw)
			m.addPoint(o.Key(), np)
		case flawed && have && p.status == StatusOpen:
			flaw := f
			p.flaw = &flaw
			p.choices = m.flawChoices(&flaw)
			p.ResetChoices()
		case !flawed && have && p.status != StatusClosed && p.status != StatusCurrent:
			m.dropPoint(o.Key())
		}
	}
}

func (m *Manager) flawChoices(f *plandb.ResourceFlaw) []Choice {
	choices := []Choice{
		{Label: "order(a<b)", Reversed: false},
		{Label: "order(b<a)", Reversed: true},
	}
	if m.eng.Config.AllowPushBeyondHorizon && !domain.IsPosInf(m.HorizonUB) && m.HorizonUB < domain.MaxFinite {
		choices = append(choices, Choice{Label: "push-beyond-horizon", PushBeyond: true, Horizon: m.HorizonUB})
	}
	return choices
}

// NextDecision returns the open decision with the best priority under
// the configured preference (HIGH -> largest, LOW -> smallest), ties
// broken by the Kind enumeration order, then by key. Exhausted
// decisions are still returned; the driver's loop treats them as the
// signal to retract. Returns nil when no open decisions remain.
func (m *Manager) NextDecision() *Point {
	var best *Point
	high := m.eng.Config.PriorityPreference != "LOW"
	for _, p := range m.Open() {
		if p.status == StatusClosed || p.status == StatusCurrent {
			continue
		}
		if best == nil || better(p, best, high) {
			best = p
		}
	}
	if best != nil && !best.Exhausted() {
		best.SetStatus(StatusCurrent)
	}
	return best
}

func better(a, b *Point, high bool) bool {
	if a.priority != b.priority {
		if high {
			return a.priority > b.priority
		}
		return a.priority < b.priority
	}
	if a.kind != b.kind {
		return a.kind < b.kind
	}
	return a.key < b.key
}

// NextChoice hands out d's next untried choice, or nil when the
// decision is exhausted.
func (m *Manager) NextChoice(d *Point) *Choice {
	if d.next >= len(d.choices) {
		d.MarkExhausted()
		return nil
	}
	c := d.choices[d.next]
	d.next++
	return &c
}

// Release drops a decision from the caches entirely (used when a closed
// decision's flaw was resolved by its own commit and the point must not
// be re-offered).
func (m *Manager) Release(d *Point) {
	for flawKey, p := range m.byFlaw {
		if p == d {
			delete(m.byFlaw, flawKey)
			break
		}
	}
	delete(m.points, d.key)
	m.eng.Registry.Destroy(d.key)
}
