package plandb

import (
	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
)

// Token state values.
const (
	StateInactive = "INACTIVE"
	StateActive   = "ACTIVE"
	StateMerged   = "MERGED"
	StateRejected = "REJECTED"
)

var stateTypeRoot = "TokenState"

// Token is a time-bounded, typed proposition:
// predicate name, a state domain over {INACTIVE,ACTIVE,MERGED,REJECTED},
// an owning object-reference variable, and the distinguished
// start/end/duration timepoint trio with start+duration=end.
type Token struct {
	key        engine.Key
	predicate  string
	rejectable bool

	object *engine.Variable // object-reference, which Object this token belongs to

	State    *engine.Variable
	Start    *engine.Variable
	End      *engine.Variable
	Duration *engine.Variable
	Params   map[string]*engine.Variable

	master *Token
	slaves []*Token

	mergedOnto       *Token
	mergeConstraints []engine.Key
}

func (t *Token) Key() engine.Key         { return t.key }
func (t *Token) Kind() engine.EntityKind { return engine.KindToken }
func (t *Token) Predicate() string       { return t.predicate }
func (t *Token) Rejectable() bool {
	if t.master != nil {
		// A slave is independently rejectable only if its master is: the
		// master chain is consulted, not a flat locally-stored flag.
		return t.rejectable && t.master.Rejectable()
	}
	return t.rejectable
}
func (t *Token) Master() *Token     { return t.master }
func (t *Token) Slaves() []*Token   { return append([]*Token(nil), t.slaves...) }
func (t *Token) MergedOnto() *Token { return t.mergedOnto }

func (t *Token) IsActive() bool {
	return t.State.Derived().IsSingleton() && t.State.Derived().SingletonValue().Equal(domain.SymbolValue(StateActive))
}

// CreateToken posts a new token with the given predicate. Its state
// domain starts open over {INACTIVE, ACTIVE} plus {REJECTED} iff
// rejectable; MERGED is present in the base domain (so a later insert
// respects derived<=specified<=base) but excluded from the live derived
// domain until a compatible active token is actually found.
func (pdb *PlanDatabase) CreateToken(predicate string, rejectable bool) *Token {
	members := []string{StateInactive, StateActive, StateMerged}
	if rejectable {
		members = append(members, StateRejected)
	}
	dt := domain.NewSymbolType(stateTypeRoot, members)
	base := domain.NewEnumDomain(symbolValues(members), true)

	key := pdb.eng.Registry.NewKey()
	stateVar := pdb.eng.CreateVariable(dt, base, predicate+".state", false, true, nil, 0)
	// No compatible active token exists yet: withhold MERGED from the
	// live derived domain until refreshMergeCandidates finds one.
	stateVar.Derived().Remove(domain.SymbolValue(StateMerged))

	intType := domain.NewIntType(0, int(domain.MaxFinite))
	start := pdb.eng.CreateVariable(intType, domain.NewIntInterval(0, int(domain.MaxFinite), false), predicate+".start", false, true, nil, 0)
	end := pdb.eng.CreateVariable(intType, domain.NewIntInterval(0, int(domain.MaxFinite), false), predicate+".end", false, true, nil, 0)
	dur := pdb.eng.CreateVariable(intType, domain.NewIntInterval(0, int(domain.MaxFinite), false), predicate+".duration", false, true, nil, 0)
	pdb.eng.CreateConstraint("addEq", []*engine.Variable{start, dur, end})

	objKeys := make([]int64, 0, len(pdb.objects))
	for k := range pdb.objects {
		objKeys = append(objKeys, int64(k))
	}
	objType := domain.NewObjectRefType(objKeys)
	objVar := pdb.eng.CreateVariable(objType, objType.BaseDomain(), predicate+".object", false, true, nil, 0)

	t := &Token{key: key, predicate: predicate, rejectable: rejectable, object: objVar, State: stateVar, Start: start, End: end, Duration: dur, Params: make(map[string]*engine.Variable)}
	pdb.eng.Registry.Register(tokenEntity{t})
	pdb.tokens[key] = t
	pdb.record("createToken", key, map[string]any{"predicate": predicate, "rejectable": rejectable})
	// A compatible active token may already exist, in which case MERGED
	// belongs in the live state domain from birth.
	pdb.refreshMergeCandidates()
	return t
}

type tokenEntity struct{ t *Token }

func (e tokenEntity) Key() engine.Key         { return e.t.key }
func (e tokenEntity) Kind() engine.EntityKind { return engine.KindToken }

func symbolValues(names []string) []domain.Value {
	vals := make([]domain.Value, len(names))
	for i, n := range names {
		vals[i] = domain.SymbolValue(n)
	}
	return vals
}

// Activate commits the ACTIVE choice: the token's state becomes a
// singleton ACTIVE, making it eligible for timeline placement /
// resource transaction bookkeeping.
func (pdb *PlanDatabase) Activate(t *Token) error {
	if pdb.closed {
		return errClosed
	}
	if err := t.State.Specify(domain.SymbolValue(StateActive)); err != nil {
		return err
	}
	pdb.record("activate", t.key, nil)
	pdb.refreshMergeCandidates()
	return nil
}

// Reject commits the REJECTED choice. Only valid if the token (and its
// master chain) is rejectable.
func (pdb *PlanDatabase) Reject(t *Token) error {
	if pdb.closed {
		return errClosed
	}
	if !t.Rejectable() {
		return errNotRejectable
	}
	if err := t.State.Specify(domain.SymbolValue(StateRejected)); err != nil {
		return err
	}
	pdb.record("reject", t.key, nil)
	return nil
}

// Merge merges t onto a: t's state becomes MERGED, an eq constraint is
// posted between each of t's distinguished/parameter variables and a's
// corresponding variable, and the posted constraint keys are remembered
// so Cancel can remove exactly them. a must be active and may not
// itself be merged.
func (pdb *PlanDatabase) Merge(t, a *Token) error {
	if pdb.closed {
		return errClosed
	}
	if a.mergedOnto != nil {
		return errAlreadyMerged
	}
	if !a.IsActive() {
		return errTargetNotActive
	}
	if !pdb.Compatible(a, t) {
		return errIncompatible
	}
	pairs := [][2]*engine.Variable{{t.Start, a.Start}, {t.End, a.End}, {t.Duration, a.Duration}}
	for name, pv := range t.Params {
		if av, ok := a.Params[name]; ok {
			pairs = append(pairs, [2]*engine.Variable{pv, av})
		}
	}
	var posted []engine.Key
	for _, pair := range pairs {
		c, err := pdb.eng.CreateConstraint("eq", []*engine.Variable{pair[0], pair[1]})
		if err != nil {
			for _, k := range posted {
				if constraint, ok := pdb.eng.Constraint(k); ok {
					pdb.eng.DiscardConstraint(constraint)
				}
			}
			return err
		}
		posted = append(posted, c.Key())
	}
	if err := t.State.Specify(domain.SymbolValue(StateMerged)); err != nil {
		return err
	}
	t.mergedOnto = a
	t.mergeConstraints = posted
	pdb.record("merge", t.key, map[string]any{"onto": a.key})
	return nil
}

// Cancel is the inverse of activate/reject/merge: it discards any
// merge-generated constraints and relaxes the token's state back to its
// full base domain.
func (pdb *PlanDatabase) Cancel(t *Token) error {
	if pdb.closed {
		return errClosed
	}
	if t.mergedOnto != nil {
		for _, k := range t.mergeConstraints {
			if constraint, ok := pdb.eng.Constraint(k); ok {
				pdb.eng.DiscardConstraint(constraint)
			}
		}
		t.mergeConstraints = nil
		t.mergedOnto = nil
	}
	t.State.Reset()
	pdb.record("cancel", t.key, nil)
	return nil
}

// RetractMerge discards the constraints Merge posted and clears the
// merge bookkeeping without relaxing any domains: the search driver
// restores domains from its pre-commit snapshot, so a Reset here (as
// Cancel does) would over-relax the state variable past what the
// snapshot knows.
func (pdb *PlanDatabase) RetractMerge(t *Token) {
	for _, k := range t.mergeConstraints {
		if constraint, ok := pdb.eng.Constraint(k); ok {
			pdb.eng.DiscardConstraint(constraint)
		}
	}
	t.mergeConstraints = nil
	t.mergedOnto = nil
	pdb.record("retractMerge", t.key, nil)
}

// Compatible is the merge-candidate test: a is
// compatible with t iff predicate equal, object domains intersect, and
// start/end/duration/parameter domains pairwise intersect.
func (pdb *PlanDatabase) Compatible(a, t *Token) bool {
	if a.predicate != t.predicate {
		return false
	}
	if a.object != nil && t.object != nil && !a.object.Derived().Intersects(t.object.Derived()) {
		return false
	}
	if !a.Start.Derived().Intersects(t.Start.Derived()) {
		return false
	}
	if !a.End.Derived().Intersects(t.End.Derived()) {
		return false
	}
	if !a.Duration.Derived().Intersects(t.Duration.Derived()) {
		return false
	}
	for name, av := range a.Params {
		if tv, ok := t.Params[name]; ok && !av.Derived().Intersects(tv.Derived()) {
			return false
		}
	}
	return true
}

// refreshMergeCandidates scans every non-singleton-state token and, if a
// compatible active token now exists for it, inserts MERGED back into
// its state's live derived domain (the domain was built open precisely
// so this insert is legal).
func (pdb *PlanDatabase) refreshMergeCandidates() {
	var actives []*Token
	for _, tok := range pdb.tokens {
		if tok.IsActive() {
			actives = append(actives, tok)
		}
	}
	for _, tok := range pdb.tokens {
		if tok.State.Derived().IsSingleton() {
			continue
		}
		for _, a := range actives {
			if a == tok {
				continue
			}
			if pdb.Compatible(a, tok) {
				tok.State.Derived().Insert(domain.SymbolValue(StateMerged))
				break
			}
		}
	}
}
