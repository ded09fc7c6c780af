// Package plandb implements the plan database:
// objects, timelines, resources, and tokens layered on top of
// internal/engine's constraint engine, reusing the engine's entity
// registry for object/token keys's "hierarchical
// ownership" redesign (engine owns variables/constraints, the plan
// database owns objects/tokens, both keyed through the one registry).
package plandb

import (
	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
)

// Object is a named typed entity holding member variables and a token
// list. Timelines enforce a total order over active
// tokens; Resources additionally carry a capacity profile and
// transactions (see resource.go).
type Object struct {
	key    engine.Key
	typ    string
	name   string
	vars   map[string]*engine.Variable
	tokens []*Token

	timeline bool
	ordered  []*Token // active tokens in timeline order, timelines only

	resource *resourceProfile // non-nil for resource objects
}

func (o *Object) Key() engine.Key         { return o.key }
func (o *Object) Kind() engine.EntityKind { return engine.KindObject }
func (o *Object) Type() string            { return o.typ }
func (o *Object) Name() string            { return o.name }
func (o *Object) Var(name string) (*engine.Variable, bool) {
	v, ok := o.vars[name]
	return v, ok
}
func (o *Object) Tokens() []*Token  { return append([]*Token(nil), o.tokens...) }
func (o *Object) IsTimeline() bool  { return o.timeline }
func (o *Object) IsResource() bool  { return o.resource != nil }
func (o *Object) Ordered() []*Token { return append([]*Token(nil), o.ordered...) }

// CreateObject registers a new Object of the given type with member
// variables built from args (name -> DataType). timeline marks it as
// enforcing a
// total active-token order; pass nil resourceProfile args via
// CreateResource instead for resource objects.
func (pdb *PlanDatabase) CreateObject(typ, name string, args map[string]*domain.DataType, timeline bool) *Object {
	key := pdb.eng.Registry.NewKey()
	o := &Object{key: key, typ: typ, name: name, vars: make(map[string]*engine.Variable), timeline: timeline}
	for argName, dt := range args {
		o.vars[argName] = pdb.eng.CreateVariable(dt, dt.BaseDomain(), name+"."+argName, false, true, nil, 0)
	}
	pdb.eng.Registry.Register(objectEntity{o})
	pdb.objects[key] = o
	pdb.record("createObject", key, map[string]any{"type": typ, "name": name, "timeline": timeline})
	return o
}

type objectEntity struct{ o *Object }

func (e objectEntity) Key() engine.Key         { return e.o.key }
func (e objectEntity) Kind() engine.EntityKind { return engine.KindObject }

// Constrain posts end(pred) <= start(succ) between two consecutive
// active tokens on a timeline and places succ immediately after pred in
// the timeline's ordered sequence The posted
// precedence constraint's key is returned so a retracting caller can
// discard exactly it.
func (pdb *PlanDatabase) Constrain(o *Object, pred, succ *Token) (engine.Key, error) {
	if pdb.closed {
		return 0, errClosed
	}
	if !o.timeline {
		return 0, errNotTimeline
	}
	c, err := pdb.eng.CreateConstraint("precedes", []*engine.Variable{pred.End, succ.Start})
	if err != nil {
		return 0, err
	}
	idx := -1
	for i, t := range o.ordered {
		if t == pred {
			idx = i
			break
		}
	}
	if idx < 0 {
		o.ordered = append(o.ordered, pred, succ)
	} else {
		tail := append([]*Token{succ}, o.ordered[idx+1:]...)
		o.ordered = append(o.ordered[:idx+1], tail...)
	}
	pdb.record("constrain", o.key, map[string]any{"pred": pred.Key(), "succ": succ.Key()})
	return c.Key(), nil
}

// Place inserts t into o's timeline order between pred and succ (either
// may be nil at the sequence ends), posting the precedence constraints
// the slot requires and returning their keys so a retracting caller can
// discard exactly them. This is the commit path for an object decision
// ; Constrain remains the pairwise client API.
func (pdb *PlanDatabase) Place(o *Object, t *Token, pred, succ *Token) ([]engine.Key, error) {
	if pdb.closed {
		return nil, errClosed
	}
	if !o.timeline {
		return nil, errNotTimeline
	}
	var keys []engine.Key
	discardAll := func() {
		for _, k := range keys {
			if c, ok := pdb.eng.Constraint(k); ok {
				pdb.eng.DiscardConstraint(c)
			}
		}
	}
	if pred != nil {
		c, err := pdb.eng.CreateConstraint("precedes", []*engine.Variable{pred.End, t.Start})
		if err != nil {
			return nil, err
		}
		keys = append(keys, c.Key())
	}
	if succ != nil {
		c, err := pdb.eng.CreateConstraint("precedes", []*engine.Variable{t.End, succ.Start})
		if err != nil {
			discardAll()
			return nil, err
		}
		keys = append(keys, c.Key())
	}

	switch {
	case pred == nil:
		o.ordered = append([]*Token{t}, o.ordered...)
	default:
		idx := len(o.ordered)
		for i, tok := range o.ordered {
			if tok == pred {
				idx = i + 1
				break
			}
		}
		tail := append([]*Token{t}, o.ordered[idx:]...)
		o.ordered = append(o.ordered[:idx], tail...)
	}
	pdb.record("place", o.key, map[string]any{"token": t.Key()})
	return keys, nil
}

// Free removes t from o's timeline order (used by undo when a placement
// decision is retracted), without discarding t itself.
func (pdb *PlanDatabase) Free(o *Object, t *Token) {
	kept := o.ordered[:0]
	for _, tok := range o.ordered {
		if tok != t {
			kept = append(kept, tok)
		}
	}
	o.ordered = kept
	pdb.record("free", o.key, map[string]any{"token": t.Key()})
}

// AddToken attaches t to o: appends it to o's token list and binds t's
// object-reference variable to the singleton {o.key}. It does not put t
// into o's timeline order: for an active token that is the object
// decision, which Place resolves.
func (pdb *PlanDatabase) AddToken(o *Object, t *Token) error {
	ref := domain.RefValue(int64(o.key))
	if !t.object.Specified().Contains(ref) {
		// o did not exist yet when t's object-reference domain was built;
		// the domain was left open precisely so a newly-created object can
		// still be inserted as a legal candidate (derived<=specified<=base
		// is preserved since Insert only ever widens, never narrows).
		t.object.Base().Insert(ref)
		t.object.Specified().Insert(ref)
	}
	if err := t.object.Specify(ref); err != nil {
		return err
	}
	o.tokens = append(o.tokens, t)
	pdb.record("addToken", o.key, map[string]any{"token": t.Key()})
	return nil
}
