package engine

// EqualityPropagator implements the equality-class propagator: an
// undirected graph of variables linked by equality constraints, whose
// connected components are equivalence classes. Rather than propagate eq constraints pairwise, the cheapest
// strategy intersects every member's derived domain in one pass per
// dirty class.
type EqualityPropagator struct {
	name     string
	priority int

	parent  map[Key]Key // union-find parent pointers, keyed by variable key
	rank    map[Key]int
	members map[Key]map[Key]bool // class root -> member variable keys

	dirty      map[Key]bool
	dirtyOrder []Key

	buffering bool // guards against recursive notification during Execute
	buffered  []Key
}

func NewEqualityPropagator(name string, priority int) *EqualityPropagator {
	return &EqualityPropagator{
		name:     name,
		priority: priority,
		parent:   make(map[Key]Key),
		rank:     make(map[Key]int),
		members:  make(map[Key]map[Key]bool),
		dirty:    make(map[Key]bool),
	}
}

func (p *EqualityPropagator) Name() string  { return p.name }
func (p *EqualityPropagator) Priority() int { return p.priority }
func (p *EqualityPropagator) IsEmpty() bool { return len(p.dirtyOrder) == 0 }

func (p *EqualityPropagator) find(k Key) Key {
	if _, ok := p.parent[k]; !ok {
		p.parent[k] = k
		p.rank[k] = 0
		p.members[k] = map[Key]bool{k: true}
		return k
	}
	if p.parent[k] != k {
		p.parent[k] = p.find(p.parent[k])
	}
	return p.parent[k]
}

// Union merges the equivalence classes of a and b, marking the merged
// class dirty and dropping the old class keys from the agenda.
func (p *EqualityPropagator) Union(a, b Key) {
	ra, rb := p.find(a), p.find(b)
	if ra == rb {
		p.markDirty(ra)
		return
	}
	// Union by rank; merge membership sets into the surviving root.
	if p.rank[ra] < p.rank[rb] {
		ra, rb = rb, ra
	}
	for m := range p.members[rb] {
		p.members[ra][m] = true
	}
	delete(p.members, rb)
	p.parent[rb] = ra
	if p.rank[ra] == p.rank[rb] {
		p.rank[ra]++
	}

	p.unmarkDirty(rb)
	p.markDirty(ra)
}

// Remove marks all classes dirty because removing an equality constraint
// requires recomputing the component structure from scratch. The caller,
// Engine.DiscardConstraint, rebuilds the union-find state via Rebuild
// after calling Remove for a discarded eq constraint.
func (p *EqualityPropagator) Remove() {
	for root := range p.members {
		p.markDirty(root)
	}
}

// Rebuild discards all union-find state; the caller re-adds the
// remaining equality constraints via Union. Used after Remove when the
// constraint set genuinely changed shape.
func (p *EqualityPropagator) Rebuild() {
	p.parent = make(map[Key]Key)
	p.rank = make(map[Key]int)
	p.members = make(map[Key]map[Key]bool)
}

// OnVariableChanged marks the class containing v dirty.
func (p *EqualityPropagator) OnVariableChanged(v Key) {
	if _, ok := p.parent[v]; !ok {
		return // v participates in no equality constraint
	}
	p.markDirty(p.find(v))
}

func (p *EqualityPropagator) markDirty(root Key) {
	if p.buffering {
		p.buffered = append(p.buffered, root)
		return
	}
	if p.dirty[root] {
		return
	}
	p.dirty[root] = true
	p.dirtyOrder = append(p.dirtyOrder, root)
}

func (p *EqualityPropagator) unmarkDirty(root Key) {
	if !p.dirty[root] {
		return
	}
	delete(p.dirty, root)
	for i, k := range p.dirtyOrder {
		if k == root {
			p.dirtyOrder = append(p.dirtyOrder[:i], p.dirtyOrder[i+1:]...)
			break
		}
	}
}

func (p *EqualityPropagator) Enqueue(c Constraint) {
	// Equality constraints register themselves via Union/OnVariableChanged
	// rather than through the generic agenda; Enqueue is a no-op to
	// satisfy the Propagator interface uniformly.
}

// Execute processes one dirty class: intersects every member's derived
// domain against the running intersection and writes it back to each
// member. Incoming notifications during Execute are buffered, not
// processed immediately, guarding against recursive re-entry.
func (p *EqualityPropagator) Execute(eng *Engine) (bool, error) {
	if len(p.dirtyOrder) == 0 {
		return false, nil
	}
	root := p.dirtyOrder[0]
	p.dirtyOrder = p.dirtyOrder[1:]
	delete(p.dirty, root)

	members := p.members[root]
	if len(members) < 2 {
		return true, nil
	}

	p.buffering = true
	vars := make([]*Variable, 0, len(members))
	for k := range members {
		if v, ok := eng.variables[k]; ok {
			vars = append(vars, v)
		}
	}
	// Map iteration makes the accumulator slot (vars[0]) arbitrary, but
	// every member ends at the same class-wide intersection, so the
	// observable post-quiescence state stays deterministic.
	for i := 1; i < len(vars); i++ {
		if vars[0].derived.Intersect(vars[i].derived) {
			// keep widening the running intersection in vars[0]
		}
	}
	for i := 1; i < len(vars); i++ {
		if vars[i].derived.Intersect(vars[0].derived) {
			eng.onVariableChanged(vars[i])
		}
	}
	p.buffering = false

	for _, root := range p.buffered {
		p.markDirty(root)
	}
	p.buffered = nil

	for _, v := range vars {
		if v.derived.IsEmpty() {
			return true, nil
		}
	}
	return true, nil
}

// ClassOf exposes the equivalence-class members of v (including v
// itself), used by the merge-compatibility checks and by tests.
func (p *EqualityPropagator) ClassOf(v Key) []Key {
	if _, ok := p.parent[v]; !ok {
		return []Key{v}
	}
	out := make([]Key, 0, len(p.members[p.find(v)]))
	for m := range p.members[p.find(v)] {
		out = append(out, m)
	}
	return out
}
