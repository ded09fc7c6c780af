package decision

import (
	"math"
	"sort"

	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/plandb"
)

// Order tags the value-ordering applied to a variable decision's
// choices. Tags beyond the first four map to concrete comparators
// rather than being left unsupported.
type Order int

const (
	OrderAscending Order = iota
	OrderDescending
	OrderEnumeration // explicit value list from the heuristic entry
	OrderGenerator   // named registered generator
	OrderNear        // closest to the domain midpoint first
	OrderFar         // farthest from the domain midpoint first
	OrderEarly       // synonym of ascending for timepoints
	OrderLate        // synonym of descending for timepoints
	OrderMaxFlexible
	OrderMinFlexible
	OrderLeastSpecified
	OrderMostSpecified
)

// MaxPriority bounds every heuristic priority: the engine never invents
// priorities outside [0, MaxPriority].
const MaxPriority = 1e9

// Generator produces an ordered candidate-value list for a variable,
// registered by name and referenced from heuristic entries.
type Generator func(v []domain.Value) []domain.Value

// Ident is a decision's identity for heuristic lookup: the predicate
// name (or variable name), the parent token's predicate if any, and the
// master/slave relationship label if any.
type Ident struct {
	Predicate       string
	ParentPredicate string
	Relationship    string
}

// Entry is one heuristic table row.
type Entry struct {
	Priority    float64
	StateOrder  []string // preferred token-state order, e.g. MERGED before ACTIVE
	ValueOrder  Order
	Enumeration []domain.Value // when ValueOrder == OrderEnumeration
	Generator   string         // when ValueOrder == OrderGenerator
}

// Heuristics is the keyed heuristic table. Lookup tries
// the most specific key first (predicate+parent+relationship), then
// predicate+parent, then predicate alone, then falls back to defaults.
type Heuristics struct {
	entries         map[Ident]Entry
	generators      map[string]Generator
	defaultPriority float64
	defaultEntry    Entry
}

// NewHeuristics builds an empty table with the given default priority.
func NewHeuristics(defaultPriority float64) *Heuristics {
	p := clampPriority(defaultPriority)
	return &Heuristics{
		entries:         make(map[Ident]Entry),
		generators:      make(map[string]Generator),
		defaultPriority: p,
		defaultEntry: Entry{
			Priority:   p,
			StateOrder: []string{plandb.StateMerged, plandb.StateActive, plandb.StateRejected},
			ValueOrder: OrderAscending,
		},
	}
}

func clampPriority(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}

// Set installs or replaces the entry for ident, clamping its priority
// into the legal range.
func (h *Heuristics) Set(ident Ident, e Entry) {
	e.Priority = clampPriority(e.Priority)
	if len(e.StateOrder) == 0 {
		e.StateOrder = h.defaultEntry.StateOrder
	}
	h.entries[ident] = e
}

// RegisterGenerator installs a named value generator referenced by
// OrderGenerator entries.
func (h *Heuristics) RegisterGenerator(name string, g Generator) {
	h.generators[name] = g
}

// Lookup resolves ident to the most specific matching entry, falling
// back to the default entry when nothing matches.
func (h *Heuristics) Lookup(ident Ident) Entry {
	if e, ok := h.entries[ident]; ok {
		return e
	}
	if e, ok := h.entries[Ident{Predicate: ident.Predicate, ParentPredicate: ident.ParentPredicate}]; ok {
		return e
	}
	if e, ok := h.entries[Ident{Predicate: ident.Predicate}]; ok {
		return e
	}
	return h.defaultEntry
}

// DefaultPriority returns the table's fallback priority.
func (h *Heuristics) DefaultPriority() float64 { return h.defaultPriority }

// OrderValues arranges vals per the entry's value-ordering tag. The
// input slice arrives in the domain's natural ascending order and is
// not mutated.
func (h *Heuristics) OrderValues(e Entry, vals []domain.Value) []domain.Value {
	out := append([]domain.Value(nil), vals...)
	switch e.ValueOrder {
	case OrderAscending, OrderEarly, OrderLeastSpecified, OrderMaxFlexible:
		// Already ascending.
	case OrderDescending, OrderLate, OrderMostSpecified, OrderMinFlexible:
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	case OrderNear, OrderFar:
		mid := midpoint(out)
		sort.SliceStable(out, func(i, j int) bool {
			di, dj := distanceTo(out[i], mid), distanceTo(out[j], mid)
			if e.ValueOrder == OrderNear {
				return di < dj
			}
			return di > dj
		})
	case OrderEnumeration:
		ordered := make([]domain.Value, 0, len(out))
		for _, want := range e.Enumeration {
			for _, v := range out {
				if v.Equal(want) {
					ordered = append(ordered, v)
					break
				}
			}
		}
		return ordered
	case OrderGenerator:
		if g, ok := h.generators[e.Generator]; ok {
			return g(out)
		}
	}
	return out
}

func midpoint(vals []domain.Value) float64 {
	if len(vals) == 0 {
		return 0
	}
	lo, okLo := vals[0].AsFloat()
	hi, okHi := vals[len(vals)-1].AsFloat()
	if !okLo || !okHi {
		return 0
	}
	return (lo + hi) / 2
}

func distanceTo(v domain.Value, mid float64) float64 {
	f, ok := v.AsFloat()
	if !ok {
		return 0
	}
	return math.Abs(f - mid)
}
