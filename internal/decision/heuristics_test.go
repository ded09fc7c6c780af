package decision_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gokando/tempnet/internal/decision"
	"github.com/gokando/tempnet/internal/domain"
)

func vals(ns ...int64) []domain.Value {
	out := make([]domain.Value, len(ns))
	for i, n := range ns {
		out[i] = domain.IntValue(n)
	}
	return out
}

func TestHeuristicLookupSpecificity(t *testing.T) {
	h := decision.NewHeuristics(2)
	h.Set(decision.Ident{Predicate: "Drive"}, decision.Entry{Priority: 5})
	h.Set(decision.Ident{Predicate: "Drive", ParentPredicate: "Mission", Relationship: "slave"}, decision.Entry{Priority: 9})

	assert.Equal(t, 9.0, h.Lookup(decision.Ident{Predicate: "Drive", ParentPredicate: "Mission", Relationship: "slave"}).Priority)
	assert.Equal(t, 5.0, h.Lookup(decision.Ident{Predicate: "Drive", ParentPredicate: "Other"}).Priority)
	assert.Equal(t, 2.0, h.Lookup(decision.Ident{Predicate: "Sample"}).Priority)
}

func TestPriorityClamping(t *testing.T) {
	h := decision.NewHeuristics(-1)
	assert.Equal(t, 0.0, h.DefaultPriority())

	h.Set(decision.Ident{Predicate: "p"}, decision.Entry{Priority: 2e9})
	assert.Equal(t, decision.MaxPriority, h.Lookup(decision.Ident{Predicate: "p"}).Priority)
}

func TestOrderValuesComparators(t *testing.T) {
	h := decision.NewHeuristics(0)
	in := vals(1, 2, 3, 4, 5)

	asc := h.OrderValues(decision.Entry{ValueOrder: decision.OrderAscending}, in)
	assert.Equal(t, vals(1, 2, 3, 4, 5), asc)

	desc := h.OrderValues(decision.Entry{ValueOrder: decision.OrderDescending}, in)
	assert.Equal(t, vals(5, 4, 3, 2, 1), desc)

	near := h.OrderValues(decision.Entry{ValueOrder: decision.OrderNear}, in)
	assert.Equal(t, domain.IntValue(3), near[0])

	far := h.OrderValues(decision.Entry{ValueOrder: decision.OrderFar}, in)
	assert.Contains(t, vals(1, 5), far[0])

	enum := h.OrderValues(decision.Entry{ValueOrder: decision.OrderEnumeration, Enumeration: vals(4, 2, 9)}, in)
	assert.Equal(t, vals(4, 2), enum)
}

func TestGeneratorOrder(t *testing.T) {
	h := decision.NewHeuristics(0)
	h.RegisterGenerator("evens-first", func(in []domain.Value) []domain.Value {
		var evens, odds []domain.Value
		for _, v := range in {
			if v.Int%2 == 0 {
				evens = append(evens, v)
			} else {
				odds = append(odds, v)
			}
		}
		return append(evens, odds...)
	})

	out := h.OrderValues(decision.Entry{ValueOrder: decision.OrderGenerator, Generator: "evens-first"}, vals(1, 2, 3, 4))
	assert.Equal(t, vals(2, 4, 1, 3), out)
}
