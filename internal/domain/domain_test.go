package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalIntersectBounds(t *testing.T) {
	tests := []struct {
		name       string
		lb, ub     int
		ilb, iub   int
		wantLB     int
		wantUB     int
		wantChange bool
		wantEmpty  bool
	}{
		{"tighten both", 0, 10, 3, 7, 3, 7, true, false},
		{"no change", 0, 10, -5, 20, 0, 10, false, false},
		{"to singleton", 0, 10, 5, 5, 5, 5, true, false},
		{"empties", 0, 10, 11, 20, 0, 0, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := NewIntInterval(tc.lb, tc.ub, false)
			changed := d.IntersectBounds(float64(tc.ilb), float64(tc.iub))
			assert.Equal(t, tc.wantChange, changed)
			assert.Equal(t, tc.wantEmpty, d.IsEmpty())
		})
	}
}

func TestIntervalEventsOnListener(t *testing.T) {
	var got []Event
	d := NewIntInterval(0, 10, false)
	d.SetListener(ListenerFunc(func(e Event) { got = append(got, e) }))

	d.IntersectBounds(3, 7)
	require.Len(t, got, 1)
	assert.Equal(t, EventBoundsRestricted, got[0])

	d.IntersectBounds(5, 5)
	require.Len(t, got, 2)
	assert.Equal(t, EventRestrictToSingleton, got[1])

	d.IntersectBounds(6, 6)
	require.Len(t, got, 3)
	assert.Equal(t, EventEmptied, got[2])
}

func TestClosedEmptyListenerReplaysClosedThenEmptied(t *testing.T) {
	d := NewIntInterval(5, 3, false) // already empty
	d.Close()

	var got []Event
	d.SetListener(ListenerFunc(func(e Event) { got = append(got, e) }))
	require.Len(t, got, 2)
	assert.Equal(t, EventClosed, got[0])
	assert.Equal(t, EventEmptied, got[1])
}

func TestEnumIntersectAndEquate(t *testing.T) {
	a := NewEnumDomain([]Value{IntValue(1), IntValue(2), IntValue(3)}, false)
	b := NewEnumDomain([]Value{IntValue(2), IntValue(3), IntValue(4)}, false)

	changed := Equate(a, b)
	assert.True(t, changed)
	assert.ElementsMatch(t, []Value{IntValue(2), IntValue(3)}, a.Values())
	assert.ElementsMatch(t, []Value{IntValue(2), IntValue(3)}, b.Values())
}

func TestEnumEquateIdempotent(t *testing.T) {
	a := NewEnumDomain([]Value{IntValue(1), IntValue(2)}, false)
	b := NewEnumDomain([]Value{IntValue(1), IntValue(2)}, false)
	changed := Equate(a, b)
	assert.False(t, changed)
}

func TestOpenEnumDeferredIntersect(t *testing.T) {
	// Intersecting against an open enum must not silently drop values
	// that haven't arrived in it yet.
	a := NewEnumDomain([]Value{IntValue(1), IntValue(2)}, false)
	openB := NewEnumDomain([]Value{IntValue(1)}, true)

	changed := a.Intersect(openB)
	assert.False(t, changed)
	assert.ElementsMatch(t, []Value{IntValue(1), IntValue(2)}, a.Values())
}

func TestIntervalResetRestoresBase(t *testing.T) {
	d := NewIntInterval(0, 10, false)
	d.IntersectBounds(3, 7)
	var got []Event
	d.SetListener(ListenerFunc(func(e Event) { got = append(got, e) }))
	d.Reset()
	require.Len(t, got, 1)
	assert.Equal(t, EventReset, got[0])
	lb, ub, _ := d.Bounds()
	assert.Equal(t, 0.0, lb)
	assert.Equal(t, 10.0, ub)
}

func TestIntegerIntervalRoundsInward(t *testing.T) {
	d := NewIntInterval(0, 10, false)
	d.IntersectBounds(2.5, 7.5)
	lb, ub, _ := d.Bounds()
	assert.Equal(t, 3.0, lb)
	assert.Equal(t, 7.0, ub)
}

func TestDataTypeComparability(t *testing.T) {
	intType := NewIntType(0, 10)
	floatType := NewFloatType(0, 10, 1e-6)
	symA := NewSymbolType("Color", []string{"red", "blue"})
	symB := NewSymbolType("Color", []string{"green"})
	symOther := NewSymbolType("Shape", []string{"circle"})

	assert.True(t, intType.CanBeCompared(floatType))
	assert.True(t, symA.CanBeCompared(symB))
	assert.False(t, symA.CanBeCompared(symOther))
	assert.False(t, intType.CanBeCompared(symA))
}
