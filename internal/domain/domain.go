package domain

// Domain is the common interface over interval and enumerated domains.
// All mutating operations return
// whether the domain changed and emit the tightest applicable Event
// through the domain's listener; they never relax a domain.
type Domain interface {
	// IsEmpty reports whether the domain currently admits no values.
	IsEmpty() bool

	// IsSingleton reports whether the domain admits exactly one value.
	IsSingleton() bool

	// SingletonValue returns the sole admitted value. Behavior is
	// undefined if IsSingleton is false.
	SingletonValue() Value

	// Contains reports membership of v.
	Contains(v Value) bool

	// Bounds returns the interval bounds for numeric domains. ok is
	// false for non-numeric enumerated domains (symbol/string/ref).
	Bounds() (lb, ub float64, ok bool)

	// Intersect restricts the domain to values also admitted by other,
	// reporting whether anything changed. Emits the appropriate event.
	Intersect(other Domain) (changed bool)

	// IntersectBounds restricts a numeric interval domain to [lb, ub].
	// No-op (changed=false) for non-numeric domains.
	IntersectBounds(lb, ub float64) (changed bool)

	// Remove deletes a single value, emitting VALUE_REMOVED or EMPTIED.
	Remove(v Value) (changed bool)

	// Insert adds v to an open domain. Returns false (no-op) if the
	// domain is closed or already contains v.
	Insert(v Value) (changed bool)

	// IsSubsetOf reports whether every value of this domain is also
	// admitted by other.
	IsSubsetOf(other Domain) bool

	// Intersects reports whether this domain and other share any value.
	Intersects(other Domain) bool

	// IsOpen reports the open/closed flag.
	IsOpen() bool

	// Close transitions an open domain to closed, emitting CLOSED; on a
	// domain that is already closed it does nothing. Close never emits
	// EMPTIED: the CLOSED then EMPTIED pair for a closed, empty domain is
	// replayed by SetListener.
	Close()

	// Reopen transitions a closed domain back to open, emitting OPENED.
	Reopen()

	// Reset restores the domain to the snapshot captured at
	// construction (the base domain), emitting RESET. This is the only
	// path that emits RESET.
	Reset()

	// SetListener installs the domain's single listener. Installing a
	// listener on an already-closed, already-empty domain immediately
	// replays CLOSED then EMPTIED.
	SetListener(l Listener)

	// Clone returns an independent copy sharing no mutable state.
	Clone() Domain

	// DataType returns the semantic type backing this domain.
	DataType() *DataType

	// Values iterates admitted values in ascending order for
	// enumerated/singleton inspection. For unbounded interval domains
	// this is only safe to call when IsSingleton or when the caller
	// knows the domain is finite.
	Values() []Value

	String() string
}

// Equate mutually restricts a and b to their common admitted values,
// returning whether either changed: symmetric, idempotent, and careful
// with open enumerations (see the open-enumeration guard in
// EnumDomain.Intersect, enum.go).
func Equate(a, b Domain) (changed bool) {
	ca := a.Intersect(b)
	cb := b.Intersect(a)
	return ca || cb
}
