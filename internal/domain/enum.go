package domain

import "strings"

// EnumDomain implements Domain over an explicit, sorted set of values:
// symbols, strings, object references, or an explicit set of ints/floats.
// Open enumerated domains may acquire new members later via Insert, per
// the open/closed domain flag.
type EnumDomain struct {
	values   []Value // kept sorted, deduplicated
	open     bool
	listener Listener
	dt       *DataType

	base []Value // snapshot for Reset
}

// NewEnumDomain creates an enumerated domain over the given values.
func NewEnumDomain(values []Value, open bool) *EnumDomain {
	d := &EnumDomain{values: sortedCopy(values), open: open}
	d.base = sortedCopy(values)
	return d
}

func sortedCopy(values []Value) []Value {
	cp := make([]Value, len(values))
	copy(cp, values)
	for i := 1; i < len(cp); i++ {
		for j := i; j > 0 && cp[j].Less(cp[j-1]); j-- {
			cp[j], cp[j-1] = cp[j-1], cp[j]
		}
	}
	// de-dup adjacent equals
	out := cp[:0]
	for i, v := range cp {
		if i == 0 || !v.Equal(out[len(out)-1]) {
			out = append(out, v)
		}
	}
	return out
}

func (d *EnumDomain) indexOf(v Value) int {
	for i, x := range d.values {
		if x.Equal(v) {
			return i
		}
	}
	return -1
}

func (d *EnumDomain) IsEmpty() bool     { return len(d.values) == 0 }
func (d *EnumDomain) IsSingleton() bool { return len(d.values) == 1 }

func (d *EnumDomain) SingletonValue() Value {
	return d.values[0]
}

func (d *EnumDomain) Contains(v Value) bool { return d.indexOf(v) >= 0 }

func (d *EnumDomain) Bounds() (float64, float64, bool) {
	if len(d.values) == 0 {
		return 0, 0, false
	}
	lo, ok := d.values[0].AsFloat()
	if !ok {
		return 0, 0, false
	}
	hi, _ := d.values[len(d.values)-1].AsFloat()
	return lo, hi, true
}

func (d *EnumDomain) emit(before int) {
	if d.listener == nil {
		return
	}
	switch {
	case len(d.values) == 0:
		d.listener.OnDomainEvent(EventEmptied)
	case len(d.values) == 1:
		d.listener.OnDomainEvent(EventRestrictToSingleton)
	case len(d.values) < before:
		d.listener.OnDomainEvent(EventValueRemoved)
	}
}

// Intersect keeps only members present in both domains. If other is
// itself an open enumeration, values that are in other's base domain but not yet
// present in other's current member list are NOT known to be excluded --
// intersecting now could wrongly drop values that would legally arrive in
// other later. In that case this call is a deliberate no-op: the caller
// (normally the equality-class propagator) must defer until other closes.
func (d *EnumDomain) Intersect(other Domain) bool {
	oe, ok := other.(*EnumDomain)
	if !ok {
		// Numeric other: restrict by bounds.
		lb, ub, numOK := other.Bounds()
		if !numOK {
			return false
		}
		return d.IntersectBounds(lb, ub)
	}
	if oe.open {
		// other may still grow; defer until it closes.
		return false
	}
	before := len(d.values)
	kept := d.values[:0:0]
	for _, v := range d.values {
		if oe.Contains(v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == before {
		return false
	}
	d.values = kept
	d.emit(before)
	return true
}

func (d *EnumDomain) IntersectBounds(lb, ub float64) bool {
	before := len(d.values)
	kept := d.values[:0:0]
	for _, v := range d.values {
		f, ok := v.AsFloat()
		if !ok || (f >= lb && f <= ub) {
			kept = append(kept, v)
		}
	}
	if len(kept) == before {
		return false
	}
	d.values = kept
	d.emit(before)
	return true
}

func (d *EnumDomain) Remove(v Value) bool {
	i := d.indexOf(v)
	if i < 0 {
		return false
	}
	before := len(d.values)
	d.values = append(d.values[:i], d.values[i+1:]...)
	d.emit(before)
	return true
}

func (d *EnumDomain) Insert(v Value) bool {
	if !d.open || d.Contains(v) {
		return false
	}
	d.values = sortedCopy(append(d.values, v))
	if d.listener != nil {
		d.listener.OnDomainEvent(EventRelaxed)
	}
	return true
}

func (d *EnumDomain) IsSubsetOf(other Domain) bool {
	for _, v := range d.values {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

func (d *EnumDomain) Intersects(other Domain) bool {
	for _, v := range d.values {
		if other.Contains(v) {
			return true
		}
	}
	return false
}

func (d *EnumDomain) IsOpen() bool { return d.open }

func (d *EnumDomain) Close() {
	if !d.open {
		return
	}
	d.open = false
	if d.listener != nil {
		d.listener.OnDomainEvent(EventClosed)
	}
}

func (d *EnumDomain) Reopen() {
	if d.open {
		return
	}
	d.open = true
	if d.listener != nil {
		d.listener.OnDomainEvent(EventOpened)
	}
}

func (d *EnumDomain) Reset() {
	d.values = sortedCopy(d.base)
	if d.listener != nil {
		d.listener.OnDomainEvent(EventReset)
	}
}

func (d *EnumDomain) SetListener(l Listener) {
	d.listener = l
	if l != nil && !d.open && len(d.values) == 0 {
		l.OnDomainEvent(EventClosed)
		l.OnDomainEvent(EventEmptied)
	}
}

func (d *EnumDomain) Clone() Domain {
	cp := &EnumDomain{values: append([]Value(nil), d.values...), open: d.open, dt: d.dt, base: d.base}
	return cp
}

func (d *EnumDomain) DataType() *DataType {
	if d.dt != nil {
		return d.dt
	}
	return &DataType{kind: KindSymbol, minDelta: 1, baseDomain: d}
}

func (d *EnumDomain) Values() []Value {
	return append([]Value(nil), d.values...)
}

func (d *EnumDomain) String() string {
	parts := make([]string, len(d.values))
	for i, v := range d.values {
		parts[i] = v.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
