// Package domain implements the typed domain algebra of the constraint
// engine: data types, interval and enumerated domains, and the event
// taxonomy domains emit as they are restricted.
package domain

import "math"

// Kind identifies the semantic type of a ConstrainedVariable, mirroring
// the DataType concept of the data model: bool, int, float, string,
// symbol (enumerated symbolic), or object-reference.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
	KindSymbol
	KindObjectRef
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindObjectRef:
		return "object-reference"
	default:
		return "unknown"
	}
}

// DataType describes a semantic type shared by one or more variables: the
// unrestricted base domain new variables of this type start from, the
// minimum representable delta between two distinct values, and the
// comparability/assignability predicates constraints use to validate
// scopes at construction time.
type DataType struct {
	kind       Kind
	minDelta   float64
	enumRoot   string // for KindSymbol: the enumeration family name
	baseDomain Domain
}

// NewIntType returns the int DataType with base domain [lb, ub].
func NewIntType(lb, ub int) *DataType {
	return &DataType{kind: KindInt, minDelta: 1, baseDomain: NewIntInterval(lb, ub, true)}
}

// NewFloatType returns the float DataType with base domain [lb, ub].
func NewFloatType(lb, ub float64, epsilon float64) *DataType {
	if epsilon <= 0 {
		epsilon = 1e-6
	}
	return &DataType{kind: KindFloat, minDelta: epsilon, baseDomain: NewFloatInterval(lb, ub, true)}
}

// NewBoolType returns the bool DataType, base domain {0,1}.
func NewBoolType() *DataType {
	return &DataType{kind: KindBool, minDelta: 1, baseDomain: NewIntInterval(0, 1, true)}
}

// NewSymbolType returns a symbolic enumerated DataType rooted at root,
// with the given base members. The base domain is closed; callers that
// need an open enumeration should use NewOpenEnum directly.
func NewSymbolType(root string, members []string) *DataType {
	vals := make([]Value, len(members))
	for i, m := range members {
		vals[i] = Value{Symbol: m, isSymbol: true}
	}
	return &DataType{kind: KindSymbol, minDelta: 1, enumRoot: root, baseDomain: NewEnumDomain(vals, true)}
}

// NewObjectRefType returns an object-reference DataType over the given
// candidate keys (object entity keys).
func NewObjectRefType(keys []int64) *DataType {
	vals := make([]Value, len(keys))
	for i, k := range keys {
		vals[i] = Value{Ref: k, isRef: true}
	}
	return &DataType{kind: KindObjectRef, minDelta: 1, baseDomain: NewEnumDomain(vals, true)}
}

// NewStringType returns a string DataType over an explicit enumeration of
// legal strings (strings have no natural interval, so they are always
// enumerated).
func NewStringType(values []string) *DataType {
	vals := make([]Value, len(values))
	for i, s := range values {
		vals[i] = Value{Str: s, isStr: true}
	}
	return &DataType{kind: KindString, minDelta: 1, baseDomain: NewEnumDomain(vals, true)}
}

func (dt *DataType) Kind() Kind        { return dt.kind }
func (dt *DataType) MinDelta() float64 { return dt.minDelta }
func (dt *DataType) EnumRoot() string  { return dt.enumRoot }
func (dt *DataType) BaseDomain() Domain {
	return dt.baseDomain.Clone()
}

// CanBeCompared reports whether values of this type can be ordered against
// values of other: numeric-with-numeric, symbolic-with-symbolic of the
// same root enumeration, or string-with-string.
func (dt *DataType) CanBeCompared(other *DataType) bool {
	numeric := func(k Kind) bool { return k == KindInt || k == KindFloat || k == KindBool }
	switch {
	case numeric(dt.kind) && numeric(other.kind):
		return true
	case dt.kind == KindSymbol && other.kind == KindSymbol:
		return dt.enumRoot == other.enumRoot
	case dt.kind == KindString && other.kind == KindString:
		return true
	default:
		return false
	}
}

// IsAssignableFrom reports whether a value domain of other's type may be
// intersected into a variable of this type without a construction error.
func (dt *DataType) IsAssignableFrom(other *DataType) bool {
	if dt.kind == other.kind {
		if dt.kind == KindSymbol {
			return dt.enumRoot == other.enumRoot
		}
		return true
	}
	// int and bool inter-assignable: bool is a 0/1-restricted int.
	if (dt.kind == KindInt && other.kind == KindBool) || (dt.kind == KindBool && other.kind == KindInt) {
		return true
	}
	return false
}

// MinFinite / MaxFinite bound representable numeric values so that domain
// invariants ("every numeric domain satisfies lb >= MIN_FINITE or lb =
// -inf") hold without relying on machine overflow.
const (
	MinFinite = -1e15
	MaxFinite = 1e15
)

// IsNegInf / IsPosInf test for the ±∞ sentinels used by interval bounds.
func IsNegInf(v float64) bool { return math.IsInf(v, -1) }
func IsPosInf(v float64) bool { return math.IsInf(v, 1) }
