package domain

import "fmt"

// Value is a tagged union over the concrete values a domain can hold:
// ints, floats, symbols, strings, or object-reference keys. Exactly one
// of the is* flags is set for any meaningful Value.
type Value struct {
	Int      int64
	Float    float64
	Symbol   string
	Str      string
	Ref      int64
	isInt    bool
	isFloat  bool
	isSymbol bool
	isStr    bool
	isRef    bool
}

func IntValue(v int64) Value     { return Value{Int: v, isInt: true} }
func FloatValue(v float64) Value { return Value{Float: v, isFloat: true} }
func SymbolValue(s string) Value { return Value{Symbol: s, isSymbol: true} }
func StrValue(s string) Value    { return Value{Str: s, isStr: true} }
func RefValue(k int64) Value     { return Value{Ref: k, isRef: true} }

// Equal compares two Values for equality within their tag.
func (v Value) Equal(o Value) bool {
	switch {
	case v.isInt && o.isInt:
		return v.Int == o.Int
	case v.isFloat && o.isFloat:
		return v.Float == o.Float
	case v.isSymbol && o.isSymbol:
		return v.Symbol == o.Symbol
	case v.isStr && o.isStr:
		return v.Str == o.Str
	case v.isRef && o.isRef:
		return v.Ref == o.Ref
	default:
		return false
	}
}

// Less provides a total order over Values of the same tag, used to keep
// enumerated domains in sorted iteration order.
func (v Value) Less(o Value) bool {
	switch {
	case v.isInt && o.isInt:
		return v.Int < o.Int
	case v.isFloat && o.isFloat:
		return v.Float < o.Float
	case v.isSymbol && o.isSymbol:
		return v.Symbol < o.Symbol
	case v.isStr && o.isStr:
		return v.Str < o.Str
	case v.isRef && o.isRef:
		return v.Ref < o.Ref
	default:
		return false
	}
}

func (v Value) String() string {
	switch {
	case v.isInt:
		return fmt.Sprintf("%d", v.Int)
	case v.isFloat:
		return fmt.Sprintf("%g", v.Float)
	case v.isSymbol:
		return v.Symbol
	case v.isStr:
		return fmt.Sprintf("%q", v.Str)
	case v.isRef:
		return fmt.Sprintf("#%d", v.Ref)
	default:
		return "<invalid>"
	}
}

// AsFloat returns a numeric projection of v, for int/float/bool-backed
// values. ok is false for non-numeric tags.
func (v Value) AsFloat() (f float64, ok bool) {
	switch {
	case v.isInt:
		return float64(v.Int), true
	case v.isFloat:
		return v.Float, true
	default:
		return 0, false
	}
}
