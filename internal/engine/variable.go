package engine

import (
	"fmt"

	"github.com/gokando/tempnet/internal/domain"
)

// Variable is a ConstrainedVariable: it carries a
// data type, an immutable base domain (save for dynamic additions while
// open), a client-imposed specified domain, and a derived domain that
// constraints read and write during propagation. The invariant
// derived ⊆ specified ⊆ base must hold after every API call.
type Variable struct {
	key     Key
	name    string
	dt      *domain.DataType
	base    domain.Domain
	spec    domain.Domain
	derived domain.Domain

	internal    bool
	specifiable bool
	parent      *Key
	index       int

	eng *Engine // back-reference for change routing
}

func (v *Variable) Key() Key                   { return v.key }
func (v *Variable) Kind() EntityKind           { return KindVariable }
func (v *Variable) Name() string               { return v.name }
func (v *Variable) DataType() *domain.DataType { return v.dt }
func (v *Variable) Derived() domain.Domain     { return v.derived }
func (v *Variable) Specified() domain.Domain   { return v.spec }
func (v *Variable) Base() domain.Domain        { return v.base }
func (v *Variable) Internal() bool             { return v.internal }
func (v *Variable) Specifiable() bool          { return v.specifiable }
func (v *Variable) Parent() (Key, bool) {
	if v.parent == nil {
		return 0, false
	}
	return *v.parent, true
}
func (v *Variable) Index() int { return v.index }

func (v *Variable) IsBound() bool { return v.derived.IsSingleton() }

// Specify imposes a client restriction, tightening both specified and
// derived domains. Returns an error if the variable is not specifiable
// or if the value lies outside the current specified domain.
func (v *Variable) Specify(val domain.Value) error {
	if !v.specifiable {
		return fmt.Errorf("%w: variable %q is not specifiable", ErrConstructionError, v.name)
	}
	if !v.spec.Contains(val) {
		return fmt.Errorf("%w: value %s outside specified domain of %q", ErrConstructionError, val, v.name)
	}
	singleton := singletonDomainFor(v.dt, val)
	domain.Equate(v.spec, singleton)
	if v.derived.Intersect(singleton) {
		v.eng.onVariableChanged(v)
	}
	return nil
}

// Reset relaxes the specified domain back to the base domain and
// restores the derived domain to match.
func (v *Variable) Reset() {
	v.spec.Reset()
	v.derived.Reset()
	v.eng.onVariableChanged(v)
}

// singletonDomainFor builds a throwaway singleton domain of val's type,
// used to intersect a variable's domains down to exactly one value.
func singletonDomainFor(dt *domain.DataType, val domain.Value) domain.Domain {
	switch dt.Kind() {
	case domain.KindInt, domain.KindBool:
		f, _ := val.AsFloat()
		return domain.NewIntInterval(int(f), int(f), false)
	case domain.KindFloat:
		f, _ := val.AsFloat()
		return domain.NewFloatInterval(f, f, false)
	default:
		return domain.NewEnumDomain([]domain.Value{val}, false)
	}
}

func (v *Variable) String() string {
	if v.IsBound() {
		return fmt.Sprintf("%s=%s", v.name, v.derived.SingletonValue())
	}
	return fmt.Sprintf("%s∈%s", v.name, v.derived.String())
}
