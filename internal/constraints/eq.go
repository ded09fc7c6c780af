package constraints

import (
	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
)

// Eq implements the n-ary `eq` constraint: all
// scope variables are mutually equal. Propagation is delegated entirely
// to the engine's equality-class propagator (internal/engine/equality.go)
// via Union calls the engine performs at construction time; Execute here
// is a no-op placeholder so Eq still satisfies the Constraint interface
// for registry and undo bookkeeping.
type Eq struct {
	engine.BaseConstraint
}

func newEq(_ *engine.Engine, key engine.Key, scope []*engine.Variable) (engine.Constraint, error) {
	if err := requireArity("eq", scope, 2, true); err != nil {
		return nil, err
	}
	for i := 1; i < len(scope); i++ {
		if !scope[0].DataType().IsAssignableFrom(scope[i].DataType()) && !scope[i].DataType().IsAssignableFrom(scope[0].DataType()) {
			return nil, errIncompatibleTypes("eq", scope[0], scope[i])
		}
	}
	return &Eq{engine.NewBaseConstraint(key, "eq", scope, "equality")}, nil
}

func (c *Eq) CanIgnore(argIndex int, e domain.Event) bool { return true }
func (c *Eq) Execute(eng *engine.Engine) error            { return nil }

func errIncompatibleTypes(name string, a, b *engine.Variable) error {
	return &typeError{name: name, a: a.Name(), b: b.Name()}
}

type typeError struct {
	name, a, b string
}

func (e *typeError) Error() string {
	return e.name + ": incompatible types between " + e.a + " and " + e.b
}
