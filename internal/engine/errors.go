package engine

import "errors"

// Sentinel error kinds Consistency failures,
// search-exhausted and timeout are status values rather than errors (see
// internal/search); these three are genuine Go errors returned from
// construction and configuration entry points.
var (
	// ErrConstructionError signals an illegal constraint scope or an
	// unknown constraint/type name. No partial registration occurs.
	ErrConstructionError = errors.New("engine: construction error")

	// ErrConfigError signals an unparseable or contradictory
	// configuration; config.Load and config.FromMap wrap it.
	ErrConfigError = errors.New("engine: configuration error")

	// ErrStaleReference names a key that no longer maps to a live
	// entity. No lookup in this package returns it: Registry.Lookup and
	// the Engine accessors report a stale key with a false ok result,
	// and Registry.IsAlive answers the same question as a boolean.
	ErrStaleReference = errors.New("engine: stale entity reference")
)
