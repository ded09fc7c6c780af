package engine

import "github.com/gokando/tempnet/internal/domain"

// Violation records a per-variable consistency failure observed while
// Config.AllowViolations is set: not just that a variable emptied but
// a human-readable detail of why.
type Violation struct {
	VarKey Key
	Event  domain.Event
	Detail string
}
