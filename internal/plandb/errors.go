package plandb

import (
	"errors"
	"fmt"

	"github.com/gokando/tempnet/internal/engine"
)

var (
	errNotTimeline     = errors.New("plandb: object is not a timeline")
	errNotResource     = errors.New("plandb: object is not a resource")
	errClosed          = errors.New("plandb: database is closed")
	errNotRejectable   = errors.New("plandb: token is not rejectable")
	errAlreadyMerged   = errors.New("plandb: target token is itself merged")
	errTargetNotActive = errors.New("plandb: merge target token is not active")
	errIncompatible    = errors.New("plandb: target token is not merge-compatible")
)

func wrapConstruction(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{engine.ErrConstructionError}, args...)...)
}
