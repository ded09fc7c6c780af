package plandb

import (
	"github.com/rs/zerolog"

	"github.com/gokando/tempnet/internal/engine"
	"github.com/gokando/tempnet/internal/txlog"

	_ "github.com/gokando/tempnet/internal/constraints" // registers eq/addEq/etc. factories
	_ "github.com/gokando/tempnet/internal/stn"         // registers concurrent/precedes/etc. factories
)

// PlanDatabase is the client facade: objects, timelines, resources,
// and tokens built on top of one constraint engine, with every
// mutating operation optionally mirrored to a transaction log for
// replay (see internal/txlog).
type PlanDatabase struct {
	eng *engine.Engine
	log zerolog.Logger

	objects map[engine.Key]*Object
	tokens  map[engine.Key]*Token

	tlog   *txlog.Log
	closed bool
}

// New builds a plan database over eng. Pass a non-nil tlog to have every
// structural mutation (createObject, createToken, activate, merge, ...)
// appended to it for later replay via Replay.
func New(eng *engine.Engine, log zerolog.Logger, tlog *txlog.Log) *PlanDatabase {
	return &PlanDatabase{
		eng:     eng,
		log:     log,
		objects: make(map[engine.Key]*Object),
		tokens:  make(map[engine.Key]*Token),
		tlog:    tlog,
	}
}

func (pdb *PlanDatabase) Engine() *engine.Engine { return pdb.eng }
func (pdb *PlanDatabase) IsClosed() bool         { return pdb.closed }

// Close marks the database closed. After that Activate, Reject, Merge,
// Cancel, Constrain and Place return an error; the other mutating calls
// do not check the flag.
func (pdb *PlanDatabase) Close() {
	pdb.closed = true
}

func (pdb *PlanDatabase) Object(k engine.Key) (*Object, bool) {
	o, ok := pdb.objects[k]
	return o, ok
}

func (pdb *PlanDatabase) Token(k engine.Key) (*Token, bool) {
	t, ok := pdb.tokens[k]
	return t, ok
}

func (pdb *PlanDatabase) Objects() []*Object {
	out := make([]*Object, 0, len(pdb.objects))
	for _, o := range pdb.objects {
		out = append(out, o)
	}
	return out
}

func (pdb *PlanDatabase) Tokens() []*Token {
	out := make([]*Token, 0, len(pdb.tokens))
	for _, t := range pdb.tokens {
		out = append(out, t)
	}
	return out
}

// record mirrors a structural change to the transaction log, if one
// was configured, and emits a debug-level trace line.
func (pdb *PlanDatabase) record(kind string, target engine.Key, payload any) {
	pdb.log.Debug().Str("op", kind).Int64("target", int64(target)).Interface("payload", payload).Msg("plandb mutation")
	if pdb.tlog != nil {
		pdb.tlog.Append(kind, int64(target), payload)
	}
}
