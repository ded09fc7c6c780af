// Package search implements the decision-point search driver:
// chronological backtracking over the open-decision
// manager's flaws, with a closed-decisions stack, snapshot-based
// retraction, and a step budget the caller can drive incrementally.
package search

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokando/tempnet/internal/decision"
	"github.com/gokando/tempnet/internal/engine"
	"github.com/gokando/tempnet/internal/plandb"
	"github.com/gokando/tempnet/internal/telemetry"
)

// Status is the driver's externally observable state.
type Status int

const (
	InProgress Status = iota
	PlanFound
	TimeoutReached
	SearchExhausted
)

func (s Status) String() string {
	switch s {
	case InProgress:
		return "IN_PROGRESS"
	case PlanFound:
		return "PLAN_FOUND"
	case TimeoutReached:
		return "TIMEOUT_REACHED"
	case SearchExhausted:
		return "SEARCH_EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

// frame is one closed decision on the backtracking stack: the point,
// the committed choice, the pre-commit snapshot, and the structural
// undo (constraint discards, timeline frees) the snapshot cannot cover.
type frame struct {
	point  *decision.Point
	choice *decision.Choice
	snap   *engine.Snapshot
	undo   func()
}

// Driver owns one search run over a plan database. It is an explicit
// state machine: Step advances one commit+propagate pair, the budget
// and suspension entry points (WriteStep/WriteNext/CompleteRun) drive
// the loop.
type Driver struct {
	eng     *engine.Engine
	pdb     *plandb.PlanDatabase
	mgr     *decision.Manager
	log     zerolog.Logger
	metrics *telemetry.Metrics

	runID    uuid.UUID
	maxSteps int
	step     int
	stack    []frame
	status   Status
	abort    func() bool
	started  time.Time
}

// NewDriver builds a driver over pdb using mgr for decision selection.
// metrics may be nil.
func NewDriver(pdb *plandb.PlanDatabase, mgr *decision.Manager, log zerolog.Logger, metrics *telemetry.Metrics) *Driver {
	return &Driver{eng: pdb.Engine(), pdb: pdb, mgr: mgr, log: log, metrics: metrics, status: InProgress}
}

// RunID identifies this search run in logs and transaction records.
func (d *Driver) RunID() uuid.UUID { return d.runID }

// SetAbort installs a predicate checked between steps; when it returns
// true the driver suspends with TIMEOUT_REACHED promptly.
func (d *Driver) SetAbort(f func() bool) {
	d.abort = f
	d.eng.SetAbortFlag(f)
}

// Depth reports the closed-decision stack depth.
func (d *Driver) Depth() int { return len(d.stack) }

// StepCount reports completed commit+propagate steps this run.
func (d *Driver) StepCount() int { return d.step }

// GetStatus returns the current run status.
func (d *Driver) GetStatus() Status { return d.status }

// InitRun starts a fresh run with the given step budget (0 = none),
// runs one initial propagation, and primes the decision caches.
func (d *Driver) InitRun(maxSteps int) Status {
	d.runID = uuid.New()
	d.maxSteps = maxSteps
	d.step = 0
	d.stack = nil
	d.status = InProgress
	d.started = time.Now()

	d.log.Info().Str("run", d.runID.String()).Int("maxSteps", maxSteps).Msg("search run started")

	if d.eng.Propagate() == engine.Inconsistent {
		// Nothing committed yet, so nothing to retract: the input plan
		// itself is inconsistent.
		d.finish(SearchExhausted)
		return d.status
	}
	d.mgr.Recompute()
	if len(d.mgr.Open()) == 0 {
		d.finish(PlanFound)
	}
	return d.status
}

// Step runs one iteration of the search loop: pick a decision, commit
// its next choice, propagate, retract on failure. Returns the resulting
// status (InProgress while more work remains).
func (d *Driver) Step() Status {
	if d.status != InProgress {
		return d.status
	}
	if d.abort != nil && d.abort() {
		d.finish(TimeoutReached)
		return d.status
	}
	if d.maxSteps > 0 && d.step >= d.maxSteps {
		d.finish(TimeoutReached)
		return d.status
	}

	d.mgr.Recompute()
	p := d.mgr.NextDecision()
	if p == nil {
		d.finish(PlanFound)
		return d.status
	}
	if p.Exhausted() {
		d.retract()
		return d.status
	}
	c := d.mgr.NextChoice(p)
	if c == nil {
		p.MarkExhausted()
		// Back to open so the next Recompute re-enumerates under the
		// post-retraction context.
		p.SetStatus(decision.StatusOpen)
		d.retract()
		return d.status
	}

	if err := d.commit(p, c); err != nil {
		// The choice was stale (e.g. value left the specified domain
		// since enumeration); it costs nothing but the failed commit,
		// try the decision's next choice on the following step.
		d.log.Debug().Err(err).Stringer("decision", p).Msg("choice commit failed")
		p.SetStatus(decision.StatusRetracted)
		return d.status
	}

	d.step++
	d.metrics.SearchStep()
	if d.eng.Propagate() == engine.Inconsistent {
		d.retract()
	}
	return d.status
}

// WriteStep runs until n total steps have completed (or the run ends)
// and suspends, returning the last completed step.
func (d *Driver) WriteStep(n int) int {
	for d.status == InProgress && d.step < n {
		d.Step()
	}
	return d.step
}

// WriteNext runs n further steps from wherever the run currently is.
func (d *Driver) WriteNext(n int) int {
	return d.WriteStep(d.step + n)
}

// CompleteRun drives the loop to termination and returns the last
// completed step.
func (d *Driver) CompleteRun() int {
	for d.status == InProgress {
		d.Step()
	}
	return d.step
}

func (d *Driver) finish(s Status) {
	d.status = s
	d.metrics.SearchFinished(time.Since(d.started).Seconds())
	d.log.Info().Str("run", d.runID.String()).Stringer("status", s).Int("steps", d.step).Int("depth", len(d.stack)).Msg("search run finished")
}

// commit applies c to p, pushing a stack frame whose snapshot and undo
// reverse it exactly.
func (d *Driver) commit(p *decision.Point, c *decision.Choice) error {
	snap := d.eng.TakeSnapshot()
	undo := func() {}

	switch p.Kind() {
	case decision.KindUnitVariable, decision.KindNonUnitVariable:
		if err := p.Variable().Specify(c.Value); err != nil {
			d.eng.RestoreSnapshot(snap)
			return err
		}

	case decision.KindUnitToken, decision.KindNonUnitToken:
		t := p.Token()
		var err error
		switch c.State {
		case plandb.StateMerged:
			err = d.pdb.Merge(t, c.MergeTarget)
			undo = func() { d.pdb.RetractMerge(t) }
		case plandb.StateActive:
			err = d.pdb.Activate(t)
		case plandb.StateRejected:
			err = d.pdb.Reject(t)
		}
		if err != nil {
			d.eng.RestoreSnapshot(snap)
			return err
		}

	case decision.KindObject:
		o, t := p.Object(), p.Token()
		keys, err := d.pdb.Place(o, t, c.Pred, c.Succ)
		if err != nil {
			d.eng.RestoreSnapshot(snap)
			return err
		}
		undo = func() {
			d.pdb.Free(o, t)
			d.discardKeys(keys)
		}

	case decision.KindResourceFlaw:
		f := p.Flaw()
		if c.PushBeyond {
			if err := d.pdb.PushBeyondHorizon(f.Before, c.Horizon); err != nil {
				d.eng.RestoreSnapshot(snap)
				return err
			}
		} else {
			key, err := d.pdb.ResolveFlaw(*f, c.Reversed)
			if err != nil {
				d.eng.RestoreSnapshot(snap)
				return err
			}
			flaw := *f
			undo = func() {
				d.discardKeys([]engine.Key{key})
				d.pdb.UnresolveFlaw(flaw)
			}
		}
	}

	p.SetStatus(decision.StatusClosed)
	d.stack = append(d.stack, frame{point: p, choice: c, snap: snap, undo: undo})
	d.log.Debug().Str("run", d.runID.String()).Stringer("decision", p).Stringer("choice", c).Int("depth", len(d.stack)).Msg("choice committed")
	return nil
}

func (d *Driver) discardKeys(keys []engine.Key) {
	for _, k := range keys {
		if c, ok := d.eng.Constraint(k); ok {
			d.eng.DiscardConstraint(c)
		}
	}
}

// retract walks the closed stack backward, reversing each commit until
// a decision with remaining choices is found or the stack empties
// (SEARCH_EXHAUSTED). The snapshot is restored before the structural
// undo runs so constraint discards (and the temporal graph rebuild they
// trigger) observe pre-commit domain bounds.
func (d *Driver) retract() {
	for {
		if len(d.stack) == 0 {
			d.finish(SearchExhausted)
			return
		}
		f := d.stack[len(d.stack)-1]
		d.stack = d.stack[:len(d.stack)-1]

		d.eng.RestoreSnapshot(f.snap)
		f.undo()
		d.eng.Relax()
		d.metrics.DecisionRetracted(f.point.Kind().String())
		d.log.Debug().Str("run", d.runID.String()).Stringer("decision", f.point).Int("depth", len(d.stack)).Msg("choice retracted")

		if !f.point.Exhausted() {
			f.point.SetStatus(decision.StatusRetracted)
			return
		}
		// The retried ancestor will change context; decisions beyond it
		// get a fresh enumeration pass.
		f.point.ResetChoices()
	}
}
