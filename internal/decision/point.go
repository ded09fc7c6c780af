// Package decision implements the decision-point taxonomy, the
// open-decision manager, and the heuristic engine: it discovers flaws
// in the current plan
// (unbound variables, tokens with non-singleton state, active tokens
// needing timeline placement, resource overuse), orders them by
// priority, and enumerates the choices the search driver commits.
package decision

import (
	"fmt"

	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
	"github.com/gokando/tempnet/internal/plandb"
)

// Kind enumerates the decision-point kinds. The declaration order is
// load-bearing: it is the tie-break order between equal-priority
// decisions (objects, unit variables, unit tokens, non-unit tokens,
// non-unit variables, resource flaws).
type Kind int

const (
	KindObject Kind = iota
	KindUnitVariable
	KindUnitToken
	KindNonUnitToken
	KindNonUnitVariable
	KindResourceFlaw
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindUnitVariable:
		return "unit-variable"
	case KindUnitToken:
		return "unit-token"
	case KindNonUnitToken:
		return "non-unit-token"
	case KindNonUnitVariable:
		return "non-unit-variable"
	case KindResourceFlaw:
		return "resource-flaw"
	default:
		return "unknown"
	}
}

// Status tracks a decision point through its lifecycle: open (never
// assigned), current (being worked on), closed (choice committed on the
// search stack), retracted (choice undone, remaining choices to try).
type Status int

const (
	StatusOpen Status = iota
	StatusCurrent
	StatusClosed
	StatusRetracted
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusCurrent:
		return "current"
	case StatusClosed:
		return "closed"
	case StatusRetracted:
		return "retracted"
	default:
		return "unknown"
	}
}

// Choice is one of the finitely many alternatives offered to resolve a
// decision point. Exactly the fields relevant to the owning Point's
// kind are populated.
type Choice struct {
	Label string

	// Variable decisions.
	Value domain.Value

	// Token decisions: the state to transition to; MergeTarget is set
	// when State is MERGED.
	State       string
	MergeTarget *plandb.Token

	// Object decisions: place the token after Pred and before Succ on
	// the timeline. Either may be nil at the sequence ends.
	Pred, Succ *plandb.Token

	// Resource-flaw decisions.
	Reversed   bool
	PushBeyond bool
	Horizon    float64
}

func (c Choice) String() string { return c.Label }

// Point is one decision point: a flaw the search must resolve, its
// enumerated choices, and a cursor over which choices were already
// tried.
type Point struct {
	key      engine.Key
	kind     Kind
	status   Status
	priority float64

	variable *engine.Variable // unit/non-unit variable decisions
	token    *plandb.Token    // token and object decisions
	object   *plandb.Object   // object decisions
	flaw     *plandb.ResourceFlaw

	choices   []Choice
	next      int
	exhausted bool
}

func (p *Point) Key() engine.Key               { return p.key }
func (p *Point) EntityKind() engine.EntityKind { return engine.KindDecisionPoint }
func (p *Point) Kind() Kind                    { return p.kind }
func (p *Point) Status() Status                { return p.status }
func (p *Point) Priority() float64             { return p.priority }
func (p *Point) Variable() *engine.Variable    { return p.variable }
func (p *Point) Token() *plandb.Token          { return p.token }
func (p *Point) Object() *plandb.Object        { return p.object }
func (p *Point) Flaw() *plandb.ResourceFlaw    { return p.flaw }
func (p *Point) Choices() []Choice             { return append([]Choice(nil), p.choices...) }

// Exhausted reports whether every enumerated choice has been handed
// out. A decision with no choices at all is exhausted from the start.
func (p *Point) Exhausted() bool { return p.exhausted || p.next >= len(p.choices) }

// SetStatus transitions the point's lifecycle state; the search driver
// owns the open -> current -> closed -> retracted walk.
func (p *Point) SetStatus(s Status) { p.status = s }

// MarkExhausted records that no further choices remain, regardless of
// the cursor position.
func (p *Point) MarkExhausted() { p.exhausted = true }

// ResetChoices rewinds the choice cursor and clears exhaustion, used
// when a retraction above this decision changes its context and every
// choice deserves a fresh try.
func (p *Point) ResetChoices() {
	p.next = 0
	p.exhausted = false
	p.status = StatusOpen
}

func (p *Point) String() string {
	switch p.kind {
	case KindUnitVariable, KindNonUnitVariable:
		return fmt.Sprintf("%s(%s)", p.kind, p.variable.Name())
	case KindUnitToken, KindNonUnitToken:
		return fmt.Sprintf("%s(%s)", p.kind, p.token.Predicate())
	case KindObject:
		return fmt.Sprintf("%s(%s/%s)", p.kind, p.object.Name(), p.token.Predicate())
	default:
		return p.kind.String()
	}
}
