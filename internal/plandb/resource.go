package plandb

import (
	"github.com/gokando/tempnet/internal/domain"
	"github.com/gokando/tempnet/internal/engine"
)

// Transaction is a production or consumption event on a resource at a
// time point (the resource transactions). Quantity is
// negative for consumption, positive for production.
type Transaction struct {
	key      engine.Key
	Time     *engine.Variable
	Quantity float64
}

func (tx *Transaction) Key() engine.Key { return tx.key }

// resourceProfile is deliberately shallow: it tracks only what the flaw
// detector and decision manager need (capacity bounds, the transaction
// list) rather than a level-over-time curve.
type resourceProfile struct {
	capacityLB, capacityUB float64
	transactions           []*Transaction

	// resolved holds transaction pairs already ordered by a committed
	// flaw choice, keyed both ways, so Flaws does not re-report a pair
	// whose windows still overlap after the precedence tightened them.
	resolved map[[2]engine.Key]bool
}

// CreateResource registers a new resource Object with the given capacity
// bounds
func (pdb *PlanDatabase) CreateResource(name string, capacityLB, capacityUB float64, args map[string]*domain.DataType) *Object {
	o := pdb.CreateObject("Resource", name, args, false)
	o.resource = &resourceProfile{capacityLB: capacityLB, capacityUB: capacityUB, resolved: make(map[[2]engine.Key]bool)}
	return o
}

// AddTransaction posts a transaction at time t with the given quantity
// onto resource o.
func (pdb *PlanDatabase) AddTransaction(o *Object, t *engine.Variable, quantity float64) (*Transaction, error) {
	if o.resource == nil {
		return nil, errNotResource
	}
	key := pdb.eng.Registry.NewKey()
	tx := &Transaction{key: key, Time: t, Quantity: quantity}
	o.resource.transactions = append(o.resource.transactions, tx)
	pdb.record("addTransaction", o.key, map[string]any{"tx": key, "quantity": quantity})
	return tx, nil
}

// ResourceFlaw is a resource instant whose level bounds may violate
// capacity: a pair of transactions whose feasible time windows overlap
// such that, if both occur inside the overlap, their combined quantity
// falls below capacityLB or above capacityUB. Resolving it means
// ordering the pair so only one of
// them is ever active at that instant.
type ResourceFlaw struct {
	Resource *Object
	Before   *Transaction
	After    *Transaction
}

// Flaws scans every resource object's transaction list pairwise for
// windows that overlap and whose combined magnitude could exceed
// capacity. This is intentionally a simple pairwise check rather than
// a swept level profile.
func (pdb *PlanDatabase) Flaws() []ResourceFlaw {
	var flaws []ResourceFlaw
	for _, o := range pdb.objects {
		if o.resource == nil {
			continue
		}
		txs := o.resource.transactions
		for i := 0; i < len(txs); i++ {
			for j := i + 1; j < len(txs); j++ {
				a, b := txs[i], txs[j]
				if o.resource.resolved[[2]engine.Key{a.key, b.key}] {
					continue
				}
				if !a.Time.Derived().Intersects(b.Time.Derived()) {
					continue
				}
				if a.Quantity+b.Quantity < o.resource.capacityLB || a.Quantity+b.Quantity > o.resource.capacityUB {
					flaws = append(flaws, ResourceFlaw{Resource: o, Before: a, After: b})
				}
			}
		}
	}
	return flaws
}

// ResolveFlaw commits one of the two orderings offered for f: before
// precedes after, or vice versa when reversed is true. Returns the
// posted constraint's key
// so a retracting caller can discard it and UnresolveFlaw the pair.
func (pdb *PlanDatabase) ResolveFlaw(f ResourceFlaw, reversed bool) (engine.Key, error) {
	first, second := f.Before, f.After
	if reversed {
		first, second = second, first
	}
	c, err := pdb.eng.CreateConstraint("precedes", []*engine.Variable{first.Time, second.Time})
	if err != nil {
		return 0, err
	}
	if f.Resource.resource != nil {
		f.Resource.resource.resolved[[2]engine.Key{f.Before.key, f.After.key}] = true
		f.Resource.resource.resolved[[2]engine.Key{f.After.key, f.Before.key}] = true
	}
	pdb.record("resolveFlaw", f.Resource.key, map[string]any{"before": first.key, "after": second.key})
	return c.Key(), nil
}

// UnresolveFlaw reopens a previously resolved transaction pair. Called
// by search undo after discarding the ordering constraint ResolveFlaw
// posted, so the flaw becomes discoverable again if the windows still
// overlap.
func (pdb *PlanDatabase) UnresolveFlaw(f ResourceFlaw) {
	if f.Resource.resource == nil {
		return
	}
	delete(f.Resource.resource.resolved, [2]engine.Key{f.Before.key, f.After.key})
	delete(f.Resource.resource.resolved, [2]engine.Key{f.After.key, f.Before.key})
}

// PushBeyondHorizon resolves the boundary case of a resource flaw by
// pushing tx's time beyond a known planning horizon, rather than
// ordering it against the conflicting transaction. Gated by
// Config.AllowPushBeyondHorizon, an explicit, always-safe-to-call
// runtime choice rather than a build-time switch.
func (pdb *PlanDatabase) PushBeyondHorizon(tx *Transaction, horizon float64) error {
	if !pdb.eng.Config.AllowPushBeyondHorizon {
		return wrapConstruction("push-beyond-horizon choice is disabled by configuration")
	}
	tx.Time.Derived().IntersectBounds(horizon, domain.MaxFinite)
	pdb.record("pushBeyondHorizon", tx.key, map[string]any{"horizon": horizon})
	return nil
}
