package search

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// errSolved cancels the sibling strategies once one driver finds a
// plan; it never escapes RunParallelStrategies.
var errSolved = errors.New("search: strategy solved")

// RunParallelStrategies races independently built drivers (typically
// the same model under different heuristic configurations) and
// returns the first one to find a plan. Each builder must construct a
// fully separate engine/plan-database/driver; the core engine is
// single-threaded by design, so parallelism exists
// only between whole drivers, never inside one.
//
// Losing strategies are cancelled through their abort flag and finish
// with TIMEOUT_REACHED. When no strategy solves, the winner is nil and
// the returned status is SEARCH_EXHAUSTED (or TIMEOUT_REACHED if ctx
// expired first).
func RunParallelStrategies(ctx context.Context, maxSteps int, builders []func() *Driver) (*Driver, Status, error) {
	g, gctx := errgroup.WithContext(ctx)

	winners := make(chan *Driver, len(builders))
	for _, build := range builders {
		build := build
		g.Go(func() error {
			drv := build()
			drv.SetAbort(func() bool { return gctx.Err() != nil })
			if drv.InitRun(maxSteps) == InProgress {
				drv.CompleteRun()
			}
			if drv.GetStatus() == PlanFound {
				winners <- drv
				return errSolved
			}
			return nil
		})
	}

	err := g.Wait()
	close(winners)
	if w, ok := <-winners; ok {
		return w, PlanFound, nil
	}
	if err != nil && !errors.Is(err, errSolved) {
		return nil, SearchExhausted, err
	}
	if ctx.Err() != nil && !errors.Is(err, errSolved) {
		return nil, TimeoutReached, nil
	}
	return nil, SearchExhausted, nil
}
