package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll runs independent simulators concurrently, at most workers at a
// time (unbounded when workers <= 0). Each simulator must own its model.
// The first failure cancels the runs that have not finished.
func RunAll(ctx context.Context, sims []*Simulator, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for _, s := range sims {
		g.Go(func() error {
			return s.Run(ctx)
		})
	}

	return g.Wait()
}
