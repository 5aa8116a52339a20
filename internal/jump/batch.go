package jump

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Batch runs many independent jumps on a bounded number of goroutines.
type Batch struct {
	sim     *Simulator
	workers int
}

// NewBatch uses GOMAXPROCS workers when workers <= 0.
func NewBatch(sim *Simulator, workers int) *Batch {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Batch{sim: sim, workers: workers}
}

func (b *Batch) Workers() int { return b.workers }

// Run simulates every input and returns the results in input order. The
// first failure cancels the remaining runs.
func (b *Batch) Run(ctx context.Context, inputs []Inputs) ([]*Result, error) {
	results := make([]*Result, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, in := range inputs {
		g.Go(func() error {
			res, err := b.sim.Run(ctx, in)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
