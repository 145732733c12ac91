package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RunBatch runs independent windows on at most workers goroutines and
// returns results in input order. The first failure cancels windows that
// have not started yet.
func RunBatch(ctx context.Context, e *Engine, inputs []Input, workers int) ([]Result, error) {
	results := make([]Result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := e.Run(in)
			if err != nil {
				return fmt.Errorf("window %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.logger.Info().Int("windows", len(inputs)).Int("workers", workers).Msg("batch complete")
	return results, nil
}
