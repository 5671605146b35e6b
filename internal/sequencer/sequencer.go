// Package sequencer runs a list of work items with bounded concurrency,
// chunk by chunk, preserving input order in the results and short-circuiting
// on the first error.
package sequencer

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultWidth is the default chunk size used when a caller passes width <= 0.
const DefaultWidth = 2

// Run calls fn(ctx, items[i]) for every item, width at a time. Chunks are
// issued strictly in order; within a chunk, completion order is
// unspecified. The returned slice is in input order. If any call returns an
// error, the remaining chunks are never started and the first error to
// occur within the failing chunk (the earliest in time, not by index) is
// returned; results already collected are discarded.
func Run[T, R any](ctx context.Context, items []T, width int, fn func(context.Context, T) (R, error)) ([]R, error) {
	if width <= 0 {
		width = DefaultWidth
	}

	results := make([]R, len(items))
	for start := 0; start < len(items); start += width {
		end := start + width
		if end > len(items) {
			end = len(items)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				r, err := fn(gctx, items[i])
				if err != nil {
					return err
				}
				results[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return results, nil
}
