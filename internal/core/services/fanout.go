package services

import (
	"context"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
)

// FanOut runs fn over items with at most limit calls in flight. It waits for
// every branch and returns how many succeeded with the joined failures.
// A failing branch never cancels the others.
func FanOut[T any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) error) (int, error) {
	if limit < 1 {
		limit = 1
	}

	var succeeded atomic.Int64
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(limit)
	for _, item := range items {
		p.Go(func(ctx context.Context) error {
			if err := fn(ctx, item); err != nil {
				return err
			}
			succeeded.Add(1)
			return nil
		})
	}

	err := p.Wait()
	return int(succeeded.Load()), err
}
