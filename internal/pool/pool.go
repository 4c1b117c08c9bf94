// Package pool runs a worker over a slice of items with a bounded number in
// flight. Result slot i always belongs to item i regardless of completion
// order, and one item's failure never aborts its siblings.
package pool

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Outcome is the terminal state of one item: a value or an error, never both.
type Outcome[R any] struct {
	Value R
	Err   error
}

// Run dispatches worker over items with at most limit invocations in flight.
// A cancelled context stops dispatch of not-yet-started items (their slots get
// the context error); workers already running are left to finish.
func Run[T, R any](ctx context.Context, items []T, limit int, worker func(context.Context, int, T) (R, error)) []Outcome[R] {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 1
	}
	if worker == nil {
		worker = func(context.Context, int, T) (R, error) {
			var zero R
			return zero, errors.New("pool: nil worker")
		}
	}

	out := make([]Outcome[R], len(items))
	sem := semaphore.NewWeighted(int64(limit))

	var wg sync.WaitGroup
	for i := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(items); j++ {
				out[j].Err = err
			}
			break
		}

		wg.Add(1)
		go func(idx int, item T) {
			defer wg.Done()
			defer sem.Release(1)
			out[idx].Value, out[idx].Err = worker(ctx, idx, item)
		}(i, items[i])
	}
	wg.Wait()

	return out
}
