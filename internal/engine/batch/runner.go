package batch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Concurrency limits.
const (
	// Sequential runs one item at a time.
	Sequential = 1
	// MaxConcurrency is the largest accepted worker count.
	MaxConcurrency = 64
)

// Common runner errors.
var (
	ErrInvalidConcurrency = errors.New("concurrency must be between 1 and 64")
	ErrNilJob             = errors.New("batch job cannot be nil")
	ErrEmptyItems         = errors.New("items slice cannot be empty")
)

// Job processes one item. index is the item's position in the input.
type Job[T, R any] func(ctx context.Context, index int, item T) (R, error)

// ProgressCallback is invoked after each item completes. It may be called
// from several goroutines at once; the Progress argument is safe to read.
type ProgressCallback func(progress *Progress)

// Runner applies a Job to a list of items.
type Runner[T, R any] struct {
	concurrency int
	onProgress  ProgressCallback
}

// NewRunner creates a runner with the given worker count.
func NewRunner[T, R any](concurrency int) (*Runner[T, R], error) {
	if concurrency < Sequential || concurrency > MaxConcurrency {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, concurrency)
	}
	return &Runner[T, R]{concurrency: concurrency}, nil
}

// WithProgressCallback sets a progress callback for the runner.
func (r *Runner[T, R]) WithProgressCallback(callback ProgressCallback) *Runner[T, R] {
	r.onProgress = callback
	return r
}

// Concurrency returns the configured worker count.
func (r *Runner[T, R]) Concurrency() int {
	return r.concurrency
}

// Run applies job to every item and returns the results in input order.
func (r *Runner[T, R]) Run(ctx context.Context, items []T, job Job[T, R]) ([]R, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	if job == nil {
		return nil, ErrNilJob
	}

	results := make([]R, len(items))
	progress := NewProgress(len(items))

	if r.concurrency == Sequential {
		for i, item := range items {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, err := job(ctx, i, item)
			if err != nil {
				return nil, fmt.Errorf("item %d failed: %w", i, err)
			}
			results[i] = res
			r.done(progress)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := job(gctx, i, item)
			if err != nil {
				return fmt.Errorf("item %d failed: %w", i, err)
			}
			results[i] = res
			r.done(progress)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner[T, R]) done(progress *Progress) {
	progress.Add(1)
	if r.onProgress != nil {
		r.onProgress(progress)
	}
}
