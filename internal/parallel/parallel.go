// Package parallel provides the bounded-concurrency fan-out used for every
// per-keyword provider call. Output order always matches input order, one
// item's failure never aborts its siblings, and cancellation is cooperative:
// once the cancel check reports true no new item is started and the
// completed prefix is returned as-is.
package parallel

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// DefaultMaxConcurrency stays small because the upstream providers enforce
// low per-second rate limits. Retrying adapters must not amplify it.
const DefaultMaxConcurrency = 3

// Outcome pairs an input item with its result or error at the item's
// original index.
type Outcome[I, R any] struct {
	Item I
	Res  R
	Err  error
}

// ProgressFn receives completion ticks: done is monotonically
// non-decreasing and reaches total only when no item was skipped.
type ProgressFn func(done, total int, label string)

// Options tunes a Run. Zero values fall back to sane defaults; a nil
// CancelCheck never cancels.
type Options struct {
	MaxConcurrency int
	CancelCheck    func() bool
	OnProgress     ProgressFn
	// Label renders an item for progress messages. Defaults to %v.
	Label func(item any) string
}

// Run maps workerFn over items with at most MaxConcurrency concurrent
// executions. The returned slice is indexed like items regardless of
// completion order. When the run is cancelled (via Options.CancelCheck or
// ctx) the slice covers only the items that were dispatched; callers must
// treat it as a possibly-partial, still correctly-ordered set.
func Run[I, R any](ctx context.Context, items []I, workerFn func(context.Context, I) (R, error), opts Options) []Outcome[I, R] {
	if len(items) == 0 {
		return nil
	}
	maxConc := opts.MaxConcurrency
	if maxConc <= 0 {
		maxConc = DefaultMaxConcurrency
	}
	if maxConc > len(items) {
		maxConc = len(items)
	}

	results := make([]Outcome[I, R], len(items))
	dispatched := 0
	sem := make(chan struct{}, maxConc)
	var wg sync.WaitGroup

	var mu sync.Mutex
	done := 0

	for i, item := range items {
		if cancelled(ctx, opts.CancelCheck) {
			break
		}
		sem <- struct{}{}
		// Re-check after acquiring a slot: a long batch should stop
		// promptly even while all workers are busy.
		if cancelled(ctx, opts.CancelCheck) {
			<-sem
			break
		}
		dispatched = i + 1
		wg.Add(1)
		go func(idx int, it I) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := safeCall(ctx, workerFn, it)
			results[idx] = Outcome[I, R]{Item: it, Res: res, Err: err}

			// The callback runs under mu so ticks from workers that
			// finish together cannot be delivered out of order.
			mu.Lock()
			done++
			if opts.OnProgress != nil {
				opts.OnProgress(done, len(items), label(opts, it))
			}
			mu.Unlock()
		}(i, item)
	}

	wg.Wait()
	return results[:dispatched]
}

// safeCall shields the batch from a panicking worker; the panic is reported
// as the item's error.
func safeCall[I, R any](ctx context.Context, workerFn func(context.Context, I) (R, error), item I) (res R, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("titleforge parallel worker_panic item=%v panic=%v", item, r)
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	return workerFn(ctx, item)
}

func cancelled(ctx context.Context, check func() bool) bool {
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	return check != nil && check()
}

func label(opts Options, item any) string {
	if opts.Label != nil {
		return opts.Label(item)
	}
	s := fmt.Sprintf("%v", item)
	if r := []rune(s); len(r) > 50 {
		s = string(r[:50])
	}
	return s
}
