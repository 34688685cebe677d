package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunPreservesInputOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	out := Run(context.Background(), items, func(_ context.Context, n int) (int, error) {
		// Later items finish earlier.
		time.Sleep(time.Duration(6-n) * 5 * time.Millisecond)
		return n * 10, nil
	}, Options{MaxConcurrency: 5})

	if len(out) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(out))
	}
	for i, o := range out {
		if o.Item != items[i] || o.Res != items[i]*10 || o.Err != nil {
			t.Fatalf("outcome %d out of order: %+v", i, o)
		}
	}
}

func TestRunIsolatesPerItemFailure(t *testing.T) {
	boom := errors.New("boom")
	out := Run(context.Background(), []int{1, 2, 3, 4, 5}, func(_ context.Context, n int) (int, error) {
		if n == 3 {
			return 0, boom
		}
		return n, nil
	}, Options{MaxConcurrency: 2})

	if len(out) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(out))
	}
	for i, o := range out {
		if i == 2 {
			if !errors.Is(o.Err, boom) || o.Res != 0 {
				t.Fatalf("item 3 should carry the error: %+v", o)
			}
			continue
		}
		if o.Err != nil {
			t.Fatalf("item %d unexpectedly failed: %v", o.Item, o.Err)
		}
	}
}

func TestRunRecoverPanicAsError(t *testing.T) {
	out := Run(context.Background(), []int{1, 2}, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			panic("worker exploded")
		}
		return n, nil
	}, Options{})
	if out[0].Err != nil {
		t.Fatalf("item 1 should succeed: %v", out[0].Err)
	}
	if out[1].Err == nil {
		t.Fatal("panicking item should surface an error")
	}
}

func TestRunHonorsConcurrencyCap(t *testing.T) {
	var inFlight, peak int32
	out := Run(context.Background(), make([]int, 20), func(_ context.Context, _ int) (int, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return 0, nil
	}, Options{MaxConcurrency: 3})

	if len(out) != 20 {
		t.Fatalf("expected 20 outcomes, got %d", len(out))
	}
	if p := atomic.LoadInt32(&peak); p > 3 {
		t.Fatalf("concurrency cap exceeded: peak=%d", p)
	}
}

func TestRunCancellationReturnsOrderedPrefix(t *testing.T) {
	var stop atomic.Bool
	var started int32
	out := Run(context.Background(), []int{0, 1, 2, 3, 4, 5, 6, 7}, func(_ context.Context, n int) (int, error) {
		atomic.AddInt32(&started, 1)
		if n == 1 {
			stop.Store(true)
		}
		time.Sleep(2 * time.Millisecond)
		return n, nil
	}, Options{MaxConcurrency: 1, CancelCheck: stop.Load})

	if len(out) == 0 || len(out) >= 8 {
		t.Fatalf("expected a partial result set, got %d outcomes", len(out))
	}
	for i, o := range out {
		if o.Item != i {
			t.Fatalf("partial set must stay input-ordered: index %d carries item %d", i, o.Item)
		}
	}
	if n := atomic.LoadInt32(&started); int(n) != len(out) {
		t.Fatalf("dispatched %d items but returned %d outcomes", n, len(out))
	}
}

func TestRunProgressMonotonic(t *testing.T) {
	// Run every item concurrently, many times over, so workers routinely
	// finish at the same instant; ticks must still arrive in order.
	items := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for iter := 0; iter < 2000; iter++ {
		var mu sync.Mutex
		var ticks []int
		Run(context.Background(), items, func(_ context.Context, s string) (string, error) {
			return s, nil
		}, Options{
			MaxConcurrency: len(items),
			OnProgress: func(done, total int, label string) {
				mu.Lock()
				defer mu.Unlock()
				if total != len(items) {
					t.Errorf("total = %d, want %d", total, len(items))
				}
				if label == "" {
					t.Error("progress label must not be empty")
				}
				ticks = append(ticks, done)
			},
		})

		mu.Lock()
		if len(ticks) != len(items) {
			t.Fatalf("expected one tick per item, got %v", ticks)
		}
		for i := 1; i < len(ticks); i++ {
			if ticks[i] < ticks[i-1] {
				t.Fatalf("done went backwards on iteration %d: %v", iter, ticks)
			}
		}
		mu.Unlock()
	}
}

func TestRunContextCancelStopsDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	n := 0
	Run(ctx, []int{1, 2, 3, 4, 5}, func(_ context.Context, _ int) (int, error) {
		n++
		cancel()
		return 0, nil
	}, Options{MaxConcurrency: 1})
	if n >= 5 {
		t.Fatalf("context cancellation should stop new dispatch, ran %d", n)
	}
}

func TestRunEmptyInput(t *testing.T) {
	out := Run(context.Background(), nil, func(_ context.Context, s string) (string, error) {
		return "", fmt.Errorf("should not run")
	}, Options{})
	if out != nil {
		t.Fatalf("expected nil for empty input, got %v", out)
	}
}
