// Package stress provides a small bounded-concurrency workload harness
// used by the lfbench command: it drives goroutines through a
// semaphore-bounded fan-out so the command does not hand-roll its own
// worker pool. The lockfree package's own tests do not use it.
package stress

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Config describes a bounded concurrent workload: total goroutines to run,
// how many may be in flight at once, and the function each one executes.
type Config struct {
	// Workers is the total number of goroutines to launch.
	Workers int
	// Concurrency caps how many of those goroutines run at once. A value
	// <= 0 or >= Workers means unbounded (every worker runs immediately).
	Concurrency int
	// Task is invoked once per worker with its 0-based index. A non-nil
	// return is counted as a failure and collected into Result.Errors.
	Task func(workerID int) error
}

// Result summarizes a finished Run.
type Result struct {
	Workers   int
	Succeeded int64
	Failed    int64
	Errors    []error
}

// Run launches cfg.Workers goroutines, admitting at most cfg.Concurrency of
// them at a time via a weighted semaphore, and waits for all of them to
// finish or for ctx to be cancelled. A cancelled context stops admitting new
// workers but does not interrupt ones already running — Task functions are
// expected to check ctx themselves if they need to exit early.
func Run(ctx context.Context, cfg Config) Result {
	if cfg.Workers <= 0 {
		return Result{}
	}
	limit := int64(cfg.Concurrency)
	if limit <= 0 || limit > int64(cfg.Workers) {
		limit = int64(cfg.Workers)
	}

	sem := semaphore.NewWeighted(limit)
	var wg sync.WaitGroup
	var succeeded, failed int64
	errs := make([]error, cfg.Workers)

	for i := 0; i < cfg.Workers; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = fmt.Errorf("worker %d: %w", i, err)
			atomic.AddInt64(&failed, 1)
			continue
		}
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			defer sem.Release(1)
			if err := cfg.Task(id); err != nil {
				errs[id] = fmt.Errorf("worker %d: %w", id, err)
				atomic.AddInt64(&failed, 1)
				return
			}
			atomic.AddInt64(&succeeded, 1)
		}(i)
	}
	wg.Wait()

	collected := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			collected = append(collected, err)
		}
	}
	return Result{
		Workers:   cfg.Workers,
		Succeeded: atomic.LoadInt64(&succeeded),
		Failed:    atomic.LoadInt64(&failed),
		Errors:    collected,
	}
}
