package stress

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunAllSucceed(t *testing.T) {
	var counter int64
	res := Run(context.Background(), Config{
		Workers:     100,
		Concurrency: 8,
		Task: func(int) error {
			atomic.AddInt64(&counter, 1)
			return nil
		},
	})

	if res.Succeeded != 100 || res.Failed != 0 {
		t.Fatalf("Run: got succeeded=%d failed=%d, want 100/0", res.Succeeded, res.Failed)
	}
	if counter != 100 {
		t.Fatalf("expected every worker to run exactly once, counter=%d", counter)
	}
}

func TestRunCollectsFailures(t *testing.T) {
	boom := errors.New("boom")
	res := Run(context.Background(), Config{
		Workers:     10,
		Concurrency: 3,
		Task: func(id int) error {
			if id%2 == 0 {
				return boom
			}
			return nil
		},
	})

	if res.Succeeded != 5 || res.Failed != 5 {
		t.Fatalf("Run: got succeeded=%d failed=%d, want 5/5", res.Succeeded, res.Failed)
	}
	if len(res.Errors) != 5 {
		t.Fatalf("expected 5 collected errors, got %d", len(res.Errors))
	}
}

func TestRunZeroWorkersIsNoOp(t *testing.T) {
	res := Run(context.Background(), Config{Workers: 0, Task: func(int) error { return nil }})
	if res.Succeeded != 0 || res.Failed != 0 || res.Workers != 0 {
		t.Fatalf("Run with zero workers should be a no-op, got %+v", res)
	}
}

func TestRunRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Run(ctx, Config{
		Workers:     5,
		Concurrency: 1,
		Task:        func(int) error { return nil },
	})
	if res.Failed == 0 {
		t.Fatal("a pre-cancelled context should prevent at least one worker from being admitted")
	}
}
