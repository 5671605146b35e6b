package sequencer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunPreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	results, err := Run(context.Background(), items, 2, func(_ context.Context, n int) (int, error) {
		return n * n, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{1, 4, 9, 16, 25}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("results[%d] = %d, want %d", i, results[i], want[i])
		}
	}
}

func TestRunShortCircuitsOnFirstError(t *testing.T) {
	var started int32
	boom := errors.New("boom")
	_, err := Run(context.Background(), []int{1, 2, 3, 4, 5, 6}, 2, func(_ context.Context, n int) (int, error) {
		atomic.AddInt32(&started, 1)
		if n == 3 {
			return 0, boom
		}
		return n, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	// Items 5 and 6 (the third chunk) must never have started: the
	// first two chunks (1,2) and (3,4) run, the error in chunk 2 stops
	// the third chunk from being issued.
	if started > 4 {
		t.Errorf("started = %d, want at most 4", started)
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	width := 2
	var current, max int32
	var mu sync.Mutex
	items := make([]int, 8)
	_, err := Run(context.Background(), items, width, func(_ context.Context, _ int) (struct{}, error) {
		mu.Lock()
		current++
		if current > max {
			max = current
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		current--
		mu.Unlock()
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if max > int32(width) {
		t.Errorf("observed concurrency %d, want at most %d", max, width)
	}
}

func TestRunDefaultWidth(t *testing.T) {
	results, err := Run(context.Background(), []int{1, 2, 3}, 0, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
}
