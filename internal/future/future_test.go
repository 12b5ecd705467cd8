package future

import (
	"sync"
	"sync/atomic"
	"testing"
)

// TestAwaitCoalescesConcurrentCallers checks that N concurrent callers of
// the same future see fn invoked exactly once.
func TestAwaitCoalescesConcurrentCallers(t *testing.T) {
	var calls atomic.Int64
	f := NewLazy(func() (int, int64, error) {
		calls.Add(1)
		return 42, 8, nil
	}, nil)

	const n = 50
	var wg sync.WaitGroup
	results := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := f.Await()
			if err != nil {
				t.Errorf("Await() error: %v", err)
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("fn invoked %d times, want exactly 1", calls.Load())
	}
	for i, v := range results {
		if v != 42 {
			t.Fatalf("caller %d got %d, want 42 (memoised value)", i, v)
		}
	}
	if !f.IsDone() {
		t.Fatal("IsDone() = false after Await completed")
	}
	if f.SizeBytes() != 8 {
		t.Fatalf("SizeBytes() = %d, want 8", f.SizeBytes())
	}
}

// TestAwaitPanicEntersDoneNone checks that a panic during the compute
// function is reported as an error but the future still reaches a
// terminal, memoised done state with no value.
func TestAwaitPanicEntersDoneNone(t *testing.T) {
	f := NewLazy(func() (int, int64, error) {
		panic("boom")
	}, nil)

	v, err := f.Await()
	if err == nil {
		t.Fatal("expected an error after a panicking compute function")
	}
	if v != 0 {
		t.Fatalf("v = %d, want zero value", v)
	}
	if !f.IsDone() {
		t.Fatal("IsDone() = false after a panicking Await")
	}
	if f.SizeBytes() != 0 {
		t.Fatalf("SizeBytes() = %d, want 0 for a failed future", f.SizeBytes())
	}

	// A second Await must return the same memoised failure, not panic again.
	_, err2 := f.Await()
	if err2 == nil {
		t.Fatal("expected the memoised error on a second Await")
	}
}

func TestStartOnBackgroundComputesWithoutBlockingCaller(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	f := NewLazy(func() (int, int64, error) {
		close(started)
		<-unblock
		return 1, 1, nil
	}, nil)

	f.StartOnBackground()
	<-started
	if f.IsDone() {
		t.Fatal("IsDone() = true before the background computation finished")
	}
	close(unblock)

	v, err := f.Await()
	if err != nil || v != 1 {
		t.Fatalf("Await() = (%d, %v), want (1, nil)", v, err)
	}
}
