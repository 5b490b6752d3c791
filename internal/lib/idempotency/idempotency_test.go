package idempotency

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func testGate() *Gate {
	logger := zerolog.Nop()
	return NewGate(NewMemoryStore(), &logger)
}

func TestApplyOnce_RunsActionOnce(t *testing.T) {
	g := testGate()
	ctx := context.Background()

	runs := 0
	action := func(context.Context) error { runs++; return nil }

	result, err := g.ApplyOnce(ctx, "ref-1", action)
	if err != nil {
		t.Fatalf("first ApplyOnce: %v", err)
	}
	if result != Applied {
		t.Fatalf("first result = %v, want Applied", result)
	}

	result, err = g.ApplyOnce(ctx, "ref-1", action)
	if err != nil {
		t.Fatalf("second ApplyOnce: %v", err)
	}
	if result != AlreadyApplied {
		t.Errorf("second result = %v, want AlreadyApplied", result)
	}
	if runs != 1 {
		t.Errorf("action ran %d times, want 1", runs)
	}
}

func TestApplyOnce_DistinctRefs(t *testing.T) {
	g := testGate()
	ctx := context.Background()

	var runs int
	for _, ref := range []string{"ref-1", "ref-2", "ref-3"} {
		if _, err := g.ApplyOnce(ctx, ref, func(context.Context) error { runs++; return nil }); err != nil {
			t.Fatalf("ApplyOnce(%q): %v", ref, err)
		}
	}
	if runs != 3 {
		t.Errorf("action ran %d times for 3 distinct refs, want 3", runs)
	}
}

func TestApplyOnce_Concurrent(t *testing.T) {
	g := testGate()
	ctx := context.Background()

	const calls = 50
	var runs atomic.Int64
	var wg sync.WaitGroup
	errs := make([]error, calls)

	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = g.ApplyOnce(ctx, "ref-1", func(context.Context) error {
				runs.Add(1)
				return nil
			})
		}(i)
	}
	wg.Wait()

	if got := runs.Load(); got != 1 {
		t.Errorf("action ran %d times under %d concurrent calls, want exactly 1", got, calls)
	}
	for i, err := range errs {
		if err != nil {
			t.Errorf("call %d returned error: %v", i, err)
		}
	}
}

func TestApplyOnce_ActionFailureReleasesReservation(t *testing.T) {
	g := testGate()
	ctx := context.Background()

	boom := errors.New("downstream unavailable")
	if _, err := g.ApplyOnce(ctx, "ref-1", func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("ApplyOnce error = %v, want the action error", err)
	}

	// The gateway retry must be able to land after a failed attempt.
	result, err := g.ApplyOnce(ctx, "ref-1", func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("retry ApplyOnce: %v", err)
	}
	if result != Applied {
		t.Errorf("retry result = %v, want Applied", result)
	}
}

// failingStore simulates an unavailable backing store.
type failingStore struct{ err error }

func (s failingStore) PutIfAbsent(context.Context, string, State) (bool, error) { return false, s.err }
func (s failingStore) Get(context.Context, string) (State, bool, error)         { return "", false, s.err }
func (s failingStore) Delete(context.Context, string) error                     { return s.err }

func TestApplyOnce_StoreFailurePropagates(t *testing.T) {
	logger := zerolog.Nop()
	storeErr := errors.New("connection refused")
	g := NewGate(failingStore{err: storeErr}, &logger)

	ran := false
	_, err := g.ApplyOnce(context.Background(), "ref-1", func(context.Context) error {
		ran = true
		return nil
	})
	if !errors.Is(err, storeErr) {
		t.Errorf("ApplyOnce error = %v, want the store error", err)
	}
	if ran {
		t.Error("action ran despite store failure; ambiguity here risks double charges")
	}
}
