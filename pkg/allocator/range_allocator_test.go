// Package allocator provides tests for the PID range allocator.
package allocator

import (
	"errors"
	"testing"
)

func TestNewRangeAllocator(t *testing.T) {
	a, err := NewRangeAllocator(100, 1000)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a.Min() != 100 || a.Max() != 1000 {
		t.Errorf("expected bounds [100, 1000], got [%d, %d]", a.Min(), a.Max())
	}
	if a.Size() != 901 {
		t.Errorf("expected size 901, got %d", a.Size())
	}
	if a.Ready() {
		t.Error("allocator should not be ready before Initialize")
	}
}

func TestNewRangeAllocator_InvalidBounds(t *testing.T) {
	cases := []struct {
		name string
		min  int
		max  int
	}{
		{"negative min", -1, 10},
		{"max below min", 10, 9},
		{"both invalid", -5, -10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRangeAllocator(tc.min, tc.max)
			if err == nil {
				t.Fatalf("expected construction to fail for [%d, %d]", tc.min, tc.max)
			}
			var rangeErr *InvalidRangeError
			if !errors.As(err, &rangeErr) {
				t.Errorf("expected *InvalidRangeError, got %T", err)
			}
		})
	}
}

func TestNewDefaultRangeAllocator(t *testing.T) {
	a := NewDefaultRangeAllocator()
	if a.Min() != DefaultMinPID || a.Max() != DefaultMaxPID {
		t.Errorf("expected default bounds [%d, %d], got [%d, %d]",
			DefaultMinPID, DefaultMaxPID, a.Min(), a.Max())
	}
}

func TestAllocate_NotInitialized(t *testing.T) {
	a, err := NewRangeAllocator(1, 3)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if id := a.Allocate(); id != Unallocated {
		t.Errorf("expected sentinel %d before Initialize, got %d", Unallocated, id)
	}

	_, allocErr := a.AllocateNext()
	var notInit *NotInitializedError
	if !errors.As(allocErr, &notInit) {
		t.Errorf("expected *NotInitializedError, got %T", allocErr)
	}

	// Release must be a safe no-op and must not change observable state.
	a.Release(2)
	if a.IsAllocated(2) {
		t.Error("release on uninitialized allocator should not mark anything")
	}
	if a.Used() != 0 {
		t.Errorf("expected 0 used identifiers, got %d", a.Used())
	}
}

func TestAllocate_Sequential(t *testing.T) {
	a, _ := NewRangeAllocator(100, 1000)
	if err := a.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		id := a.Allocate()
		if id != 100+i {
			t.Errorf("allocation %d: expected %d, got %d", i, 100+i, id)
		}
		if !a.Contains(id) {
			t.Errorf("allocated id %d must be within [100, 1000]", id)
		}
		if !a.IsAllocated(id) {
			t.Errorf("allocated id %d should be marked allocated", id)
		}
	}
	if a.Used() != 5 {
		t.Errorf("expected 5 used identifiers, got %d", a.Used())
	}
}

// The concrete scenario from the original PID manager: a [1, 3] range is
// drained, the fourth request fails, and a released identifier is reused.
func TestAllocate_TinyRangeScenario(t *testing.T) {
	a, err := NewRangeAllocator(1, 3)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := a.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	expected := []int{1, 2, 3}
	for i, want := range expected {
		if got := a.Allocate(); got != want {
			t.Errorf("allocation %d: expected %d, got %d", i, want, got)
		}
	}

	if got := a.Allocate(); got != Unallocated {
		t.Errorf("fourth allocation should fail with %d, got %d", Unallocated, got)
	}
	_, exhaustErr := a.AllocateNext()
	var exhausted *PoolExhaustedError
	if !errors.As(exhaustErr, &exhausted) {
		t.Errorf("expected *PoolExhaustedError, got %T", exhaustErr)
	}

	a.Release(2)
	if got := a.Allocate(); got != 2 {
		t.Errorf("expected released id 2 to be reused, got %d", got)
	}
}

func TestRelease_PullsCursorBack(t *testing.T) {
	a, _ := NewRangeAllocator(10, 20)
	_ = a.Initialize()

	// Allocate 10..14, cursor now at 15.
	for i := 0; i < 5; i++ {
		a.Allocate()
	}

	// Releasing 11 should bias the next allocation to 11, not 15.
	a.Release(11)
	if got := a.Allocate(); got != 11 {
		t.Errorf("expected reuse of released id 11, got %d", got)
	}
	// The cursor advanced past 11; 12 is still taken, so 15 is next.
	if got := a.Allocate(); got != 15 {
		t.Errorf("expected 15 after reusing 11, got %d", got)
	}
}

func TestRelease_NoOpCases(t *testing.T) {
	a, _ := NewRangeAllocator(5, 8)
	_ = a.Initialize()
	first := a.Allocate()

	// Out-of-range releases are ignored.
	a.Release(4)
	a.Release(9)
	a.Release(-1)
	if !a.IsAllocated(first) {
		t.Error("out-of-range release must not affect allocated ids")
	}

	// Releasing an already-free id is a no-op.
	a.Release(7)
	if a.Used() != 1 {
		t.Errorf("expected 1 used identifier, got %d", a.Used())
	}
}

func TestAllocate_WrapAround(t *testing.T) {
	a, _ := NewRangeAllocator(1, 3)
	_ = a.Initialize()

	// Drain the range, then free the lowest id. The cursor wrapped to 1
	// after allocating 3, so the next allocation starts at 1 again.
	for i := 0; i < 3; i++ {
		a.Allocate()
	}
	a.Release(1)
	if got := a.Allocate(); got != 1 {
		t.Errorf("expected wrap-around to reuse 1, got %d", got)
	}
}

func TestAllocate_ExhaustionAndRecovery(t *testing.T) {
	a, _ := NewRangeAllocator(1, 10)
	_ = a.Initialize()

	for i := 0; i < a.Size(); i++ {
		if id := a.Allocate(); id == Unallocated {
			t.Fatalf("allocation %d failed before pool was exhausted", i)
		}
	}
	if a.Available() != 0 {
		t.Errorf("expected 0 available identifiers, got %d", a.Available())
	}
	if id := a.Allocate(); id != Unallocated {
		t.Errorf("expected exhaustion sentinel, got %d", id)
	}

	// Releasing any one id makes exactly one allocation succeed.
	a.Release(6)
	if got := a.Allocate(); got != 6 {
		t.Errorf("expected recovered allocation of 6, got %d", got)
	}
	if id := a.Allocate(); id != Unallocated {
		t.Errorf("expected pool to be exhausted again, got %d", id)
	}
}

func TestInitialize_Idempotent(t *testing.T) {
	a, _ := NewRangeAllocator(1, 5)
	_ = a.Initialize()

	for i := 0; i < 5; i++ {
		a.Allocate()
	}
	if a.Available() != 0 {
		t.Fatalf("expected drained pool, got %d available", a.Available())
	}

	if err := a.Initialize(); err != nil {
		t.Fatalf("re-Initialize failed: %v", err)
	}
	if !a.Ready() {
		t.Error("allocator should remain ready after re-Initialize")
	}
	if a.Used() != 0 {
		t.Errorf("re-Initialize should free all ids, got %d used", a.Used())
	}
	if got := a.Allocate(); got != 1 {
		t.Errorf("expected allocation to restart at 1, got %d", got)
	}
}

func TestQueries_DoNotMutate(t *testing.T) {
	a, _ := NewRangeAllocator(1, 4)
	_ = a.Initialize()
	a.Allocate()

	// A burst of queries must not disturb the scan position.
	for i := 0; i < 10; i++ {
		a.Ready()
		a.Contains(3)
		a.IsAllocated(1)
		a.IsAllocated(99)
		a.Available()
		a.Used()
	}
	if got := a.Allocate(); got != 2 {
		t.Errorf("queries changed allocation order: expected 2, got %d", got)
	}
}

func TestIsAllocated_OutOfRange(t *testing.T) {
	a, _ := NewRangeAllocator(10, 12)
	_ = a.Initialize()
	a.Allocate()

	if a.IsAllocated(9) || a.IsAllocated(13) || a.IsAllocated(-1) {
		t.Error("out-of-range ids must report not allocated")
	}
	if a.Contains(9) || a.Contains(13) {
		t.Error("out-of-range ids must report not contained")
	}
}

func TestIndependentInstances(t *testing.T) {
	a, _ := NewRangeAllocator(1, 3)
	b, _ := NewRangeAllocator(1, 3)
	_ = a.Initialize()
	_ = b.Initialize()

	a.Allocate()
	a.Allocate()

	// Instances model isolated namespaces; b is unaffected by a.
	if b.Used() != 0 {
		t.Errorf("expected independent instance to have 0 used, got %d", b.Used())
	}
	if got := b.Allocate(); got != 1 {
		t.Errorf("expected independent instance to allocate 1, got %d", got)
	}
}
