// Package allocator provides bounded-range process identifier allocation.
//
// RangeAllocator hands out integer identifiers from a closed interval
// [min, max], reclaims them on release, and reuses freed identifiers before
// reporting exhaustion. Allocation follows a circular next-fit policy: a
// cursor remembers where the previous scan stopped, each request scans
// forward from the cursor and wraps around to min, and releasing an
// identifier below the cursor pulls the cursor back so the freed slot is
// preferred on the next request.
package allocator

// Default identifier range, modeled on conventional OS PID bounds.
const (
	DefaultMinPID = 100
	DefaultMaxPID = 1000
)

// RangeAllocator manages a single contiguous identifier namespace.
//
// Lifecycle: construct (validates bounds), Initialize (resets state and
// makes the allocator ready), then allocate/release freely. Initialize may
// be called again at any time to reset the namespace.
//
// Thread safety: none. The allocator assumes a single owner; concurrent
// callers must route requests through one authority (see pkg/pidserver).
type RangeAllocator struct {
	// min and max are the inclusive bounds of the identifier space
	min int
	max int

	// bitmap tracks membership, indexed by offset from min
	bitmap *Bitmap

	// cursor is the next identifier to probe first, always in [min, max]
	cursor int

	// ready is set only after a successful Initialize
	ready bool
}

// NewRangeAllocator creates an allocator for the closed interval [min, max].
//
// Returns an *InvalidRangeError when min is negative or max is below min.
// The allocator is not ready until Initialize is called.
func NewRangeAllocator(min, max int) (*RangeAllocator, error) {
	if min < 0 || max < min {
		return nil, &InvalidRangeError{Min: min, Max: max}
	}
	return &RangeAllocator{
		min:    min,
		max:    max,
		bitmap: NewBitmap(max - min + 1),
		cursor: min,
	}, nil
}

// NewDefaultRangeAllocator creates an allocator for [DefaultMinPID, DefaultMaxPID].
func NewDefaultRangeAllocator() *RangeAllocator {
	a, err := NewRangeAllocator(DefaultMinPID, DefaultMaxPID)
	if err != nil {
		// The default bounds are valid by construction.
		panic(err)
	}
	return a
}

// Initialize resets the allocator: every identifier becomes available, the
// cursor returns to min, and the allocator becomes ready. It is idempotent
// and may be called again to discard all outstanding allocations.
//
// The error return reports a failure to perform the reset itself, which is
// distinct from pool exhaustion; with a fixed-size bitmap it is always nil.
func (a *RangeAllocator) Initialize() error {
	a.bitmap.Reset()
	a.cursor = a.min
	a.ready = true
	return nil
}

// AllocateNext allocates the first available identifier at or after the
// cursor, wrapping around to min when the top of the range is reached.
//
// Returns Unallocated together with a *NotInitializedError before
// Initialize, or a *PoolExhaustedError when every identifier is in use.
func (a *RangeAllocator) AllocateNext() (int, error) {
	if !a.ready {
		return Unallocated, &NotInitializedError{}
	}

	start := a.cursor
	if index := a.bitmap.NextClear(start - a.min); index != -1 {
		return a.take(a.min + index), nil
	}
	// Wrap and scan [min, start).
	if index := a.bitmap.NextClear(0); index != -1 && a.min+index < start {
		return a.take(a.min + index), nil
	}
	return Unallocated, &PoolExhaustedError{Min: a.min, Max: a.max}
}

// take marks id allocated and advances the cursor past it.
func (a *RangeAllocator) take(id int) int {
	a.bitmap.Set(id - a.min)
	if id == a.max {
		a.cursor = a.min
	} else {
		a.cursor = id + 1
	}
	return id
}

// Allocate allocates the next available identifier, returning Unallocated
// when the allocator is not initialized or the pool is exhausted. The two
// failure causes are intentionally collapsed into one sentinel; use
// AllocateNext to distinguish them.
func (a *RangeAllocator) Allocate() int {
	id, err := a.AllocateNext()
	if err != nil {
		return Unallocated
	}
	return id
}

// Release returns an identifier to the pool. It is a safe no-op when the
// allocator is not initialized, when id is outside [min, max], or when id
// is already free. Releasing an identifier below the cursor pulls the
// cursor back so the freed identifier is reused first.
func (a *RangeAllocator) Release(id int) {
	if !a.ready {
		return
	}
	if id < a.min || id > a.max {
		return
	}
	a.bitmap.Clear(id - a.min)
	if id < a.cursor {
		a.cursor = id
	}
}

// Ready reports whether Initialize has succeeded.
func (a *RangeAllocator) Ready() bool {
	return a.ready
}

// Contains reports whether id lies within [min, max], regardless of its
// allocation state.
func (a *RangeAllocator) Contains(id int) bool {
	return id >= a.min && id <= a.max
}

// IsAllocated reports whether id is currently allocated. Out-of-range
// identifiers report false rather than failing.
func (a *RangeAllocator) IsAllocated(id int) bool {
	if !a.Contains(id) {
		return false
	}
	return a.bitmap.IsSet(id - a.min)
}

// Min returns the inclusive lower bound of the identifier space.
func (a *RangeAllocator) Min() int {
	return a.min
}

// Max returns the inclusive upper bound of the identifier space.
func (a *RangeAllocator) Max() int {
	return a.max
}

// Size returns the total number of identifiers in the range.
func (a *RangeAllocator) Size() int {
	return a.max - a.min + 1
}

// Used returns the number of currently allocated identifiers.
func (a *RangeAllocator) Used() int {
	return a.bitmap.Allocated()
}

// Available returns the number of currently free identifiers.
func (a *RangeAllocator) Available() int {
	return a.bitmap.Available()
}
