// Package allocator provides bounded-range process identifier allocation.
package allocator

import "fmt"

// Unallocated is the sentinel returned by Allocate when no identifier can
// be handed out. It deliberately covers both "allocator not initialized"
// and "pool exhausted"; callers that need to tell the two apart should use
// AllocateNext and inspect the error type.
const Unallocated = -1

// InvalidRangeError indicates that an allocator was constructed with an
// unusable identifier range.
type InvalidRangeError struct {
	Min int
	Max int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid PID range [%d, %d]: min must be >= 0 and max >= min", e.Min, e.Max)
}

// NotInitializedError indicates that an allocation was attempted before
// Initialize succeeded.
type NotInitializedError struct{}

func (e *NotInitializedError) Error() string {
	return "allocator is not initialized"
}

// PoolExhaustedError indicates that every identifier in the range is
// currently allocated.
type PoolExhaustedError struct {
	Min int
	Max int
}

func (e *PoolExhaustedError) Error() string {
	return fmt.Sprintf("PID pool [%d, %d] has no available identifiers", e.Min, e.Max)
}
