// Package metrics provides Prometheus metrics for pid-manager.
package metrics

import (
	"errors"
	"time"

	"github.com/ilgerodias/pid-manager/pkg/allocator"
)

// Result constants for metric labels
const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultExhausted = "exhausted"
	ResultNotReady  = "not_ready"
)

// Operation constants for server metrics
const (
	OperationAllocate = "allocate"
	OperationRelease  = "release"
	OperationStatus   = "status"
)

// Timer is a helper for measuring operation duration.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer starting from now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration returns the duration since the timer was created.
func (t *Timer) ObserveDuration() time.Duration {
	return time.Since(t.start)
}

// RecordAllocation records an allocation attempt.
//
// Parameters:
//   - err: The error from AllocateNext (nil for success)
//   - duration: The duration of the allocation
func RecordAllocation(err error, duration time.Duration) {
	result := ResultSuccess
	if err != nil {
		var exhausted *allocator.PoolExhaustedError
		var notReady *allocator.NotInitializedError
		switch {
		case errors.As(err, &exhausted):
			result = ResultExhausted
		case errors.As(err, &notReady):
			result = ResultNotReady
		default:
			result = ResultFailure
		}
	}
	AllocationsTotal.WithLabelValues(result).Inc()
	AllocationDuration.Observe(duration.Seconds())
}

// RecordRelease records a release operation.
func RecordRelease() {
	ReleasesTotal.Inc()
}

// RecordPoolOccupancy updates the pool occupancy gauges.
func RecordPoolOccupancy(used, available int) {
	UsedIDs.Set(float64(used))
	AvailableIDs.Set(float64(available))
}

// RecordRequest records a service request metric.
//
// Parameters:
//   - operation: The service operation (allocate/release/status)
//   - err: The error from the operation (nil for success)
//   - duration: The duration of the request
func RecordRequest(operation string, err error, duration time.Duration) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	RequestsTotal.WithLabelValues(operation, result).Inc()
	RequestDuration.WithLabelValues(operation, result).Observe(duration.Seconds())
}
