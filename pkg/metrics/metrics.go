// Package metrics provides Prometheus metrics for pid-manager.
//
// This package exposes metrics for monitoring the allocation daemon:
// - Allocation and release counts (success/failure)
// - Pool occupancy (used/available identifiers)
// - Allocation latency
// - Service request counts and latency
//
// Metrics are exposed via the /metrics endpoint on the daemon's metrics
// server (default port 9090).
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	// Namespace is the Prometheus metrics namespace
	Namespace = "pid_manager"

	// Subsystem names for different metric categories
	SubsystemAllocator = "allocator"
	SubsystemServer    = "server"
)

// Registry is the process-wide metrics registry served by the daemon.
var Registry = prometheus.NewRegistry()

var (
	// registerOnce ensures metrics are registered only once
	registerOnce sync.Once

	// ---- Allocator Metrics ----

	// AllocationsTotal counts allocation attempts
	// Labels: result (success/exhausted/not_ready)
	AllocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAllocator,
			Name:      "allocations_total",
			Help:      "Total number of PID allocation attempts",
		},
		[]string{"result"},
	)

	// ReleasesTotal counts release operations
	ReleasesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAllocator,
			Name:      "releases_total",
			Help:      "Total number of PID release operations",
		},
	)

	// AvailableIDs tracks the number of free identifiers in the pool
	AvailableIDs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAllocator,
			Name:      "available_ids",
			Help:      "Number of available identifiers in the pool",
		},
	)

	// UsedIDs tracks the number of allocated identifiers in the pool
	UsedIDs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAllocator,
			Name:      "used_ids",
			Help:      "Number of allocated identifiers in the pool",
		},
	)

	// AllocationDuration measures the time taken for a single allocation
	AllocationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAllocator,
			Name:      "allocation_duration_seconds",
			Help:      "Time taken for PID allocation in seconds",
			Buckets:   []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001},
		},
	)

	// ---- Server Metrics ----

	// RequestsInFlight tracks the number of requests currently being processed
	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemServer,
			Name:      "requests_in_flight",
			Help:      "Number of service requests currently being processed",
		},
	)

	// RequestDuration measures service request latency
	// Labels: operation (allocate/release/status), result (success/failure)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemServer,
			Name:      "request_duration_seconds",
			Help:      "Time taken to serve allocation service requests in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation", "result"},
	)

	// RequestsTotal counts service requests
	// Labels: operation (allocate/release/status), result (success/failure)
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemServer,
			Name:      "requests_total",
			Help:      "Total number of allocation service requests",
		},
		[]string{"operation", "result"},
	)
)

// Register registers all metrics with the package registry.
// This function is safe to call multiple times; metrics will only be
// registered once.
func Register() {
	registerOnce.Do(func() {
		// Allocator metrics
		Registry.MustRegister(AllocationsTotal)
		Registry.MustRegister(ReleasesTotal)
		Registry.MustRegister(AvailableIDs)
		Registry.MustRegister(UsedIDs)
		Registry.MustRegister(AllocationDuration)

		// Server metrics
		Registry.MustRegister(RequestsInFlight)
		Registry.MustRegister(RequestDuration)
		Registry.MustRegister(RequestsTotal)

		// Standard process and Go runtime collectors
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
