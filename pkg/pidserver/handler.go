// Package pidserver provides the PID allocation service.
package pidserver

import (
	"context"
	"sync"

	"github.com/ilgerodias/pid-manager/pkg/allocator"
	"github.com/ilgerodias/pid-manager/pkg/logging"
	"github.com/ilgerodias/pid-manager/pkg/metrics"
)

// RequestHandler is the interface for handling allocation service requests.
// It decouples the Unix-socket transport from the allocator implementation.
type RequestHandler interface {
	// HandleAllocate handles an allocation request. It returns the granted
	// identifier, or allocator.Unallocated together with the typed error
	// describing why nothing could be granted.
	HandleAllocate(ctx context.Context, req *AllocateRequest) (int, error)

	// HandleRelease handles a release request. It is idempotent: releasing
	// an unknown or already-free identifier is not an error.
	HandleRelease(ctx context.Context, req *ReleaseRequest) error

	// HandleStatus reports the current pool occupancy.
	HandleStatus(ctx context.Context) (*StatusResponse, error)
}

// AllocatorHandler serves requests from a single RangeAllocator.
//
// The allocator itself is not synchronized; this handler is the single
// authority that owns it, and the mutex serializes all access on behalf of
// every connected client.
type AllocatorHandler struct {
	mu   sync.Mutex
	pool *allocator.RangeAllocator
	log  *logging.Logger
}

// NewAllocatorHandler creates a handler owning the given allocator.
func NewAllocatorHandler(pool *allocator.RangeAllocator) *AllocatorHandler {
	return &AllocatorHandler{
		pool: pool,
		log:  logging.LoggerForPool(pool.Min(), pool.Max()),
	}
}

// HandleAllocate allocates the next available identifier.
func (h *AllocatorHandler) HandleAllocate(ctx context.Context, req *AllocateRequest) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	timer := metrics.NewTimer()
	id, err := h.pool.AllocateNext()
	metrics.RecordAllocation(err, timer.ObserveDuration())
	metrics.RecordPoolOccupancy(h.pool.Used(), h.pool.Available())

	if err != nil {
		h.log.Warn("PID allocation failed", "owner", req.Owner, "reason", err.Error())
		return allocator.Unallocated, err
	}

	h.log.Debug("PID allocated", "pid", id, "owner", req.Owner)
	return id, nil
}

// HandleRelease returns an identifier to the pool. Out-of-range and
// already-free identifiers are silently ignored, matching the allocator.
func (h *AllocatorHandler) HandleRelease(ctx context.Context, req *ReleaseRequest) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pool.Release(req.PID)
	metrics.RecordRelease()
	metrics.RecordPoolOccupancy(h.pool.Used(), h.pool.Available())

	h.log.Debug("PID released", "pid", req.PID)
	return nil
}

// HandleStatus reports pool bounds and occupancy.
func (h *AllocatorHandler) HandleStatus(ctx context.Context) (*StatusResponse, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return &StatusResponse{
		Min:       h.pool.Min(),
		Max:       h.pool.Max(),
		Used:      h.pool.Used(),
		Available: h.pool.Available(),
		Ready:     h.pool.Ready(),
	}, nil
}
