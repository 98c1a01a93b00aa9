// Package pidserver provides the PID allocation service.
//
// The service listens on a Unix socket and handles allocation requests from
// client processes. This architecture keeps the allocator under a single
// owner (the daemon) while any number of processes request identifiers
// through a request/response protocol instead of sharing allocator memory:
//
//	┌─────────────┐     Unix Socket      ┌─────────────────┐
//	│   pidctl    │ ──────────────────▶  │   pidd daemon   │
//	│ (client)    │    JSON over HTTP    │ (owns allocator)│
//	└─────────────┘                      └─────────────────┘
//
// Request Flow:
// 1. Client sends an allocate/release/status request over the socket
// 2. The daemon's handler serializes access to the RangeAllocator
// 3. The response carries the granted PID, or the -1 sentinel on failure
package pidserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ilgerodias/pid-manager/pkg/allocator"
	"github.com/ilgerodias/pid-manager/pkg/logging"
	"github.com/ilgerodias/pid-manager/pkg/metrics"
)

const (
	// DefaultSocketPath is the default Unix socket path for the service
	DefaultSocketPath = "/var/run/pid-manager/pidd.sock"

	// HTTP endpoints for service operations
	AllocatePath = "/pid/allocate"
	ReleasePath  = "/pid/release"
	StatusPath   = "/pid/status"

	// DefaultRequestTimeout bounds the handling of a single request
	DefaultRequestTimeout = 10 * time.Second

	// MaxRequestBodySize limits request payloads (requests are tiny)
	MaxRequestBodySize = 1 << 16
)

// AllocateRequest asks the daemon for the next available identifier.
type AllocateRequest struct {
	// Owner optionally names the requesting process, for logging only
	Owner string `json:"owner,omitempty"`
}

// AllocateResponse carries the granted identifier.
//
// PID is -1 when nothing could be granted; Error then holds the reason.
// The sentinel deliberately does not distinguish "not initialized" from
// "exhausted" — that matches the allocator's public contract.
type AllocateResponse struct {
	PID   int    `json:"pid"`
	Error string `json:"error,omitempty"`
}

// ReleaseRequest returns an identifier to the pool.
type ReleaseRequest struct {
	PID int `json:"pid"`
}

// ReleaseResponse acknowledges a release. Release is idempotent, so Error
// is only set for malformed requests.
type ReleaseResponse struct {
	Error string `json:"error,omitempty"`
}

// StatusResponse reports pool bounds and occupancy.
type StatusResponse struct {
	Min       int    `json:"min"`
	Max       int    `json:"max"`
	Used      int    `json:"used"`
	Available int    `json:"available"`
	Ready     bool   `json:"ready"`
	Error     string `json:"error,omitempty"`
}

// Options configures a Server.
type Options struct {
	// SocketPath is the Unix socket to listen on
	// Default: DefaultSocketPath
	SocketPath string

	// RequestTimeout bounds the handling of a single request
	// Default: DefaultRequestTimeout
	RequestTimeout time.Duration
}

// Server handles allocation service requests over a Unix socket.
type Server struct {
	// socketPath is the Unix socket path
	socketPath string

	// requestTimeout bounds the handling of a single request
	requestTimeout time.Duration

	// listener is the Unix socket listener
	listener net.Listener

	// httpServer is the HTTP server for handling requests
	httpServer *http.Server

	// handler is the request handler implementation
	handler RequestHandler

	// log is the server's logger
	log *logging.Logger

	// mu protects server state
	mu sync.Mutex

	// running indicates if the server is running
	running bool
}

// NewServer creates a new allocation service server.
func NewServer(opts Options, handler RequestHandler) *Server {
	if opts.SocketPath == "" {
		opts.SocketPath = DefaultSocketPath
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	return &Server{
		socketPath:     opts.SocketPath,
		requestTimeout: opts.RequestTimeout,
		handler:        handler,
		log:            logging.GetGlobalLogger().WithName("pidserver"),
	}
}

// Start starts the server.
//
// The server:
// 1. Creates the socket directory if it doesn't exist
// 2. Removes any stale socket file
// 3. Creates a Unix socket listener
// 4. Serves HTTP requests on it until Stop is called
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("allocation service is already running")
	}

	socketDir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(socketDir, 0755); err != nil {
		return fmt.Errorf("failed to create socket directory %s: %w", socketDir, err)
	}

	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.socketPath, err)
	}
	s.listener = listener

	// Allow clients running under other users to connect.
	if err := os.Chmod(s.socketPath, 0666); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(AllocatePath, s.handleAllocate)
	mux.HandleFunc(ReleasePath, s.handleRelease)
	mux.HandleFunc(StatusPath, s.handleStatus)

	s.httpServer = &http.Server{
		Handler:      mux,
		ReadTimeout:  s.requestTimeout,
		WriteTimeout: s.requestTimeout,
	}

	s.running = true

	go func() {
		s.log.Info("allocation service started", "socket", s.socketPath)
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error(err, "allocation service error")
		}
	}()

	return nil
}

// Stop stops the server gracefully, waiting up to timeout for in-flight
// requests before closing the listener and removing the socket file.
func (s *Server) Stop(timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error(err, "error shutting down allocation service")
	}

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)

	s.running = false
	s.log.Info("allocation service stopped")
	return nil
}

// handleAllocate handles POST /pid/allocate requests.
func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendJSON(w, http.StatusMethodNotAllowed, &AllocateResponse{PID: allocator.Unallocated, Error: "method not allowed"})
		return
	}

	metrics.RequestsInFlight.Inc()
	defer metrics.RequestsInFlight.Dec()
	timer := metrics.NewTimer()

	var req AllocateRequest
	if err := s.parseRequest(r, &req); err != nil {
		metrics.RecordRequest(metrics.OperationAllocate, err, timer.ObserveDuration())
		s.sendJSON(w, http.StatusBadRequest, &AllocateResponse{PID: allocator.Unallocated, Error: fmt.Sprintf("failed to parse request: %v", err)})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	id, err := s.handler.HandleAllocate(ctx, &req)
	metrics.RecordRequest(metrics.OperationAllocate, nil, timer.ObserveDuration())
	if err != nil {
		// Allocation failure is an expected condition, not a transport
		// error: report the sentinel with a 200 and carry the reason.
		s.sendJSON(w, http.StatusOK, &AllocateResponse{PID: allocator.Unallocated, Error: err.Error()})
		return
	}

	s.sendJSON(w, http.StatusOK, &AllocateResponse{PID: id})
}

// handleRelease handles POST /pid/release requests.
func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendJSON(w, http.StatusMethodNotAllowed, &ReleaseResponse{Error: "method not allowed"})
		return
	}

	metrics.RequestsInFlight.Inc()
	defer metrics.RequestsInFlight.Dec()
	timer := metrics.NewTimer()

	var req ReleaseRequest
	if err := s.parseRequest(r, &req); err != nil {
		metrics.RecordRequest(metrics.OperationRelease, err, timer.ObserveDuration())
		s.sendJSON(w, http.StatusBadRequest, &ReleaseResponse{Error: fmt.Sprintf("failed to parse request: %v", err)})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	// Release is idempotent; the handler never fails for unknown ids.
	err := s.handler.HandleRelease(ctx, &req)
	metrics.RecordRequest(metrics.OperationRelease, err, timer.ObserveDuration())
	if err != nil {
		s.sendJSON(w, http.StatusInternalServerError, &ReleaseResponse{Error: err.Error()})
		return
	}

	s.sendJSON(w, http.StatusOK, &ReleaseResponse{})
}

// handleStatus handles POST /pid/status requests.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		s.sendJSON(w, http.StatusMethodNotAllowed, &StatusResponse{Error: "method not allowed"})
		return
	}

	metrics.RequestsInFlight.Inc()
	defer metrics.RequestsInFlight.Dec()
	timer := metrics.NewTimer()

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	status, err := s.handler.HandleStatus(ctx)
	metrics.RecordRequest(metrics.OperationStatus, err, timer.ObserveDuration())
	if err != nil {
		s.sendJSON(w, http.StatusInternalServerError, &StatusResponse{Error: err.Error()})
		return
	}

	s.sendJSON(w, http.StatusOK, status)
}

// parseRequest decodes a JSON request body into dst.
func (s *Server) parseRequest(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("failed to unmarshal request: %w", err)
	}
	return nil
}

// sendJSON writes a JSON response with the given status code.
func (s *Server) sendJSON(w http.ResponseWriter, statusCode int, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SocketPath returns the socket path.
func (s *Server) SocketPath() string {
	return s.socketPath
}
