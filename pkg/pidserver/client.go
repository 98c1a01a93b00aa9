// Package pidserver provides the client for the PID allocation daemon.
//
// The Client mirrors the daemon's endpoints one-to-one and carries no
// allocation policy of its own.
package pidserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ilgerodias/pid-manager/pkg/allocator"
)

const (
	// ClientTimeout is the timeout for a single client request
	ClientTimeout = 30 * time.Second

	// ConnectTimeout is the timeout for one connection attempt
	ConnectTimeout = 2 * time.Second

	// DefaultWaitTimeout bounds how long WaitReady retries the socket
	DefaultWaitTimeout = 15 * time.Second
)

// Client talks to the allocation daemon over its Unix socket.
//
// The client is a thin transport wrapper: all allocation policy lives in
// the daemon. Allocate mirrors the allocator's public contract — it
// returns the -1 sentinel rather than an error when the pool cannot grant
// an identifier.
type Client struct {
	// socketPath is the path to the daemon's Unix socket
	socketPath string

	// httpClient is the HTTP client for making requests
	httpClient *http.Client
}

// NewClient creates a client for the daemon listening on socketPath.
func NewClient(socketPath string) *Client {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			dialer := net.Dialer{
				Timeout: ConnectTimeout,
			}
			return dialer.DialContext(ctx, "unix", socketPath)
		},
	}

	return &Client{
		socketPath: socketPath,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   ClientTimeout,
		},
	}
}

// WaitReady polls the daemon's status endpoint with exponential backoff
// until it answers or the timeout elapses. Useful for clients started
// alongside the daemon before its socket exists.
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = timeout

	return backoff.Retry(func() error {
		_, err := c.Status(ctx)
		return err
	}, backoff.WithContext(policy, ctx))
}

// sendRequest sends a request to the daemon and decodes the response.
func (c *Client) sendRequest(ctx context.Context, path string, req, resp interface{}) error {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	// The host is ignored for Unix socket transports.
	url := fmt.Sprintf("http://localhost%s", path)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to allocation daemon: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(respBody, resp); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// Allocate requests the next available identifier.
//
// Returns allocator.Unallocated (-1) when the daemon cannot grant an
// identifier (pool exhausted or not initialized); the error return is
// reserved for transport and protocol failures.
func (c *Client) Allocate(ctx context.Context, owner string) (int, error) {
	var resp AllocateResponse
	if err := c.sendRequest(ctx, AllocatePath, &AllocateRequest{Owner: owner}, &resp); err != nil {
		return allocator.Unallocated, err
	}
	return resp.PID, nil
}

// Release returns an identifier to the pool. Releasing an unknown or
// already-free identifier is not an error.
func (c *Client) Release(ctx context.Context, pid int) error {
	var resp ReleaseResponse
	if err := c.sendRequest(ctx, ReleasePath, &ReleaseRequest{PID: pid}, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("allocation daemon error: %s", resp.Error)
	}
	return nil
}

// Status reports the daemon's pool bounds and occupancy.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.sendRequest(ctx, StatusPath, &struct{}{}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("allocation daemon error: %s", resp.Error)
	}
	return &resp, nil
}

// SocketPath returns the socket path the client targets.
func (c *Client) SocketPath() string {
	return c.socketPath
}
