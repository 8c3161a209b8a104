// SPDX-License-Identifier: Apache-2.0
package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync/atomic"
	"time"

	goversion "github.com/hashicorp/go-version"
)

// MinEngineVersion is the oldest cofferd the client will talk to.
// Older engines predate the repository.exists method.
const MinEngineVersion = "0.4.0"

// ErrEngineUnavailable indicates that no engine is listening on the socket.
// Classified as ServerNotRunning by the repo package.
var ErrEngineUnavailable = errors.New("engine is not running")

// Client is a JSON-RPC client for cofferd over a unix socket.
// Requests are newline-delimited; one request is in flight at a time,
// matching the front-end's strictly sequential orchestration.
type Client struct {
	socketPath string
	logger     *log.Logger
	nextID     atomic.Int64

	// dial is replaceable in tests
	dial func(ctx context.Context, path string) (net.Conn, error)
}

// NewClient creates a client for the engine socket at socketPath
func NewClient(socketPath string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		socketPath: socketPath,
		logger:     logger,
		dial:       dialUnix,
	}
}

func dialUnix(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", path)
}

// call performs a single request/response round trip on a fresh connection
func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	req, err := NewRequest(c.nextID.Add(1), method, params)
	if err != nil {
		return err
	}

	conn, err := c.dial(ctx, c.socketPath)
	if err != nil {
		if isSocketMissing(err) {
			return fmt.Errorf("%w: no socket at %s", ErrEngineUnavailable, c.socketPath)
		}
		return fmt.Errorf("failed to dial engine: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	reqData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	c.logger.Printf("-> %s", string(reqData))

	if _, err := conn.Write(append(reqData, '\n')); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}

	respData, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Printf("<- %s", string(respData))

	var resp JSONRPCResponse
	if err := json.Unmarshal(respData, &resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Error != nil {
		return resp.Error
	}

	if result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("failed to parse %s result: %w", method, err)
		}
	}
	return nil
}

// isSocketMissing reports whether a dial error means no engine is listening
func isSocketMissing(err error) bool {
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	var syserr *net.OpError
	return errors.As(err, &syserr) && syserr.Op == "dial"
}

// Version performs the version handshake and verifies compatibility
func (c *Client) Version(ctx context.Context) (string, error) {
	var result VersionResult
	if err := c.call(ctx, MethodVersion, nil, &result); err != nil {
		return "", err
	}

	v, err := goversion.NewVersion(result.Version)
	if err != nil {
		return "", fmt.Errorf("engine reported unparsable version %q: %w", result.Version, err)
	}
	minimum := goversion.Must(goversion.NewVersion(MinEngineVersion))
	if v.LessThan(minimum) {
		return "", fmt.Errorf("engine version %s is older than minimum supported %s", result.Version, MinEngineVersion)
	}
	return result.Version, nil
}

// Status queries the current repository connection state
func (c *Client) Status(ctx context.Context) (*RepositoryStatus, error) {
	var status RepositoryStatus
	if err := c.call(ctx, MethodStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Connect attaches to an existing repository at the given storage location
func (c *Client) Connect(ctx context.Context, storage StorageConfig, password string) error {
	return c.call(ctx, MethodConnect, ConnectParams{Storage: storage, Password: password}, nil)
}

// Create provisions a new repository. The call returns once the engine has
// accepted the request; actual provisioning completes in the background and
// is observed via Status.
func (c *Client) Create(ctx context.Context, params CreateParams) error {
	return c.call(ctx, MethodCreate, params, nil)
}

// Disconnect detaches from the currently connected repository
func (c *Client) Disconnect(ctx context.Context) error {
	return c.call(ctx, MethodDisconnect, nil, nil)
}

// RepositoryExists checks whether a repository is already present at the
// given storage location
func (c *Client) RepositoryExists(ctx context.Context, storage StorageConfig) (bool, error) {
	var result ExistsResult
	if err := c.call(ctx, MethodExists, ExistsParams{Storage: storage}, &result); err != nil {
		return false, err
	}
	return result.Exists, nil
}

// Ping checks engine liveness by performing the version handshake with a
// short timeout
func (c *Client) Ping(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := c.Version(ctx)
	return err
}
