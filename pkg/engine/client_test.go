// SPDX-License-Identifier: Apache-2.0
package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startStubEngine runs a stub server on a temp socket and returns a client
// for it
func startStubEngine(t *testing.T, opts ServerOptions) *Client {
	t.Helper()

	opts.SocketPath = filepath.Join(t.TempDir(), "cofferd.sock")
	srv := NewServer(opts)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = srv.Listen(ctx) }()

	client := NewClient(opts.SocketPath, nil)

	// Wait for the listener to come up. Probes the raw version method so
	// that intentionally-incompatible server versions still count as up.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		probeCtx, probeCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		var vr VersionResult
		err := client.call(probeCtx, MethodVersion, nil, &vr)
		probeCancel()
		if err == nil {
			return client
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("stub engine did not come up")
	return nil
}

func fsStorage(path string) StorageConfig {
	return StorageConfig{Kind: "filesystem", Params: map[string]string{"path": path}}
}

func TestClient_VersionHandshake(t *testing.T) {
	client := startStubEngine(t, ServerOptions{Version: "0.6.1"})

	v, err := client.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.6.1", v)
}

func TestClient_RejectsOldEngine(t *testing.T) {
	client := startStubEngine(t, ServerOptions{Version: "0.3.9"})

	_, err := client.Version(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimum supported")
}

func TestClient_EngineUnavailable(t *testing.T) {
	client := NewClient(filepath.Join(t.TempDir(), "missing.sock"), nil)

	_, err := client.Status(context.Background())
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestClient_CreateConnectLifecycle(t *testing.T) {
	client := startStubEngine(t, ServerOptions{})
	ctx := context.Background()
	storage := fsStorage("/tmp/repo")

	// Fresh engine: nothing connected, nothing exists
	status, err := client.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Connected)

	exists, err := client.RepositoryExists(ctx, storage)
	require.NoError(t, err)
	assert.False(t, exists)

	// Create and observe readiness through status
	err = client.Create(ctx, CreateParams{
		Storage:    storage,
		Password:   "pw",
		Algorithms: Algorithms{Hash: "BLAKE3-256", Encryption: "AES256-GCM", Splitter: "DYNAMIC-4M"},
	})
	require.NoError(t, err)

	status, err = client.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, "filesystem", status.StorageKind)
	assert.Equal(t, "BLAKE3-256", status.Hash)

	exists, err = client.RepositoryExists(ctx, storage)
	require.NoError(t, err)
	assert.True(t, exists)

	// Creating while connected is refused
	err = client.Create(ctx, CreateParams{Storage: fsStorage("/tmp/other"), Password: "pw"})
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CategoryAlreadyConnected, rpcErr.Category)

	// Disconnect, then reconnect with the right password
	require.NoError(t, client.Disconnect(ctx))
	status, err = client.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Connected)

	require.NoError(t, client.Connect(ctx, storage, "pw"))
}

func TestClient_ConnectFailures(t *testing.T) {
	client := startStubEngine(t, ServerOptions{})
	ctx := context.Background()

	// Unknown storage location
	err := client.Connect(ctx, fsStorage("/tmp/nowhere"), "pw")
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CategoryNotFound, rpcErr.Category)

	// Wrong password against an existing repository
	storage := fsStorage("/tmp/repo")
	require.NoError(t, client.Create(ctx, CreateParams{Storage: storage, Password: "right"}))
	require.NoError(t, client.Disconnect(ctx))

	err = client.Connect(ctx, storage, "wrong")
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CategoryInvalidPassword, rpcErr.Category)
}

func TestClient_ProvisionDelayMasksReadiness(t *testing.T) {
	client := startStubEngine(t, ServerOptions{ProvisionDelay: 300 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, client.Create(ctx, CreateParams{Storage: fsStorage("/tmp/repo"), Password: "pw"}))

	status, err := client.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Connected, "status must lag until the provision delay elapses")

	time.Sleep(350 * time.Millisecond)
	status, err = client.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Connected)
}

func TestClient_UnknownMethod(t *testing.T) {
	client := startStubEngine(t, ServerOptions{})

	err := client.call(context.Background(), "repository.compact", nil, nil)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, ErrCodeMethodNotFound, rpcErr.Code)
	assert.False(t, errors.Is(err, ErrEngineUnavailable))
}
