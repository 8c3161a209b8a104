// SPDX-License-Identifier: Apache-2.0

//go:build integration

package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coffer-backup/coffer/pkg/engine"
)

// startEngine runs a stub cofferd on a temp socket and waits for it to
// accept connections.
//
// Run with: go test -tags=integration ./pkg/repo/...
func startEngine(t *testing.T, provisionDelay time.Duration) *engine.Client {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "cofferd.sock")
	server := engine.NewServer(engine.ServerOptions{
		SocketPath:     socketPath,
		ProvisionDelay: provisionDelay,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = server.Listen(ctx) }()

	client := engine.NewClient(socketPath, nil)

	deadline := time.Now().Add(5 * time.Second)
	for {
		if err := client.Ping(200 * time.Millisecond); err == nil {
			return client
		}
		if time.Now().After(deadline) {
			t.Fatal("stub engine did not come up")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// newIntegrationSession shortens the schedule so the test completes in
// well under a second of polling
func newIntegrationSession(client *engine.Client) *Session {
	session := NewSession(client)
	session.DisconnectSettle = time.Millisecond
	session.CreateSettle = 10 * time.Millisecond
	session.Verifier().InitialDelay = 50 * time.Millisecond
	session.Verifier().SteadyDelay = 50 * time.Millisecond
	return session
}

func integrationTarget(path string) StorageTarget {
	return StorageTarget{
		Provider:   ProviderFilesystem,
		Filesystem: &FilesystemTarget{Path: path},
	}
}

func TestIntegration_CreateThenReconnect(t *testing.T) {
	// The provision delay forces the verifier to poll more than once
	client := startEngine(t, 150*time.Millisecond)
	session := newIntegrationSession(client)
	target := integrationTarget("/mnt/backups/repo")

	creds := Credentials{
		Password:    "correct horse",
		Description: "integration",
		Algorithms: engine.Algorithms{
			Hash:       "BLAKE3-256",
			Encryption: "AES256-GCM",
			Splitter:   "DYNAMIC-4M",
		},
	}

	// The storage location starts empty
	exists, err := client.RepositoryExists(context.Background(), target.Wire())
	require.NoError(t, err)
	require.False(t, exists)

	outcome, err := session.Run(context.Background(), target, IntentCreate, creds)
	require.NoError(t, err)
	require.Equal(t, OutcomeSucceeded, outcome.Kind)
	require.Equal(t, "filesystem", outcome.Status.StorageKind)
	require.Equal(t, "BLAKE3-256", outcome.Status.Hash)

	exists, err = client.RepositoryExists(context.Background(), target.Wire())
	require.NoError(t, err)
	require.True(t, exists)

	// Reconnecting goes through the pre-flight disconnect of the live
	// session and succeeds with the same password
	outcome, err = session.Run(context.Background(), target, IntentConnect, Credentials{Password: "correct horse"})
	require.NoError(t, err)
	require.Equal(t, OutcomeSucceeded, outcome.Kind)
}

func TestIntegration_WrongPasswordIsClassified(t *testing.T) {
	client := startEngine(t, 0)
	session := newIntegrationSession(client)
	target := integrationTarget("/mnt/backups/repo")

	creds := Credentials{
		Password:   "right",
		Algorithms: engine.Algorithms{Hash: "BLAKE3-256", Encryption: "AES256-GCM", Splitter: "DYNAMIC-4M"},
	}
	outcome, err := session.Run(context.Background(), target, IntentCreate, creds)
	require.NoError(t, err)
	require.Equal(t, OutcomeSucceeded, outcome.Kind)

	outcome, err = session.Run(context.Background(), target, IntentConnect, Credentials{Password: "wrong"})
	require.NoError(t, err)
	require.Equal(t, OutcomeFailed, outcome.Kind)
	require.Equal(t, KindInvalidPassword, outcome.ErrorKind)
}

func TestIntegration_EngineDownIsClassified(t *testing.T) {
	client := engine.NewClient(filepath.Join(t.TempDir(), "nonexistent.sock"), nil)
	session := newIntegrationSession(client)

	outcome, err := session.Run(context.Background(), integrationTarget("/mnt/backups/repo"), IntentConnect, Credentials{Password: "x"})
	require.NoError(t, err)
	require.Equal(t, OutcomeFailed, outcome.Kind)
	require.Equal(t, KindServerNotRunning, outcome.ErrorKind)
}
