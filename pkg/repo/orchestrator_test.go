// SPDX-License-Identifier: Apache-2.0
package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffer-backup/coffer/pkg/engine"
)

// fakeEngine scripts engine behavior and records every call in order
type fakeEngine struct {
	// statuses are consumed one per Status call; the last entry repeats
	statuses  []engine.RepositoryStatus
	statusErr error

	connectErr    error
	createErr     error
	disconnectErr error
	exists        bool
	existsErr     error

	ops         []string
	statusCalls int
}

func (f *fakeEngine) Status(ctx context.Context) (*engine.RepositoryStatus, error) {
	f.ops = append(f.ops, "status")
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if len(f.statuses) == 0 {
		return &engine.RepositoryStatus{}, nil
	}
	idx := f.statusCalls - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	s := f.statuses[idx]
	return &s, nil
}

func (f *fakeEngine) Connect(ctx context.Context, storage engine.StorageConfig, password string) error {
	f.ops = append(f.ops, "connect")
	return f.connectErr
}

func (f *fakeEngine) Create(ctx context.Context, params engine.CreateParams) error {
	f.ops = append(f.ops, "create")
	return f.createErr
}

func (f *fakeEngine) Disconnect(ctx context.Context) error {
	f.ops = append(f.ops, "disconnect")
	return f.disconnectErr
}

func (f *fakeEngine) RepositoryExists(ctx context.Context, storage engine.StorageConfig) (bool, error) {
	f.ops = append(f.ops, "exists")
	return f.exists, f.existsErr
}

func (f *fakeEngine) count(op string) int {
	n := 0
	for _, o := range f.ops {
		if o == op {
			n++
		}
	}
	return n
}

func newTestSession(fake *fakeEngine, rec *recordingSleep) *Session {
	s := NewSession(fake)
	s.sleep = rec.sleep
	s.verifier.sleep = rec.sleep
	return s
}

func fsTarget(path string) StorageTarget {
	return StorageTarget{
		Provider:   ProviderFilesystem,
		Filesystem: &FilesystemTarget{Path: path},
	}
}

func TestSession_RejectsInvalidTarget(t *testing.T) {
	fake := &fakeEngine{}
	s := newTestSession(fake, &recordingSleep{})

	_, err := s.Run(context.Background(), StorageTarget{Provider: ProviderFilesystem}, IntentConnect, Credentials{Password: "pw"})
	require.Error(t, err)
	assert.Empty(t, fake.ops, "no engine call before precondition checks pass")
}

func TestSession_SingleFlight(t *testing.T) {
	fake := &fakeEngine{}
	s := newTestSession(fake, &recordingSleep{})

	// Simulate an outstanding attempt
	require.NoError(t, s.acquire())
	_, err := s.Run(context.Background(), fsTarget("/tmp/repo"), IntentConnect, Credentials{Password: "pw"})
	assert.ErrorIs(t, err, ErrAttemptInFlight)
	assert.Empty(t, fake.ops)

	s.release()
	assert.False(t, s.Busy())
}

// Pre-flight exclusivity: disconnect is called exactly once when the engine
// starts connected and never otherwise
func TestSession_PreflightDisconnect(t *testing.T) {
	t.Run("already connected", func(t *testing.T) {
		fake := &fakeEngine{statuses: []engine.RepositoryStatus{
			{Connected: true},
			{Connected: true, StorageKind: "filesystem"},
		}}
		rec := &recordingSleep{}
		s := newTestSession(fake, rec)

		outcome, err := s.Run(context.Background(), fsTarget("/tmp/repo"), IntentConnect, Credentials{Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeSucceeded, outcome.Kind)
		assert.Equal(t, 1, fake.count("disconnect"))
		assert.Contains(t, rec.waits, DefaultDisconnectSettle)
		// disconnect strictly precedes connect
		assert.Equal(t, []string{"status", "disconnect", "connect", "status"}, fake.ops)
	})

	t.Run("not connected", func(t *testing.T) {
		fake := &fakeEngine{statuses: []engine.RepositoryStatus{
			{Connected: false},
			{Connected: true, StorageKind: "filesystem"},
		}}
		s := newTestSession(fake, &recordingSleep{})

		outcome, err := s.Run(context.Background(), fsTarget("/tmp/repo"), IntentConnect, Credentials{Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeSucceeded, outcome.Kind)
		assert.Equal(t, 0, fake.count("disconnect"))
	})
}

// Disconnect failure is fatal: no create, no connect, no verification
func TestSession_DisconnectFailureIsFatal(t *testing.T) {
	fake := &fakeEngine{
		statuses:      []engine.RepositoryStatus{{Connected: true}},
		disconnectErr: &engine.RPCError{Code: engine.ErrCodeInternalError, Message: "engine wedged"},
	}
	s := newTestSession(fake, &recordingSleep{})

	outcome, err := s.Run(context.Background(), fsTarget("/tmp/repo"), IntentCreate, Credentials{Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome.Kind)
	assert.Equal(t, KindDisconnectFailed, outcome.ErrorKind)
	assert.Equal(t, KindDisconnectFailed.Message(), outcome.Message)

	assert.Equal(t, 0, fake.count("create"))
	assert.Equal(t, 0, fake.count("connect"))
	assert.Equal(t, 1, fake.statusCalls, "verifier must not run after a failed disconnect")
}

// No duplicate provisioning on timeout: create/connect is issued exactly
// once even when verification exhausts its budget
func TestSession_NoDuplicateProvisioningOnTimeout(t *testing.T) {
	fake := &fakeEngine{statuses: []engine.RepositoryStatus{{Connected: false}}}
	rec := &recordingSleep{}
	s := newTestSession(fake, rec)

	outcome, err := s.Run(context.Background(), fsTarget("/tmp/repo"), IntentCreate, Credentials{
		Password:   "pw",
		Algorithms: engine.Algorithms{Hash: "BLAKE3-256", Encryption: "AES256-GCM", Splitter: "DYNAMIC-4M"},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimedOut, outcome.Kind)
	assert.Equal(t, KindVerificationTimedOut, outcome.ErrorKind)

	assert.Equal(t, 1, fake.count("create"))
	assert.Equal(t, 0, fake.count("connect"))
	// 1 pre-flight query + 15 verifier attempts
	assert.Equal(t, 1+DefaultVerifyAttempts, fake.statusCalls)
	assert.Contains(t, rec.waits, DefaultCreateSettle)
}

func TestSession_CreateSettleOnlyForCreate(t *testing.T) {
	fake := &fakeEngine{statuses: []engine.RepositoryStatus{
		{Connected: false},
		{Connected: true},
	}}
	rec := &recordingSleep{}
	s := newTestSession(fake, rec)

	_, err := s.Run(context.Background(), fsTarget("/tmp/repo"), IntentConnect, Credentials{Password: "pw"})
	require.NoError(t, err)
	assert.NotContains(t, rec.waits, DefaultCreateSettle, "connect has no provisioning settle delay")
}

// Scenario A: empty directory, create, one unconnected status then ready
func TestSession_ScenarioCreateFreshRepository(t *testing.T) {
	fake := &fakeEngine{
		exists: false,
		statuses: []engine.RepositoryStatus{
			{Connected: false}, // pre-flight
			{Connected: false}, // verifier attempt 1
			{Connected: true, StorageKind: "filesystem", Hash: "BLAKE3-256"}, // verifier attempt 2
		},
	}
	rec := &recordingSleep{}
	s := newTestSession(fake, rec)

	exists, err := fake.RepositoryExists(context.Background(), fsTarget("/tmp/repo").Wire())
	require.NoError(t, err)
	require.False(t, exists, "storage verification must offer Create")

	outcome, err := s.Run(context.Background(), fsTarget("/tmp/repo"), IntentCreate, Credentials{
		Password:   "pw",
		Algorithms: engine.Algorithms{Hash: "BLAKE3-256", Encryption: "AES256-GCM", Splitter: "DYNAMIC-4M"},
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeSucceeded, outcome.Kind)
	require.NotNil(t, outcome.Status)
	assert.Equal(t, "filesystem", outcome.Status.StorageKind)

	verifierCalls := fake.statusCalls - 1 // minus the pre-flight query
	assert.Equal(t, 2, verifierCalls)
	assert.Equal(t, []time.Duration{DefaultCreateSettle, DefaultVerifyInitialDelay}, rec.waits)
}

// Scenario B: existing repository, wrong password; verifier never runs
func TestSession_ScenarioConnectWrongPassword(t *testing.T) {
	fake := &fakeEngine{
		exists:   true,
		statuses: []engine.RepositoryStatus{{Connected: false}},
		connectErr: &engine.RPCError{
			Code:     engine.ErrCodeRepository,
			Category: engine.CategoryInvalidPassword,
			Message:  "invalid repository password",
		},
	}
	s := newTestSession(fake, &recordingSleep{})

	exists, err := fake.RepositoryExists(context.Background(), fsTarget("/tmp/repo").Wire())
	require.NoError(t, err)
	require.True(t, exists, "storage verification must offer Connect")

	outcome, err := s.Run(context.Background(), fsTarget("/tmp/repo"), IntentConnect, Credentials{Password: "wrong"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome.Kind)
	assert.Equal(t, KindInvalidPassword, outcome.ErrorKind)
	assert.Equal(t, KindInvalidPassword.Message(), outcome.Message)
	assert.Equal(t, 1, fake.statusCalls, "only the pre-flight query runs")
}

// Scenario C: pre-flight finds an old connection; one disconnect, one
// verifier call, success
func TestSession_ScenarioReconnectOverOldSession(t *testing.T) {
	fake := &fakeEngine{statuses: []engine.RepositoryStatus{
		{Connected: true, StorageKind: "s3"},         // pre-flight: stale session
		{Connected: true, StorageKind: "filesystem"}, // verifier attempt 1
	}}
	rec := &recordingSleep{}
	s := newTestSession(fake, rec)

	outcome, err := s.Run(context.Background(), fsTarget("/tmp/repo"), IntentConnect, Credentials{Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, OutcomeSucceeded, outcome.Kind)

	assert.Equal(t, 1, fake.count("disconnect"))
	assert.Equal(t, 2, fake.statusCalls, "one pre-flight query plus one verifier call")
	assert.Equal(t, []time.Duration{DefaultDisconnectSettle}, rec.waits)
}

func TestSession_PreflightStatusErrorIsClassified(t *testing.T) {
	fake := &fakeEngine{statusErr: &engine.RPCError{
		Code:     engine.ErrCodeRepository,
		Category: engine.CategoryServerNotRunning,
		Message:  "engine down",
	}}
	s := newTestSession(fake, &recordingSleep{})

	outcome, err := s.Run(context.Background(), fsTarget("/tmp/repo"), IntentConnect, Credentials{Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome.Kind)
	assert.Equal(t, KindServerNotRunning, outcome.ErrorKind)
}
