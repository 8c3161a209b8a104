// SPDX-License-Identifier: Apache-2.0
package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/coffer-backup/coffer/pkg/engine"
)

// Settle delays inserted after async engine calls that have no completion
// signal. They delay the next step; they are not timeouts and have no
// failure branch. Known weak point: the values are heuristic, not derived
// from any acknowledgment by cofferd.
const (
	DefaultDisconnectSettle = 500 * time.Millisecond
	DefaultCreateSettle     = 2000 * time.Millisecond
)

// ErrAttemptInFlight is returned when Run is called while another attempt
// is outstanding. The UI disables resubmission, so hitting this means a
// caller bypassed the single-flight guard.
var ErrAttemptInFlight = errors.New("a connection attempt is already in progress")

// ConnectionIntent selects between provisioning a new repository and
// attaching to an existing one. Fixed by the storage-verification outcome;
// never re-derived within an attempt.
type ConnectionIntent int

const (
	IntentConnect ConnectionIntent = iota
	IntentCreate
)

func (i ConnectionIntent) String() string {
	if i == IntentCreate {
		return "create"
	}
	return "connect"
}

// Credentials carries the secrets and creation parameters for one attempt.
// Description and Algorithms are only used for IntentCreate.
type Credentials struct {
	Password    string
	Description string
	Algorithms  engine.Algorithms
}

// Engine is the remote capability the orchestrator drives. *engine.Client
// implements it; tests substitute fakes.
type Engine interface {
	Status(ctx context.Context) (*engine.RepositoryStatus, error)
	Connect(ctx context.Context, storage engine.StorageConfig, password string) error
	Create(ctx context.Context, params engine.CreateParams) error
	Disconnect(ctx context.Context) error
	RepositoryExists(ctx context.Context, storage engine.StorageConfig) (bool, error)
}

// OutcomeKind is the terminal state of a connection attempt
type OutcomeKind int

const (
	OutcomeSucceeded OutcomeKind = iota
	OutcomeFailed
	OutcomeTimedOut
)

// AttemptOutcome is the single result reported to the UI layer. Succeeded
// carries the final repository status; Failed and TimedOut carry the
// classified kind and its fixed message.
type AttemptOutcome struct {
	Kind      OutcomeKind
	Status    *engine.RepositoryStatus
	ErrorKind ErrorKind
	Message   string
}

func succeeded(status *engine.RepositoryStatus) AttemptOutcome {
	return AttemptOutcome{Kind: OutcomeSucceeded, Status: status}
}

func failed(kind ErrorKind) AttemptOutcome {
	return AttemptOutcome{Kind: OutcomeFailed, ErrorKind: kind, Message: kind.Message()}
}

func timedOut() AttemptOutcome {
	return AttemptOutcome{
		Kind:      OutcomeTimedOut,
		ErrorKind: KindVerificationTimedOut,
		Message:   KindVerificationTimedOut.Message(),
	}
}

// Session is the single-owner handle over the process-wide repository
// connection. Only a Session mutates the connection (disconnect, create,
// connect); everything else reads status. Tests instantiate independent
// sessions; the application holds exactly one.
type Session struct {
	engine   Engine
	verifier *Verifier

	DisconnectSettle time.Duration
	CreateSettle     time.Duration

	// sleep is replaceable in tests
	sleep func(time.Duration)

	mu   sync.Mutex
	busy bool
}

// NewSession creates a session over the given engine with default settle
// delays and the default verification schedule
func NewSession(eng Engine) *Session {
	return &Session{
		engine:           eng,
		verifier:         NewVerifier(),
		DisconnectSettle: DefaultDisconnectSettle,
		CreateSettle:     DefaultCreateSettle,
		sleep:            time.Sleep,
	}
}

// Verifier exposes the session's verifier for schedule configuration
func (s *Session) Verifier() *Verifier {
	return s.verifier
}

// Engine exposes the session's engine for read-only queries such as the
// storage existence check. Mutating calls stay inside Run.
func (s *Session) Engine() Engine {
	return s.engine
}

// Busy reports whether an attempt is currently in flight
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// acquire sets the busy flag, failing if an attempt is already outstanding
func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrAttemptInFlight
	}
	s.busy = true
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// Run performs one complete connection attempt: pre-flight disconnect
// guard, create or connect, then verification. All engine failures are
// recovered into the returned AttemptOutcome; the error return covers only
// local preconditions (busy session, invalid target), which are rejected
// before any engine call.
func (s *Session) Run(ctx context.Context, target StorageTarget, intent ConnectionIntent, creds Credentials) (AttemptOutcome, error) {
	if err := s.acquire(); err != nil {
		return AttemptOutcome{}, err
	}
	defer s.release()

	if err := target.Validate(); err != nil {
		return AttemptOutcome{}, fmt.Errorf("storage target is not submittable: %w", err)
	}

	attemptID := uuid.New()
	log.Debugf("attempt %s: %s to %s", attemptID, intent, target.Describe())

	// Step 1: pre-flight guard. Never create/connect while a prior
	// session's disconnect is unconfirmed.
	status, err := s.engine.Status(ctx)
	if err != nil {
		kind := Classify(err)
		log.Warnf("attempt %s: pre-flight status query failed: %v (%s)", attemptID, err, kind)
		return failed(kind), nil
	}
	if status.Connected {
		log.Debugf("attempt %s: already connected, disconnecting first", attemptID)
		if err := s.engine.Disconnect(ctx); err != nil {
			log.Errorf("attempt %s: disconnect failed, repository state unknown: %v", attemptID, err)
			return failed(KindDisconnectFailed), nil
		}
		s.sleep(s.DisconnectSettle)
	}

	// Step 2: provision or attach
	storage := target.Wire()
	switch intent {
	case IntentCreate:
		params := engine.CreateParams{
			Storage:     storage,
			Password:    creds.Password,
			Description: creds.Description,
			Algorithms:  creds.Algorithms,
		}
		if err := s.engine.Create(ctx, params); err != nil {
			kind := Classify(err)
			log.Warnf("attempt %s: create failed: %v (%s)", attemptID, err, kind)
			return failed(kind), nil
		}
		// Give the engine's background provisioning a head start before
		// polling begins
		s.sleep(s.CreateSettle)
	default:
		if err := s.engine.Connect(ctx, storage, creds.Password); err != nil {
			kind := Classify(err)
			log.Warnf("attempt %s: connect failed: %v (%s)", attemptID, err, kind)
			return failed(kind), nil
		}
	}

	// Step 3: verify. On timeout the create/connect call is never
	// re-issued: the repository may be provisioned by now, and a second
	// create risks duplicate initialization.
	final, err := s.verifier.Wait(ctx, s.engine)
	if err != nil {
		if errors.Is(err, ErrVerificationTimedOut) {
			log.Warnf("attempt %s: verification timed out", attemptID)
			return timedOut(), nil
		}
		kind := Classify(err)
		log.Warnf("attempt %s: verification failed: %v (%s)", attemptID, err, kind)
		return failed(kind), nil
	}

	log.Infof("attempt %s: connected to %s repository", attemptID, final.StorageKind)
	return succeeded(final), nil
}
