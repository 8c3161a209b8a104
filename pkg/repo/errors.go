// SPDX-License-Identifier: Apache-2.0
package repo

import (
	"errors"
	"syscall"

	"github.com/coffer-backup/coffer/pkg/engine"
)

// ErrorKind is the closed set of classified connection failures. Every raw
// failure maps to exactly one kind; unrecognized failures map to KindUnknown.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAlreadyConnected
	KindRepositoryNotFound
	KindConnectionRefused
	KindServerNotRunning
	KindInvalidPassword
	KindVerificationTimedOut
	KindDisconnectFailed
)

// Sentinel errors synthesized locally by the orchestrator and verifier.
// They are classified by identity rather than by engine category.
var (
	ErrVerificationTimedOut = errors.New("connection could not be verified within the retry budget")
	ErrDisconnectFailed     = errors.New("failed to disconnect from the previous repository")
)

// String returns the kind's identifier for logs
func (k ErrorKind) String() string {
	switch k {
	case KindAlreadyConnected:
		return "AlreadyConnected"
	case KindRepositoryNotFound:
		return "RepositoryNotFound"
	case KindConnectionRefused:
		return "ConnectionRefused"
	case KindServerNotRunning:
		return "ServerNotRunning"
	case KindInvalidPassword:
		return "InvalidPassword"
	case KindVerificationTimedOut:
		return "VerificationTimedOut"
	case KindDisconnectFailed:
		return "DisconnectFailed"
	default:
		return "Unknown"
	}
}

// Message returns the fixed user-facing message for the kind
func (k ErrorKind) Message() string {
	switch k {
	case KindAlreadyConnected:
		return "Already connected to a repository. Disconnect before connecting to another one."
	case KindRepositoryNotFound:
		return "No repository was found at the selected storage location."
	case KindConnectionRefused:
		return "The storage backend refused the connection. Check the address and credentials."
	case KindServerNotRunning:
		return "The repository engine is not running. Start cofferd and try again."
	case KindInvalidPassword:
		return "The repository password is incorrect."
	case KindVerificationTimedOut:
		return "The operation completed but the connection could not be verified. The repository may still become ready; check the status before retrying."
	case KindDisconnectFailed:
		return "Could not disconnect from the previous repository; its state is unknown. Resolve the existing connection before continuing."
	default:
		return "An unexpected error occurred while connecting to the repository."
	}
}

// Recoverable reports whether resubmitting the same attempt with corrected
// input can plausibly succeed. Kinds that indicate unknown repository state
// are not recoverable by blind resubmission.
func (k ErrorKind) Recoverable() bool {
	switch k {
	case KindDisconnectFailed, KindVerificationTimedOut:
		return false
	default:
		return true
	}
}

// Classify maps a raw failure to exactly one ErrorKind. It is pure and
// total: any input, including nil, yields a member of the closed set.
// Matching runs in fixed priority order; first match wins.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	// Locally synthesized failures
	if errors.Is(err, ErrVerificationTimedOut) {
		return KindVerificationTimedOut
	}
	if errors.Is(err, ErrDisconnectFailed) {
		return KindDisconnectFailed
	}

	// Engine-reported failures carry a category
	var rpcErr *engine.RPCError
	if errors.As(err, &rpcErr) {
		switch rpcErr.Category {
		case engine.CategoryAlreadyConnected:
			return KindAlreadyConnected
		case engine.CategoryNotFound:
			return KindRepositoryNotFound
		case engine.CategoryConnectionRefused:
			return KindConnectionRefused
		case engine.CategoryServerNotRunning:
			return KindServerNotRunning
		case engine.CategoryInvalidPassword:
			return KindInvalidPassword
		default:
			return KindUnknown
		}
	}

	// Transport-level failures
	if errors.Is(err, engine.ErrEngineUnavailable) {
		return KindServerNotRunning
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnectionRefused
	}

	return KindUnknown
}
