// SPDX-License-Identifier: Apache-2.0
package repo

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/coffer-backup/coffer/pkg/engine"
)

// Default verification schedule. The schedule is deterministic on purpose:
// 15 status queries, a 500 ms wait after the first and 1000 ms after each
// later one, no wait after the last. Worst case 13.5 s of waiting before
// giving up. Predictable latency beats adaptive backoff here, and tests can
// assert the exact schedule.
//
// TODO(slow-backends): the 13.5 s budget can time out against slow storage
// even though the repository eventually becomes ready. Lifting the budget
// silently would change behavior for every caller; revisit once cofferd
// emits a provisioning-complete event instead.
const (
	DefaultVerifyAttempts     = 15
	DefaultVerifyInitialDelay = 500 * time.Millisecond
	DefaultVerifySteadyDelay  = 1000 * time.Millisecond
)

// StatusQuerier is the capability the verifier polls
type StatusQuerier interface {
	Status(ctx context.Context) (*engine.RepositoryStatus, error)
}

// Verifier polls repository status until it reports connected or the
// attempt budget runs out. It retries only "not yet connected"; a hard
// error from the status query surfaces immediately.
type Verifier struct {
	Attempts     int
	InitialDelay time.Duration
	SteadyDelay  time.Duration

	// sleep is replaceable in tests to assert the schedule without waiting
	sleep func(time.Duration)
}

// NewVerifier returns a verifier with the default schedule
func NewVerifier() *Verifier {
	return &Verifier{
		Attempts:     DefaultVerifyAttempts,
		InitialDelay: DefaultVerifyInitialDelay,
		SteadyDelay:  DefaultVerifySteadyDelay,
		sleep:        time.Sleep,
	}
}

// Wait blocks until the queried status reports connected, returning the
// final status, or fails. It returns ErrVerificationTimedOut once all
// attempts are exhausted without observing a connected state.
func (v *Verifier) Wait(ctx context.Context, querier StatusQuerier) (*engine.RepositoryStatus, error) {
	sleep := v.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	for attempt := 0; attempt < v.Attempts; attempt++ {
		status, err := querier.Status(ctx)
		if err != nil {
			return nil, err
		}
		if status.Connected {
			log.Debugf("verifier: connected after %d attempt(s)", attempt+1)
			return status, nil
		}

		// No wait after the final attempt
		if attempt < v.Attempts-1 {
			if attempt == 0 {
				sleep(v.InitialDelay)
			} else {
				sleep(v.SteadyDelay)
			}
		}
	}

	log.Debugf("verifier: gave up after %d attempts", v.Attempts)
	return nil, ErrVerificationTimedOut
}
