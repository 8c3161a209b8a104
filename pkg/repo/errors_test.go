// SPDX-License-Identifier: Apache-2.0
package repo

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coffer-backup/coffer/pkg/engine"
)

func TestClassify_EngineCategories(t *testing.T) {
	cases := []struct {
		category string
		want     ErrorKind
	}{
		{engine.CategoryAlreadyConnected, KindAlreadyConnected},
		{engine.CategoryNotFound, KindRepositoryNotFound},
		{engine.CategoryConnectionRefused, KindConnectionRefused},
		{engine.CategoryServerNotRunning, KindServerNotRunning},
		{engine.CategoryInvalidPassword, KindInvalidPassword},
		{engine.CategoryInternal, KindUnknown},
		{"SOME_FUTURE_CATEGORY", KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.category, func(t *testing.T) {
			err := &engine.RPCError{Code: engine.ErrCodeRepository, Category: tc.category, Message: "boom"}
			assert.Equal(t, tc.want, Classify(err))
		})
	}
}

func TestClassify_WrappedEngineError(t *testing.T) {
	inner := &engine.RPCError{Code: engine.ErrCodeRepository, Category: engine.CategoryInvalidPassword, Message: "bad password"}
	wrapped := fmt.Errorf("connect: %w", inner)
	assert.Equal(t, KindInvalidPassword, Classify(wrapped))
}

func TestClassify_LocalSentinels(t *testing.T) {
	assert.Equal(t, KindVerificationTimedOut, Classify(ErrVerificationTimedOut))
	assert.Equal(t, KindDisconnectFailed, Classify(ErrDisconnectFailed))
	assert.Equal(t, KindDisconnectFailed, Classify(fmt.Errorf("pre-flight: %w", ErrDisconnectFailed)))
}

func TestClassify_Transport(t *testing.T) {
	assert.Equal(t, KindServerNotRunning, Classify(fmt.Errorf("%w: no socket", engine.ErrEngineUnavailable)))
	assert.Equal(t, KindConnectionRefused, Classify(fmt.Errorf("dial: %w", syscall.ECONNREFUSED)))
}

// Every input, including nil and arbitrary errors, must map to some kind
func TestClassify_Total(t *testing.T) {
	inputs := []error{
		nil,
		errors.New("something else entirely"),
		fmt.Errorf("layered: %w", errors.New("opaque")),
		&engine.RPCError{Code: engine.ErrCodeParseError, Message: "parse error"},
	}

	valid := map[ErrorKind]bool{
		KindUnknown: true, KindAlreadyConnected: true, KindRepositoryNotFound: true,
		KindConnectionRefused: true, KindServerNotRunning: true, KindInvalidPassword: true,
		KindVerificationTimedOut: true, KindDisconnectFailed: true,
	}

	for _, in := range inputs {
		kind := Classify(in)
		assert.True(t, valid[kind], "Classify(%v) returned unclassified value %d", in, kind)
	}
}

func TestErrorKind_MessagesAreFixedAndDistinct(t *testing.T) {
	kinds := []ErrorKind{
		KindUnknown, KindAlreadyConnected, KindRepositoryNotFound,
		KindConnectionRefused, KindServerNotRunning, KindInvalidPassword,
		KindVerificationTimedOut, KindDisconnectFailed,
	}

	seen := map[string]ErrorKind{}
	for _, k := range kinds {
		msg := k.Message()
		assert.NotEmpty(t, msg, "kind %s has no message", k)
		if prev, dup := seen[msg]; dup {
			t.Errorf("kinds %s and %s share the message %q", prev, k, msg)
		}
		seen[msg] = k
	}
}

func TestErrorKind_Recoverable(t *testing.T) {
	assert.False(t, KindDisconnectFailed.Recoverable())
	assert.False(t, KindVerificationTimedOut.Recoverable())
	assert.True(t, KindInvalidPassword.Recoverable())
	assert.True(t, KindUnknown.Recoverable())
}
