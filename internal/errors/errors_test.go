package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	companionerrors "github.com/codingwatching/companion/internal/errors"
)

// testError is a custom error type used to test default branches
// in UserMessage and Actionable without matching any sentinel.
type testError struct {
	msg string
}

func (e testError) Error() string {
	return e.msg
}

func TestSentinelErrors_Existence(t *testing.T) {
	// Verify all sentinel errors exist and are non-nil
	sentinels := []struct {
		name string
		err  error
	}{
		{"ErrTeamNotFound", companionerrors.ErrTeamNotFound},
		{"ErrTeamExists", companionerrors.ErrTeamExists},
		{"ErrMemberNotFound", companionerrors.ErrMemberNotFound},
		{"ErrTaskNotFound", companionerrors.ErrTaskNotFound},
		{"ErrLockTimeout", companionerrors.ErrLockTimeout},
		{"ErrReceiveTimeout", companionerrors.ErrReceiveTimeout},
		{"ErrWaitTimeout", companionerrors.ErrWaitTimeout},
		{"ErrProcess", companionerrors.ErrProcess},
		{"ErrNotInitialized", companionerrors.ErrNotInitialized},
		{"ErrMailboxCorrupted", companionerrors.ErrMailboxCorrupted},
		{"ErrTaskCorrupted", companionerrors.ErrTaskCorrupted},
		{"ErrTeamCorrupted", companionerrors.ErrTeamCorrupted},
		{"ErrInvalidName", companionerrors.ErrInvalidName},
	}

	for _, tc := range sentinels {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, tc.err, "%s should not be nil", tc.name)
			assert.NotEmpty(t, tc.err.Error(), "%s should have a message", tc.name)
		})
	}
}

func TestSentinelErrors_Messages(t *testing.T) {
	// Verify all sentinel errors have lowercase messages per Go conventions
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"ErrTeamNotFound", companionerrors.ErrTeamNotFound, "team not found"},
		{"ErrTaskNotFound", companionerrors.ErrTaskNotFound, "task not found"},
		{"ErrLockTimeout", companionerrors.ErrLockTimeout, "lock acquisition timeout"},
		{"ErrReceiveTimeout", companionerrors.ErrReceiveTimeout, "receive timeout"},
		{"ErrWaitTimeout", companionerrors.ErrWaitTimeout, "wait timeout"},
		{"ErrProcess", companionerrors.ErrProcess, "process manager failure"},
		{"ErrNotInitialized", companionerrors.ErrNotInitialized, "coordinator not initialized"},
		{"ErrMailboxCorrupted", companionerrors.ErrMailboxCorrupted, "mailbox file corrupted"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	// Ensure each sentinel error is unique and errors.Is() distinguishes them
	allErrors := []error{
		companionerrors.ErrTeamNotFound,
		companionerrors.ErrTaskNotFound,
		companionerrors.ErrMemberNotFound,
		companionerrors.ErrLockTimeout,
		companionerrors.ErrReceiveTimeout,
		companionerrors.ErrWaitTimeout,
		companionerrors.ErrProcess,
		companionerrors.ErrNotInitialized,
		companionerrors.ErrMailboxCorrupted,
		companionerrors.ErrTaskCorrupted,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i == j {
				assert.ErrorIs(t, err1, err2, "error should match itself")
			} else {
				assert.NotErrorIs(t, err1, err2, "different errors should not match")
			}
		}
	}
}

func TestWrap_PreservesErrorChain(t *testing.T) {
	tests := []struct {
		name     string
		sentinel error
	}{
		{"ErrTaskNotFound", companionerrors.ErrTaskNotFound},
		{"ErrLockTimeout", companionerrors.ErrLockTimeout},
		{"ErrReceiveTimeout", companionerrors.ErrReceiveTimeout},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := companionerrors.Wrap(tc.sentinel, "outer context")
			require.Error(t, wrapped)
			assert.ErrorIs(t, wrapped, tc.sentinel)
			assert.Contains(t, wrapped.Error(), "outer context")
		})
	}
}

func TestWrap_NilError(t *testing.T) {
	assert.NoError(t, companionerrors.Wrap(nil, "context"))
	assert.NoError(t, companionerrors.Wrapf(nil, "context %s", "value"))
}

func TestWrapf_FormatsMessage(t *testing.T) {
	wrapped := companionerrors.Wrapf(companionerrors.ErrTaskNotFound, "failed to load task %s for team %s", "42", "alpha")
	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, companionerrors.ErrTaskNotFound)
	assert.Contains(t, wrapped.Error(), "task 42")
	assert.Contains(t, wrapped.Error(), "team alpha")
}

func TestUserMessage_KnownSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"team not found", companionerrors.ErrTeamNotFound, "team does not exist"},
		{"lock timeout", companionerrors.ErrLockTimeout, "mailbox lock"},
		{"receive timeout", companionerrors.ErrReceiveTimeout, "deadline"},
		{"process", companionerrors.ErrProcess, "agent process"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Contains(t, companionerrors.UserMessage(tc.err), tc.contains)
		})
	}
}

func TestUserMessage_WrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("loading roster: %w", companionerrors.ErrTeamNotFound)
	assert.Contains(t, companionerrors.UserMessage(wrapped), "team does not exist")
}

func TestUserMessage_UnknownError(t *testing.T) {
	err := testError{msg: "something odd happened"}
	assert.Equal(t, "something odd happened", companionerrors.UserMessage(err))
}

func TestUserMessage_NilError(t *testing.T) {
	assert.Empty(t, companionerrors.UserMessage(nil))
}

func TestActionable_ReturnsMessageAndAction(t *testing.T) {
	msg, action := companionerrors.Actionable(companionerrors.ErrReceiveTimeout)
	assert.NotEmpty(t, msg)
	assert.Contains(t, action, "--timeout")
}

func TestActionable_NilError(t *testing.T) {
	msg, action := companionerrors.Actionable(nil)
	assert.Empty(t, msg)
	assert.Empty(t, action)
}
