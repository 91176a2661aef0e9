// Package errors provides centralized error handling for companion.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrTeamNotFound indicates that no team with the requested name exists
	// in the team registry.
	ErrTeamNotFound = errors.New("team not found")

	// ErrTeamExists indicates that a team with the requested name already
	// exists and cannot be created again.
	ErrTeamExists = errors.New("team already exists")

	// ErrMemberNotFound indicates that the requested member name is not part
	// of the team.
	ErrMemberNotFound = errors.New("member not found")

	// ErrTaskNotFound indicates that no persisted task with the requested id
	// exists for the team.
	ErrTaskNotFound = errors.New("task not found")

	// ErrLockTimeout indicates that the mailbox lock could not be acquired
	// within the configured retry budget.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrReceiveTimeout indicates that a blocking receive elapsed its deadline
	// with no qualifying message. This is an expected outcome of waiting, not
	// a crash condition.
	ErrReceiveTimeout = errors.New("receive timeout")

	// ErrWaitTimeout indicates that a blocking wait on a task status elapsed
	// its deadline before the status was reached.
	ErrWaitTimeout = errors.New("wait timeout")

	// ErrProcess indicates that the external process manager failed to spawn,
	// inspect, or terminate an agent process.
	ErrProcess = errors.New("process manager failure")

	// ErrNotInitialized indicates that a coordinator method was invoked before
	// Start completed its setup.
	ErrNotInitialized = errors.New("coordinator not initialized")

	// ErrMailboxCorrupted indicates that a mailbox file exists but does not
	// contain a valid JSON entry array.
	ErrMailboxCorrupted = errors.New("mailbox file corrupted")

	// ErrTaskCorrupted indicates that a task file exists but does not contain
	// a valid JSON task document.
	ErrTaskCorrupted = errors.New("task file corrupted")

	// ErrTeamCorrupted indicates that a team config file exists but does not
	// contain a valid JSON team document.
	ErrTeamCorrupted = errors.New("team config corrupted")

	// ErrInvalidName indicates that a team, agent, or task identifier contains
	// characters outside the allowed set.
	ErrInvalidName = errors.New("invalid name")

	// ErrEmptyValue indicates a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrValueOutOfRange indicates a configuration value was outside its
	// valid range.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrConfigNil indicates a nil configuration was passed where a value
	// was required.
	ErrConfigNil = errors.New("config is nil")

	// ErrInvalidOutputFormat indicates the requested CLI output format is not
	// supported.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrRuntimeMissing indicates a required agent runtime CLI is missing or
	// below its minimum supported version.
	ErrRuntimeMissing = errors.New("required agent runtime missing or outdated")

	// ErrNonInteractive indicates an operation needs interactive confirmation
	// but stdin is not a terminal. Callers pass --force to proceed.
	ErrNonInteractive = errors.New("confirmation required in non-interactive mode")

	// ErrCommandNotConfigured indicates a test command executor received a
	// command it has no scripted response for.
	ErrCommandNotConfigured = errors.New("command not configured")
)
