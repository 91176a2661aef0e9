// Package testutil provides testing utilities for companion.
//
// This package contains mock errors and test helpers used across test files.
// It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors for testing purposes.
// These errors are used to simulate various failure scenarios in tests.
var (
	// ErrMockDetectFailed indicates a mock runtime detection failure (used in tests).
	ErrMockDetectFailed = errors.New("detection failed")

	// ErrMockStoreUnavailable indicates a mock store is unavailable (used in tests).
	ErrMockStoreUnavailable = errors.New("store unavailable")

	// ErrMockSpawnFailed indicates a mock agent spawn failure (used in tests).
	ErrMockSpawnFailed = errors.New("spawn failed")

	// ErrMockUnhandled indicates a mock error no handler recognizes (used in tests).
	ErrMockUnhandled = errors.New("something went wrong")
)
