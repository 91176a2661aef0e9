//go:build unix

package flock_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codingwatching/companion/internal/flock"
)

func openLockFile(t *testing.T) *os.File {
	t.Helper()

	path := filepath.Join(t.TempDir(), "inbox.lock")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600) // #nosec G304 -- temp dir
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	return f
}

func TestExclusiveAcquiresAndReleases(t *testing.T) {
	t.Parallel()

	f := openLockFile(t)

	require.NoError(t, flock.Exclusive(f.Fd()))
	require.NoError(t, flock.Unlock(f.Fd()))
}

func TestExclusiveContendedFails(t *testing.T) {
	t.Parallel()

	holder := openLockFile(t)
	require.NoError(t, flock.Exclusive(holder.Fd()))
	defer func() { _ = flock.Unlock(holder.Fd()) }()

	// A second descriptor on the same file must be refused, not blocked.
	waiter, err := os.OpenFile(holder.Name(), os.O_RDWR, 0o600) // #nosec G304 -- temp dir
	require.NoError(t, err)
	defer func() { _ = waiter.Close() }()

	require.Error(t, flock.Exclusive(waiter.Fd()))
}

func TestExclusiveReacquireAfterUnlock(t *testing.T) {
	t.Parallel()

	f := openLockFile(t)

	require.NoError(t, flock.Exclusive(f.Fd()))
	require.NoError(t, flock.Unlock(f.Fd()))

	require.NoError(t, flock.Exclusive(f.Fd()))
	require.NoError(t, flock.Unlock(f.Fd()))
}
