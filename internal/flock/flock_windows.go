//go:build windows

package flock

import "golang.org/x/sys/windows"

// LockFileEx locks a byte range, not a whole file. Locking the first byte is
// enough: every mailbox writer locks the same range, so contention behaves
// like a whole-file lock.
// https://learn.microsoft.com/en-us/windows/win32/api/fileapi/nf-fileapi-lockfileex
const (
	rangeLow  = 1
	rangeHigh = 0
	reserved  = 0
)

// Exclusive tries to take an exclusive lock on fd without blocking.
func Exclusive(fd uintptr) error {
	return windows.LockFileEx(
		windows.Handle(fd),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		reserved,
		rangeLow,
		rangeHigh,
		&windows.Overlapped{},
	)
}

// Unlock drops the lock held on fd.
func Unlock(fd uintptr) error {
	return windows.UnlockFileEx(
		windows.Handle(fd),
		reserved,
		rangeLow,
		rangeHigh,
		&windows.Overlapped{},
	)
}
