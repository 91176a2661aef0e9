// Package flock provides cross-platform file locking utilities.
//
// This package holds the advisory-lock primitive underneath the mailbox
// store's lock files. It provides exclusive, non-blocking file locks that
// work on both Unix and Windows systems.
//
// Usage:
//
//	file, _ := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
//	if err := flock.Exclusive(file.Fd()); err != nil {
//	    // Lock not acquired - file is in use
//	}
//	defer flock.Unlock(file.Fd())
package flock
