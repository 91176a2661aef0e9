//go:build unix

package flock

import "syscall"

// Exclusive tries to take an exclusive lock on fd without blocking. On Unix
// this is flock(2); the error surfaces immediately when another process holds
// the lock.
func Exclusive(fd uintptr) error {
	return syscall.Flock(int(fd), syscall.LOCK_EX|syscall.LOCK_NB)
}

// Unlock drops the lock held on fd.
func Unlock(fd uintptr) error {
	return syscall.Flock(int(fd), syscall.LOCK_UN)
}
