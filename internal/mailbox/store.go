// Package mailbox implements the durable per-agent message queues that
// companion agents use to communicate. Each mailbox is one JSON array file
// guarded by an advisory file lock; appends and drains are serialized by the
// lock, plain reads are not.
package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/codingwatching/companion/internal/constants"
	"github.com/codingwatching/companion/internal/ctxutil"
	"github.com/codingwatching/companion/internal/domain"
	companionerrors "github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/flock"
	"github.com/codingwatching/companion/internal/paths"
)

// Store defines the interface for mailbox persistence operations.
type Store interface {
	// Write appends an entry to an agent's mailbox with read=false, creating
	// the mailbox if absent. Concurrent writers are serialized by the mailbox
	// lock; returns ErrLockTimeout when the lock cannot be acquired within
	// the acquire window.
	Write(ctx context.Context, team, agent string, entry *domain.MailboxEntry) error

	// ReadAll returns every entry in append order without locking or
	// modifying the mailbox. A missing mailbox reads as empty.
	ReadAll(ctx context.Context, team, agent string) ([]domain.MailboxEntry, error)

	// DrainUnread returns all unread entries in append order and marks them
	// read, under the same lock discipline as Write. When nothing is unread
	// the mailbox file is not rewritten.
	DrainUnread(ctx context.Context, team, agent string) ([]domain.MailboxEntry, error)

	// UnreadCount reports how many entries are currently unread.
	UnreadCount(ctx context.Context, team, agent string) (int, error)
}

// FileStore implements Store using one JSON array file per (team, agent).
type FileStore struct {
	res         *paths.Resolver
	maxEntries  int
	lockTimeout time.Duration
}

// Option customizes a FileStore.
type Option func(*FileStore)

// WithMaxEntries overrides the retention cap applied on write.
// A cap of zero or less disables retention.
func WithMaxEntries(n int) Option {
	return func(s *FileStore) { s.maxEntries = n }
}

// WithLockTimeout overrides how long a writer retries for the mailbox lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *FileStore) { s.lockTimeout = d }
}

// NewFileStore creates a FileStore over the given layout resolver.
func NewFileStore(res *paths.Resolver, opts ...Option) *FileStore {
	s := &FileStore{
		res:         res,
		maxEntries:  constants.DefaultMailboxMaxEntries,
		lockTimeout: constants.LockAcquireTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write appends an entry to an agent's mailbox.
func (s *FileStore) Write(ctx context.Context, team, agent string, entry *domain.MailboxEntry) error {
	// Check for cancellation at entry
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	if err := validateNames(team, agent); err != nil {
		return fmt.Errorf("failed to write mailbox for '%s': %w", agent, err)
	}
	if entry == nil {
		return fmt.Errorf("failed to write mailbox for '%s': entry %w", agent, companionerrors.ErrEmptyValue)
	}

	// Acquire lock for write operation
	lockFile, err := s.acquireLock(ctx, team, agent)
	if err != nil {
		return fmt.Errorf("failed to write mailbox for '%s': %w", agent, err)
	}
	defer func() { _ = s.releaseLock(lockFile) }()

	entries, err := s.readEntries(team, agent)
	if err != nil {
		return fmt.Errorf("failed to write mailbox for '%s': %w", agent, err)
	}

	// New entries always start unread; the store owns the read flag.
	entry.Read = false
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	entries = append(entries, *entry)
	entries = capEntries(entries, s.maxEntries)

	if err := s.writeEntries(team, agent, entries); err != nil {
		return fmt.Errorf("failed to write mailbox for '%s': %w", agent, err)
	}

	return nil
}

// ReadAll returns every entry in an agent's mailbox in append order.
func (s *FileStore) ReadAll(ctx context.Context, team, agent string) ([]domain.MailboxEntry, error) {
	// Check for cancellation at entry
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	if err := validateNames(team, agent); err != nil {
		return nil, fmt.Errorf("failed to read mailbox for '%s': %w", agent, err)
	}

	entries, err := s.readEntries(team, agent)
	if err != nil {
		return nil, fmt.Errorf("failed to read mailbox for '%s': %w", agent, err)
	}

	return entries, nil
}

// DrainUnread returns all unread entries and marks them read.
func (s *FileStore) DrainUnread(ctx context.Context, team, agent string) ([]domain.MailboxEntry, error) {
	// Check for cancellation at entry
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	if err := validateNames(team, agent); err != nil {
		return nil, fmt.Errorf("failed to drain mailbox for '%s': %w", agent, err)
	}

	// Acquire lock: draining mutates the read flags
	lockFile, err := s.acquireLock(ctx, team, agent)
	if err != nil {
		return nil, fmt.Errorf("failed to drain mailbox for '%s': %w", agent, err)
	}
	defer func() { _ = s.releaseLock(lockFile) }()

	entries, err := s.readEntries(team, agent)
	if err != nil {
		return nil, fmt.Errorf("failed to drain mailbox for '%s': %w", agent, err)
	}

	unread := make([]domain.MailboxEntry, 0)
	for i := range entries {
		if !entries[i].Read {
			unread = append(unread, entries[i])
			entries[i].Read = true
		}
	}

	// Nothing unread: skip the rewrite so repeated drains are cheap no-ops.
	if len(unread) == 0 {
		return unread, nil
	}

	if err := s.writeEntries(team, agent, entries); err != nil {
		return nil, fmt.Errorf("failed to drain mailbox for '%s': %w", agent, err)
	}

	return unread, nil
}

// UnreadCount reports how many entries are currently unread.
func (s *FileStore) UnreadCount(ctx context.Context, team, agent string) (int, error) {
	entries, err := s.ReadAll(ctx, team, agent)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range entries {
		if !entries[i].Read {
			count++
		}
	}
	return count, nil
}

// readEntries reads and parses a mailbox file. A missing file is an empty
// mailbox; malformed JSON is a corruption error, never silently defaulted.
func (s *FileStore) readEntries(team, agent string) ([]domain.MailboxEntry, error) {
	path := s.res.InboxPath(team, agent)

	data, err := os.ReadFile(path) //#nosec G304 -- path is validated and constructed from trusted base
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.MailboxEntry{}, nil
		}
		return nil, err
	}

	var entries []domain.MailboxEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("mailbox file '%s': %w", path, companionerrors.ErrMailboxCorrupted)
	}

	return entries, nil
}

// writeEntries persists the full entry array atomically.
func (s *FileStore) writeEntries(team, agent string, entries []domain.MailboxEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(s.res.InboxPath(team, agent), data)
}

// capEntries drops the oldest already-read entries beyond the cap. Unread
// entries are never dropped, so an undrained backlog can exceed the cap
// until it is read.
func capEntries(entries []domain.MailboxEntry, maxEntries int) []domain.MailboxEntry {
	if maxEntries <= 0 || len(entries) <= maxEntries {
		return entries
	}

	excess := len(entries) - maxEntries
	kept := make([]domain.MailboxEntry, 0, maxEntries)
	for i := range entries {
		if excess > 0 && entries[i].Read {
			excess--
			continue
		}
		kept = append(kept, entries[i])
	}
	return kept
}

// validateNames checks the team and agent names embedded in mailbox paths.
func validateNames(team, agent string) error {
	if err := paths.ValidateName(team); err != nil {
		return fmt.Errorf("team name: %w", err)
	}
	if err := paths.ValidateName(agent); err != nil {
		return fmt.Errorf("agent name: %w", err)
	}
	return nil
}

// acquireLock acquires the exclusive advisory lock guarding one mailbox.
// It retries on a fixed interval until the acquire deadline, reclaims lock
// files older than the staleness threshold, and respects context
// cancellation between attempts.
func (s *FileStore) acquireLock(ctx context.Context, team, agent string) (*os.File, error) {
	lockPath := s.res.InboxLockPath(team, agent)

	// Ensure inbox directory exists for the lock file
	if err := os.MkdirAll(s.res.InboxDir(team), paths.DirPerm); err != nil {
		return nil, fmt.Errorf("failed to create inbox directory: %w", err)
	}

	deadline := time.Now().Add(s.lockTimeout)
	for {
		// Check for context cancellation
		if err := ctxutil.Canceled(ctx); err != nil {
			return nil, err
		}

		// Reopen per attempt: a stale reclaim below replaces the file, and
		// only a descriptor on the current inode can win the lock.
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, paths.FilePerm) //#nosec G302,G304 -- lock file needs write access, path is constructed from validated names
		if err != nil {
			return nil, fmt.Errorf("failed to open lock file: %w", err)
		}

		// Attempt to acquire exclusive non-blocking lock
		if err := flock.Exclusive(f.Fd()); err == nil {
			// Stamp acquisition time so staleness is measured from now.
			now := time.Now()
			_ = os.Chtimes(lockPath, now, now)
			return f, nil
		}
		_ = f.Close()

		// A holder past the staleness threshold is presumed dead or hung.
		// Deleting the file lets waiters lock a fresh inode on the next
		// attempt; the stale holder keeps its lock on the orphaned inode.
		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > constants.LockStaleThreshold {
			_ = os.Remove(lockPath)
			continue
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("failed to acquire mailbox lock: %w", companionerrors.ErrLockTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(constants.LockRetryInterval):
		}
	}
}

// releaseLock releases a mailbox lock.
func (s *FileStore) releaseLock(f *os.File) error {
	if f == nil {
		return nil
	}

	// Release the lock
	if err := flock.Unlock(f.Fd()); err != nil {
		// Still try to close the file
		_ = f.Close()
		return fmt.Errorf("failed to release lock: %w", err)
	}

	return f.Close()
}

// atomicWrite writes data to a file atomically using write-then-rename.
func atomicWrite(path string, data []byte) error {
	// Write to temp file
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, paths.FilePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	// Write data
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	// Sync to disk (ensure data is persisted before rename)
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	// Close file before rename
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
