// Package task provides task persistence and the blocking-relation
// bookkeeping for companion teams. Each task is one JSON document in the
// team's task directory; ids are strings of positive integers assigned by a
// process-local counter that a directory scan reseeds across restarts.
//
// Task files are written atomically but not lock-protected: task writes
// originate from the coordinator process that owns the team, and the mailbox
// lock remains the only cross-process mutex.
package task

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/codingwatching/companion/internal/constants"
	"github.com/codingwatching/companion/internal/ctxutil"
	"github.com/codingwatching/companion/internal/domain"
	companionerrors "github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/paths"
)

// Store defines the interface for task persistence operations.
type Store interface {
	// Init ensures the team's task directory exists and reseeds the next-id
	// counter from the files on disk. Reinitializing never lowers a counter
	// that already advanced further in this process.
	Init(ctx context.Context, team string) error

	// Create assigns the next id, applies defaults, persists the task, and
	// returns the new id. Ids are never reused within a process lifetime,
	// even after earlier tasks are deleted.
	Create(ctx context.Context, team string, t *domain.Task) (string, error)

	// Get retrieves a task by ID.
	// Returns ErrTaskNotFound if task doesn't exist.
	Get(ctx context.Context, team, id string) (*domain.Task, error)

	// Update merges the provided fields into the task and persists it,
	// returning the merged task. Unset patch fields keep their prior values.
	Update(ctx context.Context, team, id string, patch Patch) (*domain.Task, error)

	// AddBlocks records that this task blocks each given id, keeping the
	// reverse blockedBy sets symmetric. Already-present ids are skipped.
	AddBlocks(ctx context.Context, team, id string, blockedIDs []string) error

	// List returns all tasks for a team, sorted ascending by numeric id.
	List(ctx context.Context, team string) ([]*domain.Task, error)

	// Delete removes a task. Deleting an absent task is a no-op; blocking
	// relations that reference the removed id are left to the caller.
	Delete(ctx context.Context, team, id string) error

	// WaitFor polls the task until its status equals target or the timeout
	// elapses, returning ErrWaitTimeout on elapse.
	WaitFor(ctx context.Context, team, id string, target constants.TaskStatus, opts WaitOptions) (*domain.Task, error)
}

// Patch is a partial task update. Nil fields keep their current values.
// Blocking relations are excluded on purpose; they change only through
// AddBlocks so the two sides stay symmetric.
type Patch struct {
	Subject     *string
	Description *string
	ActiveForm  *string
	Owner       *string
	Status      *constants.TaskStatus
	Metadata    map[string]any
}

// WaitOptions controls a WaitFor poll loop. Zero values select defaults
// from the constants package.
type WaitOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

// FileStore implements Store using one JSON file per task.
type FileStore struct {
	res *paths.Resolver

	// mu guards nextID. The counter is process-local; the directory scan
	// is authoritative across restarts.
	mu     sync.Mutex
	nextID map[string]int
}

// NewFileStore creates a new FileStore over the given layout resolver.
func NewFileStore(res *paths.Resolver) *FileStore {
	return &FileStore{
		res:    res,
		nextID: make(map[string]int),
	}
}

// Init ensures the team's task directory exists and reseeds the counter.
func (s *FileStore) Init(ctx context.Context, team string) error {
	// Check for cancellation at entry
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	if err := paths.ValidateName(team); err != nil {
		return fmt.Errorf("failed to init tasks for team '%s': %w", team, err)
	}

	next, err := s.scanNextID(team)
	if err != nil {
		return fmt.Errorf("failed to init tasks for team '%s': %w", team, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Never lower a counter that already advanced in this process.
	if current, ok := s.nextID[team]; !ok || next > current {
		s.nextID[team] = next
	}

	return nil
}

// Create assigns the next id and persists the task.
func (s *FileStore) Create(ctx context.Context, team string, t *domain.Task) (string, error) {
	// Check for cancellation at entry
	if err := ctxutil.Canceled(ctx); err != nil {
		return "", err
	}

	// Validate inputs
	if err := paths.ValidateName(team); err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}
	if t == nil {
		return "", fmt.Errorf("failed to create task: task %w", companionerrors.ErrEmptyValue)
	}
	if t.Subject == "" {
		return "", fmt.Errorf("failed to create task: subject %w", companionerrors.ErrEmptyValue)
	}

	id, err := s.claimNextID(team)
	if err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}

	t.ID = id
	if t.Status == "" {
		t.Status = constants.TaskStatusPending
	}
	// Relations marshal as arrays, never null.
	if t.Blocks == nil {
		t.Blocks = []string{}
	}
	if t.BlockedBy == nil {
		t.BlockedBy = []string{}
	}

	if err := s.writeTask(team, t); err != nil {
		return "", fmt.Errorf("failed to create task '%s': %w", id, err)
	}

	return id, nil
}

// Get retrieves a task by ID.
func (s *FileStore) Get(ctx context.Context, team, id string) (*domain.Task, error) {
	// Check for cancellation at entry
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	// Validate inputs
	if err := paths.ValidateName(team); err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if err := paths.ValidateName(id); err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	taskPath := s.res.TaskPath(team, id)

	data, err := os.ReadFile(taskPath) //#nosec G304 -- path is validated and constructed from trusted base
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to get task '%s': %w", id, companionerrors.ErrTaskNotFound)
		}
		return nil, fmt.Errorf("failed to read task '%s': %w", id, err)
	}

	// Parse JSON
	var t domain.Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse task '%s': %w", id, companionerrors.ErrTaskCorrupted)
	}

	return &t, nil
}

// Update merges the provided fields into the task and persists it.
func (s *FileStore) Update(ctx context.Context, team, id string, patch Patch) (*domain.Task, error) {
	t, err := s.Get(ctx, team, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if patch.Subject != nil {
		t.Subject = *patch.Subject
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.ActiveForm != nil {
		t.ActiveForm = *patch.ActiveForm
	}
	if patch.Owner != nil {
		t.Owner = *patch.Owner
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Metadata != nil {
		t.Metadata = patch.Metadata
	}

	if err := s.writeTask(team, t); err != nil {
		return nil, fmt.Errorf("failed to update task '%s': %w", id, err)
	}

	return t, nil
}

// AddBlocks records blocking relations from this task to each given id.
func (s *FileStore) AddBlocks(ctx context.Context, team, id string, blockedIDs []string) error {
	source, err := s.Get(ctx, team, id)
	if err != nil {
		return fmt.Errorf("failed to add blocks: %w", err)
	}

	added := make([]string, 0, len(blockedIDs))
	for _, targetID := range blockedIDs {
		if contains(source.Blocks, targetID) {
			continue
		}
		source.Blocks = append(source.Blocks, targetID)
		added = append(added, targetID)
	}

	// Everything already recorded: repeating a block is a no-op.
	if len(added) == 0 {
		return nil
	}

	if err := s.writeTask(team, source); err != nil {
		return fmt.Errorf("failed to add blocks to task '%s': %w", id, err)
	}

	// Mirror each new relation on the target's blockedBy side.
	for _, targetID := range added {
		target, err := s.Get(ctx, team, targetID)
		if err != nil {
			return fmt.Errorf("failed to mirror block on task '%s': %w", targetID, err)
		}
		if contains(target.BlockedBy, id) {
			continue
		}
		target.BlockedBy = append(target.BlockedBy, id)
		if err := s.writeTask(team, target); err != nil {
			return fmt.Errorf("failed to mirror block on task '%s': %w", targetID, err)
		}
	}

	return nil
}

// List returns all tasks for a team, sorted ascending by numeric id.
func (s *FileStore) List(ctx context.Context, team string) ([]*domain.Task, error) {
	// Check for cancellation at entry
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	// Validate inputs
	if err := paths.ValidateName(team); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasksDir := s.res.TasksDir(team)

	// Return empty slice if tasks directory doesn't exist
	if _, err := os.Stat(tasksDir); os.IsNotExist(err) {
		return []*domain.Task{}, nil
	}

	// Read directory entries
	entries, err := os.ReadDir(tasksDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*domain.Task, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// Only numeric stems the store wrote count as task documents.
		id, ok := numericStem(entry.Name())
		if !ok {
			continue
		}

		// Check for cancellation during iteration
		if err := ctxutil.Canceled(ctx); err != nil {
			return nil, err
		}

		// Corruption surfaces as an error, not a silent skip.
		t, err := s.Get(ctx, team, strconv.Itoa(id))
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}

		tasks = append(tasks, t)
	}

	// Numeric ascending: "10" sorts after "9".
	sort.Slice(tasks, func(i, j int) bool {
		a, _ := tasks[i].NumericID()
		b, _ := tasks[j].NumericID()
		return a < b
	})

	return tasks, nil
}

// Delete removes a task if present.
func (s *FileStore) Delete(ctx context.Context, team, id string) error {
	// Check for cancellation at entry
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	// Validate inputs
	if err := paths.ValidateName(team); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if err := paths.ValidateName(id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if err := os.Remove(s.res.TaskPath(team, id)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete task '%s': %w", id, err)
	}

	return nil
}

// WaitFor polls the task until its status equals target.
func (s *FileStore) WaitFor(ctx context.Context, team, id string, target constants.TaskStatus, opts WaitOptions) (*domain.Task, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = constants.DefaultTaskWaitTimeout
	}
	interval := opts.PollInterval
	if interval == 0 {
		interval = constants.DefaultTaskWaitPollInterval
	}

	deadline := time.Now().Add(timeout)
	for {
		t, err := s.Get(ctx, team, id)
		if err != nil {
			return nil, err
		}
		if t.Status == target {
			return t, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("task '%s' did not reach status '%s' within %s: %w",
				id, target, timeout, companionerrors.ErrWaitTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// claimNextID reserves the next id for the team, lazily seeding the counter
// from disk the first time the team is touched in this process.
func (s *FileStore) claimNextID(team string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nextID[team]; !ok {
		next, err := s.scanNextID(team)
		if err != nil {
			return "", err
		}
		s.nextID[team] = next
	}

	id := s.nextID[team]
	s.nextID[team]++
	return strconv.Itoa(id), nil
}

// scanNextID computes max existing numeric id plus one, creating the task
// directory when absent.
func (s *FileStore) scanNextID(team string) (int, error) {
	tasksDir := s.res.TasksDir(team)
	if err := os.MkdirAll(tasksDir, paths.DirPerm); err != nil {
		return 0, fmt.Errorf("failed to create task directory: %w", err)
	}

	entries, err := os.ReadDir(tasksDir)
	if err != nil {
		return 0, fmt.Errorf("failed to scan task directory: %w", err)
	}

	maxID := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, ok := numericStem(entry.Name()); ok && id > maxID {
			maxID = id
		}
	}

	return maxID + 1, nil
}

// numericStem parses "<n>.json" into n. Zero-padded forms are rejected;
// the store never writes them.
func numericStem(filename string) (int, bool) {
	stem, found := strings.CutSuffix(filename, constants.TaskFileExt)
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(stem)
	if err != nil || n <= 0 {
		return 0, false
	}
	if strconv.Itoa(n) != stem {
		return 0, false
	}
	return n, true
}

// writeTask persists a task document atomically.
func (s *FileStore) writeTask(team string, t *domain.Task) error {
	if err := os.MkdirAll(s.res.TasksDir(team), paths.DirPerm); err != nil {
		return fmt.Errorf("failed to create task directory: %w", err)
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}

	return atomicWrite(s.res.TaskPath(team, t.ID), data)
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// atomicWrite writes data to a file atomically using write-then-rename.
// Uses paths.FilePerm (0o600) for secure file permissions.
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
