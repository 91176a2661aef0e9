// Package team provides team registry persistence for companion.
// Each team is one config.json document holding the roster. Registry writes
// originate from the coordinator process that owns the team, so documents
// are written atomically but not lock-protected; the mailbox lock stays the
// only cross-process mutex.
package team

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/codingwatching/companion/internal/constants"
	"github.com/codingwatching/companion/internal/ctxutil"
	"github.com/codingwatching/companion/internal/domain"
	companionerrors "github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/paths"
)

// Store defines the interface for team registry operations.
type Store interface {
	// Create persists a new team. Returns ErrTeamExists if the team is
	// already registered.
	Create(ctx context.Context, t *domain.Team) error

	// Get retrieves a team by name. Returns ErrTeamNotFound if not found.
	Get(ctx context.Context, name string) (*domain.Team, error)

	// List returns all registered teams sorted by name. Returns an empty
	// slice if none exist.
	List(ctx context.Context) ([]*domain.Team, error)

	// AddMember adds a member to a team's roster. A member with the same
	// name replaces the existing entry rather than appending a duplicate.
	AddMember(ctx context.Context, teamName string, member domain.Member) error

	// RemoveMember removes a member from a team's roster. Returns
	// ErrMemberNotFound if no member has that name.
	RemoveMember(ctx context.Context, teamName, memberName string) error

	// Delete removes a team and all its registry data. Deleting a team that
	// does not exist is a no-op.
	Delete(ctx context.Context, name string) error

	// Exists returns true if a team with the given name is registered.
	Exists(ctx context.Context, name string) (bool, error)
}

// FileStore implements Store using one config.json per team.
type FileStore struct {
	res *paths.Resolver
}

// NewFileStore creates a FileStore over the given layout resolver.
func NewFileStore(res *paths.Resolver) *FileStore {
	return &FileStore{res: res}
}

// Create persists a new team.
func (s *FileStore) Create(ctx context.Context, t *domain.Team) error {
	// Check for cancellation at entry
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	if t == nil {
		return fmt.Errorf("failed to create team: team %w", companionerrors.ErrEmptyValue)
	}
	if err := paths.ValidateName(t.Name); err != nil {
		return fmt.Errorf("failed to create team '%s': %w", t.Name, err)
	}

	configPath := s.res.TeamConfigPath(t.Name)

	// The registry document is the existence marker, not the directory;
	// mailbox traffic may have created the directory already.
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("failed to create team '%s': %w", t.Name, companionerrors.ErrTeamExists)
	}

	if err := os.MkdirAll(s.res.TeamDir(t.Name), paths.DirPerm); err != nil {
		return fmt.Errorf("failed to create team directory '%s': %w", t.Name, err)
	}

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Members == nil {
		t.Members = []domain.Member{}
	}

	if err := s.writeTeam(t); err != nil {
		return fmt.Errorf("failed to create team '%s': %w", t.Name, err)
	}

	return nil
}

// Get retrieves a team by name.
func (s *FileStore) Get(ctx context.Context, name string) (*domain.Team, error) {
	// Check for cancellation at entry
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	if err := paths.ValidateName(name); err != nil {
		return nil, fmt.Errorf("failed to read team '%s': %w", name, err)
	}

	configPath := s.res.TeamConfigPath(name)

	data, err := os.ReadFile(configPath) //#nosec G304 -- path is validated and constructed from trusted base
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read team '%s': %w", name, companionerrors.ErrTeamNotFound)
		}
		return nil, fmt.Errorf("failed to read team '%s': %w", name, err)
	}

	var t domain.Team
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("team registry file '%s': %w", configPath, companionerrors.ErrTeamCorrupted)
	}

	return &t, nil
}

// List returns all registered teams sorted by name.
func (s *FileStore) List(ctx context.Context) ([]*domain.Team, error) {
	// Check for cancellation at entry
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	teamsDir := s.res.TeamsDir()

	// Return empty slice if the teams directory doesn't exist
	if _, err := os.Stat(teamsDir); os.IsNotExist(err) {
		return []*domain.Team{}, nil
	}

	entries, err := os.ReadDir(teamsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	teams := make([]*domain.Team, 0, len(entries))

	for _, entry := range entries {
		// Skip non-directories
		if !entry.IsDir() {
			continue
		}

		// Check for cancellation during iteration
		if err := ctxutil.Canceled(ctx); err != nil {
			return nil, err
		}

		// Skip directories without a valid registry document
		t, err := s.Get(ctx, entry.Name())
		if err != nil {
			continue
		}

		teams = append(teams, t)
	}

	sort.Slice(teams, func(i, j int) bool {
		return teams[i].Name < teams[j].Name
	})

	return teams, nil
}

// AddMember adds a member to a team's roster, replacing any member with the
// same name.
func (s *FileStore) AddMember(ctx context.Context, teamName string, member domain.Member) error {
	// Check for cancellation at entry
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	if err := paths.ValidateName(member.Name); err != nil {
		return fmt.Errorf("failed to add member to team '%s': %w", teamName, err)
	}

	t, err := s.Get(ctx, teamName)
	if err != nil {
		return fmt.Errorf("failed to add member '%s': %w", member.Name, err)
	}

	if member.AgentID == "" {
		member.AgentID = domain.FormatAgentID(member.Name, teamName)
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now().UTC()
	}
	if member.AgentType == "" {
		member.AgentType = constants.AgentTypeTeammate
	}

	// Replace in place when the name is already on the roster.
	replaced := false
	for i := range t.Members {
		if t.Members[i].Name == member.Name {
			t.Members[i] = member
			replaced = true
			break
		}
	}
	if !replaced {
		t.Members = append(t.Members, member)
	}

	if err := s.writeTeam(t); err != nil {
		return fmt.Errorf("failed to add member '%s': %w", member.Name, err)
	}

	return nil
}

// RemoveMember removes a member from a team's roster.
func (s *FileStore) RemoveMember(ctx context.Context, teamName, memberName string) error {
	// Check for cancellation at entry
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	t, err := s.Get(ctx, teamName)
	if err != nil {
		return fmt.Errorf("failed to remove member '%s': %w", memberName, err)
	}

	found := false
	kept := make([]domain.Member, 0, len(t.Members))
	for i := range t.Members {
		if t.Members[i].Name == memberName {
			found = true
			continue
		}
		kept = append(kept, t.Members[i])
	}
	if !found {
		return fmt.Errorf("failed to remove member '%s' from team '%s': %w", memberName, teamName, companionerrors.ErrMemberNotFound)
	}

	t.Members = kept

	if err := s.writeTeam(t); err != nil {
		return fmt.Errorf("failed to remove member '%s': %w", memberName, err)
	}

	return nil
}

// Delete removes a team and all its registry data.
func (s *FileStore) Delete(ctx context.Context, name string) error {
	// Check for cancellation at entry
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	if err := paths.ValidateName(name); err != nil {
		return fmt.Errorf("failed to delete team '%s': %w", name, err)
	}

	// Idempotent: removing an absent team is not an error.
	if err := os.RemoveAll(s.res.TeamDir(name)); err != nil {
		return fmt.Errorf("failed to delete team '%s': %w", name, err)
	}

	return nil
}

// Exists returns true if a team with the given name is registered.
func (s *FileStore) Exists(ctx context.Context, name string) (bool, error) {
	// Check for cancellation at entry
	if err := ctxutil.Canceled(ctx); err != nil {
		return false, err
	}

	if err := paths.ValidateName(name); err != nil {
		return false, fmt.Errorf("failed to check team '%s': %w", name, err)
	}

	if _, err := os.Stat(s.res.TeamConfigPath(name)); os.IsNotExist(err) {
		return false, nil
	}

	return true, nil
}

// writeTeam persists the registry document atomically.
func (s *FileStore) writeTeam(t *domain.Team) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(s.res.TeamConfigPath(t.Name), data)
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
