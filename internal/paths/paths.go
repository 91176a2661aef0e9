// Package paths resolves companion's on-disk layout.
//
// All companion state lives under a single base directory, by default
// ~/.companion (override with COMPANION_HOME):
//
//	<base>/teams/<team>/config.json          team registry
//	<base>/teams/<team>/inboxes/<agent>.json  per-agent mailbox
//	<base>/tasks/<team>/<id>.json             per-task document
//	<base>/logs/companion.log                 global CLI log
//	<base>/config.yaml                        global configuration
//
// Stores receive a Resolver instead of computing paths themselves so the
// layout stays defined in one place.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/codingwatching/companion/internal/constants"
	companionerrors "github.com/codingwatching/companion/internal/errors"
)

// Directory and file permission constants.
const (
	// DirPerm is the permission mode for companion-created directories.
	DirPerm = 0o750

	// FilePerm is the permission mode for companion-created files.
	FilePerm = 0o600
)

// validNameRegex matches valid team, agent, and task names
// (alphanumeric first character, then alphanumeric, dash, underscore).
var validNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// Home returns the companion data home directory.
// If COMPANION_HOME is set, it is used as-is; otherwise ~/.companion.
func Home() (string, error) {
	if home := os.Getenv(constants.EnvHome); home != "" {
		return home, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.CompanionHome), nil
}

// Resolver computes the location of every companion state file under a
// single base directory.
type Resolver struct {
	baseDir string
}

// NewResolver creates a Resolver rooted at baseDir.
// If baseDir is empty, the companion home directory is used.
func NewResolver(baseDir string) (*Resolver, error) {
	if baseDir == "" {
		home, err := Home()
		if err != nil {
			return nil, err
		}
		baseDir = home
	}
	return &Resolver{baseDir: baseDir}, nil
}

// Base returns the base directory the resolver is rooted at.
func (r *Resolver) Base() string {
	return r.baseDir
}

// TeamsDir returns the directory that holds all team directories.
func (r *Resolver) TeamsDir() string {
	return filepath.Join(r.baseDir, constants.TeamsDir)
}

// TeamDir returns the directory of a specific team.
func (r *Resolver) TeamDir(team string) string {
	return filepath.Join(r.TeamsDir(), team)
}

// TeamConfigPath returns the path of a team's registry file.
func (r *Resolver) TeamConfigPath(team string) string {
	return filepath.Join(r.TeamDir(team), constants.TeamConfigFileName)
}

// InboxDir returns the directory that holds a team's mailbox files.
func (r *Resolver) InboxDir(team string) string {
	return filepath.Join(r.TeamDir(team), constants.InboxesDir)
}

// InboxPath returns the mailbox file of one agent on a team.
func (r *Resolver) InboxPath(team, agent string) string {
	return filepath.Join(r.InboxDir(team), agent+constants.MailboxFileExt)
}

// InboxLockPath returns the lock file guarding one agent's mailbox.
func (r *Resolver) InboxLockPath(team, agent string) string {
	return r.InboxPath(team, agent) + constants.LockFileSuffix
}

// TasksRoot returns the directory that holds all per-team task directories.
func (r *Resolver) TasksRoot() string {
	return filepath.Join(r.baseDir, constants.TasksDir)
}

// TasksDir returns the task directory of a specific team.
func (r *Resolver) TasksDir(team string) string {
	return filepath.Join(r.TasksRoot(), team)
}

// TaskPath returns the file of one task on a team.
func (r *Resolver) TaskPath(team, id string) string {
	return filepath.Join(r.TasksDir(team), id+constants.TaskFileExt)
}

// LogsDir returns the directory that holds companion log files.
func (r *Resolver) LogsDir() string {
	return filepath.Join(r.baseDir, constants.LogsDir)
}

// LogFilePath returns the path of the global CLI log file.
func (r *Resolver) LogFilePath() string {
	return filepath.Join(r.LogsDir(), constants.CLILogFileName)
}

// ConfigPath returns the path of the global configuration file.
func (r *Resolver) ConfigPath() string {
	return filepath.Join(r.baseDir, constants.GlobalConfigName)
}

// EnsureLayout creates the base directory skeleton (teams/, tasks/, logs/).
// Existing directories are left untouched.
func (r *Resolver) EnsureLayout() error {
	for _, dir := range []string{r.TeamsDir(), r.TasksRoot(), r.LogsDir()} {
		if err := os.MkdirAll(dir, DirPerm); err != nil {
			return fmt.Errorf("failed to create directory '%s': %w", dir, err)
		}
	}
	return nil
}

// ValidateName checks that a team, agent, or task name is safe to embed in a
// file path. Callers wrap the error with the name's role.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty: %w", companionerrors.ErrEmptyValue)
	}
	if len(name) > 255 {
		return fmt.Errorf("name too long (max 255 characters): %w", companionerrors.ErrValueOutOfRange)
	}
	if !validNameRegex.MatchString(name) {
		return fmt.Errorf("name contains invalid characters (use alphanumeric, dash, underscore): %w", companionerrors.ErrInvalidName)
	}
	// Path traversal guard; the regex already excludes these but the check
	// must not depend on the regex staying that strict.
	if strings.Contains(name, "..") || strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return fmt.Errorf("name contains invalid path characters: %w", companionerrors.ErrInvalidName)
	}
	return nil
}
