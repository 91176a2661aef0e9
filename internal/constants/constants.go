// Package constants provides centralized constant values used throughout companion.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// File names used by companion for state persistence.
const (
	// TeamConfigFileName is the name of the JSON file that stores a team's
	// roster inside its team directory.
	TeamConfigFileName = "config.json"

	// LockFileSuffix is appended to a mailbox file path to form its
	// companion lock file.
	LockFileSuffix = ".lock"

	// MailboxFileExt is the extension of per-agent mailbox files.
	MailboxFileExt = ".json"

	// TaskFileExt is the extension of per-task files.
	TaskFileExt = ".json"
)

// Directory names and paths used by companion for organizing data.
const (
	// CompanionHome is the hidden directory name where companion stores all
	// its data. This directory is created in the user's home directory.
	CompanionHome = ".companion"

	// TeamsDir is the directory name where team registries and mailboxes live.
	TeamsDir = "teams"

	// InboxesDir is the directory name, inside a team directory, that holds
	// one mailbox file per agent.
	InboxesDir = "inboxes"

	// TasksDir is the directory name where per-team task directories live.
	TasksDir = "tasks"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"
)

// Environment variables recognized by companion.
const (
	// EnvHome overrides the companion data home directory.
	EnvHome = "COMPANION_HOME"

	// EnvTeam carries the team name into a spawned agent process.
	EnvTeam = "COMPANION_TEAM"

	// EnvAgent carries the member name into a spawned agent process.
	EnvAgent = "COMPANION_AGENT"
)

// Mailbox lock configuration. The lock is the only cross-process
// mutual-exclusion mechanism; it is scoped per mailbox file.
const (
	// LockAcquireTimeout is how long a writer keeps retrying for the
	// mailbox lock before giving up with a lock timeout. The window must
	// ride out a burst of concurrent writers each doing a full
	// fsync-backed rewrite while holding the lock.
	LockAcquireTimeout = 5 * time.Second

	// LockRetryInterval is the wait between acquisition attempts.
	LockRetryInterval = 50 * time.Millisecond

	// LockStaleThreshold is the age after which a held lock file is presumed
	// abandoned by a dead or hung writer and may be reclaimed.
	LockStaleThreshold = 10 * time.Second
)

// Mailbox retention configuration.
const (
	// DefaultMailboxMaxEntries caps a mailbox file's length. On append, the
	// oldest already-read entries beyond the cap are discarded. Unread
	// entries are never discarded.
	DefaultMailboxMaxEntries = 500
)

// Polling and timeout defaults for blocking operations.
const (
	// DefaultInboxPollInterval is the background poller's scan interval.
	DefaultInboxPollInterval = 1 * time.Second

	// DefaultReceiveTimeout is the deadline for a blocking receive when the
	// caller does not set one.
	DefaultReceiveTimeout = 30 * time.Second

	// DefaultReceivePollInterval is the scan interval inside a blocking
	// receive loop.
	DefaultReceivePollInterval = 250 * time.Millisecond

	// DefaultTaskWaitTimeout is the deadline for waiting on a task status
	// transition when the caller does not set one.
	DefaultTaskWaitTimeout = 2 * time.Minute

	// DefaultTaskWaitPollInterval is the fetch interval inside a task status
	// wait loop. Task status changes are infrequent relative to this.
	DefaultTaskWaitPollInterval = 500 * time.Millisecond
)

// Process management defaults.
const (
	// ShutdownGracePeriod is how long an agent process is given to exit after
	// a termination signal before it is killed.
	ShutdownGracePeriod = 5 * time.Second
)

// Identity defaults.
const (
	// DefaultLeadName is the coordinator's inbox identity when none is
	// configured. All inbound agent traffic lands in this mailbox.
	DefaultLeadName = "lead"
)
