// Package config provides configuration management for companion with layered
// precedence.
//
// Configuration sources are loaded in the following order (highest precedence
// first):
//  1. Environment variables (COMPANION_* prefix)
//  2. Global config (<data home>/config.yaml)
//  3. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants, internal/errors, and
// internal/paths, but MUST NOT import internal/domain or other internal
// packages.
package config

import "time"

// Config is the root configuration structure for companion.
// It contains all configuration sections for the application.
type Config struct {
	// Mailbox contains settings for on-disk mailbox files.
	Mailbox MailboxConfig `yaml:"mailbox" mapstructure:"mailbox"`

	// Coordinator contains settings for the coordinator's blocking waits.
	Coordinator CoordinatorConfig `yaml:"coordinator" mapstructure:"coordinator"`

	// Logging contains settings for the CLI log file.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// MailboxConfig contains settings for on-disk mailbox files.
type MailboxConfig struct {
	// MaxEntries caps how many entries a mailbox file retains. On append,
	// the oldest already-read entries beyond the cap are discarded; unread
	// entries are never discarded.
	// Default: 500, Valid range: >= 1
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
}

// CoordinatorConfig contains settings for the coordinator's polling loops.
// These settings control how often mailboxes are scanned and how long
// blocking receives wait before giving up.
type CoordinatorConfig struct {
	// PollInterval is how often the background inbox poller scans the
	// coordinator's own mailbox.
	// Default: 1 second
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// ReceiveTimeout is the default deadline for a blocking receive when the
	// caller does not supply one.
	// Default: 30 seconds
	ReceiveTimeout time.Duration `yaml:"receive_timeout" mapstructure:"receive_timeout"`

	// ReceivePollInterval is how often a blocking receive rescans the mailbox
	// while waiting.
	// Default: 250 milliseconds
	ReceivePollInterval time.Duration `yaml:"receive_poll_interval" mapstructure:"receive_poll_interval"`
}

// LoggingConfig contains settings for the CLI log file.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error")
	// when neither --verbose nor --quiet is set. The flags take precedence.
	// Default: "info"
	Level string `yaml:"level" mapstructure:"level"`
}
