package config

import (
	"github.com/codingwatching/companion/internal/errors"
)

// validLogLevels are the accepted values for logging.level. The empty string
// is allowed and means the default level.
var validLogLevels = map[string]bool{
	"":      true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - Mailbox max entries must be at least 1
//   - Coordinator poll interval must be positive
//   - Coordinator receive timeout must be positive
//   - Coordinator receive poll interval must be positive
//   - Logging level must be one of debug, info, warn, error (or empty)
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateMailboxConfig(&cfg.Mailbox); err != nil {
		return err
	}

	if err := validateCoordinatorConfig(&cfg.Coordinator); err != nil {
		return err
	}

	if err := validateLoggingConfig(&cfg.Logging); err != nil {
		return err
	}

	return nil
}

// validateMailboxConfig checks mailbox-specific configuration values.
func validateMailboxConfig(cfg *MailboxConfig) error {
	if cfg.MaxEntries < 1 {
		return errors.Wrapf(errors.ErrValueOutOfRange,
			"mailbox.max_entries must be at least 1, got %d", cfg.MaxEntries)
	}

	return nil
}

// validateCoordinatorConfig checks coordinator-specific configuration values.
func validateCoordinatorConfig(cfg *CoordinatorConfig) error {
	if cfg.PollInterval <= 0 {
		return errors.Wrapf(errors.ErrValueOutOfRange,
			"coordinator.poll_interval must be positive, got %s", cfg.PollInterval)
	}

	if cfg.ReceiveTimeout <= 0 {
		return errors.Wrapf(errors.ErrValueOutOfRange,
			"coordinator.receive_timeout must be positive, got %s", cfg.ReceiveTimeout)
	}

	if cfg.ReceivePollInterval <= 0 {
		return errors.Wrapf(errors.ErrValueOutOfRange,
			"coordinator.receive_poll_interval must be positive, got %s", cfg.ReceivePollInterval)
	}

	return nil
}

// validateLoggingConfig checks logging-specific configuration values.
func validateLoggingConfig(cfg *LoggingConfig) error {
	if !validLogLevels[cfg.Level] {
		return errors.Wrapf(errors.ErrValueOutOfRange,
			"logging.level must be one of debug, info, warn, error, got %q", cfg.Level)
	}

	return nil
}
