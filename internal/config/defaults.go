package config

import (
	"github.com/codingwatching/companion/internal/constants"
)

// DefaultConfig returns a Config populated with companion's built-in defaults.
// These are the values used when no config file or environment variables
// override them.
func DefaultConfig() *Config {
	return &Config{
		Mailbox: MailboxConfig{
			MaxEntries: constants.DefaultMailboxMaxEntries,
		},
		Coordinator: CoordinatorConfig{
			PollInterval:        constants.DefaultInboxPollInterval,
			ReceiveTimeout:      constants.DefaultReceiveTimeout,
			ReceivePollInterval: constants.DefaultReceivePollInterval,
		},
		Logging: LoggingConfig{
			Level: constants.DefaultLogLevel,
		},
	}
}
