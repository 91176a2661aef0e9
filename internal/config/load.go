package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/codingwatching/companion/internal/constants"
	"github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/paths"
)

// newViperInstance creates a new Viper instance with standard companion
// configuration. This includes environment variable prefix (COMPANION_),
// key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("COMPANION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not
// found error. This helps consolidate the common pattern of checking for
// missing config files.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config struct and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (COMPANION_* prefix)
//  2. Global config (<data home>/config.yaml)
//  3. Built-in defaults
//
// The function returns an error only for actual configuration problems,
// not for a missing config file (which is expected before `companion init`
// has run).
//
// The context parameter carries the logger; config file reads are fast local
// I/O and are not cancelable.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Int("mailbox.max_entries", cfg.Mailbox.MaxEntries).
		Dur("coordinator.poll_interval", cfg.Coordinator.PollInterval).
		Dur("coordinator.receive_timeout", cfg.Coordinator.ReceiveTimeout).
		Msg("configuration loaded and unmarshaled")

	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &cfg, nil
}

// loadGlobalConfig attempts to load the global config file
// (<data home>/config.yaml). Returns nil if the file doesn't exist or the
// data home cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, ok := globalConfigPathIfExists()
	if !ok {
		// Global config doesn't exist or home dir unavailable, skip silently
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// globalConfigPathIfExists returns the global config path if it exists.
// Returns empty string and false if the data home cannot be determined or
// the config file does not exist.
func globalConfigPathIfExists() (string, bool) {
	home, err := paths.Home()
	if err != nil {
		return "", false
	}

	globalConfigPath := filepath.Join(home, constants.GlobalConfigName)
	if _, err := os.Stat(globalConfigPath); err != nil {
		return "", false
	}

	return globalConfigPath, true
}

// LoadFrom loads configuration from a specific file path for testing.
// The path can be empty to load defaults and environment variables only.
func LoadFrom(_ context.Context, configPath string) (*Config, error) {
	v := newViperInstance()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read config: %s", configPath)
		}
	}

	return unmarshalAndValidate(v)
}

// setDefaults configures all default values on the Viper instance.
// These defaults match the values from DefaultConfig().
// IMPORTANT: Keys must match the YAML tag names exactly for proper mapping.
func setDefaults(v *viper.Viper) {
	// Mailbox defaults
	v.SetDefault("mailbox.max_entries", constants.DefaultMailboxMaxEntries)

	// Coordinator defaults
	v.SetDefault("coordinator.poll_interval", constants.DefaultInboxPollInterval.String())
	v.SetDefault("coordinator.receive_timeout", constants.DefaultReceiveTimeout.String())
	v.SetDefault("coordinator.receive_poll_interval", constants.DefaultReceivePollInterval.String())

	// Logging defaults
	v.SetDefault("logging.level", constants.DefaultLogLevel)
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// This configures mapstructure to handle time.Duration conversion from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
