package constants

// Log file names and patterns.
const (
	// CLILogFileName is the name of the global CLI log file.
	// This file is located in ~/.companion/logs/companion.log
	CLILogFileName = "companion.log"
)

// Log rotation settings for the global CLI log file.
const (
	// LogMaxSizeMB is the maximum size in megabytes before rotation.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files to retain.
	LogMaxBackups = 3

	// LogMaxAgeDays is the maximum age in days of retained log files.
	LogMaxAgeDays = 30

	// LogCompress controls whether rotated log files are compressed.
	LogCompress = true

	// DefaultLogLevel is the log file level when none is configured.
	DefaultLogLevel = "info"
)

// Configuration file names.
const (
	// GlobalConfigName is the name of the global companion configuration file.
	// This file is located in the companion home directory.
	GlobalConfigName = "config.yaml"
)
