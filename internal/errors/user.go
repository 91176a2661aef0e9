package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries is the pre-built mapping of sentinel errors to their user-facing messages.
// This single source of truth ensures UserMessage and Actionable stay in sync.
// Using a slice (not a map) because errors.Is() requires proper error chain traversal.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Registry & Tasks
	// ===================
	{
		err: ErrTeamNotFound,
		info: ErrorInfo{
			Message: "The specified team does not exist.",
			Action:  "Check available teams with 'companion team list' or create one with 'companion team create'.",
		},
	},
	{
		err: ErrTeamExists,
		info: ErrorInfo{
			Message: "A team with this name already exists.",
			Action:  "Choose a different name or remove the existing team first.",
		},
	},
	{
		err: ErrMemberNotFound,
		info: ErrorInfo{
			Message: "The specified agent is not a member of this team.",
			Action:  "Check the roster with 'companion team show <team>'.",
		},
	},
	{
		err: ErrTaskNotFound,
		info: ErrorInfo{
			Message: "The specified task does not exist.",
			Action:  "Check task ids with 'companion task list <team>'.",
		},
	},

	// ===================
	// Locking & Waiting
	// ===================
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "Could not acquire the mailbox lock. Another writer may be stuck.",
			Action:  "Retry the operation. Stale locks older than the staleness threshold are reclaimed automatically.",
		},
	},
	{
		err: ErrReceiveTimeout,
		info: ErrorInfo{
			Message: "No reply arrived before the receive deadline.",
			Action:  "The agent may still be working. Retry with a longer --timeout.",
		},
	},
	{
		err: ErrWaitTimeout,
		info: ErrorInfo{
			Message: "The task did not reach the expected status before the deadline.",
			Action:  "Inspect the task with 'companion task show' and retry with a longer timeout.",
		},
	},

	// ===================
	// Processes
	// ===================
	{
		err: ErrProcess,
		info: ErrorInfo{
			Message: "The agent process could not be spawned, inspected, or terminated.",
			Action:  "Run 'companion doctor' to verify the agent CLI installation.",
		},
	},
	{
		err: ErrNotInitialized,
		info: ErrorInfo{
			Message: "The coordinator has not completed setup.",
			Action:  "Call Start before sending, receiving, or managing tasks.",
		},
	},

	// ===================
	// Corruption
	// ===================
	{
		err: ErrMailboxCorrupted,
		info: ErrorInfo{
			Message: "A mailbox file on disk is not a valid JSON entry array.",
			Action:  "Inspect the file under the team's inboxes directory and repair or remove it.",
		},
	},
	{
		err: ErrTaskCorrupted,
		info: ErrorInfo{
			Message: "A task file on disk is not a valid JSON task document.",
			Action:  "Inspect the file under the team's task directory and repair or remove it.",
		},
	},
	{
		err: ErrTeamCorrupted,
		info: ErrorInfo{
			Message: "The team config file on disk is not a valid JSON team document.",
			Action:  "Inspect config.json under the team directory and repair or remove it.",
		},
	},

	// ===================
	// Validation & CLI
	// ===================
	{
		err: ErrInvalidName,
		info: ErrorInfo{
			Message: "Names may only contain letters, digits, hyphens, and underscores.",
			Action:  "Rename the team, agent, or task id to use allowed characters.",
		},
	},
	{
		err: ErrEmptyValue,
		info: ErrorInfo{
			Message: "A required value was empty.",
			Action:  "Provide a non-empty value and retry.",
		},
	},
	{
		err: ErrValueOutOfRange,
		info: ErrorInfo{
			Message: "A configuration value is outside its valid range.",
			Action:  "Check config.yaml against 'companion init' defaults.",
		},
	},
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "The requested output format is not supported.",
			Action:  "Use --output text or --output json.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
// Built once from errorInfoEntries during package initialization.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

// buildErrorInfoMap creates a map from the errorInfoEntries slice.
// This is called once during package init for O(1) direct lookups.
func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// It first tries O(1) direct map lookup for unwrapped sentinel errors,
// then falls back to errors.Is() traversal for wrapped errors.
// Returns an ErrorInfo with the original error message if not found.
func getErrorInfo(err error) ErrorInfo {
	// Fast path: O(1) lookup for direct sentinel errors
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	// Slow path: errors.Is() for wrapped errors
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// This function maps sentinel errors to helpful, actionable messages
// that are suitable for display to end users.
//
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve or work around the issue.
//
// For errors that are not recoverable or have no clear action, the action
// string will be empty.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
