// Package domain provides shared domain types for the companion coordination layer.
// These types are used across all internal packages to ensure consistent data structures.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// Registry documents (team config) use snake_case JSON field names; task
// documents use camelCase, matching the on-disk conventions of the agent
// runtime that reads them.
package domain

import (
	"strconv"

	"github.com/codingwatching/companion/internal/constants"
)

// Task represents a single unit of work on a team's task board.
// Tasks carry symmetric blocking relations maintained by the task store:
// if A lists B in Blocks, B lists A in BlockedBy.
//
// Example JSON representation:
//
//	{
//	    "id": "3",
//	    "subject": "Wire the auth middleware",
//	    "description": "Use the session store from task 1",
//	    "activeForm": "Wiring the auth middleware",
//	    "owner": "worker1",
//	    "status": "in_progress",
//	    "blocks": ["5"],
//	    "blockedBy": ["1"],
//	    "metadata": {"priority": "high"}
//	}
type Task struct {
	// ID is the task identifier: the string form of a positive integer,
	// assigned by the task store and unique within a team.
	ID string `json:"id"`

	// Subject is a short human-readable summary of the work.
	Subject string `json:"subject"`

	// Description holds the full work description handed to the owner.
	Description string `json:"description,omitempty"`

	// ActiveForm is an optional progress label shown while the task is being
	// worked ("Fixing the parser" rather than "Fix the parser").
	ActiveForm string `json:"activeForm,omitempty"`

	// Owner is the name of the agent currently responsible, if any.
	Owner string `json:"owner,omitempty"`

	// Status is the lifecycle state. Built-in values are pending,
	// in_progress, and completed; teams may persist their own strings.
	Status constants.TaskStatus `json:"status"`

	// Blocks lists ids of tasks that cannot proceed until this one is done.
	Blocks []string `json:"blocks"`

	// BlockedBy lists ids of tasks that must complete before this one.
	BlockedBy []string `json:"blockedBy"`

	// Metadata stores arbitrary key-value data associated with the task.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NumericID returns the task id as an integer. The second return is false
// when the id is not a positive integer, which only happens for files not
// written by the task store.
func (t *Task) NumericID() (int, bool) {
	n, err := strconv.Atoi(t.ID)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// IsBlocked reports whether any task still blocks this one.
func (t *Task) IsBlocked() bool {
	return len(t.BlockedBy) > 0
}
