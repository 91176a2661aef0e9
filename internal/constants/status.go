package constants

// TaskStatus represents the state of a task on the team's task board.
// Status values use snake_case for JSON serialization compatibility.
//
// The three built-in statuses cover the common lifecycle:
//
//	Pending → InProgress → Completed
//
// Teams may persist additional, team-defined status strings; the store treats
// status as an open set and never rejects unknown values.
type TaskStatus string

// Task status constants define the built-in states a task can be in.
const (
	// TaskStatusPending indicates a task is created but not yet started.
	TaskStatusPending TaskStatus = "pending"

	// TaskStatusInProgress indicates an agent is actively working the task.
	TaskStatusInProgress TaskStatus = "in_progress"

	// TaskStatusCompleted indicates the task finished.
	TaskStatusCompleted TaskStatus = "completed"
)

// String returns the string representation of the TaskStatus.
// This implements fmt.Stringer for convenient logging and debugging.
func (s TaskStatus) String() string {
	return string(s)
}

// IsBuiltin reports whether the status is one of the built-in lifecycle
// states rather than a team-defined extension.
func (s TaskStatus) IsBuiltin() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// AgentType classifies a team member's role.
type AgentType string

// Agent type constants define the built-in member roles.
const (
	// AgentTypeLead is the coordinating member. Exactly one exists per team
	// at creation time; all inbound traffic lands in its mailbox.
	AgentTypeLead AgentType = "lead"

	// AgentTypeTeammate is a worker member supervised by the lead.
	AgentTypeTeammate AgentType = "teammate"
)

// String returns the string representation of the AgentType.
func (t AgentType) String() string {
	return string(t)
}
