package domain

import (
	"time"

	"github.com/codingwatching/companion/internal/constants"
)

// Team is the registry document for one agent team, persisted as config.json
// inside the team directory.
//
// Example JSON representation:
//
//	{
//	    "team_name": "alpha",
//	    "created_at": "2026-03-01T10:00:00Z",
//	    "lead": "lead",
//	    "members": [...]
//	}
type Team struct {
	// Name is the unique team key and directory name.
	Name string `json:"team_name"`

	// CreatedAt is when the team was registered.
	CreatedAt time.Time `json:"created_at"`

	// Lead is the name of the coordinating member. Exactly one lead exists
	// at creation time.
	Lead string `json:"lead"`

	// Members is the current roster. Member names are unique; adding a
	// duplicate name replaces the existing entry.
	Members []Member `json:"members"`
}

// Member is one agent on a team's roster. A member is owned by exactly one
// team and has no independent lifecycle.
//
// Example JSON representation:
//
//	{
//	    "name": "worker1",
//	    "agent_id": "worker1@alpha",
//	    "agent_type": "teammate",
//	    "joined_at": "2026-03-01T10:02:00Z",
//	    "pid": 43210,
//	    "cwd": "/home/user/project",
//	    "subscriptions": ["idle"]
//	}
type Member struct {
	// Name is the display name and mailbox identity within the team.
	Name string `json:"name"`

	// AgentID is the fully qualified identity, formatted name@team.
	AgentID string `json:"agent_id"`

	// AgentType classifies the member's role (lead or teammate).
	AgentType constants.AgentType `json:"agent_type"`

	// JoinedAt is when the member was added to the roster.
	JoinedAt time.Time `json:"joined_at"`

	// PID references the member's external process, when one is being
	// supervised. Zero means no process handle is recorded.
	PID int `json:"pid,omitempty"`

	// Cwd is the working directory the member's process runs in.
	Cwd string `json:"cwd,omitempty"`

	// Subscriptions lists event names the member asked to be notified about.
	Subscriptions []string `json:"subscriptions,omitempty"`
}

// FormatAgentID builds the fully qualified agent identity for a member name
// within a team.
func FormatAgentID(name, team string) string {
	return name + "@" + team
}

// Member returns the roster entry with the given name, or nil when the name
// is not on the roster.
func (t *Team) Member(name string) *Member {
	for i := range t.Members {
		if t.Members[i].Name == name {
			return &t.Members[i]
		}
	}
	return nil
}

// MemberNames returns the roster names in roster order.
func (t *Team) MemberNames() []string {
	names := make([]string, 0, len(t.Members))
	for i := range t.Members {
		names = append(names, t.Members[i].Name)
	}
	return names
}
