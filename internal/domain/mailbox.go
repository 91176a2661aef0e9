package domain

import "time"

// MailboxEntry is one element of an agent's ordered mailbox file. Entries are
// append-only; the read flag is the only field ever mutated in place, and it
// transitions false to true exactly once.
//
// Example JSON representation:
//
//	{
//	    "from": "worker1",
//	    "text": "{\"type\":\"idle_notification\",\"timestamp\":\"...\"}",
//	    "timestamp": "2026-03-01T10:04:00Z",
//	    "read": false,
//	    "summary": "worker1 went idle",
//	    "color": "cyan"
//	}
type MailboxEntry struct {
	// From is the sender's member name.
	From string `json:"from"`

	// Text is the opaque payload. Protocol messages are JSON documents
	// embedded here; anything else is treated as plain text.
	Text string `json:"text"`

	// Timestamp is when the entry was appended.
	Timestamp time.Time `json:"timestamp"`

	// Read reports whether the entry has been consumed by DrainUnread.
	Read bool `json:"read"`

	// Summary is an optional human-readable one-liner for display surfaces.
	Summary string `json:"summary,omitempty"`

	// Color is an optional display hint for terminal surfaces.
	Color string `json:"color,omitempty"`
}
