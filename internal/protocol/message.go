// Package protocol defines the structured messages that companion agents
// exchange through their mailboxes, and the classifier that turns raw
// mailbox payloads into them.
//
// A payload is any string. Payloads that parse as a JSON object with a
// "type" field are structured messages; everything else is plain text.
// Unknown type tags pass through unmodified so newer agents can introduce
// message kinds without breaking older readers.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Known message type tags.
const (
	// TypePlainText is the fallback classification for any payload that is
	// not a JSON object with a type tag.
	TypePlainText = "plain_text"

	// TypeTaskAssignment notifies an agent that a task was assigned to it.
	TypeTaskAssignment = "task_assignment"

	// TypeShutdownRequest asks an agent to finish up and confirm shutdown.
	TypeShutdownRequest = "shutdown_request"

	// TypeShutdownApproved is an agent's confirmation of a shutdown request.
	TypeShutdownApproved = "shutdown_approved"

	// TypeIdleNotification signals that an agent has gone idle.
	TypeIdleNotification = "idle_notification"

	// TypePlanApprovalRequest asks the coordinator to approve an agent's plan.
	TypePlanApprovalRequest = "plan_approval_request"

	// TypePlanApprovalResponse answers a plan approval request.
	TypePlanApprovalResponse = "plan_approval_response"

	// TypePermissionRequest asks the coordinator to approve a tool use.
	TypePermissionRequest = "permission_request"

	// TypePermissionResponse answers a permission request.
	TypePermissionResponse = "permission_response"
)

// Message is the classified form of a mailbox payload.
//
// For structured payloads, Fields holds the complete decoded object
// including the type tag, so unknown fields round-trip unchanged. For
// plain text, Fields is nil and Text carries the original payload.
type Message struct {
	// Type is the message's type tag, TypePlainText for unstructured payloads.
	Type string

	// Text is the conversational content: the whole payload for plain text,
	// or the "text" field of a structured message when present.
	Text string

	// Fields is the decoded payload object for structured messages, nil for
	// plain text.
	Fields map[string]any
}

// IsSignal reports whether the message conveys agent status rather than
// conversational content. Signal messages are never the payload a blocking
// receive is waiting for.
func (m Message) IsSignal() bool {
	return m.Type == TypeIdleNotification || m.Type == TypeShutdownApproved
}

// IsContent reports whether the message is conversational content, the
// complement of IsSignal.
func (m Message) IsContent() bool {
	return !m.IsSignal()
}

// TaskID returns the "taskId" field, or "" when absent.
func (m Message) TaskID() string {
	return m.stringField("taskId")
}

// RequestID returns the "requestId" field, or "" when absent.
func (m Message) RequestID() string {
	return m.stringField("requestId")
}

// Subject returns the "subject" field, or "" when absent.
func (m Message) Subject() string {
	return m.stringField("subject")
}

// Description returns the "description" field, or "" when absent.
func (m Message) Description() string {
	return m.stringField("description")
}

// Feedback returns the "feedback" field, or "" when absent.
func (m Message) Feedback() string {
	return m.stringField("feedback")
}

// Approved returns the "approved" field. The second return value is false
// when the field is absent or not a boolean.
func (m Message) Approved() (bool, bool) {
	v, ok := m.Fields["approved"].(bool)
	return v, ok
}

// stringField returns a string-typed field from the payload object.
func (m Message) stringField(key string) string {
	v, _ := m.Fields[key].(string)
	return v
}

// Encode renders the message as a mailbox payload string. Structured
// messages marshal their field object; plain text passes through raw,
// without an envelope.
func (m Message) Encode() (string, error) {
	if m.Fields == nil {
		return m.Text, nil
	}

	data, err := json.Marshal(m.Fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s message: %w", m.Type, err)
	}
	return string(data), nil
}
