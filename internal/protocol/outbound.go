package protocol

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewTaskAssignment builds the message that notifies an agent it now owns
// a task.
func NewTaskAssignment(taskID, subject, description, assignedBy string) Message {
	return Message{
		Type: TypeTaskAssignment,
		Fields: map[string]any{
			"type":        TypeTaskAssignment,
			"taskId":      taskID,
			"subject":     subject,
			"description": description,
			"assignedBy":  assignedBy,
			"timestamp":   timestamp(),
		},
	}
}

// NewShutdownRequest builds a shutdown request for the named agent. The
// request id embeds the agent name so the matching shutdown_approved reply
// can be correlated later.
func NewShutdownRequest(agent string) Message {
	requestID := fmt.Sprintf("shutdown-%s-%s", agent, uuid.New().String()[:8])
	return Message{
		Type: TypeShutdownRequest,
		Fields: map[string]any{
			"type":      TypeShutdownRequest,
			"requestId": requestID,
			"timestamp": timestamp(),
		},
	}
}

// NewShutdownApproved builds an agent's confirmation of a shutdown request.
func NewShutdownApproved(requestID string) Message {
	return Message{
		Type: TypeShutdownApproved,
		Fields: map[string]any{
			"type":      TypeShutdownApproved,
			"requestId": requestID,
			"timestamp": timestamp(),
		},
	}
}

// NewIdleNotification builds the signal an agent sends when it goes idle.
func NewIdleNotification() Message {
	return Message{
		Type: TypeIdleNotification,
		Fields: map[string]any{
			"type":      TypeIdleNotification,
			"timestamp": timestamp(),
		},
	}
}

// NewPlanApprovalResponse builds the answer to a plan approval request,
// echoing its request id. Feedback is omitted when empty.
func NewPlanApprovalResponse(requestID string, approved bool, feedback string) Message {
	fields := map[string]any{
		"type":      TypePlanApprovalResponse,
		"requestId": requestID,
		"approved":  approved,
		"timestamp": timestamp(),
	}
	if feedback != "" {
		fields["feedback"] = feedback
	}
	return Message{
		Type:   TypePlanApprovalResponse,
		Fields: fields,
	}
}

// NewPermissionResponse builds the answer to a permission request, echoing
// its request id.
func NewPermissionResponse(requestID string, approved bool) Message {
	return Message{
		Type: TypePermissionResponse,
		Fields: map[string]any{
			"type":      TypePermissionResponse,
			"requestId": requestID,
			"approved":  approved,
			"timestamp": timestamp(),
		},
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
