package protocol

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskAssignment(t *testing.T) {
	t.Parallel()

	msg := NewTaskAssignment("3", "Fix parser", "Handle empty input", "lead")

	assert.Equal(t, TypeTaskAssignment, msg.Type)
	assert.Equal(t, "3", msg.TaskID())
	assert.Equal(t, "Fix parser", msg.Subject())
	assert.Equal(t, "Handle empty input", msg.Description())
	assert.Equal(t, "lead", msg.Fields["assignedBy"])

	ts, ok := msg.Fields["timestamp"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)
}

func TestNewShutdownRequest_RequestIDEmbedsAgent(t *testing.T) {
	t.Parallel()

	msg := NewShutdownRequest("worker1")

	assert.Equal(t, TypeShutdownRequest, msg.Type)
	require.True(t, strings.HasPrefix(msg.RequestID(), "shutdown-worker1-"))

	suffix := strings.TrimPrefix(msg.RequestID(), "shutdown-worker1-")
	assert.Len(t, suffix, 8)
}

func TestNewShutdownRequest_UniqueRequestIDs(t *testing.T) {
	t.Parallel()

	a := NewShutdownRequest("worker1")
	b := NewShutdownRequest("worker1")
	assert.NotEqual(t, a.RequestID(), b.RequestID())
}

func TestNewShutdownApproved(t *testing.T) {
	t.Parallel()

	msg := NewShutdownApproved("shutdown-worker1-ab12cd34")

	assert.Equal(t, TypeShutdownApproved, msg.Type)
	assert.Equal(t, "shutdown-worker1-ab12cd34", msg.RequestID())
	assert.True(t, msg.IsSignal())
}

func TestNewIdleNotification(t *testing.T) {
	t.Parallel()

	msg := NewIdleNotification()

	assert.Equal(t, TypeIdleNotification, msg.Type)
	assert.True(t, msg.IsSignal())
}

func TestNewPlanApprovalResponse(t *testing.T) {
	t.Parallel()

	msg := NewPlanApprovalResponse("req-1", true, "looks good")

	assert.Equal(t, TypePlanApprovalResponse, msg.Type)
	assert.Equal(t, "req-1", msg.RequestID())
	assert.Equal(t, "looks good", msg.Feedback())

	approved, ok := msg.Approved()
	require.True(t, ok)
	assert.True(t, approved)
}

func TestNewPlanApprovalResponse_OmitsEmptyFeedback(t *testing.T) {
	t.Parallel()

	msg := NewPlanApprovalResponse("req-1", false, "")

	_, present := msg.Fields["feedback"]
	assert.False(t, present)

	approved, ok := msg.Approved()
	require.True(t, ok)
	assert.False(t, approved)
}

func TestNewPermissionResponse(t *testing.T) {
	t.Parallel()

	msg := NewPermissionResponse("perm-9", true)

	assert.Equal(t, TypePermissionResponse, msg.Type)
	assert.Equal(t, "perm-9", msg.RequestID())

	approved, ok := msg.Approved()
	require.True(t, ok)
	assert.True(t, approved)
}

func TestOutbound_EncodeProducesClassifiablePayloads(t *testing.T) {
	t.Parallel()

	messages := []Message{
		NewTaskAssignment("1", "s", "d", "lead"),
		NewShutdownRequest("dev"),
		NewShutdownApproved("shutdown-dev-12345678"),
		NewIdleNotification(),
		NewPlanApprovalResponse("r", true, "f"),
		NewPermissionResponse("r", false),
	}

	for _, msg := range messages {
		payload, err := msg.Encode()
		require.NoError(t, err)

		parsed := Classify(payload)
		assert.Equal(t, msg.Type, parsed.Type)
	}
}
