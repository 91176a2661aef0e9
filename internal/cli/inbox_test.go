package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codingwatching/companion/internal/constants"
	"github.com/codingwatching/companion/internal/domain"
	"github.com/codingwatching/companion/internal/mailbox"
	"github.com/codingwatching/companion/internal/paths"
	"github.com/codingwatching/companion/internal/protocol"
)

// seedInbox writes entries into an agent's mailbox through the real store.
func seedInbox(ctx context.Context, t *testing.T, teamName, agent string, texts ...string) {
	t.Helper()

	res, err := paths.NewResolver("")
	require.NoError(t, err)
	boxes := mailbox.NewFileStore(res)

	for _, text := range texts {
		require.NoError(t, boxes.Write(ctx, teamName, agent, &domain.MailboxEntry{
			From:      "lead",
			Text:      text,
			Timestamp: time.Now().UTC(),
		}))
	}
}

func TestInbox_PeekKeepsUnread(t *testing.T) {
	testHome(t)
	ctx := context.Background()
	seedTeam(ctx, t, "payments", "lead", "worker")
	seedInbox(ctx, t, "payments", "worker", "first", "second")

	var buf bytes.Buffer
	require.NoError(t, runInbox(ctx, testCommand(t, OutputText), &buf, inboxFlags{
		team:  "payments",
		agent: "worker",
	}))

	output := buf.String()
	assert.Contains(t, output, "Inbox for worker@payments: 2 message(s), 2 unread")
	assert.Contains(t, output, "first")
	assert.Contains(t, output, "second")

	// Peeking must not consume anything.
	res, err := paths.NewResolver("")
	require.NoError(t, err)
	count, err := mailbox.NewFileStore(res).UnreadCount(ctx, "payments", "worker")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInbox_DrainMarksRead(t *testing.T) {
	testHome(t)
	ctx := context.Background()
	seedTeam(ctx, t, "payments", "lead", "worker")
	seedInbox(ctx, t, "payments", "worker", "first", "second")

	var buf bytes.Buffer
	require.NoError(t, runInbox(ctx, testCommand(t, OutputText), &buf, inboxFlags{
		team:  "payments",
		agent: "worker",
		drain: true,
	}))
	assert.Contains(t, buf.String(), "Drained 2 message(s) for worker@payments")

	res, err := paths.NewResolver("")
	require.NoError(t, err)
	count, err := mailbox.NewFileStore(res).UnreadCount(ctx, "payments", "worker")
	require.NoError(t, err)
	assert.Zero(t, count)

	// A second drain finds nothing.
	buf.Reset()
	require.NoError(t, runInbox(ctx, testCommand(t, OutputText), &buf, inboxFlags{
		team:  "payments",
		agent: "worker",
		drain: true,
	}))
	assert.Contains(t, buf.String(), "No unread messages.")
}

func TestInbox_EmptyMailbox(t *testing.T) {
	testHome(t)
	ctx := context.Background()
	seedTeam(ctx, t, "payments", "lead")

	var buf bytes.Buffer
	require.NoError(t, runInbox(ctx, testCommand(t, OutputText), &buf, inboxFlags{team: "payments"}))
	assert.Contains(t, buf.String(), "Inbox is empty.")

	buf.Reset()
	require.NoError(t, runInbox(ctx, testCommand(t, OutputJSON), &buf, inboxFlags{team: "payments"}))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()), "empty mailbox must render as an empty JSON array")
}

func TestInbox_JSONRoundTrip(t *testing.T) {
	testHome(t)
	ctx := context.Background()
	seedTeam(ctx, t, "payments", "lead", "worker")
	seedInbox(ctx, t, "payments", "worker", "ping")

	var buf bytes.Buffer
	require.NoError(t, runInbox(ctx, testCommand(t, OutputJSON), &buf, inboxFlags{
		team:  "payments",
		agent: "worker",
	}))

	var entries []domain.MailboxEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "ping", entries[0].Text)
	assert.False(t, entries[0].Read)
}

func TestInbox_DefaultsToLead(t *testing.T) {
	testHome(t)
	ctx := context.Background()
	seedTeam(ctx, t, "payments", "lead")
	seedInbox(ctx, t, "payments", constants.DefaultLeadName, "for the lead")

	var buf bytes.Buffer
	require.NoError(t, runInbox(ctx, testCommand(t, OutputText), &buf, inboxFlags{team: "payments"}))
	assert.Contains(t, buf.String(), "Inbox for lead@payments")
	assert.Contains(t, buf.String(), "for the lead")
}

func TestEntryDisplayText(t *testing.T) {
	t.Parallel()

	assignment, err := protocol.NewTaskAssignment("3", "Fix login", "", "lead").Encode()
	require.NoError(t, err)

	tests := []struct {
		name     string
		entry    domain.MailboxEntry
		expected string
	}{
		{
			name:     "summary wins",
			entry:    domain.MailboxEntry{Text: "long body", Summary: "short form"},
			expected: "short form",
		},
		{
			name:     "plain text passes through",
			entry:    domain.MailboxEntry{Text: "just words"},
			expected: "just words",
		},
		{
			name:     "structured message is tagged",
			entry:    domain.MailboxEntry{Text: assignment},
			expected: "[task_assignment]",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Contains(t, entryDisplayText(&tc.entry), tc.expected)
		})
	}
}
