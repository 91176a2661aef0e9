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

	"github.com/codingwatching/companion/internal/domain"
	"github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/mailbox"
	"github.com/codingwatching/companion/internal/paths"
	"github.com/codingwatching/companion/internal/team"
)

func TestTeamCreate_RegistersTeamWithLead(t *testing.T) {
	testHome(t)
	ctx := context.Background()

	var buf bytes.Buffer
	err := runTeamCreate(ctx, testCommand(t, OutputText), &buf, "payments", "architect")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Team 'payments' created with lead 'architect'")
	assert.Contains(t, buf.String(), "Registry:")

	res, err := paths.NewResolver("")
	require.NoError(t, err)
	stored, err := team.NewFileStore(res).Get(ctx, "payments")
	require.NoError(t, err)
	assert.Equal(t, "architect", stored.Lead)
	require.Len(t, stored.Members, 1)
	assert.Equal(t, "architect", stored.Members[0].Name)
	assert.Equal(t, "architect@payments", stored.Members[0].AgentID)
}

func TestTeamCreate_JSONOutput(t *testing.T) {
	testHome(t)
	ctx := context.Background()

	var buf bytes.Buffer
	err := runTeamCreate(ctx, testCommand(t, OutputJSON), &buf, "payments", "lead")
	require.NoError(t, err)

	var result teamCreateResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "created", result.Status)
	assert.Equal(t, "payments", result.Team)
	assert.Equal(t, "lead", result.Lead)
	assert.Contains(t, result.Config, "payments")
}

func TestTeamCreate_DuplicateFails(t *testing.T) {
	testHome(t)
	ctx := context.Background()
	seedTeam(ctx, t, "payments", "lead")

	var buf bytes.Buffer
	err := runTeamCreate(ctx, testCommand(t, OutputText), &buf, "payments", "lead")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTeamExists)
}

func TestTeamCreate_InvalidName(t *testing.T) {
	testHome(t)
	ctx := context.Background()

	var buf bytes.Buffer
	err := runTeamCreate(ctx, testCommand(t, OutputText), &buf, "bad/name", "lead")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidName)
}

func TestTeamList_Empty(t *testing.T) {
	testHome(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, runTeamList(ctx, testCommand(t, OutputText), &buf))
	assert.Contains(t, buf.String(), "No teams")
	assert.Contains(t, buf.String(), "companion team create")

	buf.Reset()
	require.NoError(t, runTeamList(ctx, testCommand(t, OutputJSON), &buf))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()), "empty list must render as an empty JSON array")
}

func TestTeamList_RendersTable(t *testing.T) {
	testHome(t)
	ctx := context.Background()
	seedTeam(ctx, t, "alpha", "lead")
	seedTeam(ctx, t, "beta", "chief", "worker")

	var buf bytes.Buffer
	require.NoError(t, runTeamList(ctx, testCommand(t, OutputText), &buf))

	output := buf.String()
	assert.Contains(t, output, "NAME")
	assert.Contains(t, output, "LEAD")
	assert.Contains(t, output, "alpha")
	assert.Contains(t, output, "beta")
	assert.Contains(t, output, "chief")
}

func TestTeamList_JSONOutput(t *testing.T) {
	testHome(t)
	ctx := context.Background()
	seedTeam(ctx, t, "alpha", "lead")

	var buf bytes.Buffer
	require.NoError(t, runTeamList(ctx, testCommand(t, OutputJSON), &buf))

	var teams []*domain.Team
	require.NoError(t, json.Unmarshal(buf.Bytes(), &teams))
	require.Len(t, teams, 1)
	assert.Equal(t, "alpha", teams[0].Name)
}

func TestTeamShow_ReportsUnreadCounts(t *testing.T) {
	testHome(t)
	ctx := context.Background()
	seedTeam(ctx, t, "alpha", "lead", "worker")

	res, err := paths.NewResolver("")
	require.NoError(t, err)
	boxes := mailbox.NewFileStore(res)
	require.NoError(t, boxes.Write(ctx, "alpha", "worker", &domain.MailboxEntry{
		From:      "lead",
		Text:      "standup in five",
		Timestamp: time.Now().UTC(),
	}))

	var buf bytes.Buffer
	require.NoError(t, runTeamShow(ctx, testCommand(t, OutputJSON), &buf, "alpha"))

	var result teamShowResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	require.NotNil(t, result.Team)
	assert.Equal(t, "alpha", result.Team.Name)
	assert.Equal(t, 0, result.Unread["lead"])
	assert.Equal(t, 1, result.Unread["worker"])
}

func TestTeamShow_TextOutput(t *testing.T) {
	testHome(t)
	ctx := context.Background()
	seedTeam(ctx, t, "alpha", "lead", "worker")

	var buf bytes.Buffer
	require.NoError(t, runTeamShow(ctx, testCommand(t, OutputText), &buf, "alpha"))

	output := buf.String()
	assert.Contains(t, output, "Team:    alpha")
	assert.Contains(t, output, "Lead:    lead")
	assert.Contains(t, output, "worker")
}

func TestTeamShow_NotFound(t *testing.T) {
	testHome(t)
	ctx := context.Background()

	var buf bytes.Buffer
	err := runTeamShow(ctx, testCommand(t, OutputText), &buf, "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTeamNotFound)
}

func TestTeamRemove_Force(t *testing.T) {
	testHome(t)
	ctx := context.Background()
	seedTeam(ctx, t, "alpha", "lead")

	var buf bytes.Buffer
	require.NoError(t, runTeamRemove(ctx, testCommand(t, OutputJSON), &buf, "alpha", true))

	var result teamRemoveResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "removed", result.Status)

	res, err := paths.NewResolver("")
	require.NoError(t, err)
	exists, err := team.NewFileStore(res).Exists(ctx, "alpha")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTeamRemove_AbsentIsIdempotent(t *testing.T) {
	testHome(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, runTeamRemove(ctx, testCommand(t, OutputJSON), &buf, "ghost", true))

	var result teamRemoveResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "absent", result.Status)

	buf.Reset()
	require.NoError(t, runTeamRemove(ctx, testCommand(t, OutputText), &buf, "ghost", true))
	assert.Contains(t, buf.String(), "not registered")
}

func TestTeamRemove_NonInteractiveWithoutForce(t *testing.T) {
	testHome(t)
	ctx := context.Background()
	seedTeam(ctx, t, "alpha", "lead")

	cleanup := mockTerminalCheckFunc(false)
	defer cleanup()

	var buf bytes.Buffer
	err := runTeamRemove(ctx, testCommand(t, OutputText), &buf, "alpha", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNonInteractive)

	// The declined removal must leave the team intact.
	res, resErr := paths.NewResolver("")
	require.NoError(t, resErr)
	exists, existsErr := team.NewFileStore(res).Exists(ctx, "alpha")
	require.NoError(t, existsErr)
	assert.True(t, exists)
}

func TestTeamRemove_CanceledContext(t *testing.T) {
	testHome(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := runTeamRemove(ctx, testCommand(t, OutputText), &buf, "alpha", true)
	require.ErrorIs(t, err, context.Canceled)
}
