package cli

// This file contains test utilities for exercising CLI run functions
// against a throwaway data home. These helpers are only available in
// test files (*_test.go).

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/codingwatching/companion/internal/constants"
	"github.com/codingwatching/companion/internal/domain"
	"github.com/codingwatching/companion/internal/paths"
	"github.com/codingwatching/companion/internal/team"
)

// testHome points COMPANION_HOME at a fresh temp dir so commands never
// touch the real data home. Identity env vars are cleared too so host
// settings cannot leak into resolution tests.
func testHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv(constants.EnvHome, home)
	t.Setenv(constants.EnvTeam, "")
	t.Setenv(constants.EnvAgent, "")
	return home
}

// testCommand builds a throwaway command carrying the global flags so run
// functions can look up --output and --quiet.
func testCommand(t *testing.T, output string) *cobra.Command {
	t.Helper()

	flags := &GlobalFlags{}
	cmd := &cobra.Command{Use: "companion"}
	AddGlobalFlags(cmd, flags)
	require.NoError(t, cmd.PersistentFlags().Set("output", output))
	return cmd
}

// seedTeam registers a team with a lead and optional extra members through
// the real store.
func seedTeam(ctx context.Context, t *testing.T, name, lead string, members ...string) {
	t.Helper()

	res, err := paths.NewResolver("")
	require.NoError(t, err)
	store := team.NewFileStore(res)

	now := time.Now().UTC()
	require.NoError(t, store.Create(ctx, &domain.Team{
		Name:      name,
		Lead:      lead,
		CreatedAt: now,
		Members: []domain.Member{
			{
				Name:      lead,
				AgentID:   domain.FormatAgentID(lead, name),
				AgentType: constants.AgentTypeLead,
				JoinedAt:  now,
			},
		},
	}))

	for _, member := range members {
		require.NoError(t, store.AddMember(ctx, name, domain.Member{Name: member}))
	}
}

// mockTerminalCheckFunc returns a cleanup function that restores the
// original terminal detection after the test overrode it.
func mockTerminalCheckFunc(isTerminal bool) func() {
	original := terminalCheck
	terminalCheck = func() bool { return isTerminal }
	return func() { terminalCheck = original }
}
