// Package cli provides the command-line interface for companion.
package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/mailbox"
	"github.com/codingwatching/companion/internal/paths"
	"github.com/codingwatching/companion/internal/task"
	"github.com/codingwatching/companion/internal/team"
	"github.com/codingwatching/companion/internal/tui"
)

// watchFlags holds the flags for the watch command.
type watchFlags struct {
	team     string
	interval time.Duration
	noBell   bool
}

// newWatchCmd creates the watch command.
func newWatchCmd() *cobra.Command {
	var flags watchFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard of a team's mailboxes and tasks",
		Long: `Open a full-screen live view of the team: the roster with unread
mailbox counts and the task board, refreshed on an interval. New unread
mail rings the terminal bell unless --no-bell is set. The global --quiet
flag hides the header and footer.

Watching is read-only; nothing is marked read.

Press q or ctrl+c to quit.

Examples:
  companion watch --team payments
  companion watch --team payments --interval 5s --no-bell`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.team, "team", "", "Team name (defaults to COMPANION_TEAM)")
	cmd.Flags().DurationVar(&flags.interval, "interval", 0, "Refresh interval (defaults to 2s)")
	cmd.Flags().BoolVar(&flags.noBell, "no-bell", false, "Disable the terminal bell on new mail")

	return cmd
}

// AddWatchCommand adds the watch command to the root command.
func AddWatchCommand(parent *cobra.Command) {
	parent.AddCommand(newWatchCmd())
}

// runWatch executes the watch command.
func runWatch(ctx context.Context, cmd *cobra.Command, flags watchFlags) error {
	// Check for cancellation at entry
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	logger := GetLogger()

	// Get output format from global flags
	output := cmd.Flag("output").Value.String()

	// Watch is a full-screen terminal program; there is nothing to render
	// as JSON and nowhere to render it without a terminal.
	if output == OutputJSON {
		return fmt.Errorf("watch does not support JSON output: %w", errors.ErrInvalidOutputFormat)
	}
	if !terminalCheck() {
		return fmt.Errorf("watch needs a terminal: %w", errors.ErrNonInteractive)
	}

	// Respect NO_COLOR environment variable
	tui.CheckNoColor()

	teamName, err := resolveTeam(flags.team)
	if err != nil {
		return err
	}

	res, err := paths.NewResolver("")
	if err != nil {
		return fmt.Errorf("failed to resolve data home: %w", err)
	}

	teams := team.NewFileStore(res)

	// Fail fast on unknown teams; inside the program the error would only
	// surface in the refresh footer.
	if _, err := teams.Get(ctx, teamName); err != nil {
		return err
	}

	cfg := tui.DefaultWatchConfig()
	if flags.interval > 0 {
		cfg.Interval = flags.interval
	}
	if flags.noBell {
		cfg.BellEnabled = false
	}
	cfg.Quiet = cmd.Flag("quiet").Value.String() == "true"

	model := tui.NewWatchModel(ctx, teamName, teams, mailbox.NewFileStore(res), task.NewFileStore(res), cfg)

	logger.Debug().
		Str("team", teamName).
		Dur("interval", cfg.Interval).
		Bool("bell", cfg.BellEnabled).
		Msg("watch started")

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	return nil
}
