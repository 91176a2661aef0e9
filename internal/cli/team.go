// Package cli provides the command-line interface for companion.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codingwatching/companion/internal/constants"
	"github.com/codingwatching/companion/internal/domain"
	"github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/mailbox"
	"github.com/codingwatching/companion/internal/paths"
	"github.com/codingwatching/companion/internal/team"
	"github.com/codingwatching/companion/internal/tui"
)

// newTeamCmd creates the parent team command.
func newTeamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage agent teams",
		Long: `Commands for managing companion teams including creating,
listing, inspecting, and removing them.

A team is a named group of agents sharing a mailbox directory and a task
list. Every team has exactly one lead; teammates join the roster when the
lead spawns them.`,
		// No RunE - parent command just displays help
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	// Add subcommands
	addTeamCreateCmd(cmd)
	addTeamListCmd(cmd)
	addTeamShowCmd(cmd)
	addTeamRemoveCmd(cmd)

	return cmd
}

// AddTeamCommand adds the team command tree to the root command.
func AddTeamCommand(parent *cobra.Command) {
	parent.AddCommand(newTeamCmd())
}

// addTeamCreateCmd adds the create subcommand to the team command.
func addTeamCreateCmd(parent *cobra.Command) {
	var lead string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new team",
		Long: `Register a new team and seed its roster with the lead agent.

The team name becomes a directory under the data home, so it is limited to
letters, digits, hyphens, and underscores.

Examples:
  companion team create payments                   # Lead named 'lead'
  companion team create payments --lead architect  # Custom lead name`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTeamCreate(cmd.Context(), cmd, os.Stdout, args[0], lead)
		},
	}

	cmd.Flags().StringVar(&lead, "lead", constants.DefaultLeadName, "Name of the lead agent")

	parent.AddCommand(cmd)
}

// teamCreateResult is the JSON output structure for team create.
type teamCreateResult struct {
	Status string `json:"status"`
	Team   string `json:"team"`
	Lead   string `json:"lead"`
	Config string `json:"config_path"`
}

// runTeamCreate executes the team create command.
func runTeamCreate(ctx context.Context, cmd *cobra.Command, w io.Writer, name, lead string) error {
	// Check for cancellation at entry
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	logger := GetLogger()

	// Get output format from global flags
	output := cmd.Flag("output").Value.String()

	// Respect NO_COLOR environment variable
	tui.CheckNoColor()

	res, err := paths.NewResolver("")
	if err != nil {
		return fmt.Errorf("failed to resolve data home: %w", err)
	}

	// The lead joins the roster at creation; teammates join when spawned.
	now := time.Now().UTC()
	t := &domain.Team{
		Name:      name,
		Lead:      lead,
		CreatedAt: now,
		Members: []domain.Member{{
			Name:      lead,
			AgentID:   domain.FormatAgentID(lead, name),
			AgentType: constants.AgentTypeLead,
			JoinedAt:  now,
		}},
	}

	if err := team.NewFileStore(res).Create(ctx, t); err != nil {
		logger.Debug().Err(err).Str("team", name).Msg("team create failed")
		return err
	}

	logger.Info().Str("team", name).Str("lead", lead).Msg("team created")

	if output == OutputJSON {
		return tui.NewJSONOutput(w).JSON(teamCreateResult{
			Status: "created",
			Team:   name,
			Lead:   lead,
			Config: res.TeamConfigPath(name),
		})
	}

	out := tui.NewTTYOutput(w)
	out.Success(fmt.Sprintf("Team '%s' created with lead '%s'", name, lead))
	out.Info(fmt.Sprintf("Registry: %s", res.TeamConfigPath(name)))

	return nil
}

// addTeamListCmd adds the list subcommand to the team command.
func addTeamListCmd(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all teams",
		Long: `Display a table of all registered teams with their lead,
roster size, and creation time.

Examples:
  companion team list               # Display as styled table
  companion team list --output json # Display as JSON array
  companion team ls                 # Alias for list`,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTeamList(cmd.Context(), cmd, os.Stdout)
		},
	}
	parent.AddCommand(cmd)
}

// runTeamList executes the team list command.
func runTeamList(ctx context.Context, cmd *cobra.Command, w io.Writer) error {
	// Check for cancellation at entry
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	logger := GetLogger()

	// Get output format from global flags
	output := cmd.Flag("output").Value.String()

	// Respect NO_COLOR environment variable
	tui.CheckNoColor()

	res, err := paths.NewResolver("")
	if err != nil {
		return fmt.Errorf("failed to resolve data home: %w", err)
	}

	teams, err := team.NewFileStore(res).List(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("failed to list teams")
		return fmt.Errorf("failed to list teams: %w", err)
	}

	// Handle empty case
	if len(teams) == 0 {
		if output == OutputJSON {
			_, _ = fmt.Fprintln(w, "[]")
		} else {
			_, _ = fmt.Fprintln(w, "No teams. Run 'companion team create <name>' to create one.")
		}
		return nil
	}

	if output == OutputJSON {
		return tui.NewJSONOutput(w).JSON(teams)
	}

	outputTeamsTable(w, teams)
	return nil
}

// outputTeamsTable renders teams as a styled table.
func outputTeamsTable(w io.Writer, teams []*domain.Team) {
	table := tui.NewTable(w, []tui.TableColumn{
		{Name: "NAME", Width: 16},
		{Name: "LEAD", Width: 12},
		{Name: "MEMBERS", Width: 7, Align: tui.AlignRight},
		{Name: "CREATED", Width: 15},
	})

	table.WriteHeader()
	for _, t := range teams {
		table.WriteRow(
			t.Name,
			t.Lead,
			fmt.Sprintf("%d", len(t.Members)),
			tui.RelativeTime(t.CreatedAt),
		)
	}
}

// addTeamShowCmd adds the show subcommand to the team command.
func addTeamShowCmd(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a team's roster and mailbox state",
		Long: `Display a team's roster with each member's role, agent id,
and unread mailbox count.

Examples:
  companion team show payments               # Styled roster table
  companion team show payments --output json # Team document plus counts`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTeamShow(cmd.Context(), cmd, os.Stdout, args[0])
		},
	}
	parent.AddCommand(cmd)
}

// teamShowResult is the JSON output structure for team show.
type teamShowResult struct {
	Team   *domain.Team   `json:"team"`
	Unread map[string]int `json:"unread"`
}

// runTeamShow executes the team show command.
func runTeamShow(ctx context.Context, cmd *cobra.Command, w io.Writer, name string) error {
	// Check for cancellation at entry
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	logger := GetLogger()

	// Get output format from global flags
	output := cmd.Flag("output").Value.String()

	// Respect NO_COLOR environment variable
	tui.CheckNoColor()

	res, err := paths.NewResolver("")
	if err != nil {
		return fmt.Errorf("failed to resolve data home: %w", err)
	}

	t, err := team.NewFileStore(res).Get(ctx, name)
	if err != nil {
		logger.Debug().Err(err).Str("team", name).Msg("failed to read team")
		return err
	}

	// Unread counts are advisory display data; a failed count renders as
	// "-" rather than failing the whole command.
	boxes := mailbox.NewFileStore(res)
	unread := make(map[string]int, len(t.Members))
	for i := range t.Members {
		n, countErr := boxes.UnreadCount(ctx, t.Name, t.Members[i].Name)
		if countErr != nil {
			logger.Debug().Err(countErr).Str("agent", t.Members[i].Name).Msg("unread count unavailable")
			n = -1
		}
		unread[t.Members[i].Name] = n
	}

	if output == OutputJSON {
		return tui.NewJSONOutput(w).JSON(teamShowResult{Team: t, Unread: unread})
	}

	_, _ = fmt.Fprintf(w, "Team:    %s\n", t.Name)
	_, _ = fmt.Fprintf(w, "Lead:    %s\n", t.Lead)
	_, _ = fmt.Fprintf(w, "Created: %s\n\n", tui.RelativeTime(t.CreatedAt))

	table := tui.NewTable(w, tui.MemberTableColumns())
	table.WriteHeader()
	for i := range t.Members {
		tui.WriteMemberRow(table, &t.Members[i], unread[t.Members[i].Name])
	}

	return nil
}

// addTeamRemoveCmd adds the remove subcommand to the team command.
func addTeamRemoveCmd(parent *cobra.Command) {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a team and its mailboxes",
		Long: `Remove a team's registry entry and mailbox directory.

Task files are kept so history survives team teardown. Removing a team
that does not exist is not an error.

Examples:
  companion team remove payments           # Confirm and remove
  companion team remove payments --force   # Remove without confirmation`,
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTeamRemove(cmd.Context(), cmd, os.Stdout, args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	parent.AddCommand(cmd)
}

// teamRemoveResult is the JSON output structure for team remove.
type teamRemoveResult struct {
	Status string `json:"status"`
	Team   string `json:"team"`
}

// runTeamRemove executes the team remove command.
func runTeamRemove(ctx context.Context, cmd *cobra.Command, w io.Writer, name string, force bool) error {
	// Check for cancellation at entry
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	logger := GetLogger()

	// Get output format from global flags
	output := cmd.Flag("output").Value.String()

	// Respect NO_COLOR environment variable
	tui.CheckNoColor()

	res, err := paths.NewResolver("")
	if err != nil {
		return fmt.Errorf("failed to resolve data home: %w", err)
	}

	store := team.NewFileStore(res)

	exists, err := store.Exists(ctx, name)
	if err != nil {
		logger.Debug().Err(err).Str("team", name).Msg("failed to check team existence")
		return err
	}

	// Removal is idempotent: an absent team exits zero.
	if !exists {
		if output == OutputJSON {
			return tui.NewJSONOutput(w).JSON(teamRemoveResult{Status: "absent", Team: name})
		}
		_, _ = fmt.Fprintf(w, "Team '%s' is not registered.\n", name)
		return nil
	}

	if !force {
		if !terminalCheck() {
			return fmt.Errorf("cannot remove team '%s': %w", name, errors.ErrNonInteractive)
		}

		confirmed, confirmErr := confirmPrompt(
			fmt.Sprintf("Remove team '%s'?", name),
			"The roster and all mailboxes are deleted. Task files are kept.",
			"Yes, remove it",
			"No, keep it",
		)
		if confirmErr != nil {
			return fmt.Errorf("failed to get confirmation: %w", confirmErr)
		}
		if !confirmed {
			_, _ = fmt.Fprintln(w, "Operation canceled.")
			return nil
		}
	}

	if err := store.Delete(ctx, name); err != nil {
		logger.Debug().Err(err).Str("team", name).Msg("team remove failed")
		return err
	}

	logger.Info().Str("team", name).Msg("team removed")

	if output == OutputJSON {
		return tui.NewJSONOutput(w).JSON(teamRemoveResult{Status: "removed", Team: name})
	}

	tui.NewTTYOutput(w).Success(fmt.Sprintf("Team '%s' removed", name))

	return nil
}
