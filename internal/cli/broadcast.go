// Package cli provides the command-line interface for companion.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/codingwatching/companion/internal/config"
	"github.com/codingwatching/companion/internal/domain"
	"github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/mailbox"
	"github.com/codingwatching/companion/internal/paths"
	"github.com/codingwatching/companion/internal/team"
	"github.com/codingwatching/companion/internal/tui"
)

// broadcastFlags holds the flags for the broadcast command.
type broadcastFlags struct {
	team    string
	from    string
	summary string
	color   string
}

// newBroadcastCmd creates the broadcast command.
func newBroadcastCmd() *cobra.Command {
	var flags broadcastFlags

	cmd := &cobra.Command{
		Use:   "broadcast <text>",
		Short: "Send a message to every teammate",
		Long: `Append the same plain text message to every roster member's
mailbox except the sender's. Deliveries run concurrently; the first
failure aborts the rest.

Examples:
  companion broadcast "Stand-up in five." --team payments
  companion broadcast "Blocked on review." --team payments --from worker-1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBroadcast(cmd.Context(), cmd, os.Stdout, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.team, "team", "", "Team name (defaults to COMPANION_TEAM)")
	cmd.Flags().StringVar(&flags.from, "from", "", "Sender name (defaults to COMPANION_AGENT, then the lead)")
	cmd.Flags().StringVar(&flags.summary, "summary", "", "One-line summary for display surfaces")
	cmd.Flags().StringVar(&flags.color, "color", "", "Color hint for display surfaces")

	return cmd
}

// AddBroadcastCommand adds the broadcast command to the root command.
func AddBroadcastCommand(parent *cobra.Command) {
	parent.AddCommand(newBroadcastCmd())
}

// broadcastResult is the JSON output structure for broadcast.
type broadcastResult struct {
	Status     string   `json:"status"`
	Team       string   `json:"team"`
	From       string   `json:"from"`
	Recipients []string `json:"recipients"`
}

// runBroadcast executes the broadcast command.
func runBroadcast(ctx context.Context, cmd *cobra.Command, w io.Writer, text string, flags broadcastFlags) error {
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

	if text == "" {
		return fmt.Errorf("failed to broadcast: text %w", errors.ErrEmptyValue)
	}

	teamName, err := resolveTeam(flags.team)
	if err != nil {
		return err
	}
	from := resolveIdentity(flags.from)

	res, err := paths.NewResolver("")
	if err != nil {
		return fmt.Errorf("failed to resolve data home: %w", err)
	}

	t, err := team.NewFileStore(res).Get(ctx, teamName)
	if err != nil {
		logger.Debug().Err(err).Str("team", teamName).Msg("failed to read team")
		return err
	}

	recipients := make([]string, 0, len(t.Members))
	for i := range t.Members {
		if t.Members[i].Name == from {
			continue
		}
		recipients = append(recipients, t.Members[i].Name)
	}

	if len(recipients) == 0 {
		if output == OutputJSON {
			return tui.NewJSONOutput(w).JSON(broadcastResult{
				Status:     "sent",
				Team:       teamName,
				From:       from,
				Recipients: recipients,
			})
		}
		tui.NewTTYOutput(w).Warning("No teammates to broadcast to")
		return nil
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	boxes := mailbox.NewFileStore(res, mailbox.WithMaxEntries(cfg.Mailbox.MaxEntries))
	now := time.Now().UTC()

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range recipients {
		g.Go(func() error {
			entry := &domain.MailboxEntry{
				From:      from,
				Text:      text,
				Timestamp: now,
				Summary:   flags.summary,
				Color:     flags.color,
			}
			return boxes.Write(gctx, teamName, name, entry)
		})
	}
	if err := g.Wait(); err != nil {
		logger.Debug().Err(err).Str("team", teamName).Msg("broadcast failed")
		return fmt.Errorf("failed to broadcast: %w", err)
	}

	logger.Info().
		Str("team", teamName).
		Str("from", from).
		Int("recipients", len(recipients)).
		Msg("broadcast sent")

	if output == OutputJSON {
		return tui.NewJSONOutput(w).JSON(broadcastResult{
			Status:     "sent",
			Team:       teamName,
			From:       from,
			Recipients: recipients,
		})
	}

	tui.NewTTYOutput(w).Success(fmt.Sprintf("Broadcast sent to %d teammate(s)", len(recipients)))

	return nil
}
