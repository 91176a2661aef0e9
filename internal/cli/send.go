// Package cli provides the command-line interface for companion.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codingwatching/companion/internal/config"
	"github.com/codingwatching/companion/internal/domain"
	"github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/mailbox"
	"github.com/codingwatching/companion/internal/paths"
	"github.com/codingwatching/companion/internal/team"
	"github.com/codingwatching/companion/internal/tui"
)

// sendFlags holds the flags for the send command.
type sendFlags struct {
	team    string
	from    string
	summary string
	color   string
}

// newSendCmd creates the send command.
func newSendCmd() *cobra.Command {
	var flags sendFlags

	cmd := &cobra.Command{
		Use:   "send <agent> <text>",
		Short: "Send a message to a teammate's mailbox",
		Long: `Append a plain text message to one teammate's mailbox. The
message stays unread until the recipient drains its inbox.

The sender identity comes from --from, or COMPANION_AGENT inside a
spawned agent, or defaults to the lead. Sending to an agent that has not
joined the roster yet is allowed; its mailbox is created on first write.

Examples:
  companion send worker-1 "Start with the parser." --team payments
  companion send lead "Parser done." --team payments --from worker-1
  companion send worker-1 "Build is red." --team payments --summary "CI failure" --color red`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd.Context(), cmd, os.Stdout, args[0], args[1], flags)
		},
	}

	cmd.Flags().StringVar(&flags.team, "team", "", "Team name (defaults to COMPANION_TEAM)")
	cmd.Flags().StringVar(&flags.from, "from", "", "Sender name (defaults to COMPANION_AGENT, then the lead)")
	cmd.Flags().StringVar(&flags.summary, "summary", "", "One-line summary for display surfaces")
	cmd.Flags().StringVar(&flags.color, "color", "", "Color hint for display surfaces")

	return cmd
}

// AddSendCommand adds the send command to the root command.
func AddSendCommand(parent *cobra.Command) {
	parent.AddCommand(newSendCmd())
}

// sendResult is the JSON output structure for send.
type sendResult struct {
	Status string `json:"status"`
	Team   string `json:"team"`
	To     string `json:"to"`
	From   string `json:"from"`
}

// runSend executes the send command.
func runSend(ctx context.Context, cmd *cobra.Command, w io.Writer, to, text string, flags sendFlags) error {
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
		return fmt.Errorf("failed to send: text %w", errors.ErrEmptyValue)
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

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	entry := &domain.MailboxEntry{
		From:      from,
		Text:      text,
		Timestamp: time.Now().UTC(),
		Summary:   flags.summary,
		Color:     flags.color,
	}

	boxes := mailbox.NewFileStore(res, mailbox.WithMaxEntries(cfg.Mailbox.MaxEntries))
	if err := boxes.Write(ctx, teamName, to, entry); err != nil {
		logger.Debug().Err(err).Str("team", teamName).Str("to", to).Msg("send failed")
		return fmt.Errorf("failed to send to '%s': %w", to, err)
	}

	logger.Info().
		Str("team", teamName).
		Str("to", to).
		Str("from", from).
		Msg("message sent")

	if output == OutputJSON {
		return tui.NewJSONOutput(w).JSON(sendResult{
			Status: "sent",
			Team:   teamName,
			To:     to,
			From:   from,
		})
	}

	out := tui.NewTTYOutput(w)
	out.Success(fmt.Sprintf("Message sent to %s", to))

	// Mailboxes are created on first write, so an off-roster recipient is
	// legal. It is also how typos look, so flag it.
	if t.Member(to) == nil {
		out.Warning(fmt.Sprintf("'%s' is not on the roster yet", to))
	}

	return nil
}
