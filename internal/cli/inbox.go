// Package cli provides the command-line interface for companion.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/codingwatching/companion/internal/domain"
	"github.com/codingwatching/companion/internal/mailbox"
	"github.com/codingwatching/companion/internal/paths"
	"github.com/codingwatching/companion/internal/protocol"
	"github.com/codingwatching/companion/internal/tui"
)

// inboxFlags holds the flags for the inbox command.
type inboxFlags struct {
	team  string
	agent string
	drain bool
}

// newInboxCmd creates the inbox command.
func newInboxCmd() *cobra.Command {
	var flags inboxFlags

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Read an agent's mailbox",
		Long: `Display an agent's mailbox. By default every entry is shown and
nothing is marked read. With --drain, unread entries are returned and
marked read in the same atomic pass, which is how agents consume their
mail.

The agent identity comes from --agent, or COMPANION_AGENT inside a
spawned agent, or defaults to the lead.

Examples:
  companion inbox --team payments                    # Peek at the lead's mail
  companion inbox --team payments --agent worker-1   # Peek at a teammate's mail
  companion inbox --team payments --drain            # Consume unread mail`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInbox(cmd.Context(), cmd, os.Stdout, flags)
		},
	}

	cmd.Flags().StringVar(&flags.team, "team", "", "Team name (defaults to COMPANION_TEAM)")
	cmd.Flags().StringVar(&flags.agent, "agent", "", "Agent whose mailbox to read (defaults to COMPANION_AGENT, then the lead)")
	cmd.Flags().BoolVar(&flags.drain, "drain", false, "Return unread entries and mark them read")

	return cmd
}

// AddInboxCommand adds the inbox command to the root command.
func AddInboxCommand(parent *cobra.Command) {
	parent.AddCommand(newInboxCmd())
}

// runInbox executes the inbox command.
func runInbox(ctx context.Context, cmd *cobra.Command, w io.Writer, flags inboxFlags) error {
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

	teamName, err := resolveTeam(flags.team)
	if err != nil {
		return err
	}
	agent := resolveIdentity(flags.agent)

	res, err := paths.NewResolver("")
	if err != nil {
		return fmt.Errorf("failed to resolve data home: %w", err)
	}

	boxes := mailbox.NewFileStore(res)

	var entries []domain.MailboxEntry
	if flags.drain {
		entries, err = boxes.DrainUnread(ctx, teamName, agent)
	} else {
		entries, err = boxes.ReadAll(ctx, teamName, agent)
	}
	if err != nil {
		logger.Debug().Err(err).Str("team", teamName).Str("agent", agent).Msg("failed to read mailbox")
		return err
	}

	logger.Debug().
		Str("team", teamName).
		Str("agent", agent).
		Int("entries", len(entries)).
		Bool("drain", flags.drain).
		Msg("mailbox read")

	if output == OutputJSON {
		// Entries marshal as an array, never null.
		if len(entries) == 0 {
			_, _ = fmt.Fprintln(w, "[]")
			return nil
		}
		return tui.NewJSONOutput(w).JSON(entries)
	}

	if flags.drain {
		displayDrained(w, agent, teamName, entries)
		return nil
	}

	displayInbox(w, agent, teamName, entries)
	return nil
}

// displayInbox renders a non-destructive view of all mailbox entries.
func displayInbox(w io.Writer, agent, teamName string, entries []domain.MailboxEntry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "Inbox is empty.")
		return
	}

	unread := 0
	for i := range entries {
		if !entries[i].Read {
			unread++
		}
	}

	header := fmt.Sprintf("Inbox for %s: %d message(s), %d unread",
		domain.FormatAgentID(agent, teamName), len(entries), unread)
	_, _ = fmt.Fprintln(w, tui.StyleBold.Render(header))
	_, _ = fmt.Fprintln(w)

	for i := range entries {
		writeEntryLine(w, &entries[i])
	}
}

// displayDrained renders the entries a drain pass consumed.
func displayDrained(w io.Writer, agent, teamName string, entries []domain.MailboxEntry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No unread messages.")
		return
	}

	header := fmt.Sprintf("Drained %d message(s) for %s",
		len(entries), domain.FormatAgentID(agent, teamName))
	_, _ = fmt.Fprintln(w, tui.StyleBold.Render(header))
	_, _ = fmt.Fprintln(w)

	for i := range entries {
		// Drained entries were unread when consumed; show them that way.
		entry := entries[i]
		entry.Read = false
		writeEntryLine(w, &entry)
	}
}

// writeEntryLine renders one mailbox entry as a single line. Read entries
// are dim with a hollow marker.
func writeEntryLine(w io.Writer, e *domain.MailboxEntry) {
	marker := "●"
	if e.Read {
		marker = "○"
	}

	line := fmt.Sprintf("%s %-14s %-16s %s", marker, e.From, tui.RelativeTime(e.Timestamp), entryDisplayText(e))
	if e.Read {
		line = tui.StyleDim.Render(line)
	}
	_, _ = fmt.Fprintln(w, line)
}

// entryDisplayText picks the one-line rendering of an entry: its summary if
// the sender attached one, the text itself for plain payloads, and a tagged
// form for structured protocol messages.
func entryDisplayText(e *domain.MailboxEntry) string {
	if e.Summary != "" {
		return e.Summary
	}

	msg := protocol.Classify(e.Text)
	if msg.Type == protocol.TypePlainText {
		return msg.Text
	}
	if msg.Text != "" {
		return fmt.Sprintf("[%s] %s", msg.Type, msg.Text)
	}
	return fmt.Sprintf("[%s]", msg.Type)
}
