// Package cli provides the command-line interface for companion.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codingwatching/companion/internal/constants"
	"github.com/codingwatching/companion/internal/coordinator"
	"github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/paths"
	"github.com/codingwatching/companion/internal/team"
	"github.com/codingwatching/companion/internal/tui"
)

// shutdownFlags holds the flags for the shutdown command.
type shutdownFlags struct {
	team    string
	timeout time.Duration
	force   bool
}

// newShutdownCmd creates the shutdown command.
func newShutdownCmd() *cobra.Command {
	var flags shutdownFlags

	cmd := &cobra.Command{
		Use:   "shutdown <agent>",
		Short: "Ask an agent to shut down and wait for its approval",
		Long: `Send a shutdown request to an agent's mailbox and wait for the
agent to approve it. An agent approves once it has finished or parked its
current work, so approval means the stop is clean. After approval the
agent's process is reaped if it is still alive.

With --force the request is skipped and the process is terminated
immediately.

The command acts as the lead and consumes the lead's mailbox while it
waits; messages that arrive in that window are printed rather than lost.

Examples:
  companion shutdown worker-1 --team payments              # Polite stop
  companion shutdown worker-1 --team payments --timeout 2m # Longer window
  companion shutdown worker-1 --team payments --force      # Terminate now`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShutdown(cmd.Context(), cmd, os.Stdout, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.team, "team", "", "Team name (defaults to COMPANION_TEAM)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", constants.DefaultReceiveTimeout, "How long to wait for approval")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Terminate the process without asking")

	return cmd
}

// AddShutdownCommand adds the shutdown command to the root command.
func AddShutdownCommand(parent *cobra.Command) {
	parent.AddCommand(newShutdownCmd())
}

// shutdownResult is the JSON output structure for shutdown.
type shutdownResult struct {
	Status    string `json:"status"`
	Team      string `json:"team"`
	Agent     string `json:"agent"`
	RequestID string `json:"request_id,omitempty"`
}

// runShutdown executes the shutdown command.
func runShutdown(ctx context.Context, cmd *cobra.Command, w io.Writer, agent string, flags shutdownFlags) error {
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

	res, err := paths.NewResolver("")
	if err != nil {
		return fmt.Errorf("failed to resolve data home: %w", err)
	}

	// Starting a coordinator registers missing teams as a side effect, so a
	// typo in the team name must fail here instead.
	exists, err := team.NewFileStore(res).Exists(ctx, teamName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("failed to shut down '%s': team '%s' %w", agent, teamName, errors.ErrTeamNotFound)
	}

	coord, err := coordinator.New(teamName, resolveIdentity(""), coordinator.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := coord.Start(ctx); err != nil {
		return err
	}
	defer func() {
		// The command spawned nothing, so Stop only halts the poller.
		stopCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownGracePeriod)
		defer cancel()
		if stopErr := coord.Stop(stopCtx); stopErr != nil {
			logger.Warn().Err(stopErr).Msg("coordinator stop reported errors")
		}
	}()

	if flags.force {
		return forceShutdown(ctx, coord, w, output, teamName, agent)
	}

	return politeShutdown(ctx, coord, w, output, teamName, agent, flags.timeout)
}

// politeShutdown sends a shutdown request and waits for the matching
// approval, then reaps the process if it is still alive.
func politeShutdown(ctx context.Context, coord *coordinator.Coordinator, w io.Writer, output, teamName, agent string, timeout time.Duration) error {
	logger := GetLogger()

	// Approvals are filtered in the select loop, not the handler: the
	// request id is only known after SendShutdownRequest returns, and a
	// fast agent can approve before that.
	approvals := make(chan coordinator.Received, 8)
	approvalToken := coord.On(coordinator.EventShutdownApproved, func(rcv coordinator.Received) {
		select {
		case approvals <- rcv:
		default:
		}
	})
	defer coord.Off(coordinator.EventShutdownApproved, approvalToken)

	// The poller drains everything in the lead's inbox while we wait.
	// Surface what it consumed instead of dropping it.
	sideMail := make(chan coordinator.Received, 16)
	mailToken := coord.On(coordinator.EventMessage, func(rcv coordinator.Received) {
		select {
		case sideMail <- rcv:
		default:
		}
	})
	defer coord.Off(coordinator.EventMessage, mailToken)

	requestID, err := coord.SendShutdownRequest(ctx, agent)
	if err != nil {
		return err
	}

	if output != OutputJSON {
		tui.NewTTYOutput(w).Info(fmt.Sprintf("Shutdown requested for %s, waiting up to %s", agent, timeout))
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case rcv := <-sideMail:
			if output != OutputJSON {
				_, _ = fmt.Fprintf(w, "  mail from %s: %s\n", rcv.From, entryDisplayText(&rcv.Entry))
			}

		case rcv := <-approvals:
			if rcv.From != agent || rcv.Message.RequestID() != requestID {
				// Stale approval from an earlier request, keep waiting.
				continue
			}
			logger.Info().
				Str("team", teamName).
				Str("agent", agent).
				Str("request", requestID).
				Msg("shutdown approved")
			return reapAgent(ctx, coord, w, output, teamName, agent, requestID)

		case <-timer.C:
			return fmt.Errorf("no shutdown approval from '%s' within %s: %w (rerun with --force to terminate now)",
				agent, timeout, errors.ErrReceiveTimeout)
		}
	}
}

// reapAgent terminates an approved agent's process if it has not exited on
// its own, then reports success.
func reapAgent(ctx context.Context, coord *coordinator.Coordinator, w io.Writer, output, teamName, agent, requestID string) error {
	running, err := coord.IsAgentRunning(ctx, agent)
	if err != nil {
		// An agent that already left the roster has nothing to reap.
		if !stderrors.Is(err, errors.ErrMemberNotFound) {
			return err
		}
		running = false
	}
	if running {
		if err := coord.KillAgent(ctx, agent); err != nil {
			return err
		}
	}

	if output == OutputJSON {
		return tui.NewJSONOutput(w).JSON(shutdownResult{
			Status:    "approved",
			Team:      teamName,
			Agent:     agent,
			RequestID: requestID,
		})
	}

	tui.NewTTYOutput(w).Success(fmt.Sprintf("Agent '%s' approved shutdown", agent))
	return nil
}

// forceShutdown terminates the agent's process without asking.
func forceShutdown(ctx context.Context, coord *coordinator.Coordinator, w io.Writer, output, teamName, agent string) error {
	logger := GetLogger()

	if err := coord.KillAgent(ctx, agent); err != nil {
		return err
	}

	logger.Info().Str("team", teamName).Str("agent", agent).Msg("agent terminated")

	if output == OutputJSON {
		return tui.NewJSONOutput(w).JSON(shutdownResult{
			Status: "terminated",
			Team:   teamName,
			Agent:  agent,
		})
	}

	tui.NewTTYOutput(w).Success(fmt.Sprintf("Agent '%s' terminated", agent))
	return nil
}
