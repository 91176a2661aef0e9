// Package cli provides the command-line interface for companion.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/codingwatching/companion/internal/config"
	"github.com/codingwatching/companion/internal/constants"
	"github.com/codingwatching/companion/internal/domain"
	"github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/mailbox"
	"github.com/codingwatching/companion/internal/paths"
	"github.com/codingwatching/companion/internal/protocol"
	"github.com/codingwatching/companion/internal/task"
	"github.com/codingwatching/companion/internal/team"
	"github.com/codingwatching/companion/internal/tui"
)

var (
	glamourRenderer     *glamour.TermRenderer //nolint:gochecknoglobals // cached renderer for performance
	glamourRendererOnce sync.Once             //nolint:gochecknoglobals // sync.Once for renderer initialization
)

// getGlamourRenderer returns a cached glamour renderer for markdown rendering.
// The renderer is initialized once and reused across all calls.
func getGlamourRenderer() *glamour.TermRenderer {
	glamourRendererOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err == nil {
			glamourRenderer = r
		}
	})
	return glamourRenderer
}

// newTaskCmd creates the parent task command.
func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage team tasks",
		Long: `Commands for managing a team's task list including adding,
listing, inspecting, updating, and blocking tasks.

Tasks are numbered JSON documents under the data home. Blocking relations
are symmetric: when task 2 blocks task 4, task 4 records 2 in its
blockedBy field.`,
		// No RunE - parent command just displays help
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	// Add subcommands
	addTaskAddCmd(cmd)
	addTaskListCmd(cmd)
	addTaskShowCmd(cmd)
	addTaskUpdateCmd(cmd)
	addTaskBlockCmd(cmd)

	return cmd
}

// AddTaskCommand adds the task command tree to the root command.
func AddTaskCommand(parent *cobra.Command) {
	parent.AddCommand(newTaskCmd())
}

// taskAddFlags holds the flags for the task add command.
type taskAddFlags struct {
	team        string
	subject     string
	description string
	activeForm  string
	owner       string
}

// addTaskAddCmd adds the add subcommand to the task command.
func addTaskAddCmd(parent *cobra.Command) {
	var flags taskAddFlags

	cmd := &cobra.Command{
		Use:   "add <subject>",
		Short: "Add a task to the team's list",
		Long: `Create a task with the next free numeric id.

When --owner is set, the owner's mailbox receives a task assignment
message, so the agent picks the work up on its next inbox check.

Examples:
  companion task add "Fix login flow" --team payments
  companion task add "Write tests" --team payments --owner worker-1
  companion task add "Cut release" --team payments -d "Tag and publish."`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.subject = args[0]
			return runTaskAdd(cmd.Context(), cmd, os.Stdout, flags)
		},
	}

	cmd.Flags().StringVar(&flags.team, "team", "", "Team name (defaults to COMPANION_TEAM)")
	cmd.Flags().StringVarP(&flags.description, "description", "d", "", "Longer task description (markdown)")
	cmd.Flags().StringVar(&flags.activeForm, "active-form", "", "Present-tense label shown while in progress")
	cmd.Flags().StringVar(&flags.owner, "owner", "", "Agent to assign the task to")

	parent.AddCommand(cmd)
}

// taskAddResult is the JSON output structure for task add.
type taskAddResult struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Team    string `json:"team"`
	Subject string `json:"subject"`
	Owner   string `json:"owner,omitempty"`
}

// runTaskAdd executes the task add command.
func runTaskAdd(ctx context.Context, cmd *cobra.Command, w io.Writer, flags taskAddFlags) error {
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

	// Refuse to file tasks for unregistered teams; a typo would otherwise
	// create an orphan task directory.
	exists, err := team.NewFileStore(res).Exists(ctx, teamName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("failed to add task: team '%s' %w", teamName, errors.ErrTeamNotFound)
	}

	t := &domain.Task{
		Subject:     flags.subject,
		Description: flags.description,
		ActiveForm:  flags.activeForm,
		Owner:       flags.owner,
	}

	id, err := task.NewFileStore(res).Create(ctx, teamName, t)
	if err != nil {
		logger.Debug().Err(err).Str("team", teamName).Msg("task create failed")
		return err
	}

	logger.Info().
		Str("team", teamName).
		Str("task", id).
		Str("owner", flags.owner).
		Msg("task added")

	identity := resolveIdentity("")
	if flags.owner != "" && flags.owner != identity {
		if err := notifyAssignment(ctx, res, teamName, identity, flags.owner, id, flags.subject, flags.description); err != nil {
			// The task exists either way; report the undelivered assignment.
			return fmt.Errorf("task #%s created but owner not notified: %w", id, err)
		}
	}

	if output == OutputJSON {
		return tui.NewJSONOutput(w).JSON(taskAddResult{
			Status:  "created",
			ID:      id,
			Team:    teamName,
			Subject: flags.subject,
			Owner:   flags.owner,
		})
	}

	out := tui.NewTTYOutput(w)
	out.Success(fmt.Sprintf("Task #%s added: %s", id, flags.subject))
	if flags.owner != "" {
		out.Info(fmt.Sprintf("Assigned to %s", flags.owner))
	}

	return nil
}

// notifyAssignment delivers a task assignment message to the owner's mailbox.
// This is the same envelope the coordinator sends when it assigns work, so
// agents handle CLI assignments and coordinator assignments identically.
func notifyAssignment(ctx context.Context, res *paths.Resolver, teamName, from, owner, id, subject, description string) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	msg := protocol.NewTaskAssignment(id, subject, description, from)
	payload, err := msg.Encode()
	if err != nil {
		return err
	}

	boxes := mailbox.NewFileStore(res, mailbox.WithMaxEntries(cfg.Mailbox.MaxEntries))
	entry := &domain.MailboxEntry{
		From:      from,
		Text:      payload,
		Timestamp: time.Now().UTC(),
		Summary:   fmt.Sprintf("%s assigned task #%s: %s", from, id, subject),
	}

	return boxes.Write(ctx, teamName, owner, entry)
}

// addTaskListCmd adds the list subcommand to the task command.
func addTaskListCmd(parent *cobra.Command) {
	var (
		teamFlag string
		status   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a team's tasks",
		Long: `Display a table of the team's tasks with status, owner, and
blocking relations. Completed tasks are rendered dim.

Examples:
  companion task list --team payments                  # All tasks
  companion task list --team payments --status pending # Filter by status
  companion task ls --team payments --output json      # JSON array`,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTaskList(cmd.Context(), cmd, os.Stdout, teamFlag, status)
		},
	}

	cmd.Flags().StringVar(&teamFlag, "team", "", "Team name (defaults to COMPANION_TEAM)")
	cmd.Flags().StringVar(&status, "status", "", "Only show tasks with this status")

	parent.AddCommand(cmd)
}

// runTaskList executes the task list command.
func runTaskList(ctx context.Context, cmd *cobra.Command, w io.Writer, teamFlag, status string) error {
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

	teamName, err := resolveTeam(teamFlag)
	if err != nil {
		return err
	}

	res, err := paths.NewResolver("")
	if err != nil {
		return fmt.Errorf("failed to resolve data home: %w", err)
	}

	tasks, err := task.NewFileStore(res).List(ctx, teamName)
	if err != nil {
		logger.Debug().Err(err).Str("team", teamName).Msg("failed to list tasks")
		return err
	}

	if status != "" {
		filtered := make([]*domain.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.Status.String() == status {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	// Handle empty case
	if len(tasks) == 0 {
		if output == OutputJSON {
			_, _ = fmt.Fprintln(w, "[]")
		} else {
			_, _ = fmt.Fprintln(w, "No tasks. Run 'companion task add <subject>' to create one.")
		}
		return nil
	}

	if output == OutputJSON {
		return tui.NewJSONOutput(w).JSON(tasks)
	}

	table := tui.NewTable(w, tui.TaskTableColumns())
	table.WriteHeader()
	for _, t := range tasks {
		tui.WriteTaskRow(table, t)
	}

	return nil
}

// addTaskShowCmd adds the show subcommand to the task command.
func addTaskShowCmd(parent *cobra.Command) {
	var teamFlag string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show full details of a task",
		Long: `Display a task's full record including its markdown description
and blocking relations.

Examples:
  companion task show 3 --team payments
  companion task show 3 --team payments --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskShow(cmd.Context(), cmd, os.Stdout, teamFlag, args[0])
		},
	}

	cmd.Flags().StringVar(&teamFlag, "team", "", "Team name (defaults to COMPANION_TEAM)")

	parent.AddCommand(cmd)
}

// runTaskShow executes the task show command.
func runTaskShow(ctx context.Context, cmd *cobra.Command, w io.Writer, teamFlag, id string) error {
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

	teamName, err := resolveTeam(teamFlag)
	if err != nil {
		return err
	}

	res, err := paths.NewResolver("")
	if err != nil {
		return fmt.Errorf("failed to resolve data home: %w", err)
	}

	t, err := task.NewFileStore(res).Get(ctx, teamName, id)
	if err != nil {
		logger.Debug().Err(err).Str("team", teamName).Str("task", id).Msg("failed to read task")
		return err
	}

	if output == OutputJSON {
		return tui.NewJSONOutput(w).JSON(t)
	}

	displayTask(w, t)
	return nil
}

// displayTask renders one task in rich detail format.
func displayTask(w io.Writer, t *domain.Task) {
	out := tui.NewTTYOutput(w)

	out.Info(fmt.Sprintf("Task #%s", t.ID))
	out.Info(strings.Repeat("━", 50))
	out.Info("")

	out.Info(fmt.Sprintf("Subject:    %s", t.Subject))
	out.Info(fmt.Sprintf("Status:     %s", tui.FormatTaskStatus(t.Status)))
	if t.Owner != "" {
		out.Info(fmt.Sprintf("Owner:      %s", t.Owner))
	}
	if t.ActiveForm != "" {
		out.Info(fmt.Sprintf("Active:     %s", t.ActiveForm))
	}

	// Description with markdown rendering
	if t.Description != "" {
		out.Info("")
		out.Info("Description:")
		renderMarkdown(w, t.Description)
	}

	if len(t.Blocks) > 0 {
		out.Info("")
		out.Info(fmt.Sprintf("Blocks:     %s", strings.Join(t.Blocks, ", ")))
	}
	if t.IsBlocked() {
		out.Info("")
		out.Warning(fmt.Sprintf("Blocked by %s", strings.Join(t.BlockedBy, ", ")))
	}
}

// renderMarkdown renders markdown using glamour.
func renderMarkdown(w io.Writer, markdown string) {
	if renderer := getGlamourRenderer(); renderer != nil {
		if rendered, err := renderer.Render(markdown); err == nil {
			// Indent the rendered output
			for _, line := range strings.Split(rendered, "\n") {
				_, _ = fmt.Fprintf(w, "  %s\n", line)
			}
			return
		}
	}
	// Fallback to plain text
	_, _ = fmt.Fprintf(w, "  %s\n", markdown)
}

// addTaskUpdateCmd adds the update subcommand to the task command.
func addTaskUpdateCmd(parent *cobra.Command) {
	var (
		teamFlag    string
		status      string
		owner       string
		subject     string
		description string
		activeForm  string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a task",
		Long: `Update a task's status, owner, or text fields. Only flags you
pass change; everything else is kept.

Status accepts the built-in pending, in_progress, and completed stages
plus any custom snake_case stage name.

Examples:
  companion task update 3 --team payments --status in_progress
  companion task update 3 --team payments --owner worker-2
  companion task update 3 --team payments --status waiting_on_review`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := task.Patch{}
			if cmd.Flags().Changed("subject") {
				patch.Subject = &subject
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("active-form") {
				patch.ActiveForm = &activeForm
			}
			if cmd.Flags().Changed("owner") {
				patch.Owner = &owner
			}
			if cmd.Flags().Changed("status") {
				if status == "" {
					return fmt.Errorf("failed to update task: status %w", errors.ErrEmptyValue)
				}
				st := constants.TaskStatus(status)
				patch.Status = &st
			}
			return runTaskUpdate(cmd.Context(), cmd, os.Stdout, teamFlag, args[0], patch)
		},
	}

	cmd.Flags().StringVar(&teamFlag, "team", "", "Team name (defaults to COMPANION_TEAM)")
	cmd.Flags().StringVar(&status, "status", "", "New status")
	cmd.Flags().StringVar(&owner, "owner", "", "New owner (empty string unassigns)")
	cmd.Flags().StringVar(&subject, "subject", "", "New subject")
	cmd.Flags().StringVar(&description, "description", "", "New description (markdown)")
	cmd.Flags().StringVar(&activeForm, "active-form", "", "New present-tense label")

	parent.AddCommand(cmd)
}

// runTaskUpdate executes the task update command.
func runTaskUpdate(ctx context.Context, cmd *cobra.Command, w io.Writer, teamFlag, id string, patch task.Patch) error {
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

	if patch.Subject == nil && patch.Description == nil && patch.ActiveForm == nil &&
		patch.Owner == nil && patch.Status == nil {
		return fmt.Errorf("failed to update task: no fields given, %w", errors.ErrEmptyValue)
	}

	teamName, err := resolveTeam(teamFlag)
	if err != nil {
		return err
	}

	res, err := paths.NewResolver("")
	if err != nil {
		return fmt.Errorf("failed to resolve data home: %w", err)
	}

	updated, err := task.NewFileStore(res).Update(ctx, teamName, id, patch)
	if err != nil {
		logger.Debug().Err(err).Str("team", teamName).Str("task", id).Msg("task update failed")
		return err
	}

	logger.Info().
		Str("team", teamName).
		Str("task", updated.ID).
		Str("status", updated.Status.String()).
		Msg("task updated")

	// A new owner is notified the same way a fresh assignment would be.
	identity := resolveIdentity("")
	if patch.Owner != nil && *patch.Owner != "" && *patch.Owner != identity {
		if err := notifyAssignment(ctx, res, teamName, identity, *patch.Owner, updated.ID, updated.Subject, updated.Description); err != nil {
			return fmt.Errorf("task #%s updated but owner not notified: %w", updated.ID, err)
		}
	}

	if output == OutputJSON {
		return tui.NewJSONOutput(w).JSON(updated)
	}

	out := tui.NewTTYOutput(w)
	out.Success(fmt.Sprintf("Task #%s updated", updated.ID))
	out.Info(fmt.Sprintf("Status: %s", tui.FormatTaskStatus(updated.Status)))
	if updated.Owner != "" {
		out.Info(fmt.Sprintf("Owner:  %s", updated.Owner))
	}

	return nil
}

// addTaskBlockCmd adds the block subcommand to the task command.
func addTaskBlockCmd(parent *cobra.Command) {
	var teamFlag string

	cmd := &cobra.Command{
		Use:   "block <id> <blocks>...",
		Short: "Record that a task blocks others",
		Long: `Record that the first task blocks each of the others. The
relation is symmetric: every target task lists the blocker in its
blockedBy field. Repeating an existing relation is a no-op.

Examples:
  companion task block 2 4 --team payments    # Task 2 blocks task 4
  companion task block 2 4 5 --team payments  # Task 2 blocks tasks 4 and 5`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskBlock(cmd.Context(), cmd, os.Stdout, teamFlag, args[0], args[1:])
		},
	}

	cmd.Flags().StringVar(&teamFlag, "team", "", "Team name (defaults to COMPANION_TEAM)")

	parent.AddCommand(cmd)
}

// taskBlockResult is the JSON output structure for task block.
type taskBlockResult struct {
	Status string   `json:"status"`
	ID     string   `json:"id"`
	Blocks []string `json:"blocks"`
}

// runTaskBlock executes the task block command.
func runTaskBlock(ctx context.Context, cmd *cobra.Command, w io.Writer, teamFlag, id string, blocks []string) error {
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

	teamName, err := resolveTeam(teamFlag)
	if err != nil {
		return err
	}

	res, err := paths.NewResolver("")
	if err != nil {
		return fmt.Errorf("failed to resolve data home: %w", err)
	}

	if err := task.NewFileStore(res).AddBlocks(ctx, teamName, id, blocks); err != nil {
		logger.Debug().Err(err).Str("team", teamName).Str("task", id).Msg("failed to add blocks")
		return err
	}

	logger.Info().
		Str("team", teamName).
		Str("task", id).
		Strs("blocks", blocks).
		Msg("block relation recorded")

	if output == OutputJSON {
		return tui.NewJSONOutput(w).JSON(taskBlockResult{Status: "blocked", ID: id, Blocks: blocks})
	}

	tui.NewTTYOutput(w).Success(fmt.Sprintf("Task #%s now blocks %s", id, strings.Join(blocks, ", ")))

	return nil
}
