package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codingwatching/companion/internal/constants"
	"github.com/codingwatching/companion/internal/domain"
)

// WatchConfig holds configuration for the watch mode.
type WatchConfig struct {
	// Interval is the refresh interval for watch mode.
	Interval time.Duration
	// BellEnabled controls whether terminal bell notifications are enabled.
	BellEnabled bool
	// Quiet suppresses header and footer output.
	Quiet bool
}

// DefaultWatchConfig returns the default watch configuration.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		Interval:    2 * time.Second,
		BellEnabled: true,
		Quiet:       false,
	}
}

// TeamFetcher defines the interface for fetching a team's roster.
type TeamFetcher interface {
	Get(ctx context.Context, name string) (*domain.Team, error)
}

// UnreadCounter defines the interface for counting unread mailbox entries.
type UnreadCounter interface {
	UnreadCount(ctx context.Context, team, agent string) (int, error)
}

// TaskLister defines the interface for listing a team's tasks.
type TaskLister interface {
	List(ctx context.Context, team string) ([]*domain.Task, error)
}

// MemberActivity is one roster member plus their current unread count.
// Unread is -1 when the count could not be read.
type MemberActivity struct {
	Member domain.Member
	Unread int
}

// WatchModel is the Bubble Tea model for watch mode.
// It implements tea.Model interface (Init, Update, View).
type WatchModel struct {
	// Team being watched
	teamName string
	// Current roster with unread counts
	members []MemberActivity
	// Current task board
	tasks []*domain.Task
	// Previous unread count per member for bell detection
	previousUnread map[string]int
	// Last refresh timestamp
	lastUpdate time.Time
	// Configuration
	config WatchConfig
	// Terminal dimensions
	width, height int
	// Exit flag
	quitting bool
	// Refresh in flight
	refreshing bool
	// Error from last refresh
	err error
	// Refresh indicator
	spin spinner.Model
	// Dependencies
	teams     TeamFetcher
	mailboxes UnreadCounter
	taskStore TaskLister
	// baseCtx is stored for use in async Bubble Tea commands.
	// Storing context in structs is generally discouraged, but Bubble Tea's
	// async command model requires it for proper context propagation.
	baseCtx context.Context //nolint:containedctx // Required for Bubble Tea async commands
}

// TickMsg signals time for a refresh.
type TickMsg time.Time

// RefreshMsg carries new data from a refresh operation.
type RefreshMsg struct {
	Members []MemberActivity
	Tasks   []*domain.Task
	Err     error
}

// BellMsg signals that a bell was emitted.
type BellMsg struct{}

// NewWatchModel creates a new WatchModel with the given dependencies.
// The context is stored for use in async Bubble Tea commands.
func NewWatchModel(ctx context.Context, teamName string, teams TeamFetcher, mailboxes UnreadCounter, taskStore TaskLister, cfg WatchConfig) *WatchModel {
	spin := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(ColorPrimary)),
	)

	return &WatchModel{
		teamName:       teamName,
		members:        nil,
		tasks:          nil,
		previousUnread: make(map[string]int),
		lastUpdate:     time.Time{},
		config:         cfg,
		width:          80, // Default width
		height:         24, // Default height
		quitting:       false,
		refreshing:     true,
		err:            nil,
		spin:           spin,
		teams:          teams,
		mailboxes:      mailboxes,
		taskStore:      taskStore,
		baseCtx:        ctx,
	}
}

// Init returns the initial command to run when the program starts.
// It starts the refresh timer and performs an initial data load.
func (m *WatchModel) Init() tea.Cmd {
	return tea.Batch(
		m.refreshData(),
		m.tick(),
		m.spin.Tick,
	)
}

// Update handles messages and returns the updated model and any commands.
func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		m.refreshing = true
		return m, m.refreshData()

	case RefreshMsg:
		m.refreshing = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, m.tick()
		}
		m.members = msg.Members
		m.tasks = msg.Tasks
		m.lastUpdate = time.Now()
		m.err = nil

		// Check for bell conditions
		bellCmd := m.checkForBell()
		return m, tea.Batch(m.tick(), bellCmd)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case BellMsg:
		// Bell is emitted in the command, nothing to do here
		return m, nil
	}

	return m, nil
}

// View renders the current state to a string.
func (m *WatchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	// Header (unless quiet)
	if !m.config.Quiet {
		header := StyleBold.Render("Team " + m.teamName)
		if m.refreshing {
			header += " " + m.spin.View()
		}
		b.WriteString(header)
		b.WriteString("\n\n")
	}

	// Error display
	if m.err != nil {
		b.WriteString(fmt.Sprintf("Error: %v\n", m.err))
	}

	// Roster table or empty message
	if len(m.members) == 0 {
		b.WriteString("No members. Run 'companion team create' first.\n")
	} else {
		m.renderMembers(&b)
	}

	// Task table
	if len(m.tasks) > 0 {
		b.WriteString("\n")
		m.renderTasks(&b)
	}

	// Footer summary (unless quiet)
	if !m.config.Quiet {
		b.WriteString("\n")
		b.WriteString(m.buildFooter())
		b.WriteString("\n")
	}

	// Timestamp and quit hint
	if !m.lastUpdate.IsZero() {
		b.WriteString(fmt.Sprintf("\nLast updated: %s", m.lastUpdate.Format("15:04:05")))
	}
	b.WriteString("\nPress 'q' to quit")

	return b.String()
}

// Members returns the current member activity rows (useful for testing).
func (m *WatchModel) Members() []MemberActivity {
	return m.members
}

// Tasks returns the current task board rows (useful for testing).
func (m *WatchModel) Tasks() []*domain.Task {
	return m.tasks
}

// LastUpdate returns the last update timestamp.
func (m *WatchModel) LastUpdate() time.Time {
	return m.lastUpdate
}

// IsQuitting returns true if the model is in quitting state.
func (m *WatchModel) IsQuitting() bool {
	return m.quitting
}

// Error returns the last error from a refresh operation.
func (m *WatchModel) Error() error {
	return m.err
}

// tick returns a command that sends a TickMsg after the configured interval.
func (m *WatchModel) tick() tea.Cmd {
	return tea.Tick(m.config.Interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// refreshData loads fresh data from the team, mailbox, and task stores.
func (m *WatchModel) refreshData() tea.Cmd {
	return func() tea.Msg {
		// Use stored context for proper cancellation propagation
		ctx := m.baseCtx
		if ctx == nil {
			ctx = context.Background()
		}

		team, err := m.teams.Get(ctx, m.teamName)
		if err != nil {
			return RefreshMsg{Err: fmt.Errorf("failed to fetch team: %w", err)}
		}

		members := make([]MemberActivity, 0, len(team.Members))
		for _, member := range team.Members {
			unread, countErr := m.mailboxes.UnreadCount(ctx, m.teamName, member.Name)
			if countErr != nil {
				unread = -1
			}
			members = append(members, MemberActivity{Member: member, Unread: unread})
		}

		tasks, err := m.taskStore.List(ctx, m.teamName)
		if err != nil {
			return RefreshMsg{Err: fmt.Errorf("failed to list tasks: %w", err)}
		}

		return RefreshMsg{Members: members, Tasks: tasks}
	}
}

// renderMembers renders the roster table.
func (m *WatchModel) renderMembers(b *strings.Builder) {
	table := NewTable(b, MemberTableColumns())
	table.WriteHeader()
	for i := range m.members {
		WriteMemberRow(table, &m.members[i].Member, m.members[i].Unread)
	}
}

// renderTasks renders the task board table.
func (m *WatchModel) renderTasks(b *strings.Builder) {
	table := NewTable(b, TaskTableColumns())
	table.WriteHeader()
	for _, task := range m.tasks {
		WriteTaskRow(table, task)
	}
}

// checkForBell checks if any member's mailbox went from empty to non-empty.
// Returns a command to emit a bell if needed.
// Bell is suppressed if BellEnabled is false or Quiet mode is active.
func (m *WatchModel) checkForBell() tea.Cmd {
	if !m.config.BellEnabled || m.config.Quiet {
		return nil
	}

	var bell tea.Cmd
	for i := range m.members {
		name := m.members[i].Member.Name
		unread := m.members[i].Unread
		previous, exists := m.previousUnread[name]

		// Only bell on NEW mail in a previously drained mailbox
		if unread > 0 && (!exists || previous == 0) && bell == nil {
			bell = emitBell()
		}
		m.previousUnread[name] = unread
	}

	// Clean up removed members from tracking
	currentMembers := make(map[string]bool)
	for i := range m.members {
		currentMembers[m.members[i].Member.Name] = true
	}
	for name := range m.previousUnread {
		if !currentMembers[name] {
			delete(m.previousUnread, name)
		}
	}

	return bell
}

// emitBell returns a command that emits a terminal bell.
func emitBell() tea.Cmd {
	return func() tea.Msg {
		// Write BEL character directly to stdout to avoid forbidigo lint rule
		_, _ = os.Stdout.WriteString("\a")
		return BellMsg{}
	}
}

// buildFooter creates the footer summary line.
func (m *WatchModel) buildFooter() string {
	memberWord := "members"
	if len(m.members) == 1 {
		memberWord = "member"
	}
	summary := fmt.Sprintf("%d %s", len(m.members), memberWord)

	unread := m.totalUnread()
	if unread > 0 {
		messageWord := "messages"
		if unread == 1 {
			messageWord = "message"
		}
		summary += fmt.Sprintf(", %d unread %s", unread, messageWord)
	}

	if inProgress := m.countTasksByStatus(constants.TaskStatusInProgress); inProgress > 0 {
		summary += fmt.Sprintf(", %d in progress", inProgress)
	}

	return summary
}

// totalUnread sums the known unread counts across the roster.
func (m *WatchModel) totalUnread() int {
	total := 0
	for i := range m.members {
		if m.members[i].Unread > 0 {
			total += m.members[i].Unread
		}
	}
	return total
}

// countTasksByStatus counts tasks currently in the given status.
func (m *WatchModel) countTasksByStatus(status constants.TaskStatus) int {
	count := 0
	for _, task := range m.tasks {
		if task.Status == status {
			count++
		}
	}
	return count
}
