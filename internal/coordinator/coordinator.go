// Package coordinator drives one agent's side of team coordination. It owns
// the stores, polls the agent's mailbox, classifies what arrives, and
// connects drained entries to blocking receives and event subscriptions. On
// top of that it exposes the send, task, and agent lifecycle operations a
// team lead needs.
//
// Dispatch follows a single rule: content entries are offered to blocking
// receives first, and whatever nothing claims becomes an event. Signal
// entries (idle notifications, shutdown approvals) are never claimed; they
// always emit their event and are additionally recorded as fallback
// candidates on matching receives, so a receive that times out can still
// report the signal it observed instead of failing outright.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/codingwatching/companion/internal/constants"
	"github.com/codingwatching/companion/internal/domain"
	companionerrors "github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/mailbox"
	"github.com/codingwatching/companion/internal/paths"
	"github.com/codingwatching/companion/internal/process"
	"github.com/codingwatching/companion/internal/protocol"
	"github.com/codingwatching/companion/internal/task"
	"github.com/codingwatching/companion/internal/team"
)

// Coordinator serves one identity on one team. The lead's coordinator
// additionally owns the task counter and the agent processes it spawned.
type Coordinator struct {
	team     string
	identity string
	baseDir  string

	res    *paths.Resolver
	teams  team.Store
	tasks  task.Store
	mail   mailbox.Store
	procs  process.Manager
	logger zerolog.Logger

	pollInterval time.Duration

	poller  *Poller
	events  *eventBus
	waiters *waiterRegistry

	mu      sync.Mutex
	started bool
	handles map[string]*process.Handle
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithBaseDir overrides the data home directory.
func WithBaseDir(dir string) Option {
	return func(c *Coordinator) { c.baseDir = dir }
}

// WithLogger sets the logger used by the coordinator and its poller.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithPollInterval overrides the background poller's scan interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.pollInterval = d }
}

// WithProcessManager overrides the process manager used to spawn and
// terminate agents.
func WithProcessManager(m process.Manager) Option {
	return func(c *Coordinator) { c.procs = m }
}

// New creates a coordinator for the given team and identity. An empty
// identity defaults to the lead inbox name. Start must be called before any
// other operation.
func New(teamName, identity string, opts ...Option) (*Coordinator, error) {
	if identity == "" {
		identity = constants.DefaultLeadName
	}

	c := &Coordinator{
		team:         teamName,
		identity:     identity,
		logger:       zerolog.Nop(),
		pollInterval: constants.DefaultInboxPollInterval,
		waiters:      newWaiterRegistry(),
		handles:      make(map[string]*process.Handle),
	}
	for _, opt := range opts {
		opt(c)
	}

	// The bus needs the logger, so it is built after the options apply.
	c.events = newEventBus(c.logger)

	if err := paths.ValidateName(teamName); err != nil {
		return nil, fmt.Errorf("failed to create coordinator for team '%s': %w", teamName, err)
	}
	if err := paths.ValidateName(identity); err != nil {
		return nil, fmt.Errorf("failed to create coordinator for identity '%s': %w", identity, err)
	}

	res, err := paths.NewResolver(c.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create coordinator: %w", err)
	}
	c.res = res
	c.teams = team.NewFileStore(res)
	c.tasks = task.NewFileStore(res)
	c.mail = mailbox.NewFileStore(res)

	if c.procs == nil {
		c.procs = process.NewExecManager(process.WithLogger(c.logger))
	}

	c.poller = NewPoller(c.mail, c.team, c.identity, c.pollInterval, c.logger)
	c.poller.AddHandler(c.dispatch)

	return c, nil
}

// Team returns the team this coordinator serves.
func (c *Coordinator) Team() string { return c.team }

// Identity returns the member name this coordinator receives as.
func (c *Coordinator) Identity() string { return c.identity }

// Start prepares the on-disk layout, registers the team if it does not
// exist yet, and begins background polling. Starting a started coordinator
// is a no-op.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}

	if err := c.res.EnsureLayout(); err != nil {
		return fmt.Errorf("failed to start coordinator: %w", err)
	}

	exists, err := c.teams.Exists(ctx, c.team)
	if err != nil {
		return fmt.Errorf("failed to start coordinator: %w", err)
	}
	if !exists {
		t := &domain.Team{
			Name: c.team,
			Lead: c.identity,
			Members: []domain.Member{{
				Name:      c.identity,
				AgentID:   domain.FormatAgentID(c.identity, c.team),
				AgentType: constants.AgentTypeLead,
				JoinedAt:  time.Now().UTC(),
			}},
		}
		// A concurrent Start may have won the race; the roster it wrote is
		// equivalent.
		if err := c.teams.Create(ctx, t); err != nil && !errors.Is(err, companionerrors.ErrTeamExists) {
			return fmt.Errorf("failed to start coordinator: %w", err)
		}
	}

	if err := c.tasks.Init(ctx, c.team); err != nil {
		return fmt.Errorf("failed to start coordinator: %w", err)
	}

	c.poller.Start(ctx)
	c.started = true

	c.logger.Info().
		Str("team", c.team).
		Str("identity", c.identity).
		Msg("coordinator started")

	return nil
}

// Stop halts background polling and terminates every agent process this
// coordinator spawned. Stopping a stopped coordinator is a no-op.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	handles := make([]*process.Handle, 0, len(c.handles))
	for _, h := range c.handles {
		handles = append(handles, h)
	}
	c.handles = make(map[string]*process.Handle)
	c.mu.Unlock()

	c.poller.Stop()

	terminated, errs := c.procs.KillAll(ctx, handles)

	c.logger.Info().
		Int("terminated", terminated).
		Int("failed", len(errs)).
		Msg("coordinator stopped")

	if len(errs) > 0 {
		return fmt.Errorf("failed to stop %d spawned agent(s): %w", len(errs), errors.Join(errs...))
	}

	return nil
}

// ensureReady guards operations that require a started coordinator.
func (c *Coordinator) ensureReady() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return fmt.Errorf("coordinator for team '%s': %w", c.team, companionerrors.ErrNotInitialized)
	}
	return nil
}

// SendOption customizes one outgoing mailbox entry.
type SendOption func(*domain.MailboxEntry)

// WithSummary attaches a human-readable one-liner for display surfaces.
func WithSummary(summary string) SendOption {
	return func(e *domain.MailboxEntry) { e.Summary = summary }
}

// WithColor attaches a terminal color hint for display surfaces.
func WithColor(color string) SendOption {
	return func(e *domain.MailboxEntry) { e.Color = color }
}

// Send appends a plain text message to one teammate's mailbox.
func (c *Coordinator) Send(ctx context.Context, to, text string, opts ...SendOption) error {
	if err := c.ensureReady(); err != nil {
		return err
	}
	return c.deliver(ctx, to, text, opts...)
}

// Broadcast sends the same text to every roster member except this one.
// Deliveries run concurrently; the first failure aborts the rest.
func (c *Coordinator) Broadcast(ctx context.Context, text string, opts ...SendOption) error {
	if err := c.ensureReady(); err != nil {
		return err
	}

	t, err := c.teams.Get(ctx, c.team)
	if err != nil {
		return fmt.Errorf("failed to broadcast: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range t.Members {
		member := t.Members[i]
		if member.Name == c.identity {
			continue
		}
		g.Go(func() error {
			return c.deliver(gctx, member.Name, text, opts...)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to broadcast: %w", err)
	}

	return nil
}

// deliver appends a raw payload to one agent's mailbox.
func (c *Coordinator) deliver(ctx context.Context, to, payload string, opts ...SendOption) error {
	entry := &domain.MailboxEntry{
		From:      c.identity,
		Text:      payload,
		Timestamp: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(entry)
	}

	if err := c.mail.Write(ctx, c.team, to, entry); err != nil {
		return fmt.Errorf("failed to send to '%s': %w", to, err)
	}

	return nil
}

// sendMessage encodes a protocol message and delivers it.
func (c *Coordinator) sendMessage(ctx context.Context, to string, msg protocol.Message, opts ...SendOption) error {
	payload, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("failed to send to '%s': %w", to, err)
	}
	return c.deliver(ctx, to, payload, opts...)
}

// CreateTask creates a task and, when it has an owner other than this
// coordinator, notifies the owner with a task assignment message. The task
// id is returned even when the notification fails; the error then reports
// the undelivered assignment.
func (c *Coordinator) CreateTask(ctx context.Context, t *domain.Task) (string, error) {
	if err := c.ensureReady(); err != nil {
		return "", err
	}

	id, err := c.tasks.Create(ctx, c.team, t)
	if err != nil {
		return "", err
	}

	c.logger.Info().
		Str("task", id).
		Str("subject", t.Subject).
		Str("owner", t.Owner).
		Msg("task created")

	if t.Owner == "" || t.Owner == c.identity {
		return id, nil
	}
	if err := c.notifyAssignment(ctx, t.Owner, id, t.Subject, t.Description); err != nil {
		return id, err
	}

	return id, nil
}

// AssignTask sets a task's owner and notifies the new owner.
func (c *Coordinator) AssignTask(ctx context.Context, id, owner string) (*domain.Task, error) {
	if err := c.ensureReady(); err != nil {
		return nil, err
	}

	updated, err := c.tasks.Update(ctx, c.team, id, task.Patch{Owner: &owner})
	if err != nil {
		return nil, err
	}

	if owner == "" || owner == c.identity {
		return updated, nil
	}
	if err := c.notifyAssignment(ctx, owner, updated.ID, updated.Subject, updated.Description); err != nil {
		return updated, err
	}

	return updated, nil
}

// notifyAssignment sends a task assignment message to the owner's mailbox.
func (c *Coordinator) notifyAssignment(ctx context.Context, owner, id, subject, description string) error {
	msg := protocol.NewTaskAssignment(id, subject, description, c.identity)
	summary := fmt.Sprintf("%s assigned task #%s: %s", c.identity, id, subject)
	return c.sendMessage(ctx, owner, msg, WithSummary(summary))
}

// SendShutdownRequest asks one agent to shut down and returns the request id
// its approval will reference.
func (c *Coordinator) SendShutdownRequest(ctx context.Context, agent string) (string, error) {
	if err := c.ensureReady(); err != nil {
		return "", err
	}

	msg := protocol.NewShutdownRequest(agent)
	summary := fmt.Sprintf("%s requested shutdown of %s", c.identity, agent)
	if err := c.sendMessage(ctx, agent, msg, WithSummary(summary)); err != nil {
		return "", err
	}

	return msg.RequestID(), nil
}

// ApproveShutdown confirms a shutdown request back to the agent that sent it.
func (c *Coordinator) ApproveShutdown(ctx context.Context, to, requestID string) error {
	if err := c.ensureReady(); err != nil {
		return err
	}
	return c.sendMessage(ctx, to, protocol.NewShutdownApproved(requestID))
}

// SendPlanApproval answers an agent's plan approval request, echoing the
// request id it arrived with.
func (c *Coordinator) SendPlanApproval(ctx context.Context, to, requestID string, approved bool, feedback string) error {
	if err := c.ensureReady(); err != nil {
		return err
	}
	return c.sendMessage(ctx, to, protocol.NewPlanApprovalResponse(requestID, approved, feedback))
}

// SendPermissionResponse answers an agent's permission request, echoing the
// request id it arrived with.
func (c *Coordinator) SendPermissionResponse(ctx context.Context, to, requestID string, approved bool) error {
	if err := c.ensureReady(); err != nil {
		return err
	}
	return c.sendMessage(ctx, to, protocol.NewPermissionResponse(requestID, approved))
}

// NotifyIdle tells the team lead this agent has gone idle. A lead notifying
// itself is a no-op.
func (c *Coordinator) NotifyIdle(ctx context.Context) error {
	if err := c.ensureReady(); err != nil {
		return err
	}

	t, err := c.teams.Get(ctx, c.team)
	if err != nil {
		return fmt.Errorf("failed to notify idle: %w", err)
	}
	if t.Lead == "" || t.Lead == c.identity {
		return nil
	}

	return c.sendMessage(ctx, t.Lead, protocol.NewIdleNotification(), WithSummary(c.identity+" is idle"))
}

// On subscribes a handler to an event and returns the token that removes it
// via Off. Handlers run synchronously on the dispatching goroutine.
func (c *Coordinator) On(event Event, handler EventHandler) int {
	return c.events.on(event, handler)
}

// Off removes a subscription made with On.
func (c *Coordinator) Off(event Event, token int) {
	c.events.off(event, token)
}

// ReceiveOptions configures a blocking receive. Zero values fall back to
// the package defaults.
type ReceiveOptions struct {
	// Timeout bounds the whole receive window.
	Timeout time.Duration

	// PollInterval is the inbox scan interval inside the window.
	PollInterval time.Duration

	// All accumulates content until the window closes instead of returning
	// on the first scan that produces any. Ignored by ReceiveAny.
	All bool
}

func (o ReceiveOptions) withDefaults() ReceiveOptions {
	if o.Timeout <= 0 {
		o.Timeout = constants.DefaultReceiveTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = constants.DefaultReceivePollInterval
	}
	return o
}

// Receive blocks until the named sender delivers content, then returns all
// content discovered by that scan; with All set it instead accumulates
// content until the window closes. If the window closes without content but
// a signal from the sender was observed, the signal is returned as a
// one-element fallback; otherwise the receive fails with ErrReceiveTimeout.
func (c *Coordinator) Receive(ctx context.Context, from string, opts ReceiveOptions) ([]Received, error) {
	if err := c.ensureReady(); err != nil {
		return nil, err
	}
	if from == "" {
		return nil, fmt.Errorf("failed to receive: sender %w", companionerrors.ErrEmptyValue)
	}

	opts = opts.withDefaults()

	mode := modeFirst
	if opts.All {
		mode = modeAll
	}

	w := &waiter{agent: from, mode: mode, content: make(chan Received, waiterBuffer)}
	c.waiters.register(w)
	defer c.release(w)

	stopPump := c.startPump(ctx, opts.PollInterval)
	defer stopPump()

	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	if opts.All {
		return c.collectUntilClose(ctx, from, w, timer, opts.Timeout)
	}

	select {
	case first := <-w.content:
		return append([]Received{first}, c.waiters.drainClaimed(w)...), nil
	case <-timer.C:
		return c.windowClosed(w, from, opts.Timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// windowClosed resolves a receive whose timer fired before a channel read.
// Content routed concurrently with the expiry is still sitting in the
// waiter's channel; it wins over the signal fallback, which wins over a bare
// timeout.
func (c *Coordinator) windowClosed(w *waiter, from string, timeout time.Duration) ([]Received, error) {
	if late := c.waiters.drainClaimed(w); len(late) > 0 {
		return late, nil
	}
	if fb := c.waiters.takeFallback(w); fb != nil {
		return []Received{*fb}, nil
	}
	return nil, fmt.Errorf("no message from '%s' within %s: %w", from, timeout, companionerrors.ErrReceiveTimeout)
}

// collectUntilClose accumulates claimed content until the window timer
// fires, then applies the fallback and timeout rules.
func (c *Coordinator) collectUntilClose(ctx context.Context, from string, w *waiter, timer *time.Timer, timeout time.Duration) ([]Received, error) {
	var collected []Received
	for {
		select {
		case rcv := <-w.content:
			collected = append(collected, rcv)
		case <-timer.C:
			if len(collected) > 0 {
				return append(collected, c.waiters.drainClaimed(w)...), nil
			}
			return c.windowClosed(w, from, timeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// ReceiveAny blocks until any sender delivers content and returns that one
// entry. Signals never satisfy a ReceiveAny and are not returned as
// fallbacks; they still emit their events.
func (c *Coordinator) ReceiveAny(ctx context.Context, opts ReceiveOptions) (*Received, error) {
	if err := c.ensureReady(); err != nil {
		return nil, err
	}

	opts = opts.withDefaults()

	w := &waiter{mode: modeAny, content: make(chan Received, waiterBuffer)}
	c.waiters.register(w)
	defer c.release(w)

	stopPump := c.startPump(ctx, opts.PollInterval)
	defer stopPump()

	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	select {
	case rcv := <-w.content:
		return &rcv, nil
	case <-timer.C:
		// Content routed concurrently with the expiry still satisfies the
		// call; only the first entry does, so the rest go back to events.
		if late := c.waiters.drainClaimed(w); len(late) > 0 {
			for _, rcv := range late[1:] {
				c.events.emit(eventFor(rcv.Message), rcv)
			}
			return &late[0], nil
		}
		return nil, fmt.Errorf("no message within %s: %w", opts.Timeout, companionerrors.ErrReceiveTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// startPump polls the mailbox for the duration of a blocking receive so
// entries flow even when the background poller is on a long interval. The
// returned function stops the pump.
func (c *Coordinator) startPump(ctx context.Context, interval time.Duration) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		// Drain anything already waiting before the first tick.
		c.pumpOnce(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.pumpOnce(ctx)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (c *Coordinator) pumpOnce(ctx context.Context) {
	if err := c.poller.Poll(ctx); err != nil && ctx.Err() == nil {
		c.logger.Debug().Err(err).Msg("receive poll failed")
	}
}

// release unregisters a receive's waiter and re-emits anything it claimed
// but never consumed, so every entry reaches exactly one consumer.
func (c *Coordinator) release(w *waiter) {
	for _, rcv := range c.waiters.remove(w) {
		c.events.emit(eventFor(rcv.Message), rcv)
	}
}

// dispatch routes one drained batch. Content is offered to blocking
// receives first; whatever nothing claims becomes an event. Signals always
// emit their event and double as fallback candidates for matching receives.
func (c *Coordinator) dispatch(_ context.Context, batch []Delivery) {
	rcvs := make([]Received, 0, len(batch))
	for _, d := range batch {
		rcvs = append(rcvs, Received{From: d.Entry.From, Entry: d.Entry, Message: d.Message})
	}

	for _, rcv := range c.waiters.route(rcvs) {
		c.events.emit(eventFor(rcv.Message), rcv)
	}
}

// SpawnOptions configures one spawned agent process.
type SpawnOptions struct {
	// Command is the agent runtime binary. Empty means the default runtime.
	Command string

	// Args are passed to the runtime verbatim.
	Args []string

	// Dir is the working directory the agent runs in. Empty inherits the
	// coordinator's.
	Dir string

	// Env is extra environment appended after the identity variables.
	Env []string
}

// SpawnAgent launches an agent process, registers it on the roster with its
// pid, and tracks the handle so Stop can terminate it. The agent's combined
// output is appended to a per-agent file under the logs directory.
func (c *Coordinator) SpawnAgent(ctx context.Context, name string, opts SpawnOptions) (*process.Handle, error) {
	if err := c.ensureReady(); err != nil {
		return nil, err
	}
	if err := paths.ValidateName(name); err != nil {
		return nil, fmt.Errorf("failed to spawn agent: %w", err)
	}

	command := opts.Command
	if command == "" {
		command = constants.ToolClaude
	}

	env := append([]string{
		constants.EnvHome + "=" + c.res.Base(),
		constants.EnvTeam + "=" + c.team,
		constants.EnvAgent + "=" + name,
	}, opts.Env...)

	handle, err := c.procs.Spawn(ctx, process.SpawnConfig{
		Command: command,
		Args:    opts.Args,
		Dir:     opts.Dir,
		Env:     env,
		LogPath: filepath.Join(c.res.LogsDir(), c.team+"-"+name+".log"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to spawn agent '%s': %w", name, err)
	}

	member := domain.Member{
		Name:      name,
		AgentType: constants.AgentTypeTeammate,
		PID:       handle.PID,
		Cwd:       opts.Dir,
	}
	if err := c.teams.AddMember(ctx, c.team, member); err != nil {
		// Roster registration failed; don't leave an orphan running.
		if killErr := c.procs.Kill(ctx, handle); killErr != nil {
			c.logger.Warn().Err(killErr).Int("pid", handle.PID).Msg("failed to kill unregistered agent")
		}
		return nil, fmt.Errorf("failed to spawn agent '%s': %w", name, err)
	}

	c.mu.Lock()
	c.handles[name] = handle
	c.mu.Unlock()

	c.logger.Info().
		Str("agent", name).
		Int("pid", handle.PID).
		Str("command", command).
		Msg("agent spawned")

	return handle, nil
}

// IsAgentRunning reports whether an agent's process is alive. Handles this
// coordinator spawned are checked directly; for anyone else the roster pid,
// if recorded, is probed.
func (c *Coordinator) IsAgentRunning(ctx context.Context, name string) (bool, error) {
	if err := c.ensureReady(); err != nil {
		return false, err
	}

	c.mu.Lock()
	handle := c.handles[name]
	c.mu.Unlock()

	if handle != nil {
		return c.procs.IsRunning(handle), nil
	}

	t, err := c.teams.Get(ctx, c.team)
	if err != nil {
		return false, err
	}
	for _, m := range t.Members {
		if m.Name == name {
			if m.PID <= 0 {
				return false, nil
			}
			return c.procs.IsRunning(&process.Handle{PID: m.PID}), nil
		}
	}

	return false, fmt.Errorf("agent '%s' on team '%s': %w", name, c.team, companionerrors.ErrMemberNotFound)
}

// KillAgent terminates an agent's process and clears its roster pid. Killing
// an agent with no live process is a no-op.
func (c *Coordinator) KillAgent(ctx context.Context, name string) error {
	if err := c.ensureReady(); err != nil {
		return err
	}

	c.mu.Lock()
	handle := c.handles[name]
	delete(c.handles, name)
	c.mu.Unlock()

	if handle == nil {
		t, err := c.teams.Get(ctx, c.team)
		if err != nil {
			return fmt.Errorf("failed to kill agent '%s': %w", name, err)
		}
		for _, m := range t.Members {
			if m.Name == name && m.PID > 0 {
				handle = &process.Handle{PID: m.PID}
				break
			}
		}
	}
	if handle == nil {
		return nil
	}

	if err := c.procs.Kill(ctx, handle); err != nil {
		return fmt.Errorf("failed to kill agent '%s': %w", name, err)
	}

	c.clearRosterPID(ctx, name)

	return nil
}

// clearRosterPID zeroes a member's recorded pid so liveness probes stop
// reporting a dead process. Best effort; the kill already succeeded.
func (c *Coordinator) clearRosterPID(ctx context.Context, name string) {
	t, err := c.teams.Get(ctx, c.team)
	if err != nil {
		return
	}
	for _, m := range t.Members {
		if m.Name == name {
			m.PID = 0
			if err := c.teams.AddMember(ctx, c.team, m); err != nil {
				c.logger.Warn().Err(err).Str("agent", name).Msg("failed to clear roster pid")
			}
			return
		}
	}
}

// Members returns the team roster.
func (c *Coordinator) Members(ctx context.Context) ([]domain.Member, error) {
	if err := c.ensureReady(); err != nil {
		return nil, err
	}

	t, err := c.teams.Get(ctx, c.team)
	if err != nil {
		return nil, err
	}
	return t.Members, nil
}

// UnreadCount reports how many entries are unread in an agent's mailbox.
// An empty agent means this coordinator's own inbox.
func (c *Coordinator) UnreadCount(ctx context.Context, agent string) (int, error) {
	if err := c.ensureReady(); err != nil {
		return 0, err
	}
	if agent == "" {
		agent = c.identity
	}
	return c.mail.UnreadCount(ctx, c.team, agent)
}
