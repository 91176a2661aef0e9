// Package process manages agent worker subprocesses. The coordinator treats
// it as an opaque capability: spawn a configured command, probe liveness,
// terminate with graceful escalation. Handles carry only the pid and spawn
// metadata, so a coordinator restarted over the same team can keep probing
// agents it did not start itself.
package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/codingwatching/companion/internal/constants"
	companionerrors "github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/paths"
)

// terminationPollInterval is how often Kill re-probes a process while
// waiting out the grace period.
const terminationPollInterval = 100 * time.Millisecond

// SpawnConfig describes the agent process to launch.
type SpawnConfig struct {
	// Command is the binary to run, resolved via PATH.
	Command string
	// Args are passed to the command verbatim.
	Args []string
	// Dir is the working directory. Empty means inherit.
	Dir string
	// Env entries (KEY=VALUE) are appended to the inherited environment.
	Env []string
	// LogPath, when set, receives the combined stdout/stderr of the child.
	LogPath string
}

// Handle identifies a spawned agent process.
type Handle struct {
	PID       int
	Command   string
	StartedAt time.Time
}

// Manager defines the process-management surface the coordinator depends on.
type Manager interface {
	// Spawn launches the configured command and returns its handle.
	Spawn(ctx context.Context, cfg SpawnConfig) (*Handle, error)

	// IsRunning reports whether the process behind the handle is alive.
	IsRunning(h *Handle) bool

	// Kill terminates the process: SIGTERM, a grace period, then SIGKILL
	// for anything still alive. Killing a dead process is a no-op.
	Kill(ctx context.Context, h *Handle) error

	// KillAll terminates a batch of processes with one shared grace period.
	// Returns how many ended and the per-process errors encountered.
	KillAll(ctx context.Context, handles []*Handle) (terminated int, errs []error)
}

// ExecManager is the production Manager backed by os/exec.
type ExecManager struct {
	logger      zerolog.Logger
	gracePeriod time.Duration
}

// Option is a functional option for configuring ExecManager.
type Option func(*ExecManager)

// WithLogger sets the logger for the ExecManager.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *ExecManager) {
		m.logger = logger
	}
}

// WithGracePeriod overrides how long Kill waits between SIGTERM and SIGKILL.
func WithGracePeriod(d time.Duration) Option {
	return func(m *ExecManager) {
		m.gracePeriod = d
	}
}

// NewExecManager creates a new ExecManager.
func NewExecManager(opts ...Option) *ExecManager {
	m := &ExecManager{
		logger:      zerolog.Nop(),
		gracePeriod: constants.ShutdownGracePeriod,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Spawn launches the configured command and returns its handle.
func (m *ExecManager) Spawn(ctx context.Context, cfg SpawnConfig) (*Handle, error) {
	// Check for cancellation at entry
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if cfg.Command == "" {
		return nil, fmt.Errorf("failed to spawn agent: command %w", companionerrors.ErrEmptyValue)
	}

	cmd := exec.Command(cfg.Command, cfg.Args...) //#nosec G204 -- command comes from the operator's agent config
	cmd.Dir = cfg.Dir
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}

	var logFile *os.File
	if cfg.LogPath != "" {
		f, err := os.OpenFile(cfg.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, paths.FilePerm) //#nosec G304 -- path is constructed internally
		if err != nil {
			return nil, fmt.Errorf("failed to open agent log '%s': %w", cfg.LogPath, err)
		}
		logFile = f
		cmd.Stdout = f
		cmd.Stderr = f
	}

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return nil, fmt.Errorf("failed to spawn '%s': %v: %w", cfg.Command, err, companionerrors.ErrProcess)
	}

	handle := &Handle{
		PID:       cmd.Process.Pid,
		Command:   cfg.Command,
		StartedAt: time.Now().UTC(),
	}

	m.logger.Info().
		Int("pid", handle.PID).
		Str("command", cfg.Command).
		Str("dir", cfg.Dir).
		Msg("spawned agent process")

	// Reap the child when it exits so it never lingers as a zombie.
	go func() {
		_ = cmd.Wait()
		if logFile != nil {
			_ = logFile.Close()
		}
		m.logger.Debug().Int("pid", handle.PID).Msg("agent process exited")
	}()

	return handle, nil
}

// IsRunning reports whether the process behind the handle is alive.
func (m *ExecManager) IsRunning(h *Handle) bool {
	if h == nil {
		return false
	}
	return isProcessAlive(h.PID)
}

// Kill terminates the process with graceful escalation.
func (m *ExecManager) Kill(ctx context.Context, h *Handle) error {
	if h == nil || h.PID <= 0 {
		return nil
	}

	proc, err := os.FindProcess(h.PID)
	if err != nil {
		// Process doesn't exist (already dead)
		return nil
	}

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		m.logger.Warn().
			Err(err).
			Int("pid", h.PID).
			Msg("failed to send SIGTERM, will try SIGKILL")
	} else {
		m.logger.Debug().Int("pid", h.PID).Msg("sent SIGTERM")
	}

	// Wait out the grace period, probing as we go.
	deadline := time.Now().Add(m.gracePeriod)
	for time.Now().Before(deadline) {
		if !isProcessAlive(h.PID) {
			m.logger.Debug().Int("pid", h.PID).Msg("agent terminated gracefully")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(terminationPollInterval):
		}
	}

	if !isProcessAlive(h.PID) {
		return nil
	}

	m.logger.Warn().Int("pid", h.PID).Msg("agent did not terminate gracefully, sending SIGKILL")
	if err := proc.Signal(syscall.SIGKILL); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill pid %d: %v: %w", h.PID, err, companionerrors.ErrProcess)
	}

	return nil
}

// KillAll terminates a batch of processes with one shared grace period.
// It uses a two-phase approach:
//  1. Send SIGTERM to all processes and wait out the grace period
//  2. Send SIGKILL to any processes that didn't terminate
func (m *ExecManager) KillAll(ctx context.Context, handles []*Handle) (terminated int, errs []error) {
	if len(handles) == 0 {
		return 0, nil
	}

	m.logger.Info().
		Int("agents", len(handles)).
		Dur("grace_period", m.gracePeriod).
		Msg("terminating agent processes")

	// Phase 1: SIGTERM everything that is still alive.
	alive := make(map[int]bool)
	for _, h := range handles {
		if h == nil || h.PID <= 0 {
			continue
		}

		proc, err := os.FindProcess(h.PID)
		if err != nil {
			terminated++
			continue
		}

		if err := proc.Signal(syscall.SIGTERM); err != nil {
			if errors.Is(err, os.ErrProcessDone) {
				terminated++
				continue
			}
			m.logger.Warn().
				Err(err).
				Int("pid", h.PID).
				Msg("failed to send SIGTERM, will try SIGKILL")
			alive[h.PID] = true
		} else {
			m.logger.Debug().Int("pid", h.PID).Msg("sent SIGTERM")
			alive[h.PID] = true
		}
	}

	if len(alive) == 0 {
		return terminated, nil
	}

	// Phase 2: wait out one shared grace period.
	deadline := time.Now().Add(m.gracePeriod)
	for time.Now().Before(deadline) {
		for pid := range alive {
			if !isProcessAlive(pid) {
				terminated++
				delete(alive, pid)
			}
		}
		if len(alive) == 0 {
			return terminated, nil
		}
		select {
		case <-ctx.Done():
			return terminated, append(errs, ctx.Err())
		case <-time.After(terminationPollInterval):
		}
	}

	// Phase 3: SIGKILL the stragglers.
	for pid := range alive {
		if !isProcessAlive(pid) {
			terminated++
			continue
		}

		m.logger.Warn().Int("pid", pid).Msg("agent did not terminate gracefully, sending SIGKILL")
		proc, err := os.FindProcess(pid)
		if err != nil {
			terminated++
			continue
		}
		if err := proc.Signal(syscall.SIGKILL); err != nil && !errors.Is(err, os.ErrProcessDone) {
			errs = append(errs, fmt.Errorf("failed to kill pid %d: %v: %w", pid, err, companionerrors.ErrProcess))
		} else {
			terminated++
		}
	}

	m.logger.Info().
		Int("agents", len(handles)).
		Int("terminated", terminated).
		Int("errors", len(errs)).
		Msg("agent termination complete")

	return terminated, errs
}

// isProcessAlive checks liveness with signal 0, which probes the process
// table without delivering a signal.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return proc.Signal(syscall.Signal(0)) == nil
}
