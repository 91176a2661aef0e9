// Package signal converts SIGINT and SIGTERM into context cancellation so
// long-running commands (watch, shutdown, blocking receives) unwind through
// their normal cleanup paths instead of dying mid-write.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: internal packages (to avoid circular dependencies)
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler cancels a derived context when the process is interrupted. The
// Interrupted channel additionally distinguishes an operator interrupt from
// ordinary completion so the caller can report the right exit code.
type Handler struct {
	ctx         context.Context //nolint:containedctx // the handler owns this context's lifecycle
	cancel      context.CancelFunc
	interrupted chan struct{}
	done        chan struct{}
	once        sync.Once
	stopOnce    sync.Once
	sigChan     chan os.Signal
}

// NewHandler derives a cancelable context from parent and starts listening
// for SIGINT and SIGTERM. Callers must Stop the handler when done.
func NewHandler(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
		// Buffered so a signal arriving mid-dispatch is not dropped.
		sigChan: make(chan os.Signal, 1),
	}

	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()

	return h
}

// Context returns the context that interrupts cancel.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted returns a channel that closes once an interrupt has arrived.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// Stop unregisters the signal listener and cancels the context. Calling
// Stop more than once is safe.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		// Close done before sigChan could be drained again so listen
		// exits cleanly.
		close(h.done)
		h.cancel()
	})
}

// handleSignal records the first interrupt; repeats are ignored.
func (h *Handler) handleSignal() {
	h.once.Do(func() {
		h.cancel()
		close(h.interrupted)
	})
}

// listen dispatches signals until Stop is called or the context is
// canceled externally. The loop keeps draining sigChan so repeated
// interrupts never block delivery.
func (h *Handler) listen() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.done:
			return
		case <-h.sigChan:
			h.handleSignal()
		}
	}
}
