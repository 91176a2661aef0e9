package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/codingwatching/companion/internal/constants"
	"github.com/codingwatching/companion/internal/domain"
	"github.com/codingwatching/companion/internal/mailbox"
	"github.com/codingwatching/companion/internal/protocol"
)

// Delivery is one drained mailbox entry paired with its classified message.
type Delivery struct {
	Entry   domain.MailboxEntry
	Message protocol.Message
}

// Handler consumes one drained batch. Batches preserve mailbox append order.
type Handler func(ctx context.Context, batch []Delivery)

// Poller drains an agent's unread mailbox entries on an interval and hands
// each non-empty batch to every registered handler. Draining marks entries
// read under the mailbox lock, so every entry lands in exactly one batch
// even when Poll is also called directly.
type Poller struct {
	store    mailbox.Store
	team     string
	agent    string
	interval time.Duration
	logger   zerolog.Logger

	hmu       sync.Mutex
	nextToken int
	handlers  map[int]Handler

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller over one agent's mailbox. An interval of zero
// or less falls back to the default poll interval.
func NewPoller(store mailbox.Store, team, agent string, interval time.Duration, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = constants.DefaultInboxPollInterval
	}
	return &Poller{
		store:    store,
		team:     team,
		agent:    agent,
		interval: interval,
		logger:   logger,
		handlers: make(map[int]Handler),
	}
}

// AddHandler registers a batch handler and returns the token that removes
// it.
func (p *Poller) AddHandler(h Handler) int {
	p.hmu.Lock()
	defer p.hmu.Unlock()

	p.nextToken++
	p.handlers[p.nextToken] = h

	return p.nextToken
}

// RemoveHandler drops a previously registered handler. Unknown tokens are
// ignored.
func (p *Poller) RemoveHandler(token int) {
	p.hmu.Lock()
	defer p.hmu.Unlock()

	delete(p.handlers, token)
}

// Start begins periodic draining. Starting a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return // Already running
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.Poll(ctx); err != nil && ctx.Err() == nil {
					p.logger.Warn().Err(err).Str("agent", p.agent).Msg("mailbox poll failed")
				}
			}
		}
	}()
}

// Stop cancels the poller and waits for the polling goroutine to finish.
// The lock is released before waiting on the done channel to prevent deadlock.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.cancel == nil {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.cancel = nil
	done := p.done
	p.mu.Unlock() // Release lock BEFORE blocking wait

	cancel()
	<-done
}

// Poll drains the mailbox once and hands the batch to every handler when it
// is non-empty. Safe to call concurrently with the background loop; the
// mailbox lock makes concurrent drains disjoint.
func (p *Poller) Poll(ctx context.Context) error {
	entries, err := p.store.DrainUnread(ctx, p.team, p.agent)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	batch := make([]Delivery, 0, len(entries))
	for _, entry := range entries {
		batch = append(batch, Delivery{
			Entry:   entry,
			Message: protocol.Classify(entry.Text),
		})
	}

	p.hmu.Lock()
	handlers := make([]Handler, 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	p.hmu.Unlock()

	for _, h := range handlers {
		p.invoke(ctx, h, batch)
	}

	return nil
}

// invoke runs one handler with panic containment so a bad handler cannot
// affect the others or the next cycle. The drained entries are already
// marked read; a panicking handler forfeits its view of them.
func (p *Poller) invoke(ctx context.Context, h Handler, batch []Delivery) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).Str("agent", p.agent).Msg("poll handler panicked")
		}
	}()

	h(ctx, batch)
}
