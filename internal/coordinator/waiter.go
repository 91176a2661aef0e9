package coordinator

import "sync"

// waiterBuffer is the channel capacity of one blocking receive. It must be
// large enough to absorb every content entry of a single drained batch;
// overflow falls through to event emission instead of being dropped.
const waiterBuffer = 256

// receiveMode selects how a blocking receive consumes content.
type receiveMode int

const (
	// modeFirst returns all content discovered by the first scan that
	// produces any, falling back to an observed signal at timeout.
	modeFirst receiveMode = iota

	// modeAll accumulates content until the timeout window closes, falling
	// back to an observed signal only when nothing arrived.
	modeAll

	// modeAny returns the first content entry from any sender and never
	// falls back to signals.
	modeAny
)

// waiter is one blocking receive registered with the dispatcher.
type waiter struct {
	// agent filters by sender name; empty matches any sender.
	agent string

	// mode selects claim and fallback behavior.
	mode receiveMode

	// content carries claimed entries to the receive. Buffered so routing
	// never blocks on a slow receiver.
	content chan Received

	// fallback holds the first signal observed from a matching sender while
	// the waiter was registered. Guarded by the registry lock.
	fallback *Received
}

func (w *waiter) matches(from string) bool {
	return w.agent == "" || w.agent == from
}

// waiterRegistry connects drained mailbox batches to blocking receives.
// Routing a batch, draining a waiter's channel, and removing a waiter all
// happen under one lock, which gives two guarantees: an entry is consumed by
// exactly one receive or event emission, and a receive that wakes mid-batch
// cannot observe half a scan.
type waiterRegistry struct {
	mu      sync.Mutex
	waiters map[*waiter]struct{}
}

func newWaiterRegistry() *waiterRegistry {
	return &waiterRegistry{waiters: make(map[*waiter]struct{})}
}

// register adds a waiter to the dispatch set.
func (r *waiterRegistry) register(w *waiter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.waiters[w] = struct{}{}
}

// remove unregisters a waiter and returns everything routed to it but never
// consumed. After remove returns, no further entries can reach the waiter's
// channel; callers re-emit the leftovers as events.
func (r *waiterRegistry) remove(w *waiter) []Received {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.waiters, w)

	var leftover []Received
	for {
		select {
		case rcv := <-w.content:
			leftover = append(leftover, rcv)
		default:
			return leftover
		}
	}
}

// route hands each content entry of one drained batch to the first matching
// waiter with channel capacity and records signals as fallback candidates on
// every matching waiter. Signals are never claimed. The returned slice holds
// everything that needs an event: all signals plus unclaimed content.
func (r *waiterRegistry) route(batch []Received) []Received {
	r.mu.Lock()
	defer r.mu.Unlock()

	var unclaimed []Received

	for _, rcv := range batch {
		if rcv.Message.IsSignal() {
			r.noteFallbackLocked(rcv)
			unclaimed = append(unclaimed, rcv)
			continue
		}
		if r.offerLocked(rcv) {
			continue
		}
		unclaimed = append(unclaimed, rcv)
	}

	return unclaimed
}

// drainClaimed empties the waiter's channel. Holding the registry lock waits
// out any in-flight batch, so a scan's content is never split between the
// receive result and later event emission.
func (r *waiterRegistry) drainClaimed(w *waiter) []Received {
	r.mu.Lock()
	defer r.mu.Unlock()

	var extra []Received
	for {
		select {
		case rcv := <-w.content:
			extra = append(extra, rcv)
		default:
			return extra
		}
	}
}

// takeFallback returns the signal recorded for the waiter, if any.
func (r *waiterRegistry) takeFallback(w *waiter) *Received {
	r.mu.Lock()
	defer r.mu.Unlock()

	return w.fallback
}

// offerLocked hands one content entry to the first matching waiter.
// Returns true when a waiter claimed it. Callers hold r.mu.
func (r *waiterRegistry) offerLocked(rcv Received) bool {
	for w := range r.waiters {
		if !w.matches(rcv.From) {
			continue
		}
		select {
		case w.content <- rcv:
			return true
		default:
			// Buffer full; try the next waiter.
		}
	}
	return false
}

// noteFallbackLocked records a signal on every matching waiter that has not
// observed one yet. Callers hold r.mu.
func (r *waiterRegistry) noteFallbackLocked(rcv Received) {
	for w := range r.waiters {
		if w.mode == modeAny || !w.matches(rcv.From) {
			continue
		}
		if w.fallback == nil {
			c := rcv
			w.fallback = &c
		}
	}
}
