package coordinator

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/codingwatching/companion/internal/domain"
	"github.com/codingwatching/companion/internal/protocol"
)

// Event names an inbox occurrence subscribers can react to. Exactly one
// event fires per dispatched entry that no blocking receive claims; signal
// entries fire their event unconditionally because receives never claim
// them.
type Event string

// Events emitted by the coordinator's dispatch loop.
const (
	// EventMessage fires for content entries no blocking receive claimed.
	// Plain text and task assignments land here.
	EventMessage Event = "message"

	// EventIdle fires whenever a teammate reports going idle.
	EventIdle Event = "idle"

	// EventShutdownApproved fires whenever a teammate confirms a shutdown
	// request.
	EventShutdownApproved Event = "shutdown:approved"

	// EventPlanApprovalRequest fires for unclaimed plan approval requests.
	EventPlanApprovalRequest Event = "plan:approval_request"

	// EventPermissionRequest fires for unclaimed permission requests.
	EventPermissionRequest Event = "permission:request"
)

// Received is one mailbox entry as handed to receives and event handlers.
type Received struct {
	// From is the sender's member name.
	From string

	// Entry is the raw mailbox entry, including display metadata.
	Entry domain.MailboxEntry

	// Message is the classified payload.
	Message protocol.Message
}

// EventHandler consumes one dispatched entry. Handlers run synchronously on
// the dispatching goroutine and must not block.
type EventHandler func(rcv Received)

// eventFor maps a classified message to the event its entry emits.
func eventFor(msg protocol.Message) Event {
	switch msg.Type {
	case protocol.TypeIdleNotification:
		return EventIdle
	case protocol.TypeShutdownApproved:
		return EventShutdownApproved
	case protocol.TypePlanApprovalRequest:
		return EventPlanApprovalRequest
	case protocol.TypePermissionRequest:
		return EventPermissionRequest
	default:
		return EventMessage
	}
}

// eventBus is a minimal subscriber registry keyed by event name.
type eventBus struct {
	logger zerolog.Logger

	mu       sync.Mutex
	nextID   int
	handlers map[Event]map[int]EventHandler
}

func newEventBus(logger zerolog.Logger) *eventBus {
	return &eventBus{
		logger:   logger,
		handlers: make(map[Event]map[int]EventHandler),
	}
}

// on registers a handler and returns the token that removes it.
func (b *eventBus) on(event Event, handler EventHandler) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	if b.handlers[event] == nil {
		b.handlers[event] = make(map[int]EventHandler)
	}
	b.handlers[event][b.nextID] = handler

	return b.nextID
}

// off removes a previously registered handler. Unknown tokens are ignored.
func (b *eventBus) off(event Event, token int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.handlers[event], token)
}

// emit invokes every handler registered for the event.
func (b *eventBus) emit(event Event, rcv Received) {
	b.mu.Lock()
	handlers := make([]EventHandler, 0, len(b.handlers[event]))
	for _, h := range b.handlers[event] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		b.invoke(event, h, rcv)
	}
}

// invoke runs one handler with panic containment so a bad subscriber cannot
// break dispatch for the rest. The entry was already consumed; recovery is
// logged, not re-raised.
func (b *eventBus) invoke(event Event, h EventHandler, rcv Received) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Str("event", string(event)).Msg("event handler panicked")
		}
	}()

	h(rcv)
}
