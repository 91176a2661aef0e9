package coordinator

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codingwatching/companion/internal/domain"
	companionerrors "github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/protocol"
)

// collect subscribes to an event and returns a channel the handler feeds.
func collect(t *testing.T, c *Coordinator, event Event) <-chan Received {
	t.Helper()

	ch := make(chan Received, 16)
	token := c.On(event, func(rcv Received) { ch <- rcv })
	t.Cleanup(func() { c.Off(event, token) })

	return ch
}

func waitFor(t *testing.T, ch <-chan Received) Received {
	t.Helper()

	select {
	case rcv := <-ch:
		return rcv
	case <-time.After(2 * time.Second):
		t.Fatal("event never fired")
		return Received{}
	}
}

func TestCoordinator_Receive(t *testing.T) {
	t.Run("returns content already waiting", func(t *testing.T) {
		c := newTestCoordinator(t)
		seed(t, c, "worker1", "done with the refactor")

		got, err := c.Receive(context.Background(), "worker1", ReceiveOptions{Timeout: 5 * time.Second})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "worker1", got[0].From)
		assert.Equal(t, protocol.TypePlainText, got[0].Message.Type)
		assert.Equal(t, "done with the refactor", got[0].Message.Text)
	})

	t.Run("returns all content from one scan, never signals", func(t *testing.T) {
		c := newTestCoordinator(t)
		idleEvents := collect(t, c, EventIdle)

		seed(t, c, "worker1", "first result")
		seedMessage(t, c, "worker1", protocol.NewIdleNotification())
		seed(t, c, "worker1", "second result")

		got, err := c.Receive(context.Background(), "worker1", ReceiveOptions{Timeout: 5 * time.Second})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "first result", got[0].Message.Text)
		assert.Equal(t, "second result", got[1].Message.Text)

		// The interleaved signal surfaced as an event instead.
		rcv := waitFor(t, idleEvents)
		assert.Equal(t, protocol.TypeIdleNotification, rcv.Message.Type)
	})

	t.Run("returns content that arrives while blocked", func(t *testing.T) {
		c := newTestCoordinator(t)

		go func() {
			time.Sleep(100 * time.Millisecond)
			// A write failure surfaces as a receive timeout below.
			_ = c.mail.Write(context.Background(), c.team, c.identity, &domain.MailboxEntry{
				From:      "worker1",
				Text:      "late arrival",
				Timestamp: time.Now().UTC(),
			})
		}()

		got, err := c.Receive(context.Background(), "worker1", ReceiveOptions{Timeout: 5 * time.Second})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "late arrival", got[0].Message.Text)
	})

	t.Run("ignores content from other senders", func(t *testing.T) {
		c := newTestCoordinator(t)
		messages := collect(t, c, EventMessage)

		seed(t, c, "worker2", "not for this receive")

		_, err := c.Receive(context.Background(), "worker1", ReceiveOptions{Timeout: 400 * time.Millisecond})
		require.ErrorIs(t, err, companionerrors.ErrReceiveTimeout)

		rcv := waitFor(t, messages)
		assert.Equal(t, "worker2", rcv.From)
	})

	t.Run("falls back to an observed signal at timeout", func(t *testing.T) {
		c := newTestCoordinator(t)

		seedMessage(t, c, "worker1", protocol.NewShutdownApproved("shutdown-worker1-abc123"))

		got, err := c.Receive(context.Background(), "worker1", ReceiveOptions{Timeout: 300 * time.Millisecond})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, protocol.TypeShutdownApproved, got[0].Message.Type)
		assert.Equal(t, "shutdown-worker1-abc123", got[0].Message.RequestID())
	})

	t.Run("content wins over an observed signal", func(t *testing.T) {
		c := newTestCoordinator(t)

		seedMessage(t, c, "worker1", protocol.NewIdleNotification())
		seed(t, c, "worker1", "actual content")

		got, err := c.Receive(context.Background(), "worker1", ReceiveOptions{Timeout: 5 * time.Second})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "actual content", got[0].Message.Text)
	})

	t.Run("times out on an empty inbox", func(t *testing.T) {
		c := newTestCoordinator(t)

		start := time.Now()
		_, err := c.Receive(context.Background(), "worker1", ReceiveOptions{Timeout: 200 * time.Millisecond})
		require.ErrorIs(t, err, companionerrors.ErrReceiveTimeout)
		assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	})

	t.Run("honors a custom poll interval", func(t *testing.T) {
		c := newTestCoordinator(t)

		// Only the immediate first scan runs before the timeout, so content
		// written after the receive starts is never picked up.
		go func() {
			time.Sleep(150 * time.Millisecond)
			_ = c.mail.Write(context.Background(), c.team, c.identity, &domain.MailboxEntry{
				From:      "worker1",
				Text:      "missed the scan",
				Timestamp: time.Now().UTC(),
			})
		}()

		_, err := c.Receive(context.Background(), "worker1", ReceiveOptions{
			Timeout:      400 * time.Millisecond,
			PollInterval: time.Hour,
		})
		require.ErrorIs(t, err, companionerrors.ErrReceiveTimeout)
	})

	t.Run("content routed as the window closes beats the fallback", func(t *testing.T) {
		c := newTestCoordinator(t)

		// Routing can finish between the receive's last channel read and
		// its timer firing; such content sits claimed in the waiter's
		// channel when the window closes and must still be returned.
		w := &waiter{agent: "worker1", mode: modeFirst, content: make(chan Received, waiterBuffer)}
		c.waiters.register(w)
		defer c.release(w)

		c.waiters.route([]Received{
			{From: "worker1", Message: protocol.NewIdleNotification()},
			{From: "worker1", Message: protocol.Classify("just in time")},
		})

		got, err := c.windowClosed(w, "worker1", time.Second)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "just in time", got[0].Message.Text)
	})

	t.Run("window close without content still falls back to the signal", func(t *testing.T) {
		c := newTestCoordinator(t)

		w := &waiter{agent: "worker1", mode: modeFirst, content: make(chan Received, waiterBuffer)}
		c.waiters.register(w)
		defer c.release(w)

		c.waiters.route([]Received{{From: "worker1", Message: protocol.NewIdleNotification()}})

		got, err := c.windowClosed(w, "worker1", time.Second)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, protocol.TypeIdleNotification, got[0].Message.Type)
	})

	t.Run("rejects an empty sender", func(t *testing.T) {
		c := newTestCoordinator(t)

		_, err := c.Receive(context.Background(), "", ReceiveOptions{})
		require.ErrorIs(t, err, companionerrors.ErrEmptyValue)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		c := newTestCoordinator(t)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		_, err := c.Receive(ctx, "worker1", ReceiveOptions{Timeout: 5 * time.Second})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestCoordinator_ReceiveAll(t *testing.T) {
	t.Run("accumulates content across the window", func(t *testing.T) {
		c := newTestCoordinator(t)

		seed(t, c, "worker1", "first")
		go func() {
			time.Sleep(150 * time.Millisecond)
			// A write failure surfaces as a short result below.
			_ = c.mail.Write(context.Background(), c.team, c.identity, &domain.MailboxEntry{
				From:      "worker1",
				Text:      "second",
				Timestamp: time.Now().UTC(),
			})
		}()

		start := time.Now()
		got, err := c.Receive(context.Background(), "worker1", ReceiveOptions{
			Timeout: 600 * time.Millisecond,
			All:     true,
		})
		require.NoError(t, err)

		// The window always runs to completion.
		assert.GreaterOrEqual(t, time.Since(start), 600*time.Millisecond)
		require.Len(t, got, 2)
		assert.Equal(t, "first", got[0].Message.Text)
		assert.Equal(t, "second", got[1].Message.Text)
	})

	t.Run("falls back only when no content arrived", func(t *testing.T) {
		c := newTestCoordinator(t)

		seedMessage(t, c, "worker1", protocol.NewIdleNotification())

		got, err := c.Receive(context.Background(), "worker1", ReceiveOptions{
			Timeout: 300 * time.Millisecond,
			All:     true,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, protocol.TypeIdleNotification, got[0].Message.Type)
	})

	t.Run("signal does not shadow content", func(t *testing.T) {
		c := newTestCoordinator(t)

		seedMessage(t, c, "worker1", protocol.NewIdleNotification())
		seed(t, c, "worker1", "real work")

		got, err := c.Receive(context.Background(), "worker1", ReceiveOptions{
			Timeout: 300 * time.Millisecond,
			All:     true,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "real work", got[0].Message.Text)
	})

	t.Run("times out on an empty inbox", func(t *testing.T) {
		c := newTestCoordinator(t)

		_, err := c.Receive(context.Background(), "worker1", ReceiveOptions{
			Timeout: 200 * time.Millisecond,
			All:     true,
		})
		require.ErrorIs(t, err, companionerrors.ErrReceiveTimeout)
	})
}

func TestCoordinator_ReceiveAny(t *testing.T) {
	t.Run("returns the first content from any sender", func(t *testing.T) {
		c := newTestCoordinator(t)

		seed(t, c, "worker2", "status update")

		got, err := c.ReceiveAny(context.Background(), ReceiveOptions{Timeout: 5 * time.Second})
		require.NoError(t, err)
		assert.Equal(t, "worker2", got.From)
		assert.Equal(t, "status update", got.Message.Text)
	})

	t.Run("never falls back to signals", func(t *testing.T) {
		c := newTestCoordinator(t)
		idleEvents := collect(t, c, EventIdle)

		seedMessage(t, c, "worker1", protocol.NewIdleNotification())

		_, err := c.ReceiveAny(context.Background(), ReceiveOptions{Timeout: 300 * time.Millisecond})
		require.ErrorIs(t, err, companionerrors.ErrReceiveTimeout)

		// The signal still fired its event.
		rcv := waitFor(t, idleEvents)
		assert.Equal(t, protocol.TypeIdleNotification, rcv.Message.Type)
	})
}

func TestCoordinator_Events(t *testing.T) {
	t.Run("unclaimed content emits a message event", func(t *testing.T) {
		c := newTestCoordinator(t)
		messages := collect(t, c, EventMessage)

		seed(t, c, "worker1", "nobody is waiting")
		require.NoError(t, c.poller.Poll(context.Background()))

		rcv := waitFor(t, messages)
		assert.Equal(t, "worker1", rcv.From)
		assert.Equal(t, "nobody is waiting", rcv.Message.Text)
	})

	t.Run("claimed content emits no event", func(t *testing.T) {
		c := newTestCoordinator(t)

		var fired atomic.Int32
		token := c.On(EventMessage, func(Received) { fired.Add(1) })
		t.Cleanup(func() { c.Off(EventMessage, token) })

		seed(t, c, "worker1", "claimed by the receive")

		_, err := c.Receive(context.Background(), "worker1", ReceiveOptions{Timeout: 5 * time.Second})
		require.NoError(t, err)

		time.Sleep(100 * time.Millisecond)
		assert.Zero(t, fired.Load())
	})

	t.Run("signal events fire during an active receive", func(t *testing.T) {
		c := newTestCoordinator(t)
		approvals := collect(t, c, EventShutdownApproved)

		seedMessage(t, c, "worker1", protocol.NewShutdownApproved("shutdown-worker1-deadbeef"))

		got, err := c.Receive(context.Background(), "worker1", ReceiveOptions{Timeout: 300 * time.Millisecond})
		require.NoError(t, err)
		require.Len(t, got, 1)

		// Fallback delivery does not suppress the event.
		rcv := waitFor(t, approvals)
		assert.Equal(t, "shutdown-worker1-deadbeef", rcv.Message.RequestID())
	})

	t.Run("plan approval requests route to their event", func(t *testing.T) {
		c := newTestCoordinator(t)
		plans := collect(t, c, EventPlanApprovalRequest)

		seed(t, c, "worker1", `{"type":"plan_approval_request","requestId":"plan-1","text":"the plan"}`)
		require.NoError(t, c.poller.Poll(context.Background()))

		rcv := waitFor(t, plans)
		assert.Equal(t, "plan-1", rcv.Message.RequestID())
	})

	t.Run("off removes the handler", func(t *testing.T) {
		c := newTestCoordinator(t)

		var fired atomic.Int32
		token := c.On(EventMessage, func(Received) { fired.Add(1) })
		c.Off(EventMessage, token)

		seed(t, c, "worker1", "into the void")
		require.NoError(t, c.poller.Poll(context.Background()))

		time.Sleep(50 * time.Millisecond)
		assert.Zero(t, fired.Load())
	})

	t.Run("a panicking handler does not break the rest", func(t *testing.T) {
		c := newTestCoordinator(t)

		var fired atomic.Int32
		c.On(EventMessage, func(Received) { panic("bad subscriber") })
		c.On(EventMessage, func(Received) { fired.Add(1) })

		seed(t, c, "worker1", "still delivered")
		require.NoError(t, c.poller.Poll(context.Background()))

		assert.Equal(t, int32(1), fired.Load())
	})

	t.Run("a recovered handler panic is logged", func(t *testing.T) {
		var buf bytes.Buffer
		bus := newEventBus(zerolog.New(&buf))

		var fired atomic.Int32
		bus.on(EventMessage, func(Received) { panic("bad subscriber") })
		bus.on(EventMessage, func(Received) { fired.Add(1) })

		bus.emit(EventMessage, Received{From: "worker1"})

		assert.Equal(t, int32(1), fired.Load())
		assert.Contains(t, buf.String(), "event handler panicked")
		assert.Contains(t, buf.String(), "bad subscriber")
	})
}

func TestCoordinator_ShutdownFlow(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	requestID, err := c.SendShutdownRequest(ctx, "worker1")
	require.NoError(t, err)
	require.NotEmpty(t, requestID)

	// The request landed in the worker's inbox with the same id.
	got := inbox(t, c, "worker1")
	require.Len(t, got, 1)
	assert.Equal(t, protocol.TypeShutdownRequest, got[0].Message.Type)
	assert.Equal(t, requestID, got[0].Message.RequestID())

	// The worker approves; the lead's receive reports it as a fallback.
	seedMessage(t, c, "worker1", protocol.NewShutdownApproved(requestID))

	rcvd, err := c.Receive(ctx, "worker1", ReceiveOptions{Timeout: 300 * time.Millisecond})
	require.NoError(t, err)
	require.Len(t, rcvd, 1)
	assert.Equal(t, protocol.TypeShutdownApproved, rcvd[0].Message.Type)
	assert.Equal(t, requestID, rcvd[0].Message.RequestID())
}

func TestCoordinator_ApprovalResponses(t *testing.T) {
	t.Run("plan approval response", func(t *testing.T) {
		c := newTestCoordinator(t)

		err := c.SendPlanApproval(context.Background(), "worker1", "plan-7", false, "needs tests first")
		require.NoError(t, err)

		got := inbox(t, c, "worker1")
		require.Len(t, got, 1)
		assert.Equal(t, protocol.TypePlanApprovalResponse, got[0].Message.Type)
		assert.Equal(t, "plan-7", got[0].Message.RequestID())
		assert.Equal(t, "needs tests first", got[0].Message.Feedback())

		approved, ok := got[0].Message.Approved()
		require.True(t, ok)
		assert.False(t, approved)
	})

	t.Run("permission response", func(t *testing.T) {
		c := newTestCoordinator(t)

		err := c.SendPermissionResponse(context.Background(), "worker1", "perm-3", true)
		require.NoError(t, err)

		got := inbox(t, c, "worker1")
		require.Len(t, got, 1)
		assert.Equal(t, protocol.TypePermissionResponse, got[0].Message.Type)
		assert.Equal(t, "perm-3", got[0].Message.RequestID())

		approved, ok := got[0].Message.Approved()
		require.True(t, ok)
		assert.True(t, approved)
	})

	t.Run("shutdown approval", func(t *testing.T) {
		c := newTestCoordinator(t)

		err := c.ApproveShutdown(context.Background(), "worker1", "shutdown-lead-12ab34cd")
		require.NoError(t, err)

		got := inbox(t, c, "worker1")
		require.Len(t, got, 1)
		assert.Equal(t, protocol.TypeShutdownApproved, got[0].Message.Type)
		assert.Equal(t, "shutdown-lead-12ab34cd", got[0].Message.RequestID())
	})
}
