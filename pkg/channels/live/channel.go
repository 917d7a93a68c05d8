// Package live binds a single consumer to the event stream of one
// execution id and manages the connection lifecycle.
package live

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/flowgrid/flowgrid/pkg/events"
)

// State is the connection lifecycle: closed → connecting → open → closed.
type State string

const (
	StateClosed     State = "closed"
	StateConnecting State = "connecting"
	StateOpen       State = "open"
)

// Handler receives each inbound envelope. Malformed frames never reach
// it; they are logged and dropped.
type Handler func(*events.Envelope)

// TransitionFunc observes lifecycle transitions for one execution id.
type TransitionFunc func(executionID string, state State)

// conn is one subscription bound to one execution id. closeOnce
// guarantees exactly one closed transition per connection, whether the
// consumer drained out or the channel was torn down.
type conn struct {
	id        string
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Channel is a single-consumer event source keyed by execution id.
//
// Setting a new id always closes the previous subscription before opening
// the next one; there are never two concurrent subscriptions for the same
// consumer. The channel does not reconnect on its own — callers needing a
// retry re-set the execution id.
type Channel struct {
	mu sync.Mutex

	subscriber   message.Subscriber
	handler      Handler
	onTransition TransitionFunc
	logger       *slog.Logger

	current *conn
	state   State
}

// NewChannel creates a closed channel over the given subscriber.
func NewChannel(subscriber message.Subscriber, handler Handler, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}

	return &Channel{
		subscriber: subscriber,
		handler:    handler,
		logger:     logger.With("module", "live"),
		state:      StateClosed,
	}
}

// OnTransition registers a lifecycle observer. Must be called before the
// first SetExecutionID.
func (c *Channel) OnTransition(fn TransitionFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onTransition = fn
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Connected reports whether the channel is open.
func (c *Channel) Connected() bool {
	return c.State() == StateOpen
}

// ExecutionID returns the bound execution id, empty when closed.
func (c *Channel) ExecutionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return ""
	}

	return c.current.id
}

// SetExecutionID rebinds the channel. The previous subscription, if any,
// is fully closed first. An empty id closes the channel and opens
// nothing.
func (c *Channel) SetExecutionID(ctx context.Context, executionID string) error {
	c.closeCurrent()

	if executionID == "" {
		return nil
	}

	c.transition(executionID, StateConnecting)

	subCtx, cancel := context.WithCancel(ctx)

	messages, err := c.subscriber.Subscribe(subCtx, events.Topic(executionID))
	if err != nil {
		cancel()
		c.transition(executionID, StateClosed)

		return err
	}

	cn := &conn{
		id:     executionID,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	c.mu.Lock()
	c.current = cn
	c.state = StateOpen
	c.mu.Unlock()

	c.emit(executionID, StateOpen)

	go c.consume(cn, messages)

	return nil
}

// Close tears the channel down, as on editor unmount. No subscription is
// left orphaned.
func (c *Channel) Close() {
	c.closeCurrent()
}

func (c *Channel) closeCurrent() {
	c.mu.Lock()
	prev := c.current
	c.current = nil
	c.mu.Unlock()

	if prev == nil {
		return
	}

	prev.cancel()
	<-prev.done
}

// consume drains the subscription. A server- or network-initiated close
// (the message channel closing without a local cancel) also lands here,
// marking the channel disconnected without any reconnect attempt.
func (c *Channel) consume(cn *conn, messages <-chan *message.Message) {
	defer close(cn.done)
	defer c.markClosed(cn)

	for msg := range messages {
		envelope, err := events.ParseEnvelope(msg.Payload)
		if err != nil {
			c.logger.Warn("dropping malformed frame", "execution_id", cn.id, "error", err)
			msg.Ack()

			continue
		}

		c.handler(envelope)
		msg.Ack()
	}
}

func (c *Channel) markClosed(cn *conn) {
	cn.closeOnce.Do(func() {
		c.mu.Lock()
		if c.current == cn {
			c.current = nil
		}

		c.state = StateClosed
		c.mu.Unlock()

		c.emit(cn.id, StateClosed)
	})
}

// transition updates state and notifies in one step, for the pre-open
// phases where no conn exists yet.
func (c *Channel) transition(executionID string, state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	c.emit(executionID, state)
}

func (c *Channel) emit(executionID string, state State) {
	c.mu.Lock()
	fn := c.onTransition
	c.mu.Unlock()

	if fn != nil {
		fn(executionID, state)
	}
}
