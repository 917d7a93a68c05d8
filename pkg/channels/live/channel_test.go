package live

import (
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgrid/flowgrid/pkg/channels/gochannel"
	"github.com/flowgrid/flowgrid/pkg/events"
)

type transitionLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *transitionLog) record(executionID string, state State) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, executionID+":"+string(state))
}

func (l *transitionLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]string, len(l.entries))
	copy(entries, l.entries)

	return entries
}

type envelopeSink struct {
	mu        sync.Mutex
	envelopes []*events.Envelope
}

func (s *envelopeSink) handle(envelope *events.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.envelopes = append(s.envelopes, envelope)
}

func (s *envelopeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.envelopes)
}

func newTestChannel(t *testing.T) (*Channel, message.Publisher, *envelopeSink, *transitionLog) {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	sink := &envelopeSink{}
	transitions := &transitionLog{}

	channel := NewChannel(sub, sink.handle, nil)
	channel.OnTransition(transitions.record)

	t.Cleanup(channel.Close)

	return channel, pub, sink, transitions
}

func publishEvent(t *testing.T, pub message.Publisher, executionID string, event events.Event) {
	t.Helper()

	envelope, err := events.NewEnvelope(event)
	require.NoError(t, err)

	raw, err := envelope.Marshal()
	require.NoError(t, err)

	require.NoError(t, pub.Publish(events.Topic(executionID), message.NewMessage(watermill.NewUUID(), raw)))
}

func TestChannelDeliversEvents(t *testing.T) {
	channel, pub, sink, _ := newTestChannel(t)

	require.NoError(t, channel.SetExecutionID(t.Context(), "exec-1"))
	assert.True(t, channel.Connected())
	assert.Equal(t, "exec-1", channel.ExecutionID())

	publishEvent(t, pub, "exec-1", events.WorkflowStarted{ExecutionID: "exec-1"})
	publishEvent(t, pub, "exec-1", events.NodeStarted{ExecutionID: "exec-1", NodeID: "n1"})

	require.Eventually(t, func() bool {
		return sink.count() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestChannelRebindClosesBeforeOpening(t *testing.T) {
	channel, _, _, transitions := newTestChannel(t)

	require.NoError(t, channel.SetExecutionID(t.Context(), "exec-1"))
	require.NoError(t, channel.SetExecutionID(t.Context(), "exec-2"))

	entries := transitions.snapshot()
	require.Equal(t, []string{
		"exec-1:connecting",
		"exec-1:open",
		"exec-1:closed",
		"exec-2:connecting",
		"exec-2:open",
	}, entries, "exactly one close for the first channel, strictly before the second opens")

	assert.Equal(t, "exec-2", channel.ExecutionID())
}

func TestChannelNilExecutionIDClosesAll(t *testing.T) {
	channel, _, _, transitions := newTestChannel(t)

	require.NoError(t, channel.SetExecutionID(t.Context(), "exec-1"))
	require.NoError(t, channel.SetExecutionID(t.Context(), ""))

	assert.Equal(t, StateClosed, channel.State())
	assert.Empty(t, channel.ExecutionID())

	entries := transitions.snapshot()
	assert.Equal(t, "exec-1:closed", entries[len(entries)-1])

	// Clearing an already-closed channel opens nothing and emits nothing.
	before := len(transitions.snapshot())
	require.NoError(t, channel.SetExecutionID(t.Context(), ""))
	assert.Len(t, transitions.snapshot(), before)
}

func TestChannelDropsMalformedFrames(t *testing.T) {
	channel, pub, sink, _ := newTestChannel(t)

	require.NoError(t, channel.SetExecutionID(t.Context(), "exec-1"))

	require.NoError(t, pub.Publish(events.Topic("exec-1"),
		message.NewMessage(watermill.NewUUID(), []byte("{not json"))))
	publishEvent(t, pub, "exec-1", events.WorkflowStarted{ExecutionID: "exec-1"})

	require.Eventually(t, func() bool {
		return sink.count() == 1
	}, time.Second, 10*time.Millisecond)

	assert.True(t, channel.Connected(), "a malformed frame never tears the channel down")
}

func TestChannelIgnoresOtherExecutions(t *testing.T) {
	channel, pub, sink, _ := newTestChannel(t)

	require.NoError(t, channel.SetExecutionID(t.Context(), "exec-1"))

	publishEvent(t, pub, "exec-other", events.WorkflowStarted{ExecutionID: "exec-other"})
	publishEvent(t, pub, "exec-1", events.WorkflowStarted{ExecutionID: "exec-1"})

	require.Eventually(t, func() bool {
		return sink.count() == 1
	}, time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, sink.count())
}
