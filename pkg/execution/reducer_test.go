package execution

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgrid/flowgrid/pkg/events"
	"github.com/flowgrid/flowgrid/pkg/graph"
	"github.com/flowgrid/flowgrid/pkg/models"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ models.LogLevel, _ string, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.messages = append(n.messages, message)
}

func canvasWithNode(t *testing.T, id string) *graph.Store {
	t.Helper()

	store := graph.NewStore(nil)
	store.Load([]*models.WorkflowNode{
		{
			ID:       id,
			Kind:     models.NodeKindAction,
			TypeName: "http.request",
			Label:    "Fetch users",
			Position: &models.Position{X: 100, Y: 100},
		},
	}, nil)

	return store
}

func envelope(t *testing.T, event events.Event) *events.Envelope {
	t.Helper()

	env, err := events.NewEnvelope(event)
	require.NoError(t, err)

	return env
}

func TestReducerOrderedScenario(t *testing.T) {
	store := canvasWithNode(t, "n1")
	reducer := NewReducer(store, nil, nil)

	reducer.Begin("exec-1")

	reducer.Apply(envelope(t, events.WorkflowStarted{ExecutionID: "exec-1"}))
	reducer.Apply(envelope(t, events.NodeStarted{ExecutionID: "exec-1", NodeID: "n1"}))
	reducer.Apply(envelope(t, events.NodeCompleted{
		ExecutionID: "exec-1",
		NodeID:      "n1",
		Result:      map[string]any{"x": 1},
	}))

	node := store.Node("n1")
	require.NotNil(t, node)
	assert.Equal(t, models.NodeStatusSuccess, node.RuntimeStatus)
	assert.EqualValues(t, 1, node.LastOutput["x"])

	log := reducer.Log()
	require.Len(t, log, 3)
	assert.Equal(t, models.LogLevelInfo, log[0].Level)
	assert.Equal(t, models.LogLevelInfo, log[1].Level)
	assert.Equal(t, models.LogLevelSuccess, log[2].Level)
	assert.Equal(t, "n1", log[2].NodeID)
}

func TestReducerNodeFailure(t *testing.T) {
	store := canvasWithNode(t, "n1")
	notifier := &recordingNotifier{}
	reducer := NewReducer(store, notifier, nil)

	reducer.Begin("exec-1")
	reducer.Apply(envelope(t, events.NodeFailed{
		ExecutionID: "exec-1",
		NodeID:      "n1",
		Error:       "timeout after 30s",
		Category:    "network",
		Suggestion:  "increase the timeout",
	}))

	node := store.Node("n1")
	assert.Equal(t, models.NodeStatusFailed, node.RuntimeStatus)
	assert.Equal(t, "timeout after 30s", node.LastError)
	assert.Equal(t, "increase the timeout", node.LastErrorSuggestion)

	log := reducer.Log()
	require.Len(t, log, 1)
	assert.Contains(t, log[0].Message, "[network]")

	assert.Equal(t, []string{"increase the timeout"}, notifier.messages)
}

func TestReducerUnknownCategoryOmitsTag(t *testing.T) {
	store := canvasWithNode(t, "n1")
	reducer := NewReducer(store, nil, nil)

	reducer.Begin("exec-1")
	reducer.Apply(envelope(t, events.NodeFailed{
		ExecutionID: "exec-1",
		NodeID:      "n1",
		Error:       "boom",
		Category:    "unknown",
	}))

	log := reducer.Log()
	require.Len(t, log, 1)
	assert.NotContains(t, log[0].Message, "[unknown]")
}

func TestReducerRetryAndContinue(t *testing.T) {
	store := canvasWithNode(t, "n1")
	reducer := NewReducer(store, nil, nil)

	reducer.Begin("exec-1")

	reducer.Apply(envelope(t, events.NodeStarted{ExecutionID: "exec-1", NodeID: "n1"}))
	reducer.Apply(envelope(t, events.NodeRetrying{
		ExecutionID: "exec-1",
		NodeID:      "n1",
		Attempt:     2,
		MaxRetries:  3,
		DelayMs:     1000,
	}))

	// A retry warns in the log but leaves the node status alone.
	assert.Equal(t, models.NodeStatusRunning, store.Node("n1").RuntimeStatus)

	reducer.Apply(envelope(t, events.NodeContinued{
		ExecutionID: "exec-1",
		NodeID:      "n1",
		Error:       "still failing",
	}))

	node := store.Node("n1")
	assert.Equal(t, models.NodeStatusWarning, node.RuntimeStatus)
	assert.Equal(t, "still failing", node.LastError)

	log := reducer.Log()
	require.Len(t, log, 3)
	assert.Contains(t, log[1].Message, "attempt 2 of 3")
}

func TestReducerWorkflowLifecycle(t *testing.T) {
	store := canvasWithNode(t, "n1")
	notifier := &recordingNotifier{}
	reducer := NewReducer(store, notifier, nil)

	reducer.Begin("exec-1")
	assert.True(t, reducer.IsExecuting())

	reducer.Apply(envelope(t, events.WorkflowCompleted{ExecutionID: "exec-1"}))
	assert.False(t, reducer.IsExecuting())

	reducer.Begin("exec-2")
	assert.Empty(t, reducer.Log(), "a new execution clears the log")
	assert.True(t, reducer.IsExecuting())

	reducer.Apply(envelope(t, events.WorkflowFailed{ExecutionID: "exec-2", Error: "engine crashed"}))
	assert.False(t, reducer.IsExecuting())
	assert.Equal(t, []string{"engine crashed"}, notifier.messages)
}

func TestReducerUnmatchedNodeStillLogs(t *testing.T) {
	store := canvasWithNode(t, "n1")
	reducer := NewReducer(store, nil, nil)

	reducer.Begin("exec-1")
	reducer.Apply(envelope(t, events.NodeStarted{ExecutionID: "exec-1", NodeID: "ghost"}))

	assert.Equal(t, models.NodeStatusIdle, store.Node("n1").RuntimeStatus)
	assert.Len(t, reducer.Log(), 1, "the event is logged even without a status patch")
}

func TestReducerDropsMalformedPayloads(t *testing.T) {
	store := canvasWithNode(t, "n1")
	reducer := NewReducer(store, nil, nil)

	reducer.Begin("exec-1")

	reducer.Apply(&events.Envelope{Type: "node_teleported", Data: []byte(`{}`)})
	reducer.Apply(&events.Envelope{Type: events.NodeStartedEvent, Data: []byte(`{not json`)})

	assert.Empty(t, reducer.Log())
}
