package execution

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowgrid/flowgrid/pkg/events"
	"github.com/flowgrid/flowgrid/pkg/graph"
	"github.com/flowgrid/flowgrid/pkg/models"
)

// Reducer maps incoming execution events onto per-node status patches and
// the execution log.
//
// Events are applied strictly in arrival order; there is no buffering or
// reordering, so an out-of-order transport shows stale node states until a
// later corrective event lands. A status patch targets the canvas node id
// and nothing else — the runtime is required to report that id. A patch
// with no matching node changes nothing; the event is still logged.
type Reducer struct {
	mu sync.Mutex

	store    *graph.Store
	notifier Notifier
	logger   *slog.Logger

	entries     []models.LogEntry
	executing   bool
	executionID string
}

// NewReducer creates a reducer over the given store. A nil notifier
// discards notifications.
func NewReducer(store *graph.Store, notifier Notifier, logger *slog.Logger) *Reducer {
	if notifier == nil {
		notifier = NopNotifier{}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Reducer{
		store:    store,
		notifier: notifier,
		logger:   logger.With("module", "execution"),
	}
}

// Begin starts tracking a new execution: the log is cleared, every node
// returns to idle and the executing flag is raised.
func (r *Reducer) Begin(executionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.executing = true
	r.executionID = executionID
	r.store.ResetRuntime()
}

// Apply folds one envelope into canvas state. Malformed payloads are
// logged for operators and dropped; they never propagate to the caller.
func (r *Reducer) Apply(envelope *events.Envelope) {
	event, err := envelope.Decode()
	if err != nil {
		r.logger.Warn("dropping malformed execution event", "error", err)

		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch e := event.(type) {
	case *events.WorkflowStarted:
		r.append(models.LogLevelInfo, "Workflow execution started", "", nil)
	case *events.WorkflowCompleted:
		r.executing = false
		r.append(models.LogLevelSuccess, "Workflow execution completed", "", e.Result)
	case *events.WorkflowFailed:
		r.executing = false
		r.append(models.LogLevelError, "Workflow execution failed: "+e.Error, "", nil)
		r.notifier.Notify(models.LogLevelError, "Execution failed", e.Error)
	case *events.NodeStarted:
		r.store.SetNodeRuntime(e.NodeID, models.NodeStatusRunning, graph.RuntimePatch{})
		r.append(models.LogLevelInfo, "Executing "+r.label(e.NodeID, e.NodeLabel), e.NodeID, nil)
	case *events.NodeCompleted:
		r.store.SetNodeRuntime(e.NodeID, models.NodeStatusSuccess, graph.RuntimePatch{Output: e.Result})
		r.append(models.LogLevelSuccess, r.label(e.NodeID, e.NodeLabel)+" completed", e.NodeID, e.Result)
	case *events.NodeFailed:
		r.store.SetNodeRuntime(e.NodeID, models.NodeStatusFailed, graph.RuntimePatch{
			Error:      e.Error,
			Suggestion: e.Suggestion,
		})

		message := r.label(e.NodeID, e.NodeLabel) + " failed: " + e.Error
		if e.Category != "" && e.Category != "unknown" {
			message = fmt.Sprintf("%s failed [%s]: %s", r.label(e.NodeID, e.NodeLabel), e.Category, e.Error)
		}

		r.append(models.LogLevelError, message, e.NodeID, nil)

		if e.Suggestion != "" {
			r.notifier.Notify(models.LogLevelWarning, "Suggested fix", e.Suggestion)
		}
	case *events.NodeRetrying:
		r.append(models.LogLevelWarning, fmt.Sprintf(
			"Retrying %s (attempt %d of %d, in %dms)",
			r.label(e.NodeID, e.NodeLabel), e.Attempt, e.MaxRetries, e.DelayMs,
		), e.NodeID, nil)
	case *events.NodeContinued:
		r.store.SetNodeRuntime(e.NodeID, models.NodeStatusWarning, graph.RuntimePatch{Error: e.Error})
		r.append(models.LogLevelWarning, r.label(e.NodeID, e.NodeLabel)+" failed, continuing: "+e.Error, e.NodeID, nil)
	}
}

// Log returns a copy of the log entries in append order.
func (r *Reducer) Log() []models.LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]models.LogEntry, len(r.entries))
	copy(entries, r.entries)

	return entries
}

// ClearLog empties the log on explicit user request.
func (r *Reducer) ClearLog() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
}

// IsExecuting reports whether a run is in flight.
func (r *Reducer) IsExecuting() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.executing
}

// ExecutionID returns the id of the tracked run.
func (r *Reducer) ExecutionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.executionID
}

func (r *Reducer) append(level models.LogLevel, message, nodeID string, data map[string]any) {
	r.entries = append(r.entries, models.LogEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		NodeID:    nodeID,
		Data:      data,
	})
}

func (r *Reducer) label(nodeID, eventLabel string) string {
	if eventLabel != "" {
		return eventLabel
	}

	if node := r.store.Node(nodeID); node != nil {
		return node.Label
	}

	return nodeID
}
