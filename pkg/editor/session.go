// Package editor ties the canvas engine together for one open workflow: the
// graph store, undo history, save-state machine, execution-event reducer and
// live channel, driven through typed commands.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/flowgrid/flowgrid/pkg/channels/live"
	"github.com/flowgrid/flowgrid/pkg/execution"
	"github.com/flowgrid/flowgrid/pkg/graph"
	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
	"github.com/flowgrid/flowgrid/pkg/registry"
	"github.com/flowgrid/flowgrid/pkg/runner"
	"github.com/flowgrid/flowgrid/pkg/saver"
)

var (
	// ErrNoWorkflowLoaded is returned when a command arrives before Load.
	ErrNoWorkflowLoaded = errors.New("no workflow loaded")

	// ErrUnknownNodeType is returned when InsertNode names a type the
	// registry does not know.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrUnknownCommand is returned for a command outside the closed set.
	ErrUnknownCommand = errors.New("unknown editor command")
)

// Config carries the session's collaborators.
type Config struct {
	Persistence persistence.Persistence
	Registry    *registry.Registry
	Publisher   message.Publisher
	Subscriber  message.Subscriber
	Notifier    execution.Notifier
	Logger      *slog.Logger
	Saver       saver.Options
}

// Session is one open workflow in the editor.
type Session struct {
	mu   sync.Mutex
	meta models.Workflow

	store    *graph.Store
	saver    *saver.Machine
	reducer  *execution.Reducer
	live     *live.Channel
	runner   *runner.Runner
	registry *registry.Registry

	persistence persistence.Persistence
	logger      *slog.Logger
	loaded      bool
}

// NewSession wires a session from its collaborators.
func NewSession(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With("module", "editor")

	store := graph.NewStore(logger)
	reducer := execution.NewReducer(store, cfg.Notifier, logger)

	s := &Session{
		store:       store,
		reducer:     reducer,
		runner:      runner.NewRunner(cfg.Publisher, logger),
		registry:    cfg.Registry,
		persistence: cfg.Persistence,
		logger:      logger,
	}

	s.live = live.NewChannel(cfg.Subscriber, reducer.Apply, logger)
	s.saver = saver.NewMachine(cfg.Persistence, cfg.Registry, s.Workflow, logger, cfg.Saver)

	return s
}

// Load opens a workflow document into the session. Runtime state resets and
// the save-state machine takes the loaded content as its baseline.
func (s *Session) Load(ctx context.Context, workflowID string) error {
	document, err := s.persistence.DocumentByID(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
	}

	if document == nil {
		return fmt.Errorf("workflow %s: %w", workflowID, persistence.ErrDocumentNotFound)
	}

	workflow := document.ToWorkflow()

	s.mu.Lock()
	s.meta = *workflow
	s.meta.Nodes = nil
	s.meta.Edges = nil
	s.loaded = true
	s.mu.Unlock()

	s.store.Load(workflow.Nodes, workflow.Edges)
	s.saver.Observe(s.Workflow())

	return nil
}

// Workflow composes the session's meta with the live graph.
func (s *Session) Workflow() *models.Workflow {
	s.mu.Lock()
	workflow := s.meta
	s.mu.Unlock()

	workflow.Nodes = s.store.Nodes()
	workflow.Edges = s.store.Edges()

	return &workflow
}

// Store exposes the underlying graph store for reads.
func (s *Session) Store() *graph.Store {
	return s.store
}

// Dispatch applies one typed command to the graph, then lets the save-state
// machine observe the result.
func (s *Session) Dispatch(cmd Command) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()

	if !loaded {
		return ErrNoWorkflowLoaded
	}

	if err := s.apply(cmd); err != nil {
		return err
	}

	s.saver.Observe(s.Workflow())

	return nil
}

func (s *Session) apply(cmd Command) error {
	switch c := cmd.(type) {
	case InsertNode:
		desc, ok := s.registry.Descriptor(c.TypeName)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownNodeType, c.TypeName)
		}

		s.store.AddNode(desc, c.Position)
	case RemoveNode:
		s.store.RemoveNode(c.NodeID)
	case UpdateNodeData:
		s.store.UpdateNodeData(c.NodeID, c.Patch)
	case ConnectNodes:
		s.store.Connect(c.Source, c.SourceHandle, c.Target, c.TargetHandle)
	case BeginNodeDrag:
		s.store.BeginNodeDrag(c.NodeID)
	case MoveNode:
		s.store.MoveNode(c.NodeID, c.Position)
	case SelectNodes:
		s.store.SelectNodes(c.NodeIDs...)
	case ClearSelection:
		s.store.ClearSelection()
	case SplitEdge:
		s.store.SetEdgeSplitIntent(c.EdgeID, c.X, c.Y)
	case StartConnection:
		s.store.SetPendingConnection(c.Pending)
	case DismissIntents:
		s.store.ClearConnectionIntents()
	case Undo:
		s.store.Undo()
	case Redo:
		s.store.Redo()
	case CopySelection:
		s.store.Copy()
	case PasteClipboard:
		s.store.Paste()
	default:
		return fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}

	return nil
}

// Execute starts a run of the loaded workflow, points the reducer at it and
// binds the live channel to its event stream.
func (s *Session) Execute(ctx context.Context) (string, error) {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()

	if !loaded {
		return "", ErrNoWorkflowLoaded
	}

	executionID, err := s.runner.Execute(ctx, s.Workflow())
	if err != nil {
		return "", err
	}

	s.reducer.Begin(executionID)

	if err := s.live.SetExecutionID(ctx, executionID); err != nil {
		return "", fmt.Errorf("failed to bind live channel: %w", err)
	}

	return executionID, nil
}

// Save persists the current state immediately. Manual saves skip the
// autosave guard.
func (s *Session) Save(ctx context.Context) error {
	return s.saver.Save(ctx, s.Workflow(), false)
}

// SaveStatus reports the save-state machine's current status.
func (s *Session) SaveStatus() saver.Status {
	return s.saver.Status()
}

// IsDirty reports whether unsaved changes exist.
func (s *Session) IsDirty() bool {
	return s.saver.IsDirty()
}

// ExecutionLog returns the append-only log of the current or last run.
func (s *Session) ExecutionLog() []models.LogEntry {
	return s.reducer.Log()
}

// IsExecuting reports whether a run is in flight.
func (s *Session) IsExecuting() bool {
	return s.reducer.IsExecuting()
}

// LiveState reports the live channel's connection state.
func (s *Session) LiveState() live.State {
	return s.live.State()
}

// Close releases the session's timers and live subscription.
func (s *Session) Close() {
	s.saver.Stop()
	s.live.Close()
}
