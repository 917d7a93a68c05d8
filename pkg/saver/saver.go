// Package saver implements the save-state machine of the canvas editor:
// content-hash dirty tracking, debounced autosave, save status and the
// mapping to the wire document.
package saver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// Status is the save lifecycle state. Dirtiness is orthogonal: the graph
// can be dirty in any status except immediately after a successful save.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
	StatusError  Status = "error"
)

const (
	defaultDebounceDelay = 1500 * time.Millisecond
	defaultSavedDisplay  = 3 * time.Second
)

// ErrInvalidGraph reports why an autosave was skipped.
var ErrInvalidGraph = errors.New("graph not in a saveable state")

// Persister stores wire documents. The workflow-storage service client
// and the persistence adapters both satisfy it.
type Persister interface {
	SaveDocument(ctx context.Context, doc *models.Document) error
}

// TypeChecker reports whether a node type name is known to the registry.
// Placeholder or unregistered types block autosave.
type TypeChecker interface {
	Known(typeName string) bool
}

// Options configures a Machine. Zero values take the defaults.
type Options struct {
	DebounceDelay time.Duration
	SavedDisplay  time.Duration
	OnSaved       func()
	OnError       func(error)
}

// Machine tracks dirtiness against the last saved content hash and drives
// save attempts.
//
// Saves are guarded by a monotonic generation counter: only the response
// matching the latest attempt may update lastSavedHash and status, so a
// slow save completing after a newer one cannot clobber its bookkeeping.
type Machine struct {
	mu sync.Mutex

	persister Persister
	types     TypeChecker
	source    func() *models.Workflow
	logger    *slog.Logger

	debounceDelay time.Duration
	savedDisplay  time.Duration
	onSaved       func()
	onError       func(error)

	status        Status
	dirty         bool
	lastSavedHash string
	generation    uint64

	debounce  *time.Timer
	idleTimer *time.Timer
}

// NewMachine creates a save-state machine. source returns the current
// workflow when the debounce timer fires.
func NewMachine(persister Persister, types TypeChecker, source func() *models.Workflow, logger *slog.Logger, opts Options) *Machine {
	if logger == nil {
		logger = slog.Default()
	}

	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = defaultDebounceDelay
	}

	if opts.SavedDisplay <= 0 {
		opts.SavedDisplay = defaultSavedDisplay
	}

	return &Machine{
		persister:     persister,
		types:         types,
		source:        source,
		logger:        logger.With("module", "saver"),
		debounceDelay: opts.DebounceDelay,
		savedDisplay:  opts.SavedDisplay,
		onSaved:       opts.OnSaved,
		onError:       opts.OnError,
		status:        StatusIdle,
	}
}

// Status returns the current save status.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.status
}

// IsDirty reports whether unsaved changes exist.
func (m *Machine) IsDirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.dirty
}

// LastSavedHash returns the hash of the last successfully saved state.
func (m *Machine) LastSavedHash() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastSavedHash
}

// Observe recomputes the content hash after a state change. The first
// hash of a non-empty graph becomes the clean baseline; afterwards any
// hash differing from the last saved one marks the state dirty, resets a
// lingering "saved" status and (re)arms the autosave debounce.
func (m *Machine) Observe(workflow *models.Workflow) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := Hash(workflow)

	if m.lastSavedHash == "" {
		if len(workflow.Nodes) > 0 {
			m.lastSavedHash = hash
		}

		return
	}

	if hash == m.lastSavedHash {
		m.dirty = false

		return
	}

	m.dirty = true

	if m.status == StatusSaved {
		m.status = StatusIdle
	}

	m.armDebounceLocked()
}

// Save persists the current workflow. An autosave is skipped (status back
// to idle, no error) when the graph has a node with an unknown type name
// or a missing position; a manual save proceeds and lets the backend
// reject if it must. Dirty is cleared optimistically on entry and
// restored only on failure, so edits made during the request are not
// masked as already captured.
func (m *Machine) Save(ctx context.Context, workflow *models.Workflow, isAutoSave bool) error {
	m.mu.Lock()

	m.generation++
	generation := m.generation
	m.status = StatusSaving
	m.dirty = false

	if isAutoSave {
		if err := validateSaveable(workflow, m.types); err != nil {
			m.status = StatusIdle
			m.mu.Unlock()

			m.logger.Warn("autosave skipped", "error", err, "workflow_id", workflow.ID)

			return nil
		}
	}

	hash := Hash(workflow)
	doc := workflow.ToDocument()

	m.mu.Unlock()

	err := m.persister.SaveDocument(ctx, doc)

	m.mu.Lock()

	if generation != m.generation {
		// A newer save attempt superseded this one; its response owns
		// the bookkeeping.
		m.mu.Unlock()

		return err
	}

	if err != nil {
		m.status = StatusError
		m.dirty = true
		onError := m.onError
		m.mu.Unlock()

		if onError != nil {
			onError(err)
		}

		return err
	}

	m.lastSavedHash = hash
	m.status = StatusSaved
	m.armIdleTimerLocked(generation)
	onSaved := m.onSaved
	m.mu.Unlock()

	if onSaved != nil {
		onSaved()
	}

	return nil
}

// Stop cancels pending timers, as on editor unmount.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.debounce != nil {
		m.debounce.Stop()
		m.debounce = nil
	}

	if m.idleTimer != nil {
		m.idleTimer.Stop()
		m.idleTimer = nil
	}
}

// armDebounceLocked (re)starts the autosave debounce: any further
// dirtying change before it fires restarts the window. At fire time the
// save is skipped if the state went clean in the meantime — firing
// against clean state would waste a network call.
func (m *Machine) armDebounceLocked() {
	if m.debounce != nil {
		m.debounce.Stop()
	}

	m.debounce = time.AfterFunc(m.debounceDelay, func() {
		m.mu.Lock()
		dirty := m.dirty
		m.mu.Unlock()

		if !dirty {
			return
		}

		if err := m.Save(context.Background(), m.source(), true); err != nil {
			m.logger.Warn("autosave failed", "error", err)
		}
	})
}

// armIdleTimerLocked schedules the saved→idle transition. The generation
// check keeps a stale timer from downgrading a newer save's status.
func (m *Machine) armIdleTimerLocked(generation uint64) {
	if m.idleTimer != nil {
		m.idleTimer.Stop()
	}

	m.idleTimer = time.AfterFunc(m.savedDisplay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.status == StatusSaved && m.generation == generation {
			m.status = StatusIdle
		}
	})
}

// validateSaveable detects the defect states that must never autosave: a
// node with an unrecognized or placeholder type name, or without a
// position.
func validateSaveable(workflow *models.Workflow, types TypeChecker) error {
	for _, node := range workflow.Nodes {
		if node.TypeName == "" || node.TypeName == "unknown" || (types != nil && !types.Known(node.TypeName)) {
			return &InvalidGraphError{NodeID: node.ID, Reason: "unknown node type " + node.TypeName}
		}

		if node.Position == nil {
			return &InvalidGraphError{NodeID: node.ID, Reason: "missing position"}
		}
	}

	return nil
}

// InvalidGraphError names the node that blocked an autosave.
type InvalidGraphError struct {
	NodeID string
	Reason string
}

func (e *InvalidGraphError) Error() string {
	return "node " + e.NodeID + ": " + e.Reason
}

func (e *InvalidGraphError) Unwrap() error {
	return ErrInvalidGraph
}
