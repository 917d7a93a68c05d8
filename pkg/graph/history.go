package graph

import (
	"sync"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// maxHistory bounds how many undo steps are retained; the oldest snapshot
// is evicted beyond that.
const maxHistory = 50

// Snapshot is an immutable deep copy of the graph at a point in time.
type Snapshot struct {
	Nodes []*models.WorkflowNode
	Edges []*models.WorkflowEdge
}

// History provides bounded undo/redo over graph snapshots.
//
// Record captures the state a mutation is about to leave behind, so Undo
// walks back through up to maxHistory pre-mutation states and Redo walks
// forward again. A fresh mutation after an undo discards the redo side.
type History struct {
	mu        sync.Mutex
	past      []Snapshot
	future    []Snapshot
	replaying bool
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Reset drops all snapshots, as when a workflow is (re)loaded.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.past = nil
	h.future = nil
	h.replaying = false
}

// Record snapshots the given state before a mutation. Calls made while an
// undo/redo replay is in flight are skipped, so restoring a snapshot never
// re-records the state it just restored. Recording truncates the redo side
// and evicts the oldest snapshot beyond the cap.
func (h *History) Record(nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.replaying {
		return
	}

	h.future = nil
	h.past = append(h.past, snapshot(nodes, edges))

	if len(h.past) > maxHistory {
		h.past = h.past[len(h.past)-maxHistory:]
	}
}

// Undo returns the most recent snapshot, stashing the given live state on
// the redo side. Returns false when no snapshot remains.
func (h *History) Undo(liveNodes []*models.WorkflowNode, liveEdges []*models.WorkflowEdge) (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.past) == 0 {
		return Snapshot{}, false
	}

	h.replaying = true
	defer func() { h.replaying = false }()

	h.future = append(h.future, snapshot(liveNodes, liveEdges))

	top := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]

	return clone(top), true
}

// Redo returns the most recently undone snapshot, stashing the given live
// state on the undo side. Returns false when nothing was undone.
func (h *History) Redo(liveNodes []*models.WorkflowNode, liveEdges []*models.WorkflowEdge) (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.future) == 0 {
		return Snapshot{}, false
	}

	h.replaying = true
	defer func() { h.replaying = false }()

	h.past = append(h.past, snapshot(liveNodes, liveEdges))

	top := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]

	return clone(top), true
}

// Len reports how many undo steps are available.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.past)
}

// CanUndo reports whether an undo step is available.
func (h *History) CanUndo() bool {
	return h.Len() > 0
}

// CanRedo reports whether a redo step is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.future) > 0
}

func snapshot(nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) Snapshot {
	return Snapshot{
		Nodes: cloneNodes(nodes),
		Edges: cloneEdges(edges),
	}
}

func clone(s Snapshot) Snapshot {
	return snapshot(s.Nodes, s.Edges)
}
