package graph

import (
	"github.com/google/uuid"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// EdgeSplitIntent records that the next node should be inserted in the
// middle of an existing edge, at the given canvas coordinate.
type EdgeSplitIntent struct {
	EdgeID string
	X      float64
	Y      float64
}

// PendingConnection records a dangling handle the next node should be
// auto-wired to. Exactly one of Source/Target is set; the matching handle
// field names the port on the known side. X/Y anchor the picker on the
// canvas.
type PendingConnection struct {
	Source       string
	SourceHandle string
	Target       string
	TargetHandle string
	X            float64
	Y            float64
}

// SetEdgeSplitIntent arms an edge-split for the next AddNode. Any pending
// connection is superseded.
func (s *Store) SetEdgeSplitIntent(edgeID string, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.splitIntent = &EdgeSplitIntent{EdgeID: edgeID, X: x, Y: y}
	s.pending = nil
}

// SetPendingConnection arms a dangling-handle connection for the next
// AddNode. Any edge-split intent is superseded.
func (s *Store) SetPendingConnection(pc PendingConnection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := pc
	s.pending = &pending
	s.splitIntent = nil
}

// ClearConnectionIntents drops both intents, as when the node picker is
// dismissed without a selection. Stale intent must never leak into the
// next unrelated add.
func (s *Store) ClearConnectionIntents() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.splitIntent = nil
	s.pending = nil
}

// consumeEdgeSplit replaces the split edge with source→node and
// node→target, keeping the original handles on the outer ends. Callers
// hold the lock.
func (s *Store) consumeEdgeSplit(node *models.WorkflowNode) {
	var split *models.WorkflowEdge

	edges := s.edges[:0]

	for _, edge := range s.edges {
		if edge.ID == s.splitIntent.EdgeID && split == nil {
			split = edge

			continue
		}

		edges = append(edges, edge)
	}

	s.edges = edges

	if split == nil {
		return
	}

	s.edges = append(s.edges,
		&models.WorkflowEdge{
			ID:           "edge-" + uuid.NewString(),
			Source:       split.Source,
			SourceHandle: split.SourceHandle,
			Target:       node.ID,
		},
		&models.WorkflowEdge{
			ID:           "edge-" + uuid.NewString(),
			Source:       node.ID,
			Target:       split.Target,
			TargetHandle: split.TargetHandle,
		},
	)
}

// consumePendingConnection wires exactly one edge on the dangling side,
// using the recorded handle. Callers hold the lock.
func (s *Store) consumePendingConnection(node *models.WorkflowNode) {
	pending := s.pending

	edge := &models.WorkflowEdge{ID: "edge-" + uuid.NewString()}

	switch {
	case pending.Source != "":
		edge.Source = pending.Source
		edge.SourceHandle = pending.SourceHandle
		edge.Target = node.ID
		edge.TargetHandle = pending.TargetHandle
	case pending.Target != "":
		edge.Source = node.ID
		edge.SourceHandle = pending.SourceHandle
		edge.Target = pending.Target
		edge.TargetHandle = pending.TargetHandle
	default:
		return
	}

	s.edges = append(s.edges, edge)
}

// pendingPlacement offsets the new node from the pending connection's
// anchor: right of a known source, left of a known target. Callers hold
// the lock.
func (s *Store) pendingPlacement() *models.Position {
	if s.pending.Source != "" {
		return &models.Position{X: s.pending.X + pendingAnchorOffset, Y: s.pending.Y}
	}

	return &models.Position{X: s.pending.X - pendingAnchorOffset, Y: s.pending.Y}
}
