// Package graph holds the canonical node/edge state of a workflow canvas
// and its mutation entry points.
//
// The store is the single shared mutable resource of the editor. Every
// component (history, clipboard, save machine, execution reducer) reaches
// the graph through these methods; a mutex enforces the single-writer
// discipline that a browser event loop provides for free.
package graph

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// Default placement for a node added without a hint or pending intent.
var defaultPlacement = models.Position{X: 250, Y: 150}

// Horizontal offset from a pending connection's anchor to the new node.
const pendingAnchorOffset = 180

// NodeDescriptor carries what the store needs from a node-type definition
// to instantiate a node: name, kind, display label and declared config
// defaults. The registry produces these.
type NodeDescriptor struct {
	TypeName string
	Kind     models.NodeKind
	Label    string
	Defaults map[string]any
}

// DataPatch is a partial update to a node's user-editable data. Nil fields
// are left untouched; Config entries are shallow-merged.
type DataPatch struct {
	Label    *string
	Config   map[string]any
	Settings *models.NodeSettings
}

// Store holds the canonical nodes and edges of one workflow canvas.
type Store struct {
	mu sync.Mutex

	nodes []*models.WorkflowNode
	edges []*models.WorkflowEdge

	history   *History
	clipboard []*models.WorkflowNode

	splitIntent *EdgeSplitIntent
	pending     *PendingConnection

	// lastStamp guarantees monotonic id suffixes even when two nodes are
	// added within the same millisecond.
	lastStamp int64

	logger *slog.Logger
}

// NewStore creates an empty store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		history: NewHistory(),
		logger:  logger.With("module", "graph"),
	}
}

// Load replaces the graph with persisted contents. Runtime state is reset
// (it is never persisted) and edit history starts over from the loaded
// baseline.
func (s *Store) Load(nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = cloneNodes(nodes)
	s.edges = cloneEdges(edges)

	for _, node := range s.nodes {
		node.RuntimeStatus = models.NodeStatusIdle
		node.LastOutput = nil
		node.LastError = ""
		node.LastErrorSuggestion = ""
	}

	s.history.Reset()
	s.splitIntent = nil
	s.pending = nil
}

// Nodes returns a deep copy of the current node list.
func (s *Store) Nodes() []*models.WorkflowNode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneNodes(s.nodes)
}

// Edges returns a deep copy of the current edge list.
func (s *Store) Edges() []*models.WorkflowEdge {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneEdges(s.edges)
}

// Node returns a copy of the node with the given id, or nil.
func (s *Store) Node(id string) *models.WorkflowNode {
	s.mu.Lock()
	defer s.mu.Unlock()

	if node := s.findNode(id); node != nil {
		return node.Clone()
	}

	return nil
}

// History exposes the undo/redo manager for inspection.
func (s *Store) History() *History {
	return s.history
}

// AddNode instantiates a node from the descriptor and places it on the
// canvas. Placement precedence: an active edge-split intent (midpoint of
// the split edge), an active pending connection (offset from its anchor),
// an explicit hint, then the default coordinate.
//
// A consumed edge-split replaces the original edge with source→new and
// new→target; a consumed pending connection creates exactly one edge on
// the dangling side using the recorded handle. Both intents are cleared
// unconditionally.
func (s *Store) AddNode(desc NodeDescriptor, hint *models.Position) *models.WorkflowNode {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record()

	node := &models.WorkflowNode{
		ID:            s.allocateID(desc.TypeName),
		Kind:          desc.Kind,
		TypeName:      desc.TypeName,
		Label:         desc.Label,
		Config:        defaultConfig(desc.Defaults),
		Settings:      models.DefaultNodeSettings(),
		RuntimeStatus: models.NodeStatusIdle,
	}

	switch {
	case s.splitIntent != nil:
		node.Position = &models.Position{X: s.splitIntent.X, Y: s.splitIntent.Y}
		s.consumeEdgeSplit(node)
	case s.pending != nil:
		node.Position = s.pendingPlacement()
		s.consumePendingConnection(node)
	case hint != nil:
		node.Position = &models.Position{X: hint.X, Y: hint.Y}
	default:
		pos := defaultPlacement
		node.Position = &pos
	}

	s.splitIntent = nil
	s.pending = nil

	s.nodes = append(s.nodes, node)

	s.logger.Debug("node added", "node_id", node.ID, "type", node.TypeName)

	return node
}

// RemoveNode deletes the node and every edge touching it. Unknown ids are
// no-ops.
func (s *Store) RemoveNode(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findNode(id) == nil {
		return
	}

	s.record()

	nodes := s.nodes[:0]

	for _, node := range s.nodes {
		if node.ID != id {
			nodes = append(nodes, node)
		}
	}

	s.nodes = nodes

	edges := s.edges[:0]

	for _, edge := range s.edges {
		if edge.Source != id && edge.Target != id {
			edges = append(edges, edge)
		}
	}

	s.edges = edges
}

// UpdateNodeData shallow-merges the patch into the node's user-editable
// data. Unknown ids are no-ops.
func (s *Store) UpdateNodeData(id string, patch DataPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.findNode(id)
	if node == nil {
		return
	}

	s.record()

	if patch.Label != nil {
		node.Label = *patch.Label
	}

	if patch.Settings != nil {
		node.Settings = *patch.Settings
	}

	if len(patch.Config) > 0 {
		if node.Config == nil {
			node.Config = make(map[string]any, len(patch.Config))
		}

		for k, v := range patch.Config {
			node.Config[k] = v
		}
	}
}

// Connect appends an edge between two node ports. Self-connections and
// references to absent nodes are ignored, as are duplicates of an existing
// (source, sourceHandle, target, targetHandle) tuple. Logic-node outputs
// carry their handle as the edge condition label.
func (s *Store) Connect(source, sourceHandle, target, targetHandle string) *models.WorkflowEdge {
	s.mu.Lock()
	defer s.mu.Unlock()

	if source == target {
		return nil
	}

	sourceNode := s.findNode(source)
	if sourceNode == nil || s.findNode(target) == nil {
		return nil
	}

	candidate := &models.WorkflowEdge{
		ID:           "edge-" + uuid.NewString(),
		Source:       source,
		SourceHandle: sourceHandle,
		Target:       target,
		TargetHandle: targetHandle,
	}

	for _, edge := range s.edges {
		if edge.SamePorts(candidate) {
			return nil
		}
	}

	if sourceNode.Kind == models.NodeKindLogic && sourceHandle != "" {
		candidate.Condition = sourceHandle
	}

	s.record()
	s.edges = append(s.edges, candidate)

	return candidate
}

// BeginNodeDrag marks the start of a drag gesture on a node, capturing one
// history snapshot for the whole gesture. Intermediate MoveNode calls do
// not snapshot, so per-pixel positions never flood the history.
func (s *Store) BeginNodeDrag(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findNode(id) == nil {
		return
	}

	s.record()
}

// MoveNode updates a node's position. Unknown ids are no-ops.
func (s *Store) MoveNode(id string, pos models.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.findNode(id)
	if node == nil {
		return
	}

	node.Position = &models.Position{X: pos.X, Y: pos.Y}
}

// SelectNode makes the node the sole selection. Unknown ids clear the
// selection.
func (s *Store) SelectNode(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, node := range s.nodes {
		node.Selected = node.ID == id
	}
}

// SelectNodes replaces the selection with the given set.
func (s *Store) SelectNodes(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	for _, node := range s.nodes {
		node.Selected = wanted[node.ID]
	}
}

// ClearSelection deselects every node.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, node := range s.nodes {
		node.Selected = false
	}
}

// SelectedNodes returns copies of the currently selected nodes.
func (s *Store) SelectedNodes() []*models.WorkflowNode {
	s.mu.Lock()
	defer s.mu.Unlock()

	var selected []*models.WorkflowNode

	for _, node := range s.nodes {
		if node.Selected {
			selected = append(selected, node.Clone())
		}
	}

	return selected
}

// SetNodeRuntime applies an execution status patch to a node. Unknown ids
// are no-ops; the execution reducer logs the event regardless.
func (s *Store) SetNodeRuntime(id string, status models.NodeStatus, patch RuntimePatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.findNode(id)
	if node == nil {
		return false
	}

	node.RuntimeStatus = status

	if patch.Output != nil {
		node.LastOutput = patch.Output
	}

	if patch.Error != "" {
		node.LastError = patch.Error
	}

	if patch.Suggestion != "" {
		node.LastErrorSuggestion = patch.Suggestion
	}

	return true
}

// ResetRuntime returns every node to idle and clears execution results,
// as happens when a new execution starts.
func (s *Store) ResetRuntime() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, node := range s.nodes {
		node.RuntimeStatus = models.NodeStatusIdle
		node.LastOutput = nil
		node.LastError = ""
		node.LastErrorSuggestion = ""
	}
}

// RuntimePatch carries the optional execution results attached to a status
// change.
type RuntimePatch struct {
	Output     map[string]any
	Error      string
	Suggestion string
}

// Undo restores the previous snapshot, if any.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.history.Undo(s.nodes, s.edges)
	if !ok {
		return false
	}

	s.nodes = snapshot.Nodes
	s.edges = snapshot.Edges

	return true
}

// Redo re-applies the next snapshot, if any.
func (s *Store) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.history.Redo(s.nodes, s.edges)
	if !ok {
		return false
	}

	s.nodes = snapshot.Nodes
	s.edges = snapshot.Edges

	return true
}

// record pushes the current state onto the history before a mutation.
// Callers must hold the lock.
func (s *Store) record() {
	s.history.Record(s.nodes, s.edges)
}

func (s *Store) findNode(id string) *models.WorkflowNode {
	for _, node := range s.nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// allocateID builds `${typeName}-${timestamp}` ids, bumping the stamp when
// two allocations land in the same millisecond.
func (s *Store) allocateID(typeName string) string {
	stamp := time.Now().UnixMilli()
	if stamp <= s.lastStamp {
		stamp = s.lastStamp + 1
	}

	s.lastStamp = stamp

	return fmt.Sprintf("%s-%d", typeName, stamp)
}

func defaultConfig(defaults map[string]any) map[string]any {
	config := make(map[string]any, len(defaults))
	for k, v := range defaults {
		config[k] = v
	}

	return config
}

func cloneNodes(nodes []*models.WorkflowNode) []*models.WorkflowNode {
	cloned := make([]*models.WorkflowNode, 0, len(nodes))
	for _, node := range nodes {
		cloned = append(cloned, node.Clone())
	}

	return cloned
}

func cloneEdges(edges []*models.WorkflowEdge) []*models.WorkflowEdge {
	cloned := make([]*models.WorkflowEdge, 0, len(edges))
	for _, edge := range edges {
		cloned = append(cloned, edge.Clone())
	}

	return cloned
}
