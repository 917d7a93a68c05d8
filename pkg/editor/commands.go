package editor

import (
	"github.com/flowgrid/flowgrid/pkg/graph"
	"github.com/flowgrid/flowgrid/pkg/models"
)

// Command is a typed editor mutation. Commands replace ad-hoc UI event
// strings: each carries exactly the data its handler needs, and dispatch is
// a closed switch.
type Command interface {
	isCommand()
}

// InsertNode adds a node of a registered type, optionally at an explicit
// position. Without a position the store applies its placement rules
// (edge-split midpoint, pending-connection anchor, default).
type InsertNode struct {
	TypeName string
	Position *models.Position
}

// RemoveNode deletes a node and every edge touching it.
type RemoveNode struct {
	NodeID string
}

// UpdateNodeData merges a partial update into a node's label, config or
// settings.
type UpdateNodeData struct {
	NodeID string
	Patch  graph.DataPatch
}

// ConnectNodes adds an edge between two ports.
type ConnectNodes struct {
	Source       string
	SourceHandle string
	Target       string
	TargetHandle string
}

// BeginNodeDrag marks the start of a drag gesture; the whole gesture costs
// one history entry.
type BeginNodeDrag struct {
	NodeID string
}

// MoveNode repositions a node mid-drag.
type MoveNode struct {
	NodeID   string
	Position models.Position
}

// SelectNodes replaces the current selection.
type SelectNodes struct {
	NodeIDs []string
}

// ClearSelection deselects everything.
type ClearSelection struct{}

// SplitEdge records the intent to drop the next inserted node onto an edge.
type SplitEdge struct {
	EdgeID string
	X, Y   float64
}

// StartConnection records a dangling connection; the next inserted node
// completes it.
type StartConnection struct {
	Pending graph.PendingConnection
}

// DismissIntents clears any recorded edge-split or pending connection.
type DismissIntents struct{}

// Undo steps the graph back one history entry.
type Undo struct{}

// Redo re-applies the last undone entry.
type Redo struct{}

// CopySelection snapshots the selected nodes onto the clipboard.
type CopySelection struct{}

// PasteClipboard materializes the clipboard with fresh ids at a +50/+50
// offset.
type PasteClipboard struct{}

func (InsertNode) isCommand()      {}
func (RemoveNode) isCommand()      {}
func (UpdateNodeData) isCommand()  {}
func (ConnectNodes) isCommand()    {}
func (BeginNodeDrag) isCommand()   {}
func (MoveNode) isCommand()        {}
func (SelectNodes) isCommand()     {}
func (ClearSelection) isCommand()  {}
func (SplitEdge) isCommand()       {}
func (StartConnection) isCommand() {}
func (DismissIntents) isCommand()  {}
func (Undo) isCommand()            {}
func (Redo) isCommand()            {}
func (CopySelection) isCommand()   {}
func (PasteClipboard) isCommand()  {}
