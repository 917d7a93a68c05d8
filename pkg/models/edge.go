package models

// WorkflowEdge is a directed connection between two node ports.
//
// SourceHandle and TargetHandle discriminate named ports on a node (a logic
// node's "true"/"false" outputs, an AI node's "chat_model"/"tools"/"memory"
// inputs). An empty handle targets the node's sole default port.
type WorkflowEdge struct {
	ID           string `json:"id"            validate:"required"`
	Source       string `json:"source"        validate:"required"`
	Target       string `json:"target"        validate:"required"`
	SourceHandle string `json:"source_handle,omitempty"`
	TargetHandle string `json:"target_handle,omitempty"`
	// Condition is a human-readable label that doubles as the serialized
	// branch discriminator for logic edges.
	Condition string `json:"condition,omitempty"`
}

// Clone returns a copy of the edge.
func (e *WorkflowEdge) Clone() *WorkflowEdge {
	clone := *e

	return &clone
}

// SamePorts reports whether two edges connect the same port tuple. The
// graph rejects duplicates on this tuple.
func (e *WorkflowEdge) SamePorts(other *WorkflowEdge) bool {
	return e.Source == other.Source &&
		e.SourceHandle == other.SourceHandle &&
		e.Target == other.Target &&
		e.TargetHandle == other.TargetHandle
}

// Auxiliary input handles on AI nodes. These accept configuration-like
// connections (model/memory/tool) rather than data-flow connections; the
// node-type registry displays them as single-connection ports.
const (
	HandleChatModel = "chat_model"
	HandleTools     = "tools"
	HandleMemory    = "memory"
)
