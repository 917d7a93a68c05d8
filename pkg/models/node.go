// Package models defines the core domain models for the workflow canvas.
package models

import (
	"time"
)

// NodeKind represents the category of a node on the canvas.
type NodeKind string

const (
	NodeKindTrigger NodeKind = "trigger" // Entry points (webhook, schedule, manual)
	NodeKindAction  NodeKind = "action"  // Regular action nodes (http, transform, etc.)
	NodeKindLogic   NodeKind = "logic"   // Branching nodes with named output handles
	NodeKindAI      NodeKind = "ai"      // Agent nodes with auxiliary input handles
)

// Built-in node type names.
const (
	NodeTypeTriggerWebhook  = "trigger:webhook"
	NodeTypeTriggerSchedule = "trigger:schedule"
	NodeTypeTriggerManual   = "trigger:manual"
)

// NodeStatus is the transient execution state of a node. It is never
// persisted; loading a workflow resets every node to NodeStatusIdle.
type NodeStatus string

const (
	NodeStatusIdle    NodeStatus = "idle"
	NodeStatusPending NodeStatus = "pending"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusFailed  NodeStatus = "failed"
	NodeStatusWarning NodeStatus = "warning"
)

// OnErrorPolicy controls how the runtime proceeds when a node fails.
type OnErrorPolicy string

const (
	OnErrorStop     OnErrorPolicy = "stop"
	OnErrorContinue OnErrorPolicy = "continue"
	OnErrorRetry    OnErrorPolicy = "retry"
)

// Position is the authoritative layout coordinate of a node, mutated by
// user drags only. Layout is never computed.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeSettings holds per-node execution policy overrides. They are
// configuration passed through to the runtime, not enforced client-side.
type NodeSettings struct {
	AlwaysOutputData  bool          `json:"always_output_data"`
	ExecuteOnce       bool          `json:"execute_once"`
	RetryOnFail       bool          `json:"retry_on_fail"`
	MaxRetries        int           `json:"max_retries"`
	RetryDelay        int           `json:"retry_delay"`
	OnError           OnErrorPolicy `json:"on_error"`
	Notes             string        `json:"notes"`
	DisplayNoteInFlow bool          `json:"display_note_in_flow"`
}

// DefaultNodeSettings returns the settings applied to a freshly added node.
func DefaultNodeSettings() NodeSettings {
	return NodeSettings{
		MaxRetries: 3,
		RetryDelay: 1000,
		OnError:    OnErrorStop,
	}
}

// WorkflowNode represents a node instance on the canvas.
//
// Config and Settings are the single source of truth; the nested
// `spec.config`/`spec.settings` shape of the wire document is derived at
// serialization time and never stored alongside them.
type WorkflowNode struct {
	ID       string         `json:"id"        validate:"required"`
	Kind     NodeKind       `json:"kind"      validate:"required,oneof=trigger action logic ai"`
	TypeName string         `json:"type_name" validate:"required"`
	Label    string         `json:"label"     validate:"required,min=1"`
	Position *Position      `json:"position"`
	Config   map[string]any `json:"config"`
	Settings NodeSettings   `json:"settings"`
	Selected bool           `json:"-"`

	// Transient execution state, reset on load.
	RuntimeStatus       NodeStatus     `json:"-"`
	LastOutput          map[string]any `json:"-"`
	LastError           string         `json:"-"`
	LastErrorSuggestion string         `json:"-"`
}

// IsTriggerNode reports whether the node is an entry point of the graph.
func (n *WorkflowNode) IsTriggerNode() bool {
	return n.Kind == NodeKindTrigger
}

// Clone returns a deep copy of the node. History snapshots and clipboard
// entries rely on the copy sharing no mutable state with the original.
func (n *WorkflowNode) Clone() *WorkflowNode {
	clone := *n

	if n.Position != nil {
		pos := *n.Position
		clone.Position = &pos
	}

	clone.Config = cloneMap(n.Config)
	clone.LastOutput = cloneMap(n.LastOutput)

	return &clone
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for k, v := range src {
		if nested, ok := v.(map[string]any); ok {
			dst[k] = cloneMap(nested)

			continue
		}

		dst[k] = v
	}

	return dst
}

// NodeResult represents the outcome of a single node execution.
type NodeResult struct {
	NodeID    string         `json:"node_id"`
	Data      map[string]any `json:"data"`
	Status    NodeStatus     `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Error     string         `json:"error,omitempty"`
}
