// Package events defines the typed execution events streamed from the
// workflow runtime to the canvas, and the wire envelope carrying them.
package events

import (
	"github.com/flowgrid/flowgrid/pkg/models"
)

// EventType discriminates execution event payloads.
type EventType string

const (
	WorkflowStartedEvent   EventType = "workflow_started"
	WorkflowCompletedEvent EventType = "workflow_completed"
	WorkflowFailedEvent    EventType = "workflow_failed"

	NodeStartedEvent   EventType = "node_started"
	NodeCompletedEvent EventType = "node_completed"
	NodeFailedEvent    EventType = "node_failed"
	NodeRetryingEvent  EventType = "node_retrying"
	NodeContinuedEvent EventType = "node_continued"
)

// TopicPrefix is the channel topic namespace for execution event streams;
// one topic per execution id.
const TopicPrefix = "flowgrid.executions."

// Topic returns the channel topic for an execution id.
func Topic(executionID string) string {
	return TopicPrefix + executionID
}

// Event is implemented by every execution event payload.
type Event interface {
	GetType() EventType
}

// WorkflowStarted marks the beginning of a run.
type WorkflowStarted struct {
	ExecutionID string `json:"execution_id"`
	WorkflowID  string `json:"workflow_id"`
	Mode        string `json:"mode,omitempty"`
}

func (e WorkflowStarted) GetType() EventType {
	return WorkflowStartedEvent
}

// WorkflowCompleted marks a successful run.
type WorkflowCompleted struct {
	ExecutionID string         `json:"execution_id"`
	WorkflowID  string         `json:"workflow_id"`
	Result      map[string]any `json:"result,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
}

func (e WorkflowCompleted) GetType() EventType {
	return WorkflowCompletedEvent
}

// WorkflowFailed marks a run that ended in error.
type WorkflowFailed struct {
	ExecutionID string `json:"execution_id"`
	WorkflowID  string `json:"workflow_id"`
	Error       string `json:"error"`
	DurationMs  int64  `json:"duration_ms"`
}

func (e WorkflowFailed) GetType() EventType {
	return WorkflowFailedEvent
}

// NodeStarted marks a node entering execution. NodeID is the canvas node
// id; the runtime is required to report that id, there is no secondary
// instance id to match against.
type NodeStarted struct {
	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	NodeLabel   string `json:"node_label,omitempty"`
}

func (e NodeStarted) GetType() EventType {
	return NodeStartedEvent
}

// NodeCompleted carries a node's successful result.
type NodeCompleted struct {
	ExecutionID string         `json:"execution_id"`
	NodeID      string         `json:"node_id"`
	NodeLabel   string         `json:"node_label,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
}

func (e NodeCompleted) GetType() EventType {
	return NodeCompletedEvent
}

// NodeFailed carries a node failure, its optional error category and an
// optional remediation suggestion for the user.
type NodeFailed struct {
	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	NodeLabel   string `json:"node_label,omitempty"`
	Error       string `json:"error"`
	Category    string `json:"category,omitempty"`
	Suggestion  string `json:"suggestion,omitempty"`
}

func (e NodeFailed) GetType() EventType {
	return NodeFailedEvent
}

// NodeRetrying reports an upcoming retry attempt. The node's visual status
// is left unchanged.
type NodeRetrying struct {
	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	NodeLabel   string `json:"node_label,omitempty"`
	Attempt     int    `json:"attempt"`
	MaxRetries  int    `json:"max_retries"`
	DelayMs     int    `json:"delay_ms"`
}

func (e NodeRetrying) GetType() EventType {
	return NodeRetryingEvent
}

// NodeContinued reports a node that failed while the workflow proceeds
// past it (on_error=continue).
type NodeContinued struct {
	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	NodeLabel   string `json:"node_label,omitempty"`
	Error       string `json:"error"`
}

func (e NodeContinued) GetType() EventType {
	return NodeContinuedEvent
}

// StatusFor maps an event type to the node status implied by the event
// table, with ok=false for events that carry no status change.
func StatusFor(t EventType) (models.NodeStatus, bool) {
	switch t {
	case NodeStartedEvent:
		return models.NodeStatusRunning, true
	case NodeCompletedEvent:
		return models.NodeStatusSuccess, true
	case NodeFailedEvent:
		return models.NodeStatusFailed, true
	case NodeContinuedEvent:
		return models.NodeStatusWarning, true
	default:
		return "", false
	}
}
