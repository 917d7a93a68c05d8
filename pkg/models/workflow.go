package models

import "time"

// WorkflowStatus represents the activation state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, never executed automatically
	WorkflowStatusActive   WorkflowStatus = "active"   // Triggers armed
	WorkflowStatusInactive WorkflowStatus = "inactive" // Previously active, disarmed
)

// Workflow is the authoritative record of a workflow: identity metadata plus
// the canvas graph and its execution configuration.
type Workflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"        validate:"required,min=3"`
	Description string          `json:"description"`
	Status      WorkflowStatus  `json:"status"      validate:"required"`
	Version     int             `json:"version"`
	Tags        []string        `json:"tags"`
	Nodes       []*WorkflowNode `json:"nodes"`
	Edges       []*WorkflowEdge `json:"edges"`
	Execution   ExecutionConfig `json:"execution"`
	Observe     Observability   `json:"observability"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ExecutionConfig carries runtime policy for the whole workflow. Partial
// configs are merged shallowly over the defaults at save time, with the
// retry block merged one level deeper.
type ExecutionConfig struct {
	Mode           string      `json:"mode"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	Retry          RetryConfig `json:"retry"`
	Concurrency    int         `json:"concurrency"`
}

// RetryConfig is the workflow-level retry policy.
type RetryConfig struct {
	MaxAttempts int    `json:"max_attempts"`
	Strategy    string `json:"strategy"`
}

// DefaultExecutionConfig returns the baseline execution policy.
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		Mode:           "async",
		TimeoutSeconds: 300,
		Retry: RetryConfig{
			MaxAttempts: 3,
			Strategy:    "exponential",
		},
		Concurrency: 1,
	}
}

// Merge overlays the non-zero fields of partial onto the defaults. The top
// level merges shallowly; Retry merges field by field.
func (c ExecutionConfig) Merge(partial ExecutionConfig) ExecutionConfig {
	merged := c

	if partial.Mode != "" {
		merged.Mode = partial.Mode
	}

	if partial.TimeoutSeconds != 0 {
		merged.TimeoutSeconds = partial.TimeoutSeconds
	}

	if partial.Concurrency != 0 {
		merged.Concurrency = partial.Concurrency
	}

	if partial.Retry.MaxAttempts != 0 {
		merged.Retry.MaxAttempts = partial.Retry.MaxAttempts
	}

	if partial.Retry.Strategy != "" {
		merged.Retry.Strategy = partial.Retry.Strategy
	}

	return merged
}

// Observability toggles the operator-facing instrumentation of a workflow.
type Observability struct {
	Logging bool `json:"logging"`
	Metrics bool `json:"metrics"`
	Tracing bool `json:"tracing"`
}
