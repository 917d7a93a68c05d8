package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowNodeClone(t *testing.T) {
	node := &WorkflowNode{
		ID:       "http.request-1",
		Kind:     NodeKindAction,
		TypeName: "http.request",
		Label:    "Fetch users",
		Position: &Position{X: 100, Y: 200},
		Config: map[string]any{
			"url":     "https://example.com",
			"headers": map[string]any{"Accept": "application/json"},
		},
		Settings: DefaultNodeSettings(),
	}

	clone := node.Clone()

	require.NotSame(t, node, clone)
	assert.Equal(t, node.ID, clone.ID)

	// Mutating the clone must not leak into the original.
	clone.Position.X = 999
	clone.Config["url"] = "https://other.example.com"
	clone.Config["headers"].(map[string]any)["Accept"] = "text/plain"

	assert.InDelta(t, 100.0, node.Position.X, 0)
	assert.Equal(t, "https://example.com", node.Config["url"])
	assert.Equal(t, "application/json", node.Config["headers"].(map[string]any)["Accept"])
}

func TestExecutionConfigMerge(t *testing.T) {
	merged := DefaultExecutionConfig().Merge(ExecutionConfig{
		TimeoutSeconds: 60,
		Retry:          RetryConfig{MaxAttempts: 5},
	})

	assert.Equal(t, "async", merged.Mode)
	assert.Equal(t, 60, merged.TimeoutSeconds)
	assert.Equal(t, 5, merged.Retry.MaxAttempts)
	assert.Equal(t, "exponential", merged.Retry.Strategy)
	assert.Equal(t, 1, merged.Concurrency)
}

func TestDocumentRoundTripDropsRuntimeState(t *testing.T) {
	workflow := &Workflow{
		ID:     "wf-1",
		Name:   "Order sync",
		Status: WorkflowStatusDraft,
		Nodes: []*WorkflowNode{
			{
				ID:            "trigger:webhook-1",
				Kind:          NodeKindTrigger,
				TypeName:      NodeTypeTriggerWebhook,
				Label:         "Webhook",
				Position:      &Position{X: 40, Y: 40},
				RuntimeStatus: NodeStatusSuccess,
				LastError:     "should not survive",
			},
		},
		Edges: []*WorkflowEdge{},
	}

	restored := workflow.ToDocument().ToWorkflow()

	require.Len(t, restored.Nodes, 1)
	assert.Equal(t, NodeStatusIdle, restored.Nodes[0].RuntimeStatus)
	assert.Empty(t, restored.Nodes[0].LastError)
	assert.Equal(t, "Webhook", restored.Nodes[0].Label)

	// Partial execution config comes back merged over the defaults.
	assert.Equal(t, 300, restored.Execution.TimeoutSeconds)
	assert.Equal(t, "exponential", restored.Execution.Retry.Strategy)
}

func TestEdgeSamePorts(t *testing.T) {
	a := &WorkflowEdge{Source: "n1", SourceHandle: "true", Target: "n2"}
	b := &WorkflowEdge{Source: "n1", SourceHandle: "true", Target: "n2"}
	c := &WorkflowEdge{Source: "n1", SourceHandle: "false", Target: "n2"}

	assert.True(t, a.SamePorts(b))
	assert.False(t, a.SamePorts(c))
}
