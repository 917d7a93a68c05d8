package saver

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// hashPayload is the serializable subset whose content defines dirtiness.
// Transient runtime state is excluded by the models' json tags; map keys
// are sorted by encoding/json, so the serialization is stable.
type hashPayload struct {
	Nodes     []*models.WorkflowNode `json:"nodes"`
	Edges     []*models.WorkflowEdge `json:"edges"`
	Meta      metaPayload            `json:"meta"`
	Execution models.ExecutionConfig `json:"execution"`
	Observe   models.Observability   `json:"observability"`
}

type metaPayload struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Status      models.WorkflowStatus `json:"status"`
	Version     int                   `json:"version"`
	Tags        []string              `json:"tags"`
}

// Hash returns the content hash of the workflow's persistable state.
func Hash(workflow *models.Workflow) string {
	payload := hashPayload{
		Nodes: workflow.Nodes,
		Edges: workflow.Edges,
		Meta: metaPayload{
			ID:          workflow.ID,
			Name:        workflow.Name,
			Description: workflow.Description,
			Status:      workflow.Status,
			Version:     workflow.Version,
			Tags:        workflow.Tags,
		},
		Execution: workflow.Execution,
		Observe:   workflow.Observe,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		// Workflows are built from JSON-serializable parts; a marshal
		// failure here means a programming error upstream.
		return ""
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}
