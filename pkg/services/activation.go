package services

import (
	"context"
	"fmt"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
)

// Activation flips workflows between active and inactive. Only activation
// validates the graph: an inactive or draft workflow may be arbitrarily
// incomplete.
type Activation struct {
	persistence persistence.Persistence
}

// NewActivation creates a new workflow activation service.
func NewActivation(persistence persistence.Persistence) *Activation {
	return &Activation{
		persistence: persistence,
	}
}

// ActivateWorkflow changes a workflow's status to active.
func (a *Activation) ActivateWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := a.load(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow.Status == models.WorkflowStatusActive {
		return nil, ErrWorkflowAlreadyActive
	}

	if err := a.validateForActivation(workflow); err != nil {
		return nil, fmt.Errorf("workflow validation failed: %w", err)
	}

	workflow.Status = models.WorkflowStatusActive
	workflow.Version++

	err = a.persistence.SaveDocument(ctx, workflow.ToDocument())
	if err != nil {
		return nil, fmt.Errorf("failed to activate workflow: %w", err)
	}

	return workflow, nil
}

// DeactivateWorkflow changes an active workflow's status back to inactive.
func (a *Activation) DeactivateWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := a.load(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow.Status != models.WorkflowStatusActive {
		return nil, ErrWorkflowNotActive
	}

	workflow.Status = models.WorkflowStatusInactive

	err = a.persistence.SaveDocument(ctx, workflow.ToDocument())
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate workflow: %w", err)
	}

	return workflow, nil
}

func (a *Activation) load(ctx context.Context, workflowID string) (*models.Workflow, error) {
	document, err := a.persistence.DocumentByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	if document == nil {
		return nil, ErrWorkflowNotFound
	}

	return document.ToWorkflow(), nil
}

// validateForActivation ensures a workflow is ready to run unattended.
func (a *Activation) validateForActivation(workflow *models.Workflow) error {
	if workflow == nil {
		return ErrWorkflowNil
	}

	if workflow.Name == "" {
		return ErrWorkflowNameRequired
	}

	if len(workflow.Nodes) == 0 {
		return ErrNodesRequired
	}

	for _, node := range workflow.Nodes {
		if node.IsTriggerNode() {
			return nil
		}
	}

	return ErrTriggerNodeRequired
}
