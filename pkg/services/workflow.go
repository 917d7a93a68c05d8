package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
)

// Workflow is the application service over workflow documents: CRUD plus
// the document round-trip the editor's save-state machine drives.
type Workflow struct {
	persistence persistence.Persistence
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence) *Workflow {
	return &Workflow{
		persistence: persistence,
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflows returns all workflows, folded out of their documents.
func (w *Workflow) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	documents, err := w.persistence.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(documents))
	for _, document := range documents {
		workflows = append(workflows, document.ToWorkflow())
	}

	return workflows, nil
}

// WorkflowByID returns one workflow by id.
func (w *Workflow) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	document, err := w.persistence.DocumentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	if document == nil {
		return nil, ErrWorkflowNotFound
	}

	return document.ToWorkflow(), nil
}

// CreateWorkflow creates an empty draft workflow.
func (w *Workflow) CreateWorkflow(ctx context.Context, name, description string) (*models.Workflow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrWorkflowNameRequired
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate workflow ID: %w", err)
	}

	workflow := &models.Workflow{
		ID:          id.String(),
		Name:        name,
		Description: description,
		Status:      models.WorkflowStatusDraft,
		Version:     1,
		Execution:   models.DefaultExecutionConfig(),
	}

	err = w.persistence.SaveDocument(ctx, workflow.ToDocument())
	if err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	return workflow, nil
}

// SaveDocument persists a workflow document. This is the target of the
// editor's autosave and manual save.
func (w *Workflow) SaveDocument(ctx context.Context, document *models.Document) error {
	if document == nil {
		return ErrWorkflowNil
	}

	if document.WorkflowID == "" || document.Meta.ID == "" {
		return NewValidationError("SaveDocument", "missing_id", "workflow document has no id", ErrInvalidRequest)
	}

	if strings.TrimSpace(document.Meta.Name) == "" {
		return ErrWorkflowNameRequired
	}

	err := w.persistence.SaveDocument(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to save workflow document: %w", err)
	}

	return nil
}

// DeleteWorkflow removes a workflow by id.
func (w *Workflow) DeleteWorkflow(ctx context.Context, id string) error {
	document, err := w.persistence.DocumentByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get workflow: %w", err)
	}

	if document == nil {
		return ErrWorkflowNotFound
	}

	err = w.persistence.DeleteDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}
