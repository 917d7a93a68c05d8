package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence/file"
	"github.com/flowgrid/flowgrid/pkg/services"
)

func newService(t *testing.T) *services.Workflow {
	t.Helper()

	p, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	return services.NewWorkflow(p)
}

func TestCreateWorkflow(t *testing.T) {
	service := newService(t)

	workflow, err := service.CreateWorkflow(t.Context(), "Order sync", "syncs orders")
	require.NoError(t, err)

	assert.NotEmpty(t, workflow.ID)
	assert.Equal(t, models.WorkflowStatusDraft, workflow.Status)
	assert.Equal(t, 1, workflow.Version)

	loaded, err := service.WorkflowByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, "Order sync", loaded.Name)
}

func TestCreateWorkflowRequiresName(t *testing.T) {
	service := newService(t)

	_, err := service.CreateWorkflow(t.Context(), "   ", "")
	assert.ErrorIs(t, err, services.ErrWorkflowNameRequired)
	assert.True(t, services.IsValidationError(err))
}

func TestWorkflowByIDNotFound(t *testing.T) {
	service := newService(t)

	_, err := service.WorkflowByID(t.Context(), "nope")
	assert.ErrorIs(t, err, services.ErrWorkflowNotFound)
	assert.True(t, services.IsNotFoundError(err))
}

func TestSaveDocumentValidation(t *testing.T) {
	service := newService(t)

	err := service.SaveDocument(t.Context(), nil)
	assert.ErrorIs(t, err, services.ErrWorkflowNil)

	err = service.SaveDocument(t.Context(), &models.Document{})
	assert.ErrorIs(t, err, services.ErrInvalidRequest)

	workflow := &models.Workflow{ID: "wf-1", Name: " "}
	err = service.SaveDocument(t.Context(), workflow.ToDocument())
	assert.ErrorIs(t, err, services.ErrWorkflowNameRequired)
}

func TestSaveDocumentRoundTrip(t *testing.T) {
	service := newService(t)

	created, err := service.CreateWorkflow(t.Context(), "Order sync", "")
	require.NoError(t, err)

	created.Nodes = append(created.Nodes, &models.WorkflowNode{
		ID:       "trigger:manual-1",
		Kind:     models.NodeKindTrigger,
		TypeName: "trigger:manual",
		Label:    "Manual",
		Position: &models.Position{X: 100, Y: 100},
		Settings: models.DefaultNodeSettings(),
	})

	require.NoError(t, service.SaveDocument(t.Context(), created.ToDocument()))

	loaded, err := service.WorkflowByID(t.Context(), created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Nodes, 1)
	assert.Equal(t, "trigger:manual", loaded.Nodes[0].TypeName)
}

func TestDeleteWorkflow(t *testing.T) {
	service := newService(t)

	workflow, err := service.CreateWorkflow(t.Context(), "Order sync", "")
	require.NoError(t, err)

	require.NoError(t, service.DeleteWorkflow(t.Context(), workflow.ID))

	err = service.DeleteWorkflow(t.Context(), workflow.ID)
	assert.ErrorIs(t, err, services.ErrWorkflowNotFound)
}

func TestListWorkflows(t *testing.T) {
	service := newService(t)

	_, err := service.CreateWorkflow(t.Context(), "Beta", "")
	require.NoError(t, err)
	_, err = service.CreateWorkflow(t.Context(), "Alpha", "")
	require.NoError(t, err)

	workflows, err := service.ListWorkflows(t.Context())
	require.NoError(t, err)
	require.Len(t, workflows, 2)
	assert.Equal(t, "Alpha", workflows[0].Name)
}
