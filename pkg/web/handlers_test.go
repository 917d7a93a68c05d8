package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgrid/flowgrid/pkg/channels/gochannel"
	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence/file"
	"github.com/flowgrid/flowgrid/pkg/registry"
	"github.com/flowgrid/flowgrid/pkg/runner"
	"github.com/flowgrid/flowgrid/pkg/services"
	"github.com/flowgrid/flowgrid/pkg/web"
)

func setupTestApp(t *testing.T) (*fiber.App, *services.Workflow) {
	t.Helper()

	persistence, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	workflowService := services.NewWorkflow(persistence)
	activationService := services.NewActivation(persistence)

	publisher, _, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	workflowRunner := runner.NewRunner(publisher, nil)

	registryInstance := registry.NewRegistry(nil)
	registryInstance.RegisterDefaults()

	handlers := web.NewAPIHandlers(
		workflowService,
		activationService,
		workflowRunner,
		validator.New(validator.WithRequiredStructEnabled()),
		registryInstance,
	)

	app := fiber.New()

	app.Get("/health", handlers.HealthCheck)
	app.Get("/node-types", handlers.GetNodeTypes)
	app.Post("/node-types/:name/validate", handlers.ValidateNodeConfig)

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Get("/:id/document", handlers.GetDocument)
	w.Put("/:id/document", handlers.SaveDocument)
	w.Post("/:id/activate", handlers.ActivateWorkflow)
	w.Post("/:id/deactivate", handlers.DeactivateWorkflow)
	w.Post("/:id/execute", handlers.ExecuteWorkflow)
	w.Post("/:id/nodes/:nodeId/execute", handlers.ExecuteNode)

	return app, workflowService
}

func doJSON(t *testing.T, app *fiber.App, method, target string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body []byte

	if payload != nil {
		if str, ok := payload.(string); ok {
			body = []byte(str)
		} else {
			var err error
			body, err = json.Marshal(payload)
			require.NoError(t, err)
		}
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, raw
}

func createWorkflow(t *testing.T, app *fiber.App, name string) models.Workflow {
	t.Helper()

	resp, raw := doJSON(t, app, http.MethodPost, "/workflows", web.CreateWorkflowRequest{Name: name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(raw, &workflow))

	return workflow
}

func TestCreateWorkflow(t *testing.T) {
	app, _ := setupTestApp(t)

	workflow := createWorkflow(t, app, "Order sync")

	assert.NotEmpty(t, workflow.ID)
	assert.Equal(t, "Order sync", workflow.Name)
	assert.Equal(t, models.WorkflowStatusDraft, workflow.Status)
}

func TestCreateWorkflowValidation(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows", web.CreateWorkflowRequest{Name: "ab"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/workflows", "not-json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetWorkflowNotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/workflows/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDocumentRoundTrip(t *testing.T) {
	app, _ := setupTestApp(t)

	workflow := createWorkflow(t, app, "Order sync")

	workflow.Nodes = []*models.WorkflowNode{
		{
			ID:       "trigger:manual-1",
			Kind:     models.NodeKindTrigger,
			TypeName: "trigger:manual",
			Label:    "Manual",
			Position: &models.Position{X: 100, Y: 100},
			Settings: models.DefaultNodeSettings(),
		},
	}

	resp, _ := doJSON(t, app, http.MethodPut, "/workflows/"+workflow.ID+"/document", workflow.ToDocument())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := doJSON(t, app, http.MethodGet, "/workflows/"+workflow.ID+"/document", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var document models.Document
	require.NoError(t, json.Unmarshal(raw, &document))

	require.Len(t, document.Graph.Nodes, 1)
	assert.Equal(t, "trigger:manual", document.Graph.Nodes[0].Spec.NodeName)
}

func TestSaveDocumentIDMismatch(t *testing.T) {
	app, _ := setupTestApp(t)

	workflow := createWorkflow(t, app, "Order sync")

	document := workflow.ToDocument()
	document.WorkflowID = "someone-else"

	resp, _ := doJSON(t, app, http.MethodPut, "/workflows/"+workflow.ID+"/document", document)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestActivateWorkflowLifecycle(t *testing.T) {
	app, _ := setupTestApp(t)

	workflow := createWorkflow(t, app, "Order sync")

	// draft without trigger nodes cannot activate
	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/activate", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	workflow.Nodes = []*models.WorkflowNode{
		{
			ID:       "trigger:manual-1",
			Kind:     models.NodeKindTrigger,
			TypeName: "trigger:manual",
			Label:    "Manual",
			Position: &models.Position{X: 0, Y: 0},
			Settings: models.DefaultNodeSettings(),
		},
	}

	resp, _ = doJSON(t, app, http.MethodPut, "/workflows/"+workflow.ID+"/document", workflow.ToDocument())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/activate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var activated models.Workflow
	require.NoError(t, json.Unmarshal(raw, &activated))
	assert.Equal(t, models.WorkflowStatusActive, activated.Status)

	// activating twice conflicts
	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/activate", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/deactivate", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExecuteWorkflow(t *testing.T) {
	app, _ := setupTestApp(t)

	workflow := createWorkflow(t, app, "Order sync")

	// no trigger node
	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/execute", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	workflow.Nodes = []*models.WorkflowNode{
		{
			ID:       "trigger:manual-1",
			Kind:     models.NodeKindTrigger,
			TypeName: "trigger:manual",
			Label:    "Manual",
			Position: &models.Position{X: 0, Y: 0},
			Settings: models.DefaultNodeSettings(),
		},
	}

	resp, _ = doJSON(t, app, http.MethodPut, "/workflows/"+workflow.ID+"/document", workflow.ToDocument())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/execute", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var result web.ExecuteWorkflowResponse
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.NotEmpty(t, result.ExecutionID)
}

func TestExecuteNode(t *testing.T) {
	app, _ := setupTestApp(t)

	workflow := createWorkflow(t, app, "Order sync")

	workflow.Nodes = []*models.WorkflowNode{
		{
			ID:       "action:http_request-1",
			Kind:     models.NodeKindAction,
			TypeName: "action:http_request",
			Label:    "HTTP Request",
			Position: &models.Position{X: 0, Y: 0},
			Config:   map[string]any{"url": "https://a", "method": "GET"},
			Settings: models.DefaultNodeSettings(),
		},
	}

	resp, _ := doJSON(t, app, http.MethodPut, "/workflows/"+workflow.ID+"/document", workflow.ToDocument())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := doJSON(t, app, http.MethodPost,
		"/workflows/"+workflow.ID+"/nodes/action:http_request-1/execute",
		web.ExecuteNodeRequest{Config: map[string]any{"url": "https://b"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.NodeResult
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, models.NodeStatusSuccess, result.Status)
	assert.Equal(t, "https://b", result.Data["url"])

	resp, _ = doJSON(t, app, http.MethodPost,
		"/workflows/"+workflow.ID+"/nodes/missing/execute", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetNodeTypes(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, raw := doJSON(t, app, http.MethodGet, "/node-types", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		NodeTypes []registry.NodeType `json:"node_types"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.NotEmpty(t, body.NodeTypes)
}

func TestValidateNodeConfig(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/node-types/action:http_request/validate",
		web.ExecuteNodeRequest{Config: map[string]any{"url": "https://a"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/node-types/action:http_request/validate",
		web.ExecuteNodeRequest{Config: map[string]any{"method": "GET"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteWorkflow(t *testing.T) {
	app, _ := setupTestApp(t)

	workflow := createWorkflow(t, app, "Order sync")

	resp, _ := doJSON(t, app, http.MethodDelete, "/workflows/"+workflow.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/workflows/"+workflow.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
