package web

// CreateWorkflowRequest is the payload for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string `json:"name"        validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"max=1000"`
}

// ExecuteNodeRequest carries the config override for a single-node test run.
type ExecuteNodeRequest struct {
	Config map[string]any `json:"config"`
}

// ExecuteWorkflowResponse is returned when a run has been started.
type ExecuteWorkflowResponse struct {
	ExecutionID string `json:"execution_id"`
}
