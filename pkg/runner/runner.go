// Package runner executes workflows in-process, publishing the execution
// event stream a live channel consumes. It stands in for the backend
// workflow runtime behind the same event contract.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/flowgrid/flowgrid/pkg/events"
	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/otelhelper"
	"github.com/flowgrid/flowgrid/pkg/template"
)

// ErrNoTriggerNode is returned when a workflow has no entry point.
var ErrNoTriggerNode = errors.New("workflow has no trigger node")

// simulateErrorKey marks a node config as failing, for development and
// tests of the failure paths.
const simulateErrorKey = "simulate_error"

// Runner walks a workflow graph from its trigger nodes and publishes one
// event per transition onto the execution's topic.
type Runner struct {
	publisher message.Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewRunner creates a runner over the given publisher. Tracing is a
// no-op until WithTracer is called.
func NewRunner(publisher message.Publisher, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		publisher: publisher,
		logger:    logger.With("module", "runner"),
		tracer:    noop.NewTracerProvider().Tracer("runner"),
	}
}

// WithTracer attaches an OpenTelemetry tracer to the runner.
func (r *Runner) WithTracer(tracer trace.Tracer) *Runner {
	r.tracer = tracer

	return r
}

// Execute starts an asynchronous run and returns its execution id. Events
// flow on events.Topic(executionID); callers bind a live channel to it.
func (r *Runner) Execute(ctx context.Context, workflow *models.Workflow) (string, error) {
	if !hasTrigger(workflow) {
		return "", ErrNoTriggerNode
	}

	executionID := uuid.NewString()

	go r.run(ctx, executionID, workflow)

	return executionID, nil
}

// ExecuteNode runs a single node with an override config, outside any
// workflow run. Used by the editor's "test this node" affordance. String
// config values are rendered as template expressions before execution.
func (r *Runner) ExecuteNode(_ context.Context, workflow *models.Workflow, nodeID string, config map[string]any) (*models.NodeResult, error) {
	node := findNode(workflow, nodeID)
	if node == nil {
		return nil, fmt.Errorf("node %s not found in workflow %s", nodeID, workflow.ID)
	}

	merged := make(map[string]any, len(node.Config)+len(config))
	for k, v := range node.Config {
		merged[k] = v
	}

	for k, v := range config {
		merged[k] = v
	}

	merged, err := template.RenderConfig(merged, template.Context{Workflow: workflow})
	if err != nil {
		return &models.NodeResult{
			NodeID:    node.ID,
			Status:    models.NodeStatusFailed,
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		}, nil
	}

	if reason, failing := simulatedError(merged); failing {
		return &models.NodeResult{
			NodeID:    node.ID,
			Status:    models.NodeStatusFailed,
			Error:     reason,
			Timestamp: time.Now().UTC(),
		}, nil
	}

	return &models.NodeResult{
		NodeID:    node.ID,
		Status:    models.NodeStatusSuccess,
		Data:      merged,
		Timestamp: time.Now().UTC(),
	}, nil
}

func (r *Runner) run(ctx context.Context, executionID string, workflow *models.Workflow) {
	started := time.Now()

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "runner.execute",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
		attribute.String(otelhelper.ExecutionIDKey, executionID),
	)
	defer span.End()

	r.publish(executionID, events.WorkflowStarted{
		ExecutionID: executionID,
		WorkflowID:  workflow.ID,
		Mode:        workflow.Execution.Mode,
	})

	for _, node := range order(workflow) {
		select {
		case <-ctx.Done():
			otelhelper.SetError(span, ctx.Err())
			r.publish(executionID, events.WorkflowFailed{
				ExecutionID: executionID,
				WorkflowID:  workflow.ID,
				Error:       ctx.Err().Error(),
				DurationMs:  time.Since(started).Milliseconds(),
			})

			return
		default:
		}

		if !r.runNode(ctx, executionID, node) {
			switch node.Settings.OnError {
			case models.OnErrorContinue:
				continue
			default:
				err := fmt.Errorf("node %s failed", node.ID)
				otelhelper.SetError(span, err, attribute.String(otelhelper.NodeIDKey, node.ID))
				r.publish(executionID, events.WorkflowFailed{
					ExecutionID: executionID,
					WorkflowID:  workflow.ID,
					Error:       err.Error(),
					DurationMs:  time.Since(started).Milliseconds(),
				})

				return
			}
		}
	}

	r.publish(executionID, events.WorkflowCompleted{
		ExecutionID: executionID,
		WorkflowID:  workflow.ID,
		DurationMs:  time.Since(started).Milliseconds(),
	})
}

// runNode emits the event sequence for one node. Returns false when the
// node ends in failure after exhausting any configured retries; a node
// under on_error=continue emits node_continued instead of node_failed.
func (r *Runner) runNode(ctx context.Context, executionID string, node *models.WorkflowNode) bool {
	_, span := otelhelper.StartSpan(ctx, r.tracer, "runner.node",
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, node.TypeName),
		attribute.String(otelhelper.ExecutionIDKey, executionID),
	)
	defer span.End()

	r.publish(executionID, events.NodeStarted{
		ExecutionID: executionID,
		NodeID:      node.ID,
		NodeLabel:   node.Label,
	})

	reason, failing := simulatedError(node.Config)
	if !failing {
		r.publish(executionID, events.NodeCompleted{
			ExecutionID: executionID,
			NodeID:      node.ID,
			NodeLabel:   node.Label,
			Result:      map[string]any{"status": "ok"},
		})

		return true
	}

	if node.Settings.RetryOnFail {
		for attempt := 1; attempt <= node.Settings.MaxRetries; attempt++ {
			r.publish(executionID, events.NodeRetrying{
				ExecutionID: executionID,
				NodeID:      node.ID,
				NodeLabel:   node.Label,
				Attempt:     attempt,
				MaxRetries:  node.Settings.MaxRetries,
				DelayMs:     node.Settings.RetryDelay,
			})
		}
	}

	otelhelper.SetError(span, errors.New(reason))

	if node.Settings.OnError == models.OnErrorContinue {
		r.publish(executionID, events.NodeContinued{
			ExecutionID: executionID,
			NodeID:      node.ID,
			NodeLabel:   node.Label,
			Error:       reason,
		})

		return false
	}

	r.publish(executionID, events.NodeFailed{
		ExecutionID: executionID,
		NodeID:      node.ID,
		NodeLabel:   node.Label,
		Error:       reason,
		Category:    "simulated",
	})

	return false
}

func (r *Runner) publish(executionID string, event events.Event) {
	envelope, err := events.NewEnvelope(event)
	if err != nil {
		r.logger.Error("marshal event", "error", err, "execution_id", executionID)

		return
	}

	raw, err := envelope.Marshal()
	if err != nil {
		r.logger.Error("marshal envelope", "error", err, "execution_id", executionID)

		return
	}

	msg := message.NewMessage(watermill.NewUUID(), raw)

	if err := r.publisher.Publish(events.Topic(executionID), msg); err != nil {
		r.logger.Error("publish event", "error", err,
			"execution_id", executionID, "event_type", event.GetType())
	}
}

// order walks the graph breadth-first from its trigger nodes, visiting
// each node once. Nodes unreachable from any trigger are not executed.
func order(workflow *models.Workflow) []*models.WorkflowNode {
	byID := make(map[string]*models.WorkflowNode, len(workflow.Nodes))
	for _, node := range workflow.Nodes {
		byID[node.ID] = node
	}

	outgoing := make(map[string][]string)
	for _, edge := range workflow.Edges {
		outgoing[edge.Source] = append(outgoing[edge.Source], edge.Target)
	}

	var (
		queue   []string
		visited = make(map[string]bool)
		ordered []*models.WorkflowNode
	)

	for _, node := range workflow.Nodes {
		if node.IsTriggerNode() {
			queue = append(queue, node.ID)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if visited[id] {
			continue
		}

		visited[id] = true

		if node := byID[id]; node != nil {
			ordered = append(ordered, node)
		}

		queue = append(queue, outgoing[id]...)
	}

	return ordered
}

func hasTrigger(workflow *models.Workflow) bool {
	for _, node := range workflow.Nodes {
		if node.IsTriggerNode() {
			return true
		}
	}

	return false
}

func findNode(workflow *models.Workflow, nodeID string) *models.WorkflowNode {
	for _, node := range workflow.Nodes {
		if node.ID == nodeID {
			return node
		}
	}

	return nil
}

func simulatedError(config map[string]any) (string, bool) {
	raw, ok := config[simulateErrorKey]
	if !ok {
		return "", false
	}

	switch v := raw.(type) {
	case bool:
		if v {
			return "simulated failure", true
		}
	case string:
		if v != "" {
			return v, true
		}
	}

	return "", false
}
