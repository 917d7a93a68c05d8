package registry

import "github.com/flowgrid/flowgrid/pkg/models"

// Built-in node type names. Node ids on the canvas are derived from these,
// so they are part of the persisted document format.
const (
	ManualTriggerName   = "trigger:manual"
	WebhookTriggerName  = "trigger:webhook"
	ScheduleTriggerName = "trigger:schedule"
	KafkaTriggerName    = "trigger:kafka"

	HTTPRequestActionName = "action:http_request"
	TransformActionName   = "action:transform"
	LogActionName         = "action:log"
	FileWriteActionName   = "action:file_write"

	IfLogicName     = "logic:if"
	SwitchLogicName = "logic:switch"
	MergeLogicName  = "logic:merge"

	AIAgentName = "ai:agent"
)

// RegisterDefaults registers the built-in node types.
func (r *Registry) RegisterDefaults() {
	r.Register(&NodeType{
		Name:        ManualTriggerName,
		Kind:        models.NodeKindTrigger,
		Category:    "triggers",
		Label:       "Manual",
		Description: "Starts the workflow when triggered from the editor",
		Icon:        "play",
	})

	r.Register(&NodeType{
		Name:        WebhookTriggerName,
		Kind:        models.NodeKindTrigger,
		Category:    "triggers",
		Label:       "Webhook",
		Description: "Starts the workflow on an incoming HTTP request",
		Icon:        "webhook",
		Inputs: []InputField{
			{Name: "path", Label: "Path", Type: "string", Required: true},
			{Name: "method", Label: "Method", Type: "select", Default: "POST", Options: []string{"GET", "POST", "PUT", "DELETE"}},
		},
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"path"},
			"properties": map[string]any{
				"path":   map[string]any{"type": "string", "minLength": 1},
				"method": map[string]any{"type": "string", "enum": []any{"GET", "POST", "PUT", "DELETE"}},
			},
		},
	})

	r.Register(&NodeType{
		Name:        ScheduleTriggerName,
		Kind:        models.NodeKindTrigger,
		Category:    "triggers",
		Label:       "Schedule",
		Description: "Starts the workflow on a cron schedule",
		Icon:        "clock",
		Inputs: []InputField{
			{Name: "cron_expression", Label: "Cron expression", Type: "string", Required: true, Default: "0 * * * *"},
		},
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"cron_expression"},
			"properties": map[string]any{
				"cron_expression": map[string]any{"type": "string", "minLength": 1},
			},
		},
	})

	r.Register(&NodeType{
		Name:        KafkaTriggerName,
		Kind:        models.NodeKindTrigger,
		Category:    "triggers",
		Label:       "Kafka",
		Description: "Starts the workflow on a Kafka message",
		Icon:        "kafka",
		Inputs: []InputField{
			{Name: "topic", Label: "Topic", Type: "string", Required: true},
			{Name: "consumer_group", Label: "Consumer group", Type: "string"},
		},
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"topic"},
			"properties": map[string]any{
				"topic":          map[string]any{"type": "string", "minLength": 1},
				"consumer_group": map[string]any{"type": "string"},
			},
		},
	})

	r.Register(&NodeType{
		Name:        HTTPRequestActionName,
		Kind:        models.NodeKindAction,
		Category:    "actions",
		Label:       "HTTP Request",
		Description: "Calls an HTTP endpoint",
		Icon:        "globe",
		Inputs: []InputField{
			{Name: "url", Label: "URL", Type: "string", Required: true},
			{Name: "method", Label: "Method", Type: "select", Default: "GET", Options: []string{"GET", "POST", "PUT", "PATCH", "DELETE"}},
			{Name: "headers", Label: "Headers", Type: "map"},
			{Name: "body", Label: "Body", Type: "text"},
		},
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"url"},
			"properties": map[string]any{
				"url":    map[string]any{"type": "string", "minLength": 1},
				"method": map[string]any{"type": "string", "enum": []any{"GET", "POST", "PUT", "PATCH", "DELETE"}},
			},
		},
	})

	r.Register(&NodeType{
		Name:        TransformActionName,
		Kind:        models.NodeKindAction,
		Category:    "actions",
		Label:       "Transform",
		Description: "Reshapes data with an expression",
		Icon:        "shuffle",
		Inputs: []InputField{
			{Name: "expression", Label: "Expression", Type: "text", Required: true},
		},
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"expression"},
			"properties": map[string]any{
				"expression": map[string]any{"type": "string", "minLength": 1},
			},
		},
	})

	r.Register(&NodeType{
		Name:        LogActionName,
		Kind:        models.NodeKindAction,
		Category:    "actions",
		Label:       "Log",
		Description: "Writes a message to the execution log",
		Icon:        "file-text",
		Inputs: []InputField{
			{Name: "message", Label: "Message", Type: "string", Required: true},
			{Name: "level", Label: "Level", Type: "select", Default: "info", Options: []string{"debug", "info", "warn", "error"}},
		},
	})

	r.Register(&NodeType{
		Name:        FileWriteActionName,
		Kind:        models.NodeKindAction,
		Category:    "actions",
		Label:       "File Write",
		Description: "Writes content to a file path",
		Icon:        "save",
		Inputs: []InputField{
			{Name: "file_path", Label: "File path", Type: "string", Required: true},
			{Name: "content", Label: "Content", Type: "text", Required: true},
			{Name: "append", Label: "Append", Type: "boolean", Default: false},
		},
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"file_path", "content"},
			"properties": map[string]any{
				"file_path": map[string]any{"type": "string", "minLength": 1},
				"content":   map[string]any{"type": "string"},
				"append":    map[string]any{"type": "boolean"},
			},
		},
	})

	r.Register(&NodeType{
		Name:        IfLogicName,
		Kind:        models.NodeKindLogic,
		Category:    "logic",
		Label:       "If",
		Description: "Routes to the true or false branch",
		Icon:        "git-branch",
		Inputs: []InputField{
			{Name: "condition", Label: "Condition", Type: "text", Required: true},
		},
	})

	r.Register(&NodeType{
		Name:        SwitchLogicName,
		Kind:        models.NodeKindLogic,
		Category:    "logic",
		Label:       "Switch",
		Description: "Routes by matching against labeled cases",
		Icon:        "git-merge",
		Inputs: []InputField{
			{Name: "expression", Label: "Expression", Type: "text", Required: true},
			{Name: "cases", Label: "Cases", Type: "list"},
		},
	})

	r.Register(&NodeType{
		Name:        MergeLogicName,
		Kind:        models.NodeKindLogic,
		Category:    "logic",
		Label:       "Merge",
		Description: "Joins branches back into one stream",
		Icon:        "git-pull-request",
	})

	r.Register(&NodeType{
		Name:        AIAgentName,
		Kind:        models.NodeKindAI,
		Category:    "ai",
		Label:       "AI Agent",
		Description: "Agent node with chat model, tools and memory handles",
		Icon:        "bot",
		Inputs: []InputField{
			{Name: "prompt", Label: "Prompt", Type: "text", Required: true},
			{Name: "temperature", Label: "Temperature", Type: "number", Default: 0.7},
		},
	})
}
