// Package registry is the catalog of node types available on the canvas.
// Each type declares its kind, palette metadata, config defaults and an
// optional JSON schema for its config. The save-state machine consults the
// catalog to decide whether a graph is autosave-safe.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/xeipuuv/gojsonschema"

	"github.com/flowgrid/flowgrid/pkg/graph"
	"github.com/flowgrid/flowgrid/pkg/models"
)

// InputField describes one config field of a node type, as rendered in the
// node's settings panel.
type InputField struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Default  any      `json:"default,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// NodeType is one entry in the catalog.
type NodeType struct {
	Name        string          `json:"name"`
	Kind        models.NodeKind `json:"kind"`
	Category    string          `json:"category"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Icon        string          `json:"icon,omitempty"`
	Inputs      []InputField    `json:"inputs,omitempty"`
	Schema      map[string]any  `json:"schema,omitempty"`
}

// Defaults collects the declared field defaults into an initial config map.
func (t *NodeType) Defaults() map[string]any {
	defaults := make(map[string]any)

	for _, input := range t.Inputs {
		if input.Default != nil {
			defaults[input.Name] = input.Default
		}
	}

	return defaults
}

// Registry holds the registered node types.
type Registry struct {
	mu     sync.RWMutex
	types  map[string]*NodeType
	logger *slog.Logger
}

// NewRegistry creates an empty catalog.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		types:  make(map[string]*NodeType),
		logger: logger.With("module", "registry"),
	}
}

// Register adds a node type, replacing any earlier entry with the same name.
func (r *Registry) Register(nodeType *NodeType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.types[nodeType.Name] = nodeType
}

// Get returns the node type by name.
func (r *Registry) Get(name string) (*NodeType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodeType, ok := r.types[name]

	return nodeType, ok
}

// Known reports whether the type name is registered. The save-state machine
// uses this to block autosave of graphs holding placeholder nodes.
func (r *Registry) Known(typeName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.types[typeName]

	return ok
}

// List returns all node types ordered by category then name, for the
// editor's palette.
func (r *Registry) List() []*NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*NodeType, 0, len(r.types))
	for _, nodeType := range r.types {
		list = append(list, nodeType)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Category != list[j].Category {
			return list[i].Category < list[j].Category
		}

		return list[i].Name < list[j].Name
	})

	return list
}

// Descriptor builds the graph-store descriptor for a type name, carrying
// the declared config defaults.
func (r *Registry) Descriptor(typeName string) (graph.NodeDescriptor, bool) {
	nodeType, ok := r.Get(typeName)
	if !ok {
		return graph.NodeDescriptor{}, false
	}

	return graph.NodeDescriptor{
		TypeName: nodeType.Name,
		Kind:     nodeType.Kind,
		Label:    nodeType.Label,
		Defaults: nodeType.Defaults(),
	}, true
}

// ValidateConfig checks a node config against the type's declared schema.
// Schedule triggers additionally have their cron expression parsed.
func (r *Registry) ValidateConfig(typeName string, config map[string]any) error {
	nodeType, ok := r.Get(typeName)
	if !ok {
		return fmt.Errorf("node type %q not registered", typeName)
	}

	if nodeType.Schema != nil {
		schemaLoader := gojsonschema.NewGoLoader(nodeType.Schema)
		dataLoader := gojsonschema.NewGoLoader(config)

		result, err := gojsonschema.Validate(schemaLoader, dataLoader)
		if err != nil {
			return fmt.Errorf("validate %s config: %w", typeName, err)
		}

		if !result.Valid() {
			details := make([]string, 0, len(result.Errors()))
			for _, resultError := range result.Errors() {
				details = append(details, resultError.String())
			}

			return fmt.Errorf("invalid %s config: %s", typeName, strings.Join(details, "; "))
		}
	}

	if typeName == ScheduleTriggerName {
		if err := validateCronExpression(config); err != nil {
			return err
		}
	}

	return nil
}

func validateCronExpression(config map[string]any) error {
	raw, ok := config["cron_expression"]
	if !ok {
		return nil
	}

	expression, ok := raw.(string)
	if !ok {
		return fmt.Errorf("cron_expression must be a string, got %T", raw)
	}

	if _, err := cron.ParseStandard(expression); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}

	return nil
}
