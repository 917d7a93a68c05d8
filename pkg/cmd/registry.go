package cmd

import (
	"log/slog"

	"github.com/flowgrid/flowgrid/pkg/registry"
)

// NewRegistry builds a node type registry preloaded with the built-in
// triggers, actions and logic nodes.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	r := registry.NewRegistry(logger)
	r.RegisterDefaults()

	return r
}
