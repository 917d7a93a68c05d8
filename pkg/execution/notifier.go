// Package execution folds the live execution event stream into per-node
// canvas state and an append-only execution log.
package execution

import "github.com/flowgrid/flowgrid/pkg/models"

// Notifier is the side channel for user-facing notifications that should
// surface outside the log panel: remediation suggestions on node failures
// and workflow-level failure banners.
type Notifier interface {
	Notify(level models.LogLevel, title, message string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(models.LogLevel, string, string) {}
