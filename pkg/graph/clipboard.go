package graph

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// pasteOffset displaces pasted nodes from their originals so copies never
// land exactly on top of them.
const pasteOffset = 50

// Copy deep-clones the current selection into the clipboard. An empty
// selection is a no-op, so an accidental copy never clears a useful
// clipboard.
func (s *Store) Copy() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var copied []*models.WorkflowNode

	for _, node := range s.nodes {
		if node.Selected {
			copied = append(copied, node.Clone())
		}
	}

	if len(copied) == 0 {
		return 0
	}

	s.clipboard = copied

	return len(copied)
}

// Paste duplicates the clipboard contents onto the canvas: fresh ids,
// +50/+50 position offset from the originals, pasted nodes selected and
// everything else deselected. The whole batch is one undo step, and the
// clipboard is left untouched so repeated pastes keep working without id
// collisions.
func (s *Store) Paste() []*models.WorkflowNode {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.clipboard) == 0 {
		return nil
	}

	s.record()

	for _, node := range s.nodes {
		node.Selected = false
	}

	pasted := make([]*models.WorkflowNode, 0, len(s.clipboard))

	for _, original := range s.clipboard {
		node := original.Clone()
		node.ID = pasteID(node.TypeName)
		node.Selected = true
		node.RuntimeStatus = models.NodeStatusIdle
		node.LastOutput = nil
		node.LastError = ""
		node.LastErrorSuggestion = ""

		if node.Position != nil {
			node.Position = &models.Position{
				X: node.Position.X + pasteOffset,
				Y: node.Position.Y + pasteOffset,
			}
		}

		s.nodes = append(s.nodes, node)
		pasted = append(pasted, node)
	}

	return pasted
}

// ClipboardLen reports how many nodes the clipboard holds.
func (s *Store) ClipboardLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.clipboard)
}

// pasteID builds `${typeName}-${timestamp}-${randomSuffix}` ids. The
// random suffix keeps multiple pastes of the same clipboard from
// colliding even within one millisecond.
func pasteID(typeName string) string {
	return fmt.Sprintf("%s-%d-%04d", typeName, time.Now().UnixMilli(), rand.Intn(10000))
}
