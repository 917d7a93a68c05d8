package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgrid/flowgrid/pkg/models"
)

func actionDescriptor(typeName string) NodeDescriptor {
	return NodeDescriptor{
		TypeName: typeName,
		Kind:     models.NodeKindAction,
		Label:    typeName,
		Defaults: map[string]any{"method": "GET"},
	}
}

func TestAddNodeDefaults(t *testing.T) {
	store := NewStore(nil)

	node := store.AddNode(actionDescriptor("http.request"), nil)

	require.NotNil(t, node)
	assert.Contains(t, node.ID, "http.request-")
	assert.Equal(t, "GET", node.Config["method"])
	assert.Equal(t, models.NodeStatusIdle, node.RuntimeStatus)
	require.NotNil(t, node.Position)
	assert.InDelta(t, defaultPlacement.X, node.Position.X, 0)

	hinted := store.AddNode(actionDescriptor("log"), &models.Position{X: 400, Y: 80})
	assert.InDelta(t, 400.0, hinted.Position.X, 0)
}

func TestAddNodeIDsAreUnique(t *testing.T) {
	store := NewStore(nil)

	seen := make(map[string]bool)

	for range 20 {
		node := store.AddNode(actionDescriptor("transform"), nil)
		require.False(t, seen[node.ID], "duplicate id %s", node.ID)
		seen[node.ID] = true
	}
}

func TestRemoveNodeCascadesEdges(t *testing.T) {
	store := NewStore(nil)

	a := store.AddNode(actionDescriptor("a"), nil)
	b := store.AddNode(actionDescriptor("b"), nil)
	c := store.AddNode(actionDescriptor("c"), nil)

	require.NotNil(t, store.Connect(a.ID, "", b.ID, ""))
	require.NotNil(t, store.Connect(b.ID, "", c.ID, ""))

	store.RemoveNode(b.ID)

	assert.Empty(t, store.Edges())

	ids := nodeIDs(store)
	assert.ElementsMatch(t, []string{a.ID, c.ID}, ids)
}

func TestRemoveUnknownNodeIsNoOp(t *testing.T) {
	store := NewStore(nil)
	store.AddNode(actionDescriptor("a"), nil)

	before := store.History().Len()
	store.RemoveNode("missing")

	assert.Len(t, store.Nodes(), 1)
	assert.Equal(t, before, store.History().Len())
}

func TestConnectRejectsSelfAndDuplicates(t *testing.T) {
	store := NewStore(nil)

	a := store.AddNode(actionDescriptor("a"), nil)
	b := store.AddNode(actionDescriptor("b"), nil)

	assert.Nil(t, store.Connect(a.ID, "", a.ID, ""))
	assert.Nil(t, store.Connect(a.ID, "", "missing", ""))

	first := store.Connect(a.ID, "", b.ID, "")
	require.NotNil(t, first)
	assert.Nil(t, store.Connect(a.ID, "", b.ID, ""))

	// A different handle tuple is a different port pair.
	assert.NotNil(t, store.Connect(a.ID, "out", b.ID, ""))
	assert.Len(t, store.Edges(), 2)
}

func TestConnectLogicHandleBecomesCondition(t *testing.T) {
	store := NewStore(nil)

	branch := store.AddNode(NodeDescriptor{
		TypeName: "logic.if",
		Kind:     models.NodeKindLogic,
		Label:    "If",
	}, nil)
	next := store.AddNode(actionDescriptor("log"), nil)

	edge := store.Connect(branch.ID, "true", next.ID, "")

	require.NotNil(t, edge)
	assert.Equal(t, "true", edge.Condition)
}

func TestUpdateNodeDataShallowMerge(t *testing.T) {
	store := NewStore(nil)

	node := store.AddNode(actionDescriptor("http.request"), nil)

	label := "Fetch orders"
	store.UpdateNodeData(node.ID, DataPatch{
		Label:  &label,
		Config: map[string]any{"url": "https://example.com"},
	})

	updated := store.Node(node.ID)
	require.NotNil(t, updated)
	assert.Equal(t, "Fetch orders", updated.Label)
	assert.Equal(t, "https://example.com", updated.Config["url"])
	assert.Equal(t, "GET", updated.Config["method"], "existing keys survive a shallow merge")

	store.UpdateNodeData("missing", DataPatch{Label: &label})
}

func TestMoveNodeSnapshotsPerDragNotPerFrame(t *testing.T) {
	store := NewStore(nil)

	node := store.AddNode(actionDescriptor("a"), nil)
	before := store.History().Len()

	store.BeginNodeDrag(node.ID)

	for i := range 30 {
		store.MoveNode(node.ID, models.Position{X: float64(i), Y: float64(i)})
	}

	assert.Equal(t, before+1, store.History().Len())
	assert.InDelta(t, 29.0, store.Node(node.ID).Position.X, 0)

	require.True(t, store.Undo())
	assert.InDelta(t, defaultPlacement.X, store.Node(node.ID).Position.X, 0)
}

func TestLoadResetsRuntimeAndHistory(t *testing.T) {
	store := NewStore(nil)
	store.AddNode(actionDescriptor("old"), nil)

	store.Load([]*models.WorkflowNode{
		{
			ID:            "n1",
			Kind:          models.NodeKindAction,
			TypeName:      "log",
			Label:         "Log",
			Position:      &models.Position{X: 10, Y: 10},
			RuntimeStatus: models.NodeStatusSuccess,
			LastError:     "stale",
		},
	}, nil)

	require.Len(t, store.Nodes(), 1)
	node := store.Node("n1")
	assert.Equal(t, models.NodeStatusIdle, node.RuntimeStatus)
	assert.Empty(t, node.LastError)
	assert.False(t, store.History().CanUndo())
}

func TestSelection(t *testing.T) {
	store := NewStore(nil)

	a := store.AddNode(actionDescriptor("a"), nil)
	b := store.AddNode(actionDescriptor("b"), nil)

	store.SelectNode(a.ID)
	selected := store.SelectedNodes()
	require.Len(t, selected, 1)
	assert.Equal(t, a.ID, selected[0].ID)

	store.SelectNode(b.ID)
	selected = store.SelectedNodes()
	require.Len(t, selected, 1)
	assert.Equal(t, b.ID, selected[0].ID)

	store.ClearSelection()
	assert.Empty(t, store.SelectedNodes())
}

func TestSetNodeRuntime(t *testing.T) {
	store := NewStore(nil)

	node := store.AddNode(actionDescriptor("a"), nil)

	ok := store.SetNodeRuntime(node.ID, models.NodeStatusFailed, RuntimePatch{
		Error:      "connection refused",
		Suggestion: "check the endpoint URL",
	})
	require.True(t, ok)

	patched := store.Node(node.ID)
	assert.Equal(t, models.NodeStatusFailed, patched.RuntimeStatus)
	assert.Equal(t, "connection refused", patched.LastError)

	assert.False(t, store.SetNodeRuntime("missing", models.NodeStatusRunning, RuntimePatch{}))

	store.ResetRuntime()
	assert.Equal(t, models.NodeStatusIdle, store.Node(node.ID).RuntimeStatus)
	assert.Empty(t, store.Node(node.ID).LastError)
}

func nodeIDs(store *Store) []string {
	nodes := store.Nodes()

	ids := make([]string, 0, len(nodes))
	for _, node := range nodes {
		ids = append(ids, node.ID)
	}

	return ids
}
