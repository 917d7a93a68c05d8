package models

// Document is the wire shape exchanged with the workflow-storage service.
// It is derived from a Workflow at save time and folded back into one at
// load time; it is never the in-memory source of truth.
type Document struct {
	WorkflowID string          `json:"workflow_id"`
	Meta       DocumentMeta    `json:"meta"`
	Graph      DocumentGraph   `json:"graph"`
	Execution  ExecutionConfig `json:"execution"`
	Observe    Observability   `json:"observability"`
	AI         DocumentAI      `json:"ai"`
}

// DocumentMeta mirrors the identity fields of a Workflow.
type DocumentMeta struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      WorkflowStatus `json:"status"`
	Version     int            `json:"version"`
	Tags        []string       `json:"tags"`
}

// DocumentGraph holds the serialized node/edge lists.
type DocumentGraph struct {
	Nodes []DocumentNode  `json:"nodes"`
	Edges []*WorkflowEdge `json:"edges"`
}

// DocumentNode nests UI concerns and runtime spec the way the storage
// service expects them. The spec.config/spec.settings shape is a derived
// view of WorkflowNode.Config/Settings.
type DocumentNode struct {
	ID   string       `json:"id"`
	Kind NodeKind     `json:"kind"`
	UI   DocumentUI   `json:"ui"`
	Spec DocumentSpec `json:"spec"`
}

// DocumentUI carries the display-only attributes of a node.
type DocumentUI struct {
	Label    string   `json:"label"`
	Position Position `json:"position"`
}

// DocumentSpec carries the functional attributes of a node.
type DocumentSpec struct {
	NodeName string         `json:"node_name"`
	Config   map[string]any `json:"config"`
	Settings NodeSettings   `json:"settings"`
	Runtime  map[string]any `json:"runtime,omitempty"`
}

// DocumentAI records provenance for generated workflows.
type DocumentAI struct {
	GeneratedBy string `json:"generated_by"`
}

// ToDocument maps a workflow to its wire document. Execution config is
// merged over the defaults so partial configs round-trip complete.
func (w *Workflow) ToDocument() *Document {
	nodes := make([]DocumentNode, 0, len(w.Nodes))

	for _, node := range w.Nodes {
		var pos Position
		if node.Position != nil {
			pos = *node.Position
		}

		nodes = append(nodes, DocumentNode{
			ID:   node.ID,
			Kind: node.Kind,
			UI: DocumentUI{
				Label:    node.Label,
				Position: pos,
			},
			Spec: DocumentSpec{
				NodeName: node.TypeName,
				Config:   node.Config,
				Settings: node.Settings,
			},
		})
	}

	edges := make([]*WorkflowEdge, 0, len(w.Edges))
	for _, edge := range w.Edges {
		edges = append(edges, edge.Clone())
	}

	return &Document{
		WorkflowID: w.ID,
		Meta: DocumentMeta{
			ID:          w.ID,
			Name:        w.Name,
			Description: w.Description,
			Status:      w.Status,
			Version:     w.Version,
			Tags:        w.Tags,
		},
		Graph: DocumentGraph{
			Nodes: nodes,
			Edges: edges,
		},
		Execution: DefaultExecutionConfig().Merge(w.Execution),
		Observe:   w.Observe,
		AI:        DocumentAI{GeneratedBy: "flowgrid"},
	}
}

// ToWorkflow folds a wire document back into a workflow. Runtime state is
// dropped: every node comes back idle.
func (d *Document) ToWorkflow() *Workflow {
	nodes := make([]*WorkflowNode, 0, len(d.Graph.Nodes))

	for _, dn := range d.Graph.Nodes {
		pos := dn.UI.Position

		nodes = append(nodes, &WorkflowNode{
			ID:            dn.ID,
			Kind:          dn.Kind,
			TypeName:      dn.Spec.NodeName,
			Label:         dn.UI.Label,
			Position:      &pos,
			Config:        dn.Spec.Config,
			Settings:      dn.Spec.Settings,
			RuntimeStatus: NodeStatusIdle,
		})
	}

	edges := make([]*WorkflowEdge, 0, len(d.Graph.Edges))
	for _, edge := range d.Graph.Edges {
		edges = append(edges, edge.Clone())
	}

	return &Workflow{
		ID:          d.Meta.ID,
		Name:        d.Meta.Name,
		Description: d.Meta.Description,
		Status:      d.Meta.Status,
		Version:     d.Meta.Version,
		Tags:        d.Meta.Tags,
		Nodes:       nodes,
		Edges:       edges,
		Execution:   DefaultExecutionConfig().Merge(d.Execution),
		Observe:     d.Observe,
	}
}
