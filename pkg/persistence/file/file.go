// Package file provides file-based persistence for workflow documents. One
// JSON file per workflow under <root>/workflows.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flowgrid/flowgrid/pkg/models"
)

type Persistence struct {
	root string
}

// NewPersistence creates a file persistence rooted at the given directory.
func NewPersistence(root string) (*Persistence, error) {
	err := os.MkdirAll(path.Join(root, "workflows"), 0750)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflows directory: %w", err)
	}

	return &Persistence{root: root}, nil
}

// Documents returns all stored workflow documents, ordered by name.
func (p *Persistence) Documents(ctx context.Context) ([]*models.Document, error) {
	root := os.DirFS(path.Join(p.root, "workflows"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	documents := make([]*models.Document, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflowID := strings.TrimSuffix(file, ".json")

		document, err := p.DocumentByID(ctx, workflowID)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
		}

		if document != nil {
			documents = append(documents, document)
		}
	}

	sort.Slice(documents, func(i, j int) bool {
		return documents[i].Meta.Name < documents[j].Meta.Name
	})

	return documents, nil
}

// DocumentByID retrieves a workflow document by its ID. Missing documents
// return nil without error.
func (p *Persistence) DocumentByID(_ context.Context, id string) (*models.Document, error) {
	filePath := filepath.Clean(path.Join(p.root, "workflows", id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	var document models.Document

	err = json.Unmarshal(body, &document)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", id, err)
	}

	return &document, nil
}

// SaveDocument writes a workflow document to the file system.
func (p *Persistence) SaveDocument(_ context.Context, document *models.Document) error {
	if document.WorkflowID == "" {
		return fmt.Errorf("cannot save workflow document without id")
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", document.WorkflowID, err)
	}

	filePath := path.Join(p.root, "workflows", document.WorkflowID+".json")

	return os.WriteFile(filePath, data, 0600)
}

// DeleteDocument removes a workflow document by its ID. Deleting a missing
// document is not an error.
func (p *Persistence) DeleteDocument(_ context.Context, id string) error {
	filePath := path.Join(p.root, "workflows", id+".json")

	err := os.Remove(filePath)
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}

// HealthCheck verifies the storage root is reachable.
func (p *Persistence) HealthCheck(_ context.Context) error {
	_, err := os.Stat(path.Join(p.root, "workflows"))
	if err != nil {
		return fmt.Errorf("workflows directory unavailable: %w", err)
	}

	return nil
}

// Close is a no-op for file persistence.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}
