// Package persistence provides the storage abstraction for workflow
// documents.
package persistence

import (
	"context"

	"github.com/flowgrid/flowgrid/pkg/models"
)

type Persistence interface {
	Documents(ctx context.Context) ([]*models.Document, error)
	SaveDocument(ctx context.Context, document *models.Document) error
	DocumentByID(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
