// Package postgresql provides PostgreSQL persistence for workflow documents.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
	"github.com/flowgrid/flowgrid/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPersistence creates a new PostgreSQL persistence layer and runs
// migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:     database,
		logger: logger,
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Documents returns all workflow documents, ordered by name.
func (p *Persistence) Documents(ctx context.Context) ([]*models.Document, error) {
	query := `
		SELECT document
		FROM workflow_documents
		WHERE deleted_at IS NULL
		ORDER BY name ASC
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow documents: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			p.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	documents := make([]*models.Document, 0)

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan workflow document: %w", err)
		}

		document, err := decodeDocument(raw)
		if err != nil {
			return nil, err
		}

		documents = append(documents, document)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflow documents: %w", err)
	}

	return documents, nil
}

// DocumentByID returns a workflow document by its ID. Missing documents
// return nil without error.
func (p *Persistence) DocumentByID(ctx context.Context, id string) (*models.Document, error) {
	query := `
		SELECT document
		FROM workflow_documents
		WHERE id = $1 AND deleted_at IS NULL
	`

	var raw []byte

	err := p.db.QueryRowContext(ctx, query, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to query workflow document %s: %w", id, err)
	}

	return decodeDocument(raw)
}

// SaveDocument upserts a workflow document.
func (p *Persistence) SaveDocument(ctx context.Context, document *models.Document) error {
	if document.WorkflowID == "" {
		return persistence.NewDocumentError("Save", "", persistence.ErrInvalidDocument)
	}

	raw, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow document %s: %w", document.WorkflowID, err)
	}

	query := `
		INSERT INTO workflow_documents (id, name, status, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			document = EXCLUDED.document,
			updated_at = NOW(),
			deleted_at = NULL
	`

	_, err = p.db.ExecContext(ctx, query,
		document.WorkflowID, document.Meta.Name, string(document.Meta.Status), raw)
	if err != nil {
		return fmt.Errorf("failed to save workflow document %s: %w", document.WorkflowID, err)
	}

	return nil
}

// DeleteDocument soft deletes a workflow document by setting deleted_at.
func (p *Persistence) DeleteDocument(ctx context.Context, id string) error {
	query := `
		UPDATE workflow_documents
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	_, err := p.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow document %s: %w", id, err)
	}

	return nil
}

func decodeDocument(raw []byte) (*models.Document, error) {
	var document models.Document

	err := json.Unmarshal(raw, &document)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", persistence.ErrInvalidDocument, err)
	}

	return &document, nil
}
