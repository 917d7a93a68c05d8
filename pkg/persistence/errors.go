// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrDocumentNotFound indicates a workflow document was not found by the given identifier.
	ErrDocumentNotFound = errors.New("workflow document not found")

	// ErrDocumentAlreadyExists indicates a document with the same identifier already exists.
	ErrDocumentAlreadyExists = errors.New("workflow document already exists")

	// ErrInvalidDocument indicates the stored payload could not be decoded.
	ErrInvalidDocument = errors.New("invalid workflow document")
)

// DocumentError wraps document-related errors with additional context.
type DocumentError struct {
	Op         string // Operation being performed (e.g., "DocumentByID", "Save", "Delete")
	WorkflowID string // Workflow ID if applicable
	Err        error  // Underlying error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for document errors.
func (e *DocumentError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewDocumentError creates a new document error with context.
func NewDocumentError(op, workflowID string, err error) *DocumentError {
	return &DocumentError{
		Op:         op,
		WorkflowID: workflowID,
		Err:        err,
	}
}

// IsDocumentNotFound checks if an error indicates a document was not found.
func IsDocumentNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}
