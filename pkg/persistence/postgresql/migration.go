package postgresql

// migrations returns the schema migrations for the document store, keyed by
// version. Documents are stored whole as JSONB; name and status are lifted
// into columns for listing and filtering.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflow_documents (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'draft',
				document JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_workflow_documents_status
				ON workflow_documents (status) WHERE deleted_at IS NULL;

			CREATE INDEX IF NOT EXISTS idx_workflow_documents_name
				ON workflow_documents (name) WHERE deleted_at IS NULL;
		`,
	}
}
