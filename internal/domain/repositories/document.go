package repositories

import (
	"context"

	"cinreq/internal/domain/models"
)

// DocumentRepository defines data access operations for documents.
type DocumentRepository interface {
	// Create creates a new document
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// List retrieves all documents, most recently updated first
	List(ctx context.Context) ([]models.Document, error)

	// Update updates an existing document
	Update(ctx context.Context, doc *models.Document) error

	// Delete removes a document and (via cascade) its sections and versions
	Delete(ctx context.Context, id string) error
}

// VersionRepository defines data access for document version snapshots.
// Versions are append-only; there is no update or delete.
type VersionRepository interface {
	// Create appends a new version snapshot
	Create(ctx context.Context, version *models.DocumentVersion) error

	// ListByDocument retrieves all versions of a document, newest first
	ListByDocument(ctx context.Context, documentID string) ([]models.DocumentVersion, error)

	// GetByNumber retrieves one version by (document_id, version_number)
	GetByNumber(ctx context.Context, documentID string, versionNumber int) (*models.DocumentVersion, error)
}
