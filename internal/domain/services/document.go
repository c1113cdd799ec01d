package services

import (
	"context"
	"encoding/json"

	"cinreq/internal/domain/models"
)

// CreateDocumentRequest carries input for document creation
type CreateDocumentRequest struct {
	Title         string              `json:"title"`
	Description   *string             `json:"description"`
	DocumentType  models.DocumentType `json:"document_type"`
	DerivedFromID *string             `json:"derived_from_id"`
	Content       json.RawMessage     `json:"content"`
	UserID        string              `json:"-"` // from auth context, not the body
}

// UpdateDocumentRequest carries partial updates; nil means "leave unchanged"
type UpdateDocumentRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Status      *models.DocumentStatus `json:"status"`
	Content     json.RawMessage        `json:"content"`
	UserID      string                 `json:"-"`
}

// CreateVersionRequest carries input for a version snapshot
type CreateVersionRequest struct {
	ChangeSummary *string `json:"change_summary"`
	UserID        string  `json:"-"`
}

// DocumentService defines business operations for documents and their
// version history.
type DocumentService interface {
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*models.Document, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	UpdateDocument(ctx context.Context, id string, req *UpdateDocumentRequest) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// CreateVersion snapshots the document's current content as an immutable
	// version and increments the document's version counter.
	CreateVersion(ctx context.Context, documentID string, req *CreateVersionRequest) (*models.DocumentVersion, error)
	ListVersions(ctx context.Context, documentID string) ([]models.DocumentVersion, error)
	GetVersion(ctx context.Context, documentID string, versionNumber int) (*models.DocumentVersion, error)

	// RestoreVersion snapshots the current state, then replaces the
	// document content with the named version's content.
	RestoreVersion(ctx context.Context, documentID string, versionNumber int, userID string) (*models.Document, error)
}
