package service

import (
	"context"
	"fmt"
	"log/slog"

	"cinreq/internal/config"
	"cinreq/internal/domain"
	"cinreq/internal/domain/models"
	"cinreq/internal/domain/repositories"
	"cinreq/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// documentService implements the DocumentService interface
type documentService struct {
	docRepo     repositories.DocumentRepository
	versionRepo repositories.VersionRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo repositories.DocumentRepository,
	versionRepo repositories.VersionRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.DocumentService {
	return &documentService{
		docRepo:     docRepo,
		versionRepo: versionRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreateDocument creates a new document
func (s *documentService) CreateDocument(ctx context.Context, req *services.CreateDocumentRequest) (*models.Document, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc := &models.Document{
		Title:          req.Title,
		Description:    req.Description,
		DocumentType:   req.DocumentType,
		Status:         models.DocumentStatusDraft,
		CurrentVersion: 1,
		Content:        req.Content,
		DerivedFromID:  req.DerivedFromID,
		CreatedByID:    req.UserID,
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document created",
		"id", doc.ID,
		"document_type", doc.DocumentType,
		"created_by", doc.CreatedByID,
	)

	return doc, nil
}

// GetDocument retrieves a document with its content
func (s *documentService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	return s.docRepo.GetByID(ctx, id)
}

// ListDocuments retrieves all documents, most recently updated first
func (s *documentService) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return s.docRepo.List(ctx)
}

// UpdateDocument applies a partial update to a document
func (s *documentService) UpdateDocument(ctx context.Context, id string, req *services.UpdateDocumentRequest) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", domain.ErrValidation)
		}
		doc.Title = *req.Title
	}
	if req.Description != nil {
		doc.Description = req.Description
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown document status %q", domain.ErrValidation, *req.Status)
		}
		doc.Status = *req.Status
	}
	if req.Content != nil {
		doc.Content = req.Content
	}
	doc.LastEditedByID = &req.UserID

	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// DeleteDocument removes a document and everything under it
func (s *documentService) DeleteDocument(ctx context.Context, id string) error {
	if err := s.docRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("document deleted", "id", id)
	return nil
}

// CreateVersion snapshots the current content and bumps the version counter.
// The snapshot and the counter bump happen in one transaction so the
// append-only version table never skips or repeats a number.
func (s *documentService) CreateVersion(ctx context.Context, documentID string, req *services.CreateVersionRequest) (*models.DocumentVersion, error) {
	var version *models.DocumentVersion

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := s.docRepo.GetByID(txCtx, documentID)
		if err != nil {
			return err
		}

		version = &models.DocumentVersion{
			DocumentID:    documentID,
			VersionNumber: doc.CurrentVersion,
			Content:       doc.Content,
			ChangeSummary: req.ChangeSummary,
			CreatedByID:   req.UserID,
		}
		if err := s.versionRepo.Create(txCtx, version); err != nil {
			return err
		}

		doc.CurrentVersion++
		return s.docRepo.Update(txCtx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document version created",
		"document_id", documentID,
		"version_number", version.VersionNumber,
	)

	return version, nil
}

// ListVersions retrieves all versions of a document, newest first
func (s *documentService) ListVersions(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.versionRepo.ListByDocument(ctx, documentID)
}

// GetVersion retrieves one version snapshot with content
func (s *documentService) GetVersion(ctx context.Context, documentID string, versionNumber int) (*models.DocumentVersion, error) {
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.versionRepo.GetByNumber(ctx, documentID, versionNumber)
}

// RestoreVersion replaces the document content with an older snapshot.
// The current state is snapshotted first so the restore itself never
// destroys history.
func (s *documentService) RestoreVersion(ctx context.Context, documentID string, versionNumber int, userID string) (*models.Document, error) {
	var restored *models.Document

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := s.docRepo.GetByID(txCtx, documentID)
		if err != nil {
			return err
		}

		target, err := s.versionRepo.GetByNumber(txCtx, documentID, versionNumber)
		if err != nil {
			return err
		}

		summary := fmt.Sprintf("Auto-saved before restoring to v%d", versionNumber)
		backup := &models.DocumentVersion{
			DocumentID:    documentID,
			VersionNumber: doc.CurrentVersion,
			Content:       doc.Content,
			ChangeSummary: &summary,
			CreatedByID:   userID,
		}
		if err := s.versionRepo.Create(txCtx, backup); err != nil {
			return err
		}

		doc.Content = target.Content
		doc.CurrentVersion++
		doc.LastEditedByID = &userID
		if err := s.docRepo.Update(txCtx, doc); err != nil {
			return err
		}

		restored = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document version restored",
		"document_id", documentID,
		"restored_from", versionNumber,
		"new_version", restored.CurrentVersion,
	)

	return restored, nil
}

// validateCreateRequest validates a document creation request
func (s *documentService) validateCreateRequest(req *services.CreateDocumentRequest) error {
	if !req.DocumentType.Valid() {
		return fmt.Errorf("unknown document type %q", req.DocumentType)
	}

	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxTitleLength),
		),
	)
}
