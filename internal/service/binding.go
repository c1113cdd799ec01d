package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cinreq/internal/config"
	"cinreq/internal/domain"
	"cinreq/internal/domain/models"
	"cinreq/internal/domain/repositories"
	"cinreq/internal/domain/services"
)

// bindingService implements the BindingService interface
type bindingService struct {
	bindingRepo repositories.BindingRepository
	sectionRepo repositories.SectionRepository
	docRepo     repositories.DocumentRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewBindingService creates a new binding service
func NewBindingService(
	bindingRepo repositories.BindingRepository,
	sectionRepo repositories.SectionRepository,
	docRepo repositories.DocumentRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.BindingService {
	return &bindingService{
		bindingRepo: bindingRepo,
		sectionRepo: sectionRepo,
		docRepo:     docRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreateBinding records a new active binding on a section. The document's
// previously active binding (if any) is deactivated in the same transaction,
// so a reader polling between the two writes can observe zero active
// bindings but never two.
func (s *bindingService) CreateBinding(ctx context.Context, documentID, sectionID string, req *services.CreateBindingRequest) (*models.SectionBinding, error) {
	if !req.BindingType.Valid() {
		return nil, fmt.Errorf("%w: unknown binding type %q", domain.ErrValidation, req.BindingType)
	}
	if err := checkNote(req.Note); err != nil {
		return nil, err
	}

	if _, err := s.sectionRepo.GetByID(ctx, sectionID, documentID); err != nil {
		return nil, err
	}

	var createdBy *string
	if req.UserID != "" {
		createdBy = &req.UserID
	}

	binding := &models.SectionBinding{
		SectionID:     sectionID,
		MessageID:     req.MessageID,
		BindingType:   req.BindingType,
		CreatedByID:   createdBy,
		IsAIGenerated: req.IsAIGenerated,
		Note:          req.Note,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		superseded, err := s.bindingRepo.DeactivateByDocument(txCtx, documentID)
		if err != nil {
			return err
		}
		if superseded > 0 {
			s.logger.Debug("previous binding superseded",
				"document_id", documentID,
				"count", superseded,
			)
		}
		return s.bindingRepo.Create(txCtx, binding)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("binding created",
		"id", binding.ID,
		"section_id", sectionID,
		"binding_type", binding.BindingType,
	)

	return binding, nil
}

// UpdateBinding deactivates a binding or edits its note. Once a binding is
// inactive it is history: everything except the note is frozen, and
// reactivation is rejected rather than rewriting the record.
func (s *bindingService) UpdateBinding(ctx context.Context, documentID, bindingID string, req *services.UpdateBindingRequest) (*models.SectionBinding, error) {
	binding, err := s.bindingRepo.GetByID(ctx, bindingID, documentID)
	if err != nil {
		return nil, err
	}

	if req.IsActive != nil && *req.IsActive && !binding.IsActive {
		return nil, fmt.Errorf("%w: binding %s is deactivated; create a new binding instead", domain.ErrValidation, bindingID)
	}

	if req.IsActive != nil && !*req.IsActive && binding.IsActive {
		now := time.Now().UTC()
		binding.IsActive = false
		binding.DeactivatedAt = &now
	}
	if req.Note != nil {
		if err := checkNote(req.Note); err != nil {
			return nil, err
		}
		binding.Note = req.Note
	}

	if err := s.bindingRepo.Update(ctx, binding); err != nil {
		return nil, err
	}

	return binding, nil
}

func checkNote(note *string) error {
	if note != nil && len(*note) > config.MaxNoteLength {
		return fmt.Errorf("%w: note exceeds %d characters", domain.ErrValidation, config.MaxNoteLength)
	}
	return nil
}

// ListActiveBindings returns every active binding in the document
func (s *bindingService) ListActiveBindings(ctx context.Context, documentID string) ([]models.SectionBinding, error) {
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}

	bindings, err := s.bindingRepo.ListActiveByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if bindings == nil {
		bindings = []models.SectionBinding{}
	}

	return bindings, nil
}
