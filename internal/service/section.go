package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"cinreq/internal/config"
	"cinreq/internal/domain"
	"cinreq/internal/domain/models"
	"cinreq/internal/domain/repositories"
	"cinreq/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// sectionService implements the SectionService interface
type sectionService struct {
	sectionRepo repositories.SectionRepository
	bindingRepo repositories.BindingRepository
	docRepo     repositories.DocumentRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewSectionService creates a new section service
func NewSectionService(
	sectionRepo repositories.SectionRepository,
	bindingRepo repositories.BindingRepository,
	docRepo repositories.DocumentRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.SectionService {
	return &sectionService{
		sectionRepo: sectionRepo,
		bindingRepo: bindingRepo,
		docRepo:     docRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreateSection creates a new section in a document
func (s *sectionService) CreateSection(ctx context.Context, documentID string, req *services.CreateSectionRequest) (*models.Section, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		if _, err := s.sectionRepo.GetByID(ctx, *req.ParentID, documentID); err != nil {
			return nil, fmt.Errorf("parent section: %w", err)
		}
	}

	section := &models.Section{
		ID:            req.ID,
		DocumentID:    documentID,
		SectionNumber: req.SectionNumber,
		Title:         req.Title,
		ParentID:      req.ParentID,
		Order:         req.Order,
		Status:        models.SectionStatusEmpty,
		OpenQuestions: req.OpenQuestions,
	}

	if err := s.sectionRepo.Create(ctx, section); err != nil {
		return nil, err
	}

	s.logger.Info("section created",
		"id", section.ID,
		"document_id", documentID,
		"section_number", section.SectionNumber,
	)

	return section, nil
}

// GetSection retrieves a section with its active bindings
func (s *sectionService) GetSection(ctx context.Context, documentID, sectionID string) (*models.SectionWithBindings, error) {
	section, err := s.sectionRepo.GetByID(ctx, sectionID, documentID)
	if err != nil {
		return nil, err
	}

	bindings, err := s.bindingRepo.ListActiveBySection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if bindings == nil {
		bindings = []models.SectionBinding{}
	}

	return &models.SectionWithBindings{Section: *section, Bindings: bindings}, nil
}

// ListSections retrieves the flat ordered section list of a document
func (s *sectionService) ListSections(ctx context.Context, documentID string) ([]models.Section, error) {
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.sectionRepo.ListByDocument(ctx, documentID)
}

// GetSectionTree returns root sections with nested children, recursively to
// arbitrary depth. Two passes: create all nodes, then connect children to
// parents; sibling groups are sorted by order.
func (s *sectionService) GetSectionTree(ctx context.Context, documentID string) ([]*services.SectionTreeNode, error) {
	sections, err := s.ListSections(ctx, documentID)
	if err != nil {
		return nil, err
	}

	nodeMap := make(map[string]*services.SectionTreeNode, len(sections))
	for i := range sections {
		nodeMap[sections[i].ID] = &services.SectionTreeNode{
			Section:  sections[i],
			Children: []*services.SectionTreeNode{},
		}
	}

	roots := make([]*services.SectionTreeNode, 0)
	for i := range sections {
		node := nodeMap[sections[i].ID]
		if sections[i].ParentID == nil {
			roots = append(roots, node)
		} else if parent, exists := nodeMap[*sections[i].ParentID]; exists {
			parent.Children = append(parent.Children, node)
		}
	}

	sortTreeNodes(roots)
	for _, node := range nodeMap {
		sortTreeNodes(node.Children)
	}

	return roots, nil
}

func sortTreeNodes(nodes []*services.SectionTreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Order != nodes[j].Order {
			return nodes[i].Order < nodes[j].Order
		}
		return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
	})
}

// UpdateSection applies a partial update. Parent reassignment is checked
// against the current outline and rejected if it would create a cycle.
func (s *sectionService) UpdateSection(ctx context.Context, documentID, sectionID string, req *services.UpdateSectionRequest) (*models.Section, error) {
	section, err := s.sectionRepo.GetByID(ctx, sectionID, documentID)
	if err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		newParent := *req.ParentID
		if err := s.checkParentAssignment(ctx, documentID, sectionID, newParent); err != nil {
			return nil, err
		}
		section.ParentID = newParent
	}
	if req.SectionNumber != nil {
		section.SectionNumber = *req.SectionNumber
	}
	if req.Title != nil {
		if *req.Title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", domain.ErrValidation)
		}
		section.Title = *req.Title
	}
	if req.Order != nil {
		section.Order = *req.Order
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown section status %q", domain.ErrValidation, *req.Status)
		}
		section.Status = *req.Status
	}
	if req.ContentPreview != nil {
		section.ContentPreview = req.ContentPreview
	}
	if req.AIGenerated != nil {
		section.AIGenerated = *req.AIGenerated
	}
	if req.AIConfidence != nil {
		section.AIConfidence = req.AIConfidence
	}
	if req.OpenQuestions != nil {
		section.OpenQuestions = req.OpenQuestions
	}

	if err := s.sectionRepo.Update(ctx, section); err != nil {
		return nil, err
	}

	return section, nil
}

// checkParentAssignment rejects a parent that is the section itself, one of
// its descendants, or missing from the document.
func (s *sectionService) checkParentAssignment(ctx context.Context, documentID, sectionID string, newParent *string) error {
	if newParent == nil {
		return nil // moving to root is always structurally safe
	}
	if *newParent == sectionID {
		return &domain.StructuralViolationError{
			Message: fmt.Sprintf("section %s cannot be its own parent", sectionID),
		}
	}

	sections, err := s.sectionRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return err
	}

	parentOf := make(map[string]*string, len(sections))
	found := false
	for i := range sections {
		parentOf[sections[i].ID] = sections[i].ParentID
		if sections[i].ID == *newParent {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("parent section %s: %w", *newParent, domain.ErrNotFound)
	}

	// Walk up from the proposed parent; hitting the section being moved
	// means the parent is one of its descendants.
	for cursor := parentOf[*newParent]; cursor != nil; cursor = parentOf[*cursor] {
		if *cursor == sectionID {
			return &domain.StructuralViolationError{
				Message: fmt.Sprintf("section %s is a descendant of %s; assignment would create a cycle", *newParent, sectionID),
			}
		}
	}

	return nil
}

// DeleteSection removes a section, force-deactivating any active binding on
// it first so no binding ever references a deleted section.
func (s *sectionService) DeleteSection(ctx context.Context, documentID, sectionID string) error {
	if _, err := s.sectionRepo.GetByID(ctx, sectionID, documentID); err != nil {
		return err
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		deactivated, err := s.bindingRepo.DeactivateBySection(txCtx, sectionID)
		if err != nil {
			return err
		}
		if deactivated > 0 {
			s.logger.Info("bindings force-deactivated before section delete",
				"section_id", sectionID,
				"count", deactivated,
			)
		}
		return s.sectionRepo.Delete(txCtx, sectionID, documentID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("section deleted", "id", sectionID, "document_id", documentID)
	return nil
}

// validateCreateRequest validates a section creation request
func (s *sectionService) validateCreateRequest(req *services.CreateSectionRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.SectionNumber,
			validation.Required,
			validation.Length(1, config.MaxSectionNumberLength),
		),
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxTitleLength),
		),
		validation.Field(&req.Order, validation.Min(0)),
	)
}
