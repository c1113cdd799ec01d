package repositories

import (
	"context"

	"cinreq/internal/domain/models"
)

// SectionRepository defines data access operations for document sections.
type SectionRepository interface {
	// Create creates a new section
	Create(ctx context.Context, section *models.Section) error

	// GetByID retrieves a section scoped to a document
	GetByID(ctx context.Context, id, documentID string) (*models.Section, error)

	// ListByDocument retrieves all sections of a document ordered by
	// (parent_id, sort_order, created_at)
	ListByDocument(ctx context.Context, documentID string) ([]models.Section, error)

	// Update updates an existing section
	Update(ctx context.Context, section *models.Section) error

	// Delete removes a section
	Delete(ctx context.Context, id, documentID string) error
}

// BindingRepository defines data access operations for section bindings.
type BindingRepository interface {
	// Create creates a new binding (active by default)
	Create(ctx context.Context, binding *models.SectionBinding) error

	// GetByID retrieves a binding scoped to a document
	GetByID(ctx context.Context, id, documentID string) (*models.SectionBinding, error)

	// ListActiveByDocument retrieves all active bindings for a document
	ListActiveByDocument(ctx context.Context, documentID string) ([]models.SectionBinding, error)

	// ListActiveBySection retrieves active bindings referencing one section
	ListActiveBySection(ctx context.Context, sectionID string) ([]models.SectionBinding, error)

	// Update persists binding mutations (deactivation, note edits)
	Update(ctx context.Context, binding *models.SectionBinding) error

	// DeactivateByDocument flips every active binding of a document to
	// inactive, stamping deactivated_at. Returns the number deactivated.
	DeactivateByDocument(ctx context.Context, documentID string) (int, error)

	// DeactivateBySection deactivates active bindings on one section.
	// Used before section deletion so no binding references a dead section.
	DeactivateBySection(ctx context.Context, sectionID string) (int, error)
}
