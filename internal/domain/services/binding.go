package services

import (
	"context"

	"cinreq/internal/domain/models"
)

// CreateBindingRequest carries input for binding creation
type CreateBindingRequest struct {
	BindingType   models.BindingType `json:"binding_type"`
	MessageID     *string            `json:"message_id"`
	Note          *string            `json:"note"`
	IsAIGenerated bool               `json:"is_ai_generated"`
	UserID        string             `json:"-"` // empty = system/AI-originated
}

// UpdateBindingRequest carries binding mutations. Deactivation is the main
// one; inactive bindings accept only note changes.
type UpdateBindingRequest struct {
	IsActive *bool   `json:"is_active"`
	Note     *string `json:"note"`
}

// BindingService defines business operations for section bindings.
type BindingService interface {
	// CreateBinding records a new active binding on a section. Any binding
	// currently active elsewhere in the document is deactivated in the same
	// transaction, preserving the at-most-one-active invariant.
	CreateBinding(ctx context.Context, documentID, sectionID string, req *CreateBindingRequest) (*models.SectionBinding, error)

	// UpdateBinding deactivates a binding (stamping deactivated_at) or
	// edits its note. Reactivating a closed binding is rejected: bindings
	// are history once inactive, a new focus means a new binding.
	UpdateBinding(ctx context.Context, documentID, bindingID string, req *UpdateBindingRequest) (*models.SectionBinding, error)

	// ListActiveBindings returns every active binding in the document.
	ListActiveBindings(ctx context.Context, documentID string) ([]models.SectionBinding, error)
}
