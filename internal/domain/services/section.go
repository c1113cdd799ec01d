package services

import (
	"context"
	"encoding/json"

	"cinreq/internal/domain/models"
)

// CreateSectionRequest carries input for section creation
type CreateSectionRequest struct {
	ID            string   `json:"id"` // optional client-supplied ID for optimistic creation
	SectionNumber string   `json:"section_number"`
	Title         string   `json:"title"`
	ParentID      *string  `json:"parent_id"`
	Order         int      `json:"order"`
	OpenQuestions []string `json:"open_questions"`
}

// UpdateSectionRequest carries partial updates; nil means "leave unchanged".
// ParentID uses a double pointer so "move to root" (explicit null) is
// distinguishable from "leave unchanged" (absent). encoding/json collapses
// both to a nil field, so UnmarshalJSON decodes parent_id presence by hand.
type UpdateSectionRequest struct {
	SectionNumber  *string               `json:"section_number"`
	Title          *string               `json:"title"`
	ParentID       **string              `json:"-"`
	Order          *int                  `json:"order"`
	Status         *models.SectionStatus `json:"status"`
	ContentPreview *string               `json:"content_preview"`
	AIGenerated    *bool                 `json:"ai_generated"`
	AIConfidence   *float64              `json:"ai_confidence"`
	OpenQuestions  []string              `json:"open_questions"`
}

// UnmarshalJSON decodes the request, keeping track of whether parent_id was
// present in the payload at all. An absent key leaves ParentID nil; an
// explicit null yields a pointer to a nil parent (move to root).
func (r *UpdateSectionRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateSectionRequest
	aux := struct {
		*plain
		ParentID json.RawMessage `json:"parent_id"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.ParentID) == 0 {
		return nil
	}
	var parent *string
	if err := json.Unmarshal(aux.ParentID, &parent); err != nil {
		return err
	}
	r.ParentID = &parent
	return nil
}

// SectionTreeNode is one node of the nested outline returned by the tree
// endpoint. Children are sorted by order, recursively, to arbitrary depth.
type SectionTreeNode struct {
	models.Section
	Children []*SectionTreeNode `json:"children"`
}

// SectionService defines business operations for the section outline.
type SectionService interface {
	CreateSection(ctx context.Context, documentID string, req *CreateSectionRequest) (*models.Section, error)
	GetSection(ctx context.Context, documentID, sectionID string) (*models.SectionWithBindings, error)
	ListSections(ctx context.Context, documentID string) ([]models.Section, error)

	// GetSectionTree returns the root sections with nested children.
	GetSectionTree(ctx context.Context, documentID string) ([]*SectionTreeNode, error)

	// UpdateSection rejects parent reassignments that would create a cycle
	// with domain.ErrStructuralViolation before touching storage.
	UpdateSection(ctx context.Context, documentID, sectionID string, req *UpdateSectionRequest) (*models.Section, error)

	// DeleteSection force-deactivates any active binding on the section in
	// the same transaction that removes it.
	DeleteSection(ctx context.Context, documentID, sectionID string) error
}
