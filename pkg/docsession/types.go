package docsession

import (
	"encoding/json"
	"time"
)

// BindingType classifies the intent behind an attachment of attention to a
// section.
type BindingType string

const (
	BindingDiscussion BindingType = "discussion"
	BindingEditing    BindingType = "editing"
	BindingReference  BindingType = "reference"
	BindingQuestion   BindingType = "question"
	BindingApproval   BindingType = "approval"
)

// SectionStatus tracks a section's editorial lifecycle.
type SectionStatus string

const (
	SectionEmpty       SectionStatus = "empty"
	SectionDraft       SectionStatus = "draft"
	SectionNeedsReview SectionStatus = "needs_review"
	SectionApproved    SectionStatus = "approved"
	SectionDisputed    SectionStatus = "disputed"
)

// Section is one node of the document outline. The prose it describes lives
// in the document content blob; the outline is parallel metadata.
type Section struct {
	ID             string        `json:"id"`
	DocumentID     string        `json:"document_id"`
	SectionNumber  string        `json:"section_number"`
	Title          string        `json:"title"`
	ParentID       *string       `json:"parent_id"`
	Order          int           `json:"order"`
	Status         SectionStatus `json:"status"`
	ContentPreview *string       `json:"content_preview"`
	AIGenerated    bool          `json:"ai_generated"`
	AIConfidence   *float64      `json:"ai_confidence"`
	OpenQuestions  []string      `json:"open_questions"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Binding is a typed attachment of an actor's attention to one section.
// Once inactive it is history: immutable except for the note.
type Binding struct {
	ID            string      `json:"id"`
	SectionID     string      `json:"section_id"`
	BindingType   BindingType `json:"binding_type"`
	MessageID     *string     `json:"message_id"`
	CreatedByID   *string     `json:"created_by_id"`
	IsAIGenerated bool        `json:"is_ai_generated"`
	IsActive      bool        `json:"is_active"`
	Note          *string     `json:"note"`
	CreatedAt     time.Time   `json:"created_at"`
	DeactivatedAt *time.Time  `json:"deactivated_at"`
}

// Document is the opaque content payload plus its version counter. The
// content blob is never parsed here.
type Document struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	DocumentType   string          `json:"document_type"`
	Status         string          `json:"status"`
	CurrentVersion int             `json:"current_version"`
	Content        json.RawMessage `json:"content"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
