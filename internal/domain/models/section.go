package models

import (
	"time"
)

// SectionStatus tracks how far along a single section is.
type SectionStatus string

const (
	SectionStatusEmpty       SectionStatus = "empty"        // no content yet
	SectionStatusDraft       SectionStatus = "draft"        // being worked on
	SectionStatusNeedsReview SectionStatus = "needs_review" // ready for client review
	SectionStatusApproved    SectionStatus = "approved"     // client approved
	SectionStatusDisputed    SectionStatus = "disputed"     // needs discussion
)

// Valid reports whether s is one of the known section statuses.
func (s SectionStatus) Valid() bool {
	switch s {
	case SectionStatusEmpty, SectionStatusDraft, SectionStatusNeedsReview, SectionStatusApproved, SectionStatusDisputed:
		return true
	}
	return false
}

// Section is one node of a document's outline. Sections form a forest via
// ParentID (nil = root); Order sorts siblings sharing the same parent.
// The prose a section describes lives in the document content blob, not here.
type Section struct {
	ID             string        `json:"id" db:"id"`
	DocumentID     string        `json:"document_id" db:"document_id"`
	SectionNumber  string        `json:"section_number" db:"section_number"` // "1", "1.1", "3.2.1"
	Title          string        `json:"title" db:"title"`
	ParentID       *string       `json:"parent_id,omitempty" db:"parent_id"`
	Order          int           `json:"order" db:"sort_order"`
	Status         SectionStatus `json:"status" db:"status"`
	ContentPreview *string       `json:"content_preview,omitempty" db:"content_preview"`
	AIGenerated    bool          `json:"ai_generated" db:"ai_generated"`
	AIConfidence   *float64      `json:"ai_confidence,omitempty" db:"ai_confidence"` // 0.0 - 1.0
	OpenQuestions  []string      `json:"open_questions,omitempty" db:"open_questions"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// SectionWithBindings is a section plus its currently active bindings,
// returned by the single-section read endpoint.
type SectionWithBindings struct {
	Section
	Bindings []SectionBinding `json:"bindings"`
}
