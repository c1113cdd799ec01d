package models

import (
	"encoding/json"
	"time"
)

// DocumentType classifies what kind of deliverable a document is.
type DocumentType string

const (
	DocumentTypeRequirements  DocumentType = "requirements"
	DocumentTypeFunctional    DocumentType = "functional"
	DocumentTypeSpecification DocumentType = "specification"
	DocumentTypeROM           DocumentType = "rom"
	DocumentTypeCustom        DocumentType = "custom"
)

// Valid reports whether t is one of the known document types.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeRequirements, DocumentTypeFunctional, DocumentTypeSpecification, DocumentTypeROM, DocumentTypeCustom:
		return true
	}
	return false
}

// DocumentStatus tracks a document through its review lifecycle.
type DocumentStatus string

const (
	DocumentStatusDraft      DocumentStatus = "draft"
	DocumentStatusInReview   DocumentStatus = "in_review"
	DocumentStatusApproved   DocumentStatus = "approved"
	DocumentStatusSuperseded DocumentStatus = "superseded"
)

// Valid reports whether s is one of the known document statuses.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusDraft, DocumentStatusInReview, DocumentStatusApproved, DocumentStatusSuperseded:
		return true
	}
	return false
}

// Document is the top-level authored artifact. Content is an opaque editor
// payload (serialized rich-text state); this service never inspects it.
// The section outline lives in a parallel Section table, not in the content.
type Document struct {
	ID             string          `json:"id" db:"id"`
	Title          string          `json:"title" db:"title"`
	Description    *string         `json:"description,omitempty" db:"description"`
	DocumentType   DocumentType    `json:"document_type" db:"document_type"`
	Status         DocumentStatus  `json:"status" db:"status"`
	CurrentVersion int             `json:"current_version" db:"current_version"`
	Content        json.RawMessage `json:"content,omitempty" db:"content"`
	DerivedFromID  *string         `json:"derived_from_id,omitempty" db:"derived_from_id"`
	CreatedByID    string          `json:"created_by_id" db:"created_by_id"`
	LastEditedByID *string         `json:"last_edited_by_id,omitempty" db:"last_edited_by_id"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// DocumentVersion is an immutable snapshot of a document's content at a
// point in time. Versions are append-only and keyed by
// (document_id, version_number); they are never mutated after creation.
type DocumentVersion struct {
	ID            string          `json:"id" db:"id"`
	DocumentID    string          `json:"document_id" db:"document_id"`
	VersionNumber int             `json:"version_number" db:"version_number"`
	Content       json.RawMessage `json:"content,omitempty" db:"content"`
	ChangeSummary *string         `json:"change_summary,omitempty" db:"change_summary"`
	CreatedByID   string          `json:"created_by_id" db:"created_by_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
