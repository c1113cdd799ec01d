package models

import (
	"time"
)

// BindingType says what kind of attention a binding represents.
type BindingType string

const (
	BindingTypeDiscussion BindingType = "discussion" // chat is discussing this section
	BindingTypeEditing    BindingType = "editing"    // section is actively being edited
	BindingTypeReference  BindingType = "reference"  // a message references this section
	BindingTypeQuestion   BindingType = "question"   // open question about this section
	BindingTypeApproval   BindingType = "approval"   // approval/sign-off on this section
)

// Valid reports whether t is one of the known binding types.
func (t BindingType) Valid() bool {
	switch t {
	case BindingTypeDiscussion, BindingTypeEditing, BindingTypeReference, BindingTypeQuestion, BindingTypeApproval:
		return true
	}
	return false
}

// SectionBinding attaches an actor's attention to one section, optionally
// linked to the conversational message that produced it. At most one binding
// per document is active at a time; deactivated bindings are immutable
// history except for the free-text note.
type SectionBinding struct {
	ID            string      `json:"id" db:"id"`
	SectionID     string      `json:"section_id" db:"section_id"`
	MessageID     *string     `json:"message_id,omitempty" db:"message_id"`
	BindingType   BindingType `json:"binding_type" db:"binding_type"`
	CreatedByID   *string     `json:"created_by_id,omitempty" db:"created_by_id"` // nil = system/AI-originated
	IsAIGenerated bool        `json:"is_ai_generated" db:"is_ai_generated"`
	IsActive      bool        `json:"is_active" db:"is_active"`
	Note          *string     `json:"note,omitempty" db:"note"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	DeactivatedAt *time.Time  `json:"deactivated_at,omitempty" db:"deactivated_at"`
}
