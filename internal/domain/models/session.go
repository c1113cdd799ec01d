package models

import (
	"encoding/json"
	"time"
)

// SessionStatus tracks a gathering session through its lifecycle.
type SessionStatus string

const (
	SessionStatusDraft      SessionStatus = "draft"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusReview     SessionStatus = "review"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusArchived   SessionStatus = "archived"
)

// Valid reports whether s is one of the known session statuses.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusDraft, SessionStatusInProgress, SessionStatusReview, SessionStatusCompleted, SessionStatusArchived:
		return true
	}
	return false
}

// Session is one conversation thread between participants and the assistant.
type Session struct {
	ID             string        `json:"id" db:"id"`
	Title          string        `json:"title" db:"title"`
	Description    *string       `json:"description,omitempty" db:"description"`
	Status         SessionStatus `json:"status" db:"status"`
	OwnerID        string        `json:"owner_id" db:"owner_id"`
	SystemPrompt   *string       `json:"system_prompt,omitempty" db:"system_prompt"`
	ContextSummary *string       `json:"context_summary,omitempty" db:"context_summary"`
	TokenUsage     int           `json:"token_usage" db:"token_usage"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// MessageRole identifies who produced a message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// Valid reports whether r is one of the known message roles.
func (r MessageRole) Valid() bool {
	switch r {
	case MessageRoleUser, MessageRoleAssistant, MessageRoleSystem:
		return true
	}
	return false
}

// MessageType classifies the payload carried by a message.
type MessageType string

const (
	MessageTypeText            MessageType = "text"
	MessageTypeQuestionnaire   MessageType = "questionnaire"
	MessageTypeRequirement     MessageType = "requirement"
	MessageTypeVoiceTranscript MessageType = "voice_transcript"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeQuestionnaire, MessageTypeRequirement, MessageTypeVoiceTranscript:
		return true
	}
	return false
}

// Message is one conversational turn inside a session. Section bindings may
// reference messages by ID; the assistant subsystem producing assistant
// turns is external to this service.
type Message struct {
	ID           string          `json:"id" db:"id"`
	SessionID    string          `json:"session_id" db:"session_id"`
	Role         MessageRole     `json:"role" db:"role"`
	MessageType  MessageType     `json:"message_type" db:"message_type"`
	Content      string          `json:"content" db:"content"`
	ExtraData    json.RawMessage `json:"extra_data,omitempty" db:"extra_data"`
	InputTokens  int             `json:"input_tokens" db:"input_tokens"`
	OutputTokens int             `json:"output_tokens" db:"output_tokens"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
