package services

import (
	"context"
	"encoding/json"

	"cinreq/internal/domain/models"
)

// CreateSessionRequest carries input for session creation
type CreateSessionRequest struct {
	Title        string  `json:"title"`
	Description  *string `json:"description"`
	SystemPrompt *string `json:"system_prompt"`
	UserID       string  `json:"-"`
}

// UpdateSessionRequest carries partial updates; nil means "leave unchanged"
type UpdateSessionRequest struct {
	Title          *string               `json:"title"`
	Description    *string               `json:"description"`
	Status         *models.SessionStatus `json:"status"`
	ContextSummary *string               `json:"context_summary"`
}

// CreateMessageRequest carries input for appending a message to a session
type CreateMessageRequest struct {
	Role         models.MessageRole `json:"role"`
	MessageType  models.MessageType `json:"message_type"`
	Content      string             `json:"content"`
	ExtraData    json.RawMessage    `json:"extra_data"`
	InputTokens  int                `json:"input_tokens"`
	OutputTokens int                `json:"output_tokens"`
}

// SessionService defines business operations for conversation sessions and
// their messages.
type SessionService interface {
	CreateSession(ctx context.Context, req *CreateSessionRequest) (*models.Session, error)
	GetSession(ctx context.Context, id, userID string) (*models.Session, error)
	ListSessions(ctx context.Context, userID string) ([]models.Session, error)
	UpdateSession(ctx context.Context, id, userID string, req *UpdateSessionRequest) (*models.Session, error)
	DeleteSession(ctx context.Context, id, userID string) error

	CreateMessage(ctx context.Context, sessionID, userID string, req *CreateMessageRequest) (*models.Message, error)
	ListMessages(ctx context.Context, sessionID, userID string) ([]models.Message, error)
}
