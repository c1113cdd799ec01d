package repositories

import (
	"context"

	"cinreq/internal/domain/models"
)

// SessionRepository defines data access operations for conversation sessions.
type SessionRepository interface {
	// Create creates a new session
	Create(ctx context.Context, session *models.Session) error

	// GetByID retrieves a session by ID
	GetByID(ctx context.Context, id string) (*models.Session, error)

	// ListByOwner retrieves a user's sessions, most recently updated first
	ListByOwner(ctx context.Context, ownerID string) ([]models.Session, error)

	// Update updates an existing session
	Update(ctx context.Context, session *models.Session) error

	// Delete removes a session and (via cascade) its messages
	Delete(ctx context.Context, id string) error
}

// MessageRepository defines data access operations for session messages.
type MessageRepository interface {
	// Create appends a message to a session
	Create(ctx context.Context, message *models.Message) error

	// GetByID retrieves a message by ID
	GetByID(ctx context.Context, id string) (*models.Message, error)

	// ListBySession retrieves a session's messages in creation order
	ListBySession(ctx context.Context, sessionID string) ([]models.Message, error)
}
