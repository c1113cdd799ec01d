package service

import (
	"context"
	"fmt"
	"log/slog"

	"cinreq/internal/config"
	"cinreq/internal/domain"
	"cinreq/internal/domain/models"
	"cinreq/internal/domain/repositories"
	"cinreq/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// sessionService implements the SessionService interface
type sessionService struct {
	sessionRepo repositories.SessionRepository
	messageRepo repositories.MessageRepository
	logger      *slog.Logger
}

// NewSessionService creates a new session service
func NewSessionService(
	sessionRepo repositories.SessionRepository,
	messageRepo repositories.MessageRepository,
	logger *slog.Logger,
) services.SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		logger:      logger,
	}
}

// CreateSession creates a new session owned by the requesting user
func (s *sessionService) CreateSession(ctx context.Context, req *services.CreateSessionRequest) (*models.Session, error) {
	if req.Title == "" {
		req.Title = "Untitled Session"
	}
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, config.MaxTitleLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	session := &models.Session{
		Title:        req.Title,
		Description:  req.Description,
		Status:       models.SessionStatusDraft,
		OwnerID:      req.UserID,
		SystemPrompt: req.SystemPrompt,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("session created", "id", session.ID, "owner_id", session.OwnerID)
	return session, nil
}

// GetSession retrieves a session, enforcing ownership
func (s *sessionService) GetSession(ctx context.Context, id, userID string) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.OwnerID != userID {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrForbidden)
	}
	return session, nil
}

// ListSessions retrieves the user's sessions
func (s *sessionService) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	return s.sessionRepo.ListByOwner(ctx, userID)
}

// UpdateSession applies a partial update to an owned session
func (s *sessionService) UpdateSession(ctx context.Context, id, userID string, req *services.UpdateSessionRequest) (*models.Session, error) {
	session, err := s.GetSession(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", domain.ErrValidation)
		}
		session.Title = *req.Title
	}
	if req.Description != nil {
		session.Description = req.Description
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown session status %q", domain.ErrValidation, *req.Status)
		}
		session.Status = *req.Status
	}
	if req.ContextSummary != nil {
		session.ContextSummary = req.ContextSummary
	}

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// DeleteSession removes an owned session
func (s *sessionService) DeleteSession(ctx context.Context, id, userID string) error {
	if _, err := s.GetSession(ctx, id, userID); err != nil {
		return err
	}
	if err := s.sessionRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("session deleted", "id", id)
	return nil
}

// CreateMessage appends a message to an owned session and accumulates the
// session's token usage.
func (s *sessionService) CreateMessage(ctx context.Context, sessionID, userID string, req *services.CreateMessageRequest) (*models.Message, error) {
	session, err := s.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	if !req.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown message role %q", domain.ErrValidation, req.Role)
	}
	if req.MessageType == "" {
		req.MessageType = models.MessageTypeText
	}
	if !req.MessageType.Valid() {
		return nil, fmt.Errorf("%w: unknown message type %q", domain.ErrValidation, req.MessageType)
	}
	if req.Content == "" {
		return nil, fmt.Errorf("%w: content cannot be empty", domain.ErrValidation)
	}

	message := &models.Message{
		SessionID:    sessionID,
		Role:         req.Role,
		MessageType:  req.MessageType,
		Content:      req.Content,
		ExtraData:    req.ExtraData,
		InputTokens:  req.InputTokens,
		OutputTokens: req.OutputTokens,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	if req.InputTokens > 0 || req.OutputTokens > 0 {
		session.TokenUsage += req.InputTokens + req.OutputTokens
		if err := s.sessionRepo.Update(ctx, session); err != nil {
			// Token accounting is advisory; the message itself is stored.
			s.logger.Warn("failed to update session token usage",
				"session_id", sessionID,
				"error", err,
			)
		}
	}

	return message, nil
}

// ListMessages retrieves an owned session's messages in order
func (s *sessionService) ListMessages(ctx context.Context, sessionID, userID string) ([]models.Message, error) {
	if _, err := s.GetSession(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListBySession(ctx, sessionID)
}
