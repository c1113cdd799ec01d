package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cinreq/internal/domain"
	"cinreq/internal/domain/models"
	"cinreq/internal/domain/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSessionRepository implements the SessionRepository interface
type PostgresSessionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(config *RepositoryConfig) repositories.SessionRepository {
	return &PostgresSessionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const sessionColumns = `id, title, description, status, owner_id, system_prompt,
		context_summary, token_usage, created_at, updated_at`

func scanSession(row interface{ Scan(...interface{}) error }, s *models.Session) error {
	return row.Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.Status,
		&s.OwnerID,
		&s.SystemPrompt,
		&s.ContextSummary,
		&s.TokenUsage,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
}

// Create creates a new session
func (r *PostgresSessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	query := fmt.Sprintf(`
		INSERT INTO %s (id, title, description, status, owner_id, system_prompt,
			context_summary, token_usage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		session.ID,
		session.Title,
		session.Description,
		session.Status,
		session.OwnerID,
		session.SystemPrompt,
		session.ContextSummary,
		session.TokenUsage,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by ID
func (r *PostgresSessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, sessionColumns, r.tables.Sessions)

	var session models.Session
	executor := GetExecutor(ctx, r.pool)
	err := scanSession(executor.QueryRow(ctx, query, id), &session)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &session, nil
}

// ListByOwner retrieves a user's sessions, most recently updated first
func (r *PostgresSessionRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1
		ORDER BY updated_at DESC
	`, sessionColumns, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		if err := scanSession(rows, &session); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

// Update updates an existing session
func (r *PostgresSessionRepository) Update(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()

	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $2, description = $3, status = $4, system_prompt = $5,
			context_summary = $6, token_usage = $7, updated_at = $8
		WHERE id = $1
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query,
		session.ID,
		session.Title,
		session.Description,
		session.Status,
		session.SystemPrompt,
		session.ContextSummary,
		session.TokenUsage,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", session.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a session and (via cascade) its messages
func (r *PostgresSessionRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
