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

// PostgresMessageRepository implements the MessageRepository interface
type PostgresMessageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(config *RepositoryConfig) repositories.MessageRepository {
	return &PostgresMessageRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const messageColumns = `id, session_id, role, message_type, content, extra_data,
		input_tokens, output_tokens, created_at`

func scanMessage(row interface{ Scan(...interface{}) error }, m *models.Message) error {
	return row.Scan(
		&m.ID,
		&m.SessionID,
		&m.Role,
		&m.MessageType,
		&m.Content,
		&m.ExtraData,
		&m.InputTokens,
		&m.OutputTokens,
		&m.CreatedAt,
	)
}

// Create appends a message to a session
func (r *PostgresMessageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	message.CreatedAt = time.Now().UTC()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, session_id, role, message_type, content, extra_data,
			input_tokens, output_tokens, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		message.ID,
		message.SessionID,
		message.Role,
		message.MessageType,
		message.Content,
		message.ExtraData,
		message.InputTokens,
		message.OutputTokens,
		message.CreatedAt,
	)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("session does not exist: %w", domain.ErrValidation)
		}
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

// GetByID retrieves a message by ID
func (r *PostgresMessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, messageColumns, r.tables.Messages)

	var message models.Message
	executor := GetExecutor(ctx, r.pool)
	err := scanMessage(executor.QueryRow(ctx, query, id), &message)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get message: %w", err)
	}

	return &message, nil
}

// ListBySession retrieves a session's messages in creation order
func (r *PostgresMessageRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Message, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE session_id = $1
		ORDER BY created_at
	`, messageColumns, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var message models.Message
		if err := scanMessage(rows, &message); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return messages, nil
}
