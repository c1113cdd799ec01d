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

// PostgresBindingRepository implements the BindingRepository interface
type PostgresBindingRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewBindingRepository creates a new section binding repository
func NewBindingRepository(config *RepositoryConfig) repositories.BindingRepository {
	return &PostgresBindingRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const bindingColumns = `id, section_id, message_id, binding_type, created_by_id,
		is_ai_generated, is_active, note, created_at, deactivated_at`

func scanBinding(row interface{ Scan(...interface{}) error }, b *models.SectionBinding) error {
	return row.Scan(
		&b.ID,
		&b.SectionID,
		&b.MessageID,
		&b.BindingType,
		&b.CreatedByID,
		&b.IsAIGenerated,
		&b.IsActive,
		&b.Note,
		&b.CreatedAt,
		&b.DeactivatedAt,
	)
}

// Create creates a new binding (active by default)
func (r *PostgresBindingRepository) Create(ctx context.Context, binding *models.SectionBinding) error {
	if binding.ID == "" {
		binding.ID = uuid.NewString()
	}
	binding.IsActive = true
	binding.CreatedAt = time.Now().UTC()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, section_id, message_id, binding_type, created_by_id,
			is_ai_generated, is_active, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.SectionBindings)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		binding.ID,
		binding.SectionID,
		binding.MessageID,
		binding.BindingType,
		binding.CreatedByID,
		binding.IsAIGenerated,
		binding.IsActive,
		binding.Note,
		binding.CreatedAt,
	)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("section or message does not exist: %w", domain.ErrValidation)
		}
		return fmt.Errorf("create binding: %w", err)
	}

	return nil
}

// GetByID retrieves a binding scoped to a document via its section
func (r *PostgresBindingRepository) GetByID(ctx context.Context, id, documentID string) (*models.SectionBinding, error) {
	query := fmt.Sprintf(`
		SELECT b.id, b.section_id, b.message_id, b.binding_type, b.created_by_id,
			b.is_ai_generated, b.is_active, b.note, b.created_at, b.deactivated_at
		FROM %s b
		JOIN %s s ON s.id = b.section_id
		WHERE b.id = $1 AND s.document_id = $2
	`, r.tables.SectionBindings, r.tables.Sections)

	var binding models.SectionBinding
	executor := GetExecutor(ctx, r.pool)
	err := scanBinding(executor.QueryRow(ctx, query, id, documentID), &binding)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("binding %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get binding: %w", err)
	}

	return &binding, nil
}

// ListActiveByDocument retrieves all active bindings for a document
func (r *PostgresBindingRepository) ListActiveByDocument(ctx context.Context, documentID string) ([]models.SectionBinding, error) {
	query := fmt.Sprintf(`
		SELECT b.id, b.section_id, b.message_id, b.binding_type, b.created_by_id,
			b.is_ai_generated, b.is_active, b.note, b.created_at, b.deactivated_at
		FROM %s b
		JOIN %s s ON s.id = b.section_id
		WHERE s.document_id = $1 AND b.is_active
		ORDER BY b.created_at
	`, r.tables.SectionBindings, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list active bindings: %w", err)
	}
	defer rows.Close()

	var bindings []models.SectionBinding
	for rows.Next() {
		var binding models.SectionBinding
		if err := scanBinding(rows, &binding); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		bindings = append(bindings, binding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active bindings: %w", err)
	}

	return bindings, nil
}

// ListActiveBySection retrieves active bindings referencing one section
func (r *PostgresBindingRepository) ListActiveBySection(ctx context.Context, sectionID string) ([]models.SectionBinding, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE section_id = $1 AND is_active
		ORDER BY created_at
	`, bindingColumns, r.tables.SectionBindings)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, sectionID)
	if err != nil {
		return nil, fmt.Errorf("list section bindings: %w", err)
	}
	defer rows.Close()

	var bindings []models.SectionBinding
	for rows.Next() {
		var binding models.SectionBinding
		if err := scanBinding(rows, &binding); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		bindings = append(bindings, binding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list section bindings: %w", err)
	}

	return bindings, nil
}

// Update persists binding mutations (deactivation, note edits)
func (r *PostgresBindingRepository) Update(ctx context.Context, binding *models.SectionBinding) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_active = $2, note = $3, deactivated_at = $4
		WHERE id = $1
	`, r.tables.SectionBindings)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query,
		binding.ID,
		binding.IsActive,
		binding.Note,
		binding.DeactivatedAt,
	)
	if err != nil {
		return fmt.Errorf("update binding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("binding %s: %w", binding.ID, domain.ErrNotFound)
	}

	return nil
}

// DeactivateByDocument flips every active binding of a document to inactive
func (r *PostgresBindingRepository) DeactivateByDocument(ctx context.Context, documentID string) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s b
		SET is_active = FALSE, deactivated_at = $2
		FROM %s s
		WHERE s.id = b.section_id AND s.document_id = $1 AND b.is_active
	`, r.tables.SectionBindings, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, documentID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate document bindings: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// DeactivateBySection deactivates active bindings on one section
func (r *PostgresBindingRepository) DeactivateBySection(ctx context.Context, sectionID string) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_active = FALSE, deactivated_at = $2
		WHERE section_id = $1 AND is_active
	`, r.tables.SectionBindings)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, sectionID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate section bindings: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
