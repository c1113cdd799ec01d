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

// PostgresSectionRepository implements the SectionRepository interface
type PostgresSectionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSectionRepository creates a new section repository
func NewSectionRepository(config *RepositoryConfig) repositories.SectionRepository {
	return &PostgresSectionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const sectionColumns = `id, document_id, section_number, title, parent_id, sort_order,
		status, content_preview, ai_generated, ai_confidence, open_questions, created_at, updated_at`

func scanSection(row interface{ Scan(...interface{}) error }, s *models.Section) error {
	return row.Scan(
		&s.ID,
		&s.DocumentID,
		&s.SectionNumber,
		&s.Title,
		&s.ParentID,
		&s.Order,
		&s.Status,
		&s.ContentPreview,
		&s.AIGenerated,
		&s.AIConfidence,
		&s.OpenQuestions,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
}

// Create creates a new section
func (r *PostgresSectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	section.CreatedAt = now
	section.UpdatedAt = now

	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, section_number, title, parent_id, sort_order,
			status, content_preview, ai_generated, ai_confidence, open_questions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		section.ID,
		section.DocumentID,
		section.SectionNumber,
		section.Title,
		section.ParentID,
		section.Order,
		section.Status,
		section.ContentPreview,
		section.AIGenerated,
		section.AIConfidence,
		section.OpenQuestions,
		section.CreatedAt,
		section.UpdatedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("section %s already exists", section.ID),
				ResourceType: "section",
				ResourceID:   section.ID,
			}
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("document or parent section does not exist: %w", domain.ErrValidation)
		}
		return fmt.Errorf("create section: %w", err)
	}

	return nil
}

// GetByID retrieves a section scoped to a document
func (r *PostgresSectionRepository) GetByID(ctx context.Context, id, documentID string) (*models.Section, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE id = $1 AND document_id = $2
	`, sectionColumns, r.tables.Sections)

	var section models.Section
	executor := GetExecutor(ctx, r.pool)
	err := scanSection(executor.QueryRow(ctx, query, id, documentID), &section)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get section: %w", err)
	}

	return &section, nil
}

// ListByDocument retrieves all sections of a document. The ordering matches
// the tree projection: siblings by sort_order, ties broken by creation time.
func (r *PostgresSectionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Section, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE document_id = $1
		ORDER BY parent_id NULLS FIRST, sort_order, created_at
	`, sectionColumns, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var sections []models.Section
	for rows.Next() {
		var section models.Section
		if err := scanSection(rows, &section); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}

	return sections, nil
}

// Update updates an existing section
func (r *PostgresSectionRepository) Update(ctx context.Context, section *models.Section) error {
	section.UpdatedAt = time.Now().UTC()

	query := fmt.Sprintf(`
		UPDATE %s
		SET section_number = $3, title = $4, parent_id = $5, sort_order = $6,
			status = $7, content_preview = $8, ai_generated = $9, ai_confidence = $10,
			open_questions = $11, updated_at = $12
		WHERE id = $1 AND document_id = $2
	`, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query,
		section.ID,
		section.DocumentID,
		section.SectionNumber,
		section.Title,
		section.ParentID,
		section.Order,
		section.Status,
		section.ContentPreview,
		section.AIGenerated,
		section.AIConfidence,
		section.OpenQuestions,
		section.UpdatedAt,
	)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("parent section does not exist: %w", domain.ErrValidation)
		}
		return fmt.Errorf("update section: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("section %s: %w", section.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a section
func (r *PostgresSectionRepository) Delete(ctx context.Context, id, documentID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND document_id = $2`, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, documentID)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
