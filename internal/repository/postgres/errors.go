package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes the repositories translate into domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsPgDuplicateError reports whether err is a unique constraint violation,
// e.g. a repeated (document_id, version_number) pair or a second active
// binding racing past the partial unique index.
func IsPgDuplicateError(err error) bool {
	return pgErrCode(err) == pgUniqueViolation
}

// IsPgForeignKeyError reports whether err is a foreign key violation, such
// as inserting under a document or section that no longer exists.
func IsPgForeignKeyError(err error) bool {
	return pgErrCode(err) == pgForeignKeyViolation
}

// IsPgNoRowsError reports whether err means the query matched nothing.
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
