package postgresql

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	exclusionViolation  = "23P01"
	invalidTextValue    = "22P02"
)

// pgErrorCode returns the SQLSTATE and constraint of a PostgreSQL error.
func pgErrorCode(err error) (code string, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// isNoRows reports whether a lookup found nothing. An id that is not a valid
// UUID cannot match any row either.
func isNoRows(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	code, _ := pgErrorCode(err)
	return code == invalidTextValue
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
