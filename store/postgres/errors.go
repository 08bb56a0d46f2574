package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	hireAuth "github.com/MrEthical07/hireAuth"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
	pgErrCheckViolation      = "23514"
	pgErrInvalidTextRepr     = "22P02"
)

var errNoDB = errors.New("database connection unavailable")

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// mapError translates driver errors into the hireAuth taxonomy. what names
// the entity for not-found messages.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, hireAuth.ErrNotFound)
	}
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return fmt.Errorf("%w: %s", hireAuth.ErrConflict, pgErr.ConstraintName)
		case pgErrForeignKeyViolation, pgErrCheckViolation:
			return fmt.Errorf("%w: %s", hireAuth.ErrValidation, pgErr.ConstraintName)
		case pgErrInvalidTextRepr:
			// A malformed uuid cannot name an existing row.
			return fmt.Errorf("%s: %w", what, hireAuth.ErrNotFound)
		}
	}
	return fmt.Errorf("db error: %w", err)
}

// expectOneRow maps a zero-row mutation to ErrNotFound.
func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, hireAuth.ErrNotFound)
	}
	return nil
}
