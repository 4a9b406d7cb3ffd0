package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"nexa/internal/core/apperror"
)

// PostgreSQL error codes we translate into domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// MapError translates low-level pgx errors into AppError where the domain
// has a meaning for them. Unique violations become retryable duplicates;
// everything else is wrapped as a persistence failure.
func MapError(operation, entity string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.NewDuplicate(entity, pgErr.ConstraintName, "").WithCause(err)
		case pgForeignKeyViolation:
			return apperror.NewValidation("referenced record does not exist").
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		}
	}

	if apperror.IsAppError(err) {
		return err
	}

	return apperror.NewPersistence(operation, err)
}
