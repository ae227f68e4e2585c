package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres error code raised when an insert or
// update breaks a unique index
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint conflict
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
