package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint
	ErrDuplicate = errors.New("duplicate record")
	// ErrAlreadyPaired is returned when either side of a pairing already has a partner
	ErrAlreadyPaired = errors.New("user already paired")
	// ErrExpired is returned when a write targets a notice past its reset time
	ErrExpired = errors.New("record expired")
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a PostgreSQL unique_violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
