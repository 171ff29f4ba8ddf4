package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "notices_sender_period_key"}
	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", dup)))

	fk := &pgconn.PgError{Code: "23503"}
	assert.False(t, isUniqueViolation(fk))
	assert.False(t, isUniqueViolation(errors.New("connection reset")))
}

func TestSchemaDeclaresPeriodConstraint(t *testing.T) {
	assert.Contains(t, schema, "UNIQUE (sender_id, period_key)")
	assert.Contains(t, schema, "users_partner_id_key")
}
