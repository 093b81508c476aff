package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestSQLStateHelpers(t *testing.T) {
	pgxUnique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	pqCheck := fmt.Errorf("update: %w", &pq.Error{Code: "23514"})

	assert.True(t, IsUniqueViolation(pgxUnique))
	assert.False(t, IsCheckViolation(pgxUnique))
	assert.True(t, IsCheckViolation(pqCheck))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
}

func TestSchemaIsEmbedded(t *testing.T) {
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS registry_items")
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS outbox")
}
