package docstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsResourceExhausted(t *testing.T) {
	assert.False(t, IsResourceExhausted(nil))
	assert.False(t, IsResourceExhausted(errors.New("connection refused")))

	assert.True(t, IsResourceExhausted(errors.New("daily write quota exceeded")))
	assert.True(t, IsResourceExhausted(errors.New("rpc error: RESOURCE_EXHAUSTED")))

	// Postgres insufficient-resources class, wrapped.
	pgErr := &pgconn.PgError{Code: "53400", Message: "configuration limit exceeded"}
	assert.True(t, IsResourceExhausted(fmt.Errorf("set document: %w", pgErr)))

	pgErr = &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	assert.False(t, IsResourceExhausted(pgErr))
}
