// Package docstore provides a generic document read-write service on
// top of Postgres JSONB. Report documents are opaque JSON objects keyed
// by (collection, document ID); the reconciler owns their internal
// shape, not this package.
package docstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Document is one stored record.
type Document struct {
	ID        string
	Data      map[string]any
	UpdatedAt time.Time
}

// Store is the document-store contract the report engine consumes.
type Store interface {
	// Get returns the document data and whether it exists.
	Get(ctx context.Context, collection, id string) (map[string]any, bool, error)
	// Set writes the full document, replacing any previous version.
	// Writes are always whole-document, never partial patches.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Delete removes the document; deleting a missing document is not
	// an error.
	Delete(ctx context.Context, collection, id string) error
	// List returns every document in a collection.
	List(ctx context.Context, collection string) ([]Document, error)
}

// IsResourceExhausted classifies a write failure as a quota condition:
// Postgres insufficient-resources error classes, or provider errors
// that surface only as a message.
func IsResourceExhausted(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 53: insufficient resources (53100 disk full, 53200 out
		// of memory, 53300 too many connections, 53400 config limit).
		if strings.HasPrefix(pgErr.Code, "53") {
			return true
		}
	}
	msg := strings.ToUpper(err.Error())
	return strings.Contains(msg, "QUOTA") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
