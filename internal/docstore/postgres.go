package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tableDocuments = "report_documents"

// PostgresStore implements Store on a JSONB documents table.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed document store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// builder returns a squirrel statement builder with Postgres placeholders.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (map[string]any, bool, error) {
	sql, args, err := builder().
		Select("data").
		From(tableDocuments).
		Where(squirrel.Eq{"collection": collection, "doc_id": id}).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build get query: %w", err)
	}

	var raw []byte
	err = s.db.QueryRow(ctx, sql, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, false, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	return data, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}

	sql, args, err := builder().
		Insert(tableDocuments).
		Columns("collection", "doc_id", "data", "updated_at").
		Values(collection, id, raw, squirrel.Expr("now()")).
		Suffix("ON CONFLICT (collection, doc_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build set query: %w", err)
	}

	if _, err := s.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("set document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	sql, args, err := builder().
		Delete(tableDocuments).
		Where(squirrel.Eq{"collection": collection, "doc_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	if _, err := s.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, collection string) ([]Document, error) {
	sql, args, err := builder().
		Select("doc_id", "data", "updated_at").
		From(tableDocuments).
		Where(squirrel.Eq{"collection": collection}).
		OrderBy("doc_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var raw []byte
		if err := rows.Scan(&doc.ID, &raw, &doc.UpdatedAt); err != nil {
			continue
		}
		if err := json.Unmarshal(raw, &doc.Data); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
