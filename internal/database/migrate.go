package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// statements are idempotent so Migrate can run on every startup.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS report_documents (
		collection TEXT NOT NULL,
		doc_id     TEXT NOT NULL,
		data       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (collection, doc_id)
	)`,
	`CREATE TABLE IF NOT EXISTS barangays (
		id           BIGSERIAL PRIMARY KEY,
		name         TEXT NOT NULL,
		municipality TEXT NOT NULL,
		UNIQUE (name, municipality)
	)`,
	`CREATE TABLE IF NOT EXISTS concern_types (
		id           BIGSERIAL PRIMARY KEY,
		name         TEXT NOT NULL,
		municipality TEXT NOT NULL,
		UNIQUE (name, municipality)
	)`,
	`CREATE TABLE IF NOT EXISTS operators (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		municipality  TEXT NOT NULL DEFAULT '',
		is_admin      BOOLEAN NOT NULL DEFAULT false,
		access_level  TEXT NOT NULL DEFAULT 'operator'
	)`,
}

// Migrate creates the schema when missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
