// Package store persists the application's relational rows: product
// specification key/value pairs and the history of import runs. The catalog
// itself lives on the commerce platform; this database only holds the small
// ad hoc tables the admin UI needs.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// EnsureSchema creates the tables this package needs if they do not exist.
func EnsureSchema(ctx context.Context, db DBTX) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS product_specifications (
			id UUID PRIMARY KEY,
			sku TEXT NOT NULL,
			field_key TEXT NOT NULL,
			field_value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (sku, field_key)
		);
		CREATE INDEX IF NOT EXISTS idx_product_specifications_sku ON product_specifications(sku);
	`)
	if err != nil {
		return fmt.Errorf("create product_specifications table: %w", err)
	}

	_, err = db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS import_runs (
			id UUID PRIMARY KEY,
			file_name TEXT NOT NULL,
			created_count INT NOT NULL,
			updated_count INT NOT NULL,
			fields_set_count INT NOT NULL,
			error_count INT NOT NULL,
			duration_ms BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_import_runs_created_at ON import_runs(created_at);
	`)
	if err != nil {
		return fmt.Errorf("create import_runs table: %w", err)
	}

	return nil
}
