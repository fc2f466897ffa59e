package store

// specs.go manages product specification rows: one (sku, field key) pair per
// row, upserted by match. The bulk CSV import follows the same per-row
// accumulate-errors pattern as the collection pipeline: one bad row never
// aborts the batch.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/merchantops/catalog-admin/internal/catalog"
)

// Specification is one key/value row for a product SKU.
type Specification struct {
	ID        string    `json:"id"`
	SKU       string    `json:"sku"`
	FieldKey  string    `json:"fieldKey"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SpecStore reads and writes specification rows.
type SpecStore struct {
	db DBTX
}

// NewSpecStore creates a SpecStore over the given connection.
func NewSpecStore(db DBTX) *SpecStore {
	return &SpecStore{db: db}
}

// Upsert creates or updates the row for (sku, fieldKey).
func (s *SpecStore) Upsert(ctx context.Context, sku, fieldKey, value string) error {
	id := uuid.New()
	_, err := s.db.Exec(ctx, `
		INSERT INTO product_specifications (id, sku, field_key, field_value, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (sku, field_key)
		DO UPDATE SET field_value = EXCLUDED.field_value, updated_at = now()
	`, pgtype.UUID{Bytes: id, Valid: true}, sku, fieldKey, value)
	if err != nil {
		return fmt.Errorf("upsert specification %s/%s: %w", sku, fieldKey, err)
	}
	return nil
}

// ListBySKU returns all specification rows for one SKU, ordered by key.
func (s *SpecStore) ListBySKU(ctx context.Context, sku string) ([]Specification, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, sku, field_key, field_value, updated_at
		FROM product_specifications
		WHERE sku = $1
		ORDER BY field_key
	`, sku)
	if err != nil {
		return nil, fmt.Errorf("list specifications for %s: %w", sku, err)
	}
	defer rows.Close()

	var specs []Specification
	for rows.Next() {
		var (
			id        pgtype.UUID
			spec      Specification
			updatedAt pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &spec.SKU, &spec.FieldKey, &spec.Value, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan specification row: %w", err)
		}
		spec.ID = uuid.UUID(id.Bytes).String()
		spec.UpdatedAt = updatedAt.Time
		specs = append(specs, spec)
	}
	return specs, rows.Err()
}

// Spec import header columns.
const (
	specHeaderSKU   = "SKU"
	specHeaderField = "Field"
	specHeaderValue = "Value"
)

// ImportGrid upserts specification rows from a parsed grid with a
// SKU/Field/Value header. Returns the applied count and per-row errors.
func (s *SpecStore) ImportGrid(ctx context.Context, grid [][]string) (int, []catalog.RowError, error) {
	if len(grid) == 0 {
		return 0, nil, fmt.Errorf("worksheet is empty")
	}

	idx := catalog.MakeHeaderIndex(grid[0])
	for _, required := range []string{specHeaderSKU, specHeaderField, specHeaderValue} {
		if !idx.Has(required) {
			return 0, nil, fmt.Errorf("header row is missing the %q column", required)
		}
	}

	applied := 0
	var errs []catalog.RowError

	for i, row := range grid[1:] {
		line := i + 2

		sku := idx.Cell(row, specHeaderSKU)
		key := idx.Cell(row, specHeaderField)
		value := idx.Cell(row, specHeaderValue)

		if sku == "" && key == "" && value == "" {
			continue
		}
		if sku == "" || key == "" {
			errs = append(errs, catalog.RowError{
				Row:     line,
				Message: fmt.Sprintf("SKU and Field are required, got sku=%q field=%q", sku, key),
			})
			continue
		}

		if err := s.Upsert(ctx, strings.TrimSpace(sku), strings.TrimSpace(key), value); err != nil {
			errs = append(errs, catalog.RowError{Row: line, Message: err.Error()})
			continue
		}
		applied++
	}

	return applied, errs, nil
}
