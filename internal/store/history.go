package store

// history.go records one row per completed import run so operators can see
// what ran, when, and with what outcome.

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/merchantops/catalog-admin/internal/catalog"
)

// ImportRun is one persisted import-run record.
type ImportRun struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	Created     int       `json:"created"`
	Updated     int       `json:"updated"`
	FieldsSet   int       `json:"fieldsSet"`
	ErrorCount  int       `json:"errorCount"`
	DurationMS  int64     `json:"durationMs"`
	CompletedAt time.Time `json:"completedAt"`
}

// HistoryStore persists import-run records.
type HistoryStore struct {
	db DBTX
}

// NewHistoryStore creates a HistoryStore over the given connection.
func NewHistoryStore(db DBTX) *HistoryStore {
	return &HistoryStore{db: db}
}

// RecordImportRun persists the outcome of one import.
// Implements catalog.RunRecorder.
func (h *HistoryStore) RecordImportRun(ctx context.Context, report *catalog.ImportReport) error {
	runID, err := uuid.Parse(report.RunID)
	if err != nil {
		return fmt.Errorf("invalid run ID %q: %w", report.RunID, err)
	}

	_, err = h.db.Exec(ctx, `
		INSERT INTO import_runs
			(id, file_name, created_count, updated_count, fields_set_count, error_count, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		pgtype.UUID{Bytes: runID, Valid: true},
		report.FileName,
		report.Summary.Created,
		report.Summary.Updated,
		report.Summary.FieldsSet,
		len(report.Errors),
		report.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert import run: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent import runs, newest first.
func (h *HistoryStore) RecentRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := h.db.Query(ctx, `
		SELECT id, file_name, created_count, updated_count, fields_set_count,
		       error_count, duration_ms, created_at
		FROM import_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	var runs []ImportRun
	for rows.Next() {
		var (
			id        pgtype.UUID
			run       ImportRun
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &run.FileName, &run.Created, &run.Updated,
			&run.FieldsSet, &run.ErrorCount, &run.DurationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}
		run.ID = uuid.UUID(id.Bytes).String()
		run.CompletedAt = createdAt.Time
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
