package catalog

// service.go orchestrates the pipeline stages for the web layer:
// discover → decode → apply for imports, discover+list → encode for exports.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// CollectionOwnerKind is the owner kind for collection metafield definitions.
const CollectionOwnerKind = "COLLECTION"

// CollectionPage is one page of collections with their populated metafields.
type CollectionPage struct {
	Records     []ExportRecord
	EndCursor   string
	HasNextPage bool
}

// API is the remote catalog surface the service needs. The Shopify client
// implements it; tests substitute a fake.
type API interface {
	DefinitionLister
	RecordWriter
	ListCollections(ctx context.Context, cursor string) (CollectionPage, error)
}

// RunRecorder persists a record of each completed import run.
// Recording is best effort; a storage failure never fails the import.
type RunRecorder interface {
	RecordImportRun(ctx context.Context, report *ImportReport) error
}

// Service ties the pipeline together behind a bounded-concurrency gate.
type Service struct {
	api      API
	recorder RunRecorder
	limiter  *importLimiter
}

// ServiceOptions configures a Service. Zero values get defaults.
type ServiceOptions struct {
	MaxConcurrentImports int
	MaxImportWait        time.Duration

	// Recorder, when set, receives a record of every completed import run.
	Recorder RunRecorder
}

// NewService creates a Service over the given remote API.
func NewService(api API, opts ServiceOptions) *Service {
	return &Service{
		api:      api,
		recorder: opts.Recorder,
		limiter:  newImportLimiter(opts.MaxConcurrentImports, opts.MaxImportWait),
	}
}

// ImportCSV runs one full import of the given CSV file contents.
// Fatal problems (unreadable file, schema discovery failure, unusable
// header) return an error; everything row-level lands in the report.
func (s *Service) ImportCSV(ctx context.Context, fileName string, data []byte) (*ImportReport, error) {
	if err := s.limiter.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.release()

	start := time.Now()
	runID := uuid.NewString()
	logger := slog.Default().With("run_id", runID, "file", fileName)

	grid, err := ParseGrid(data)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}

	defs, err := DiscoverFields(ctx, s.api, CollectionOwnerKind)
	if err != nil {
		return nil, err
	}
	logger.Info("schema discovered", "fields", len(defs))

	rows, decodeErrs, err := Decode(grid, FieldMap(defs))
	if err != nil {
		return nil, err
	}
	logger.Info("rows decoded", "rows", len(rows), "errors", len(decodeErrs))

	summary, applyErrs := Apply(ctx, s.api, rows)

	report := &ImportReport{
		RunID:    runID,
		FileName: fileName,
		Summary:  summary,
		Rows:     len(rows),
		Errors:   append(decodeErrs, applyErrs...),
		Duration: time.Since(start),
	}
	report.Success = len(report.Errors) == 0
	report.DurationMS = report.Duration.Milliseconds()
	if report.Errors == nil {
		report.Errors = []RowError{}
	}

	logger.Info("import complete",
		"created", summary.Created,
		"updated", summary.Updated,
		"fields_set", summary.FieldsSet,
		"errors", len(report.Errors),
		"duration", report.Duration,
	)

	if s.recorder != nil {
		if err := s.recorder.RecordImportRun(ctx, report); err != nil {
			logger.Warn("failed to record import run", "error", err)
		}
	}

	return report, nil
}

// ExportCSV pages through every collection and renders the export grid.
func (s *Service) ExportCSV(ctx context.Context) ([]byte, error) {
	var records []ExportRecord

	cursor := ""
	for {
		page, err := s.api.ListCollections(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("list collections: %w", err)
		}
		records = append(records, page.Records...)
		if !page.HasNextPage {
			break
		}
		cursor = page.EndCursor
	}

	return WriteGrid(Encode(records))
}

// Fields returns the discovered metafield definitions for an owner kind.
func (s *Service) Fields(ctx context.Context, ownerKind string) ([]FieldDefinition, error) {
	return DiscoverFields(ctx, s.api, ownerKind)
}

// ActiveImports returns the number of imports currently running.
func (s *Service) ActiveImports() int {
	return s.limiter.activeCount()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.waitForDrain(ctx)
}
