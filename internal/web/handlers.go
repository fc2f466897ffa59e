package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/merchantops/catalog-admin/internal/catalog"
	"github.com/merchantops/catalog-admin/internal/logging"
	"github.com/merchantops/catalog-admin/internal/store"
)

// CatalogService is the import/export surface the handlers need.
// Implemented by catalog.Service; tests substitute a fake.
type CatalogService interface {
	ImportCSV(ctx context.Context, fileName string, data []byte) (*catalog.ImportReport, error)
	ExportCSV(ctx context.Context) ([]byte, error)
	Fields(ctx context.Context, ownerKind string) ([]catalog.FieldDefinition, error)
}

// SpecService is the product-specification surface the handlers need.
type SpecService interface {
	ListBySKU(ctx context.Context, sku string) ([]store.Specification, error)
	ImportGrid(ctx context.Context, grid [][]string) (int, []catalog.RowError, error)
}

// HistoryService lists past import runs.
type HistoryService interface {
	RecentRuns(ctx context.Context, limit int) ([]store.ImportRun, error)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleCollectionImport accepts a multipart CSV upload and runs a full
// import. Partial failures still return 200 with the complete report; only
// fatal problems (unreadable file, schema discovery failure) are HTTP errors.
func (s *Server) handleCollectionImport(w http.ResponseWriter, r *http.Request) {
	fileName, data, err := s.readUpload(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()

	report, err := s.catalog.ImportCSV(ctx, fileName, data)
	if err != nil {
		if errors.Is(err, catalog.ErrTooManyImports) {
			writeError(w, r, http.StatusTooManyRequests, err.Error())
			return
		}
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, report)
}

func (s *Server) handleCollectionExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.catalog.ExportCSV(r.Context())
	if err != nil {
		writeError(w, r, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="collections.csv"`)
	w.Write(data)
}

func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	ownerKind := chi.URLParam(r, "ownerKind")

	defs, err := s.catalog.Fields(r.Context(), ownerKind)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	if defs == nil {
		defs = []catalog.FieldDefinition{}
	}

	writeJSON(w, defs)
}

func (s *Server) handleListSpecifications(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	specs, err := s.specs.ListBySKU(r.Context(), sku)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if specs == nil {
		specs = []store.Specification{}
	}

	writeJSON(w, specs)
}

// specImportResponse is the report for a specification-row import.
type specImportResponse struct {
	Success bool               `json:"success"`
	Applied int                `json:"applied"`
	Errors  []catalog.RowError `json:"errors"`
}

func (s *Server) handleSpecificationImport(w http.ResponseWriter, r *http.Request) {
	_, data, err := s.readUpload(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	grid, err := catalog.ParseGrid(data)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("parse file: %v", err))
		return
	}

	applied, rowErrs, err := s.specs.ImportGrid(r.Context(), grid)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if rowErrs == nil {
		rowErrs = []catalog.RowError{}
	}

	writeJSON(w, specImportResponse{
		Success: len(rowErrs) == 0,
		Applied: applied,
		Errors:  rowErrs,
	})
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	runs, err := s.history.RecentRuns(r.Context(), 50)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []store.ImportRun{}
	}

	writeJSON(w, runs)
}

// readUpload extracts the uploaded file from a multipart form ("file" field)
// or, as a convenience for curl pipelines, the raw request body.
func (s *Server) readUpload(r *http.Request) (string, []byte, error) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(nil, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err == nil {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("missing file field in upload")
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, fmt.Errorf("read upload: %w", err)
		}
		return header.Filename, data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read request body: %w", err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("empty upload")
	}
	return "upload.csv", data, nil
}

// writeError logs the failure with request context and returns a JSON error.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", message,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON encodes v as JSON. Encoding errors are logged since headers are
// already sent.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(context.Background()).Error("json encode error", "error", err)
	}
}
