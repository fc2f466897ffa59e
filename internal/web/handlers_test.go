package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/merchantops/catalog-admin/internal/catalog"
	"github.com/merchantops/catalog-admin/internal/config"
	"github.com/merchantops/catalog-admin/internal/store"
)

type fakeCatalog struct {
	report    *catalog.ImportReport
	importErr error
	exportCSV []byte
	exportErr error
	fields    []catalog.FieldDefinition
	fieldsErr error

	gotFileName string
	gotOwner    string
}

func (f *fakeCatalog) ImportCSV(ctx context.Context, fileName string, data []byte) (*catalog.ImportReport, error) {
	f.gotFileName = fileName
	return f.report, f.importErr
}

func (f *fakeCatalog) ExportCSV(ctx context.Context) ([]byte, error) {
	return f.exportCSV, f.exportErr
}

func (f *fakeCatalog) Fields(ctx context.Context, ownerKind string) ([]catalog.FieldDefinition, error) {
	f.gotOwner = ownerKind
	return f.fields, f.fieldsErr
}

type fakeSpecs struct {
	specs   []store.Specification
	applied int
	rowErrs []catalog.RowError
	err     error
}

func (f *fakeSpecs) ListBySKU(ctx context.Context, sku string) ([]store.Specification, error) {
	return f.specs, f.err
}

func (f *fakeSpecs) ImportGrid(ctx context.Context, grid [][]string) (int, []catalog.RowError, error) {
	return f.applied, f.rowErrs, f.err
}

type fakeHistory struct {
	runs []store.ImportRun
	err  error
}

func (f *fakeHistory) RecentRuns(ctx context.Context, limit int) ([]store.ImportRun, error) {
	return f.runs, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080},
		Import: config.ImportConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       time.Minute,
		},
		Rate:    config.RateLimitConfig{Enabled: false},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func newTestServer(c *fakeCatalog, sp *fakeSpecs, h *fakeHistory) *Server {
	if c == nil {
		c = &fakeCatalog{}
	}
	if sp == nil {
		sp = &fakeSpecs{}
	}
	if h == nil {
		h = &fakeHistory{}
	}
	return NewServer(c, sp, h, testConfig())
}

// multipartBody builds a multipart form with one "file" part.
func multipartBody(t *testing.T, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestHandleCollectionImport(t *testing.T) {
	fc := &fakeCatalog{report: &catalog.ImportReport{
		RunID:   "run-1",
		Success: true,
		Summary: catalog.Summary{Created: 2},
		Rows:    2,
		Errors:  []catalog.RowError{},
	}}
	srv := newTestServer(fc, nil, nil)

	body, contentType := multipartBody(t, "collections.csv", "Title\nA\nB\n")
	req := httptest.NewRequest(http.MethodPost, "/api/collections/import", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if fc.gotFileName != "collections.csv" {
		t.Errorf("file name = %q", fc.gotFileName)
	}

	var report catalog.ImportReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.RunID != "run-1" || report.Summary.Created != 2 {
		t.Errorf("report = %+v", report)
	}
}

func TestHandleCollectionImport_RawBody(t *testing.T) {
	fc := &fakeCatalog{report: &catalog.ImportReport{Success: true, Errors: []catalog.RowError{}}}
	srv := newTestServer(fc, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/collections/import", strings.NewReader("Title\nA\n"))

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if fc.gotFileName != "upload.csv" {
		t.Errorf("file name = %q, want the raw-body default", fc.gotFileName)
	}
}

func TestHandleCollectionImport_EmptyBody(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/collections/import", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleCollectionImport_Busy(t *testing.T) {
	fc := &fakeCatalog{importErr: catalog.ErrTooManyImports}
	srv := newTestServer(fc, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/collections/import", strings.NewReader("Title\nA\n"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestHandleCollectionImport_FatalPipelineError(t *testing.T) {
	fc := &fakeCatalog{importErr: errors.New("worksheet is empty")}
	srv := newTestServer(fc, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/collections/import", strings.NewReader("x"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if !strings.Contains(body["error"], "worksheet is empty") {
		t.Errorf("body = %v", body)
	}
}

func TestHandleCollectionExport(t *testing.T) {
	fc := &fakeCatalog{exportCSV: []byte("Title\nA\n")}
	srv := newTestServer(fc, nil, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/collections/export", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "collections.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if rec.Body.String() != "Title\nA\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandleCollectionExport_UpstreamFailure(t *testing.T) {
	fc := &fakeCatalog{exportErr: errors.New("list collections: throttled")}
	srv := newTestServer(fc, nil, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/collections/export", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestHandleListFields(t *testing.T) {
	fc := &fakeCatalog{fields: []catalog.FieldDefinition{
		{Namespace: "custom", Key: "season", TypeName: "single_line_text_field"},
	}}
	srv := newTestServer(fc, nil, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/fields/COLLECTION", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if fc.gotOwner != "COLLECTION" {
		t.Errorf("owner kind = %q", fc.gotOwner)
	}

	var defs []catalog.FieldDefinition
	if err := json.Unmarshal(rec.Body.Bytes(), &defs); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(defs) != 1 || defs[0].Key != "season" {
		t.Errorf("defs = %+v", defs)
	}
}

func TestHandleListFields_EmptyIsArray(t *testing.T) {
	srv := newTestServer(&fakeCatalog{}, nil, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/fields/PRODUCT", nil))

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want an empty JSON array", got)
	}
}

func TestHandleSpecificationImport(t *testing.T) {
	sp := &fakeSpecs{applied: 2}
	srv := newTestServer(nil, sp, nil)

	body, contentType := multipartBody(t, "specs.csv", "SKU,Field,Value\nA-1,weight,2kg\nA-2,weight,3kg\n")
	req := httptest.NewRequest(http.MethodPost, "/api/specifications/import", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp specImportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !resp.Success || resp.Applied != 2 || len(resp.Errors) != 0 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandleListSpecifications(t *testing.T) {
	sp := &fakeSpecs{specs: []store.Specification{{SKU: "A-1", FieldKey: "weight", Value: "2kg"}}}
	srv := newTestServer(nil, sp, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/specifications/A-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var specs []store.Specification
	if err := json.Unmarshal(rec.Body.Bytes(), &specs); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(specs) != 1 || specs[0].FieldKey != "weight" {
		t.Errorf("specs = %+v", specs)
	}
}

func TestHandleListImports(t *testing.T) {
	h := &fakeHistory{runs: []store.ImportRun{{ID: "run-1", FileName: "a.csv", Created: 3}}}
	srv := newTestServer(nil, nil, h)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/imports", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var runs []store.ImportRun
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(runs) != 1 || runs[0].FileName != "a.csv" {
		t.Errorf("runs = %+v", runs)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)

	if !rl.allow("1.2.3.4") || !rl.allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("1.2.3.4") {
		t.Error("third request in the window should be rejected")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("a different IP has its own bucket")
	}
}
