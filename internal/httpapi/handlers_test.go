package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nadi.org/internal/artifact"
	"nadi.org/internal/docs"
	"nadi.org/internal/payroll"
	"nadi.org/internal/render"
	"nadi.org/internal/stream"
)

type listerFunc func(ctx context.Context, month, year int) ([]string, error)

func (f listerFunc) ListRecordIDs(ctx context.Context, month, year int) ([]string, error) {
	return f(ctx, month, year)
}

type apiHarness struct {
	api  *API
	src  *payroll.InMemorySource
	meta *artifact.MemoryMetadata
	ids  []string
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	src := payroll.NewInMemorySource()
	meta := artifact.NewMemoryMetadata()
	agg := payroll.NewAggregator(src)
	store := artifact.NewStore(artifact.NewMemoryObjects(), meta)
	events := stream.New()
	svc := docs.NewService(agg, &render.Renderer{Now: func() time.Time {
		return time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)
	}}, store, events)

	h := &apiHarness{src: src, meta: meta}
	h.api = New(Deps{
		Docs:       svc,
		Artifacts:  store,
		Aggregator: agg,
		Records: listerFunc(func(ctx context.Context, month, year int) ([]string, error) {
			if month == 3 && year == 2026 {
				return h.ids, nil
			}
			return nil, nil
		}),
		Events:  events,
		Version: "test",
	})
	return h
}

func (h *apiHarness) seed(payrollID, staffID, ic string) {
	h.src.AddRecord(payroll.PayrollRow{
		ID:       payrollID,
		StaffID:  staffID,
		Month:    3,
		Year:     2026,
		PayDate:  time.Date(2026, time.March, 28, 0, 0, 0, 0, time.UTC),
		BasicPay: 250000,
	})
	h.src.AddStaff(payroll.StaffProfile{ID: staffID, FullName: "Aina Rahim", ICNo: ic})
	h.src.AddJob(payroll.StaffJob{
		ID: "job-" + staffID, StaffID: staffID, Position: "Site Manager",
		SiteName: "NADI Kg Baru", OrganizationName: "Harmoni Tech", Active: true,
	})
	h.ids = append(h.ids, payrollID)
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := newAPIHarness(t)
	rec := doJSON(t, h.api.Handler(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "ok" || body["version"] != "test" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	h := newAPIHarness(t)
	h.seed("pay-1", "staff-1", "900101-14-5678")

	rec := doJSON(t, h.api.Handler(), http.MethodPost, "/v1/payroll/documents",
		`{"payroll_id":"pay-1","document_type":"payslip"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var res docs.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if res.DocumentID == "" || res.DownloadURL == "" {
		t.Fatalf("incomplete result: %+v", res)
	}
	if res.FilePath != "payroll/payslip/payslip_900101-14-5678_3_2026.pdf" {
		t.Fatalf("unexpected path: %s", res.FilePath)
	}
}

func TestGenerateEndpointUnknownRecord(t *testing.T) {
	h := newAPIHarness(t)
	rec := doJSON(t, h.api.Handler(), http.MethodPost, "/v1/payroll/documents",
		`{"payroll_id":"pay-missing","document_type":"payslip"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGenerateEndpointUnsupportedType(t *testing.T) {
	h := newAPIHarness(t)
	h.seed("pay-1", "staff-1", "900101-14-5678")
	rec := doJSON(t, h.api.Handler(), http.MethodPost, "/v1/payroll/documents",
		`{"payroll_id":"pay-1","document_type":"invoice"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGenerateEndpointIgnoresUnknownTemplateOptions(t *testing.T) {
	h := newAPIHarness(t)
	h.seed("pay-1", "staff-1", "900101-14-5678")

	rec := doJSON(t, h.api.Handler(), http.MethodPost, "/v1/payroll/documents",
		`{"payroll_id":"pay-1","document_type":"payslip","template_options":{"watermark":true,"layout":"compact"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 with unknown option keys ignored, got %d: %s", rec.Code, rec.Body.String())
	}

	// Recognized keys still take effect next to unrecognized ones.
	rec = doJSON(t, h.api.Handler(), http.MethodPost, "/v1/payroll/documents",
		`{"payroll_id":"pay-1","document_type":"annual_statement","template_options":{"year":2026,"watermark":true}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var res docs.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !strings.Contains(res.FilePath, "annual_statement") {
		t.Fatalf("unexpected path: %s", res.FilePath)
	}

	// Unknown top-level fields stay rejected.
	rec = doJSON(t, h.api.Handler(), http.MethodPost, "/v1/payroll/documents",
		`{"payroll_id":"pay-1","document_type":"payslip","watermark":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown top-level field, got %d", rec.Code)
	}
}

func TestGenerateEndpointRejectsGet(t *testing.T) {
	h := newAPIHarness(t)
	rec := doJSON(t, h.api.Handler(), http.MethodGet, "/v1/payroll/documents", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Fatalf("unexpected Allow header: %q", allow)
	}
}

func TestBulkEndpoint(t *testing.T) {
	h := newAPIHarness(t)
	for i := 0; i < 3; i++ {
		h.seed(fmt.Sprintf("pay-%d", i), fmt.Sprintf("staff-%d", i), fmt.Sprintf("90010%d-14-5678", i))
	}

	rec := doJSON(t, h.api.Handler(), http.MethodPost, "/v1/payroll/documents/bulk",
		`{"document_type":"payslip","payroll_ids":["pay-0","pay-1","pay-2","pay-missing"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res docs.BulkResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(res.Generated) != 3 || len(res.Failed) != 1 {
		t.Fatalf("expected 3 generated / 1 failed, got %d/%d", len(res.Generated), len(res.Failed))
	}
	if res.Failed[0].PayrollID != "pay-missing" {
		t.Fatalf("unexpected failed id: %s", res.Failed[0].PayrollID)
	}
}

func TestBulkEndpointAllFailedStaysOK(t *testing.T) {
	h := newAPIHarness(t)

	rec := doJSON(t, h.api.Handler(), http.MethodPost, "/v1/payroll/documents/bulk",
		`{"document_type":"payslip","payroll_ids":["gone-1","gone-2"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with settled result, got %d: %s", rec.Code, rec.Body.String())
	}

	var res docs.BulkResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(res.Generated) != 0 || len(res.Failed) != 2 {
		t.Fatalf("expected 0 generated / 2 failed, got %d/%d", len(res.Generated), len(res.Failed))
	}
	for _, f := range res.Failed {
		if f.Err == "" {
			t.Fatalf("failure without error detail: %+v", f)
		}
	}
}

func TestBulkEndpointByPeriod(t *testing.T) {
	h := newAPIHarness(t)
	h.seed("pay-1", "staff-1", "900101-14-5678")

	rec := doJSON(t, h.api.Handler(), http.MethodPost, "/v1/payroll/documents/bulk",
		`{"document_type":"payslip","month":3,"year":2026}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h.api.Handler(), http.MethodPost, "/v1/payroll/documents/bulk",
		`{"document_type":"payslip","month":1,"year":2020}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for empty period, got %d", rec.Code)
	}
}

func TestListDocumentsEndpoint(t *testing.T) {
	h := newAPIHarness(t)
	h.seed("pay-1", "staff-1", "900101-14-5678")
	handler := h.api.Handler()

	doJSON(t, handler, http.MethodPost, "/v1/payroll/documents",
		`{"payroll_id":"pay-1","document_type":"payslip"}`)
	doJSON(t, handler, http.MethodPost, "/v1/payroll/documents",
		`{"payroll_id":"pay-1","document_type":"salary_certificate"}`)

	rec := doJSON(t, handler, http.MethodGet, "/v1/payroll/pay-1/documents", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res listDocumentsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 current artifacts, got %d", len(res.Items))
	}
	for _, item := range res.Items {
		if !item.IsCurrent {
			t.Fatalf("non-current artifact in listing: %+v", item)
		}
	}
}

func TestDocumentURLEndpoint(t *testing.T) {
	h := newAPIHarness(t)
	h.seed("pay-1", "staff-1", "900101-14-5678")
	handler := h.api.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/v1/payroll/documents",
		`{"payroll_id":"pay-1","document_type":"payslip"}`)
	var created docs.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	rec = doJSON(t, handler, http.MethodGet, "/v1/documents/"+created.DocumentID+"/url", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res urlResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if res.URL == "" {
		t.Fatal("missing url")
	}

	rec = doJSON(t, handler, http.MethodGet, "/v1/documents/missing/url", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown document, got %d", rec.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	h := newAPIHarness(t)
	h.seed("pay-1", "staff-1", "900101-14-5678")

	rec := doJSON(t, h.api.Handler(), http.MethodGet, "/v1/payroll/export?month=3&year=2026", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type: %s", ct)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty workbook body")
	}

	rec = doJSON(t, h.api.Handler(), http.MethodGet, "/v1/payroll/export?month=13&year=2026", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad month, got %d", rec.Code)
	}
}
