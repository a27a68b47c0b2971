package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nadi.org/internal/artifact"
	"nadi.org/internal/audit"
	"nadi.org/internal/docs"
	"nadi.org/internal/export"
	"nadi.org/internal/payroll"
	"nadi.org/internal/render"
)

type generateRequest struct {
	PayrollID    string              `json:"payroll_id"`
	DocumentType render.DocumentType `json:"document_type"`
	// Captured raw: template options are an open bag whose unrecognized
	// keys are ignored, so the strict top-level decode must not descend
	// into them.
	Options json.RawMessage `json:"template_options"`
}

func (req generateRequest) renderOptions() (render.Options, error) {
	var opts render.Options
	if len(req.Options) == 0 {
		return opts, nil
	}
	if err := json.Unmarshal(req.Options, &opts); err != nil {
		return opts, fmt.Errorf("template_options: %w", err)
	}
	return opts, nil
}

type bulkRequest struct {
	DocumentType render.DocumentType `json:"document_type"`
	PayrollIDs   []string            `json:"payroll_ids"`
	Month        int                 `json:"month"`
	Year         int                 `json:"year"`
}

type listDocumentsResponse struct {
	Items []artifact.Artifact `json:"items"`
	AsOf  time.Time           `json:"as_of"`
}

type urlResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

const maxBulkIDs = 500

func (a *API) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.PayrollID) == "" {
		writeError(w, r, http.StatusBadRequest, "payroll_id is required")
		return
	}
	if !req.DocumentType.Valid() {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unsupported document type %q", req.DocumentType))
		return
	}
	opts, err := req.renderOptions()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := a.docs.Generate(r.Context(), docs.Request{
		PayrollID: strings.TrimSpace(req.PayrollID),
		Type:      req.DocumentType,
		Options:   opts,
	})
	if err != nil {
		handleDocsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (a *API) handleGenerateBulk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req bulkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !req.DocumentType.Valid() {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unsupported document type %q", req.DocumentType))
		return
	}

	ids := make([]string, 0, len(req.PayrollIDs))
	for _, id := range req.PayrollIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		if req.Month == 0 || req.Year == 0 {
			writeError(w, r, http.StatusBadRequest, "payroll_ids or month and year are required")
			return
		}
		if a.records == nil {
			writeError(w, r, http.StatusBadRequest, "period-based selection is not available")
			return
		}
		var err error
		ids, err = a.records.ListRecordIDs(r.Context(), req.Month, req.Year)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		if len(ids) == 0 {
			writeError(w, r, http.StatusNotFound, fmt.Sprintf("no payroll records for %d/%d", req.Month, req.Year))
			return
		}
	}
	if len(ids) > maxBulkIDs {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("at most %d payroll ids per call", maxBulkIDs))
		return
	}

	// Always 200 with the settled result: the per-id error list is the
	// signal, and an all-failed run can as easily mean bad ids as a
	// storage outage.
	res := a.docs.GenerateMany(r.Context(), req.DocumentType, ids)
	writeJSON(w, http.StatusOK, res)
}

// handlePayrollResource serves /v1/payroll/{payrollID}/documents.
func (a *API) handlePayrollResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/payroll/")
	id, rest, ok := strings.Cut(path, "/")
	if !ok || id == "" || rest != "documents" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	items, err := a.artifacts.ListCurrent(r.Context(), id)
	if err != nil {
		handleDocsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listDocumentsResponse{
		Items: items,
		AsOf:  time.Now().UTC(),
	})
}

// handleDocumentResource serves /v1/documents/{documentID}/url.
func (a *API) handleDocumentResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	id, rest, ok := strings.Cut(path, "/")
	if !ok || id == "" || rest != "url" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	url, err := a.artifacts.DownloadURL(r.Context(), id)
	if err != nil {
		handleDocsError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "documents.url.issued", map[string]any{
		"document_id": id,
	})
	writeJSON(w, http.StatusOK, urlResponse{
		URL:       url,
		ExpiresAt: time.Now().UTC().Add(artifact.DownloadTTL),
	})
}

// handleExport serves GET /v1/payroll/export?month=&year= as an xlsx
// download.
func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if a.records == nil {
		writeError(w, r, http.StatusServiceUnavailable, "export is not available")
		return
	}

	month, err := parseIntParam(r.URL.Query().Get("month"), 1, 12)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}
	year, err := parseIntParam(r.URL.Query().Get("year"), 2000, 2100)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "year must be a four-digit year")
		return
	}

	ids, err := a.records.ListRecordIDs(r.Context(), month, year)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if len(ids) == 0 {
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("no payroll records for %d/%d", month, year))
		return
	}

	rows := make([]export.Row, 0, len(ids))
	for _, id := range ids {
		data, err := a.agg.Aggregate(r.Context(), id)
		if err != nil {
			// A broken record must not block the rest of the export.
			continue
		}
		rows = append(rows, export.RowFromData(data))
	}

	book, err := export.Workbook(rows)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "export failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "payroll.export", map[string]any{
		"month": month,
		"year":  year,
		"rows":  len(rows),
	})

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="payroll_%d_%d.xlsx"`, month, year))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(book)
}

func parseIntParam(raw string, min, max int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if v < min || v > max {
		return 0, fmt.Errorf("value %d out of range", v)
	}
	return v, nil
}

func handleDocsError(w http.ResponseWriter, r *http.Request, err error) {
	var se *artifact.StorageError
	switch {
	case errors.Is(err, payroll.ErrRecordNotFound),
		errors.Is(err, payroll.ErrDependencyNotFound),
		errors.Is(err, artifact.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, render.ErrUnsupportedType):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &se):
		writeError(w, r, http.StatusBadGateway, "document storage unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
