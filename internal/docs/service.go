// Package docs orchestrates the document pipeline: aggregate payroll data,
// render a PDF, version the stored artifact and fan events out to
// subscribers.
package docs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nadi.org/internal/artifact"
	"nadi.org/internal/audit"
	"nadi.org/internal/auth"
	"nadi.org/internal/obs"
	"nadi.org/internal/payroll"
	"nadi.org/internal/render"
	"nadi.org/internal/stream"
)

// Service runs the generation pipeline.
type Service struct {
	agg       *payroll.Aggregator
	renderer  *render.Renderer
	artifacts *artifact.Store
	events    *stream.Stream
}

// NewService wires the pipeline. events may be nil when no subscriber
// surface is running (the smoke binary).
func NewService(agg *payroll.Aggregator, renderer *render.Renderer, artifacts *artifact.Store, events *stream.Stream) *Service {
	return &Service{agg: agg, renderer: renderer, artifacts: artifacts, events: events}
}

// Request identifies one document to generate.
type Request struct {
	PayrollID string              `json:"payroll_id"`
	Type      render.DocumentType `json:"document_type"`
	Options   render.Options      `json:"template_options"`
}

// Result is the successful outcome of one generation.
type Result struct {
	DocumentID   string              `json:"document_id"`
	PayrollID    string              `json:"payroll_id"`
	DocumentType render.DocumentType `json:"document_type"`
	FilePath     string              `json:"file_path"`
	FileSize     int64               `json:"file_size"`
	DownloadURL  string              `json:"download_url"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

// Generate runs the full pipeline for one payroll record and document type.
// The stored artifact supersedes any previous current one for the same
// (payroll, type) pair.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	res, err := s.generate(ctx, req)
	status := "generated"
	if err != nil {
		status = "failed"
	}
	obs.ObserveGeneration(string(req.Type), status, time.Since(start))
	s.publish(req, res, err)
	if err != nil {
		return Result{}, err
	}

	_ = audit.LogEvent(ctx, "documents.generate", map[string]any{
		"payroll_id":    req.PayrollID,
		"document_type": req.Type,
		"document_id":   res.DocumentID,
		"file_size":     res.FileSize,
	})
	return res, nil
}

func (s *Service) generate(ctx context.Context, req Request) (Result, error) {
	if !req.Type.Valid() {
		return Result{}, fmt.Errorf("%q: %w", req.Type, render.ErrUnsupportedType)
	}

	data, err := s.agg.Aggregate(ctx, req.PayrollID)
	if err != nil {
		return Result{}, err
	}

	content, err := s.renderer.Render(req.Type, data, req.Options)
	if err != nil {
		return Result{}, err
	}

	userID, _ := auth.UserIDFromContext(ctx)
	a, err := s.artifacts.Put(ctx, artifact.PutRequest{
		PayrollID:    req.PayrollID,
		DocumentType: req.Type,
		Content:      content,
		ICNo:         data.Staff.ICNo,
		Month:        data.Record.Month,
		Year:         data.Record.Year,
		GeneratedBy:  userID,
	})
	if err != nil {
		return Result{}, err
	}

	url, err := s.artifacts.DownloadURL(ctx, a.ID)
	if err != nil {
		return Result{}, err
	}

	return Result{
		DocumentID:   a.ID,
		PayrollID:    a.PayrollID,
		DocumentType: a.DocumentType,
		FilePath:     a.FilePath,
		FileSize:     a.FileSize,
		DownloadURL:  url,
		GeneratedAt:  a.GeneratedAt,
	}, nil
}

func (s *Service) publish(req Request, res Result, err error) {
	if s.events == nil {
		return
	}
	evt := stream.DocumentEvent{
		PayrollID:    req.PayrollID,
		DocumentType: string(req.Type),
		Status:       "generated",
		Timestamp:    time.Now().UTC(),
	}
	if err != nil {
		evt.Status = "failed"
		evt.Error = err.Error()
	} else {
		evt.DocumentID = res.DocumentID
	}
	s.events.Publish(evt)
}

// GeneratePayslip is shorthand for the payslip pipeline.
func (s *Service) GeneratePayslip(ctx context.Context, payrollID string) (Result, error) {
	return s.Generate(ctx, Request{PayrollID: payrollID, Type: render.TypePayslip})
}

// GenerateSalaryCertificate is shorthand for the certificate pipeline.
func (s *Service) GenerateSalaryCertificate(ctx context.Context, payrollID string) (Result, error) {
	return s.Generate(ctx, Request{PayrollID: payrollID, Type: render.TypeSalaryCertificate})
}

// GenerateAnnualStatement is shorthand for the statement pipeline with a
// target year label.
func (s *Service) GenerateAnnualStatement(ctx context.Context, payrollID string, year int) (Result, error) {
	return s.Generate(ctx, Request{
		PayrollID: payrollID,
		Type:      render.TypeAnnualStatement,
		Options:   render.Options{Year: year},
	})
}

// Failure records one id that could not be processed in a bulk run.
type Failure struct {
	PayrollID string `json:"payroll_id"`
	Err       string `json:"error"`
}

/// BulkResult is the settled outcome of a bulk run: every id accounted for,
// either as a generated document or a per-id failure.
type BulkResult struct {
	Generated []Result  `json:"generated"`
	Failed    []Failure `json:"failed"`
}

// GenerateMany runs one independent pipeline invocation per id,
// concurrently. One failing id never aborts the rest; callers get both the
// successes and the per-id failures.
func (s *Service) GenerateMany(ctx context.Context, docType render.DocumentType, payrollIDs []string) BulkResult {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out BulkResult
	)

	for _, id := range payrollIDs {
		wg.Add(1)
		go func(payrollID string) {
			defer wg.Done()
			res, err := s.Generate(ctx, Request{PayrollID: payrollID, Type: docType})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Failed = append(out.Failed, Failure{PayrollID: payrollID, Err: err.Error()})
				return
			}
			out.Generated = append(out.Generated, res)
		}(id)
	}
	wg.Wait()

	_ = audit.LogEvent(ctx, "documents.generate_bulk", map[string]any{
		"document_type": docType,
		"requested":     len(payrollIDs),
		"generated":     len(out.Generated),
		"failed":        len(out.Failed),
	})
	return out
}

// BulkGeneratePayslips is the month-end entry point.
func (s *Service) BulkGeneratePayslips(ctx context.Context, payrollIDs []string) BulkResult {
	return s.GenerateMany(ctx, render.TypePayslip, payrollIDs)
}
