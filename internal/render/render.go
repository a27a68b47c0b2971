package render

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"nadi.org/internal/payroll"
)

// DocumentType selects which template a generation request uses.
type DocumentType string

const (
	TypePayslip           DocumentType = "payslip"
	TypeSalaryCertificate DocumentType = "salary_certificate"
	TypeAnnualStatement   DocumentType = "annual_statement"
)

// ErrUnsupportedType is returned for any document type outside the three
// supported templates. Fatal and non-retryable for that request.
var ErrUnsupportedType = errors.New("render: unsupported document type")

// Valid reports whether t names a supported template.
func (t DocumentType) Valid() bool {
	switch t {
	case TypePayslip, TypeSalaryCertificate, TypeAnnualStatement:
		return true
	}
	return false
}

// Options is the free-form template configuration. Year is the only
// recognized key; it is consumed by the annual statement to label the
// output. Unrecognized inputs are ignored upstream.
type Options struct {
	Year int `json:"year,omitempty"`
}

const letterhead = "NADI E-SYSTEM"

// Renderer produces PDF bytes from aggregated payroll data. Monetary
// content is deterministic for identical inputs; the footer timestamp from
// Now is the only varying output.
type Renderer struct {
	Now func() time.Time
}

// New returns a renderer stamping footers with the wall clock.
func New() *Renderer {
	return &Renderer{Now: time.Now}
}

// Render produces the PDF for the requested type.
func (r *Renderer) Render(t DocumentType, data payroll.CompletePayrollData, opts Options) ([]byte, error) {
	switch t {
	case TypePayslip:
		return r.payslip(data)
	case TypeSalaryCertificate:
		return r.salaryCertificate(data)
	case TypeAnnualStatement:
		return r.annualStatement(data, opts)
	default:
		return nil, fmt.Errorf("%q: %w", t, ErrUnsupportedType)
	}
}

func (r *Renderer) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// newDoc creates an A4 portrait page with the creation date pinned to the
// renderer clock so identical inputs produce identical bytes under a fixed
// clock.
func (r *Renderer) newDoc() (*gofpdf.Fpdf, time.Time) {
	now := r.now()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(now)
	pdf.AddPage()
	return pdf, now
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func heading(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(20, 20, letterhead)
	pdf.Text(20, 30, title)
	pdf.SetFont("Helvetica", "", 12)
}

func rm(a payroll.Amount) string {
	return "RM " + a.RM()
}

// orDash substitutes a dash for blank optional fields, matching how missing
// pay-info renders.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func footer(pdf *gofpdf.Fpdf, y float64, generatedAt time.Time, extra ...string) {
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range extra {
		pdf.Text(20, y, line)
		y += 5
	}
	pdf.Text(20, y, "Generated on: "+generatedAt.Format("02/01/2006"))
	pdf.Text(20, y+5, "This is a computer-generated document.")
}
