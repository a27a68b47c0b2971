package payroll

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Amount is a monetary value in minor units (sen). No floats.
type Amount int64

// AmountFromRM converts a ringgit value (as found in embedded JSON payloads)
// to minor units, rounding half away from zero.
func AmountFromRM(v float64) Amount {
	return Amount(math.Round(v * 100))
}

// RM renders the amount as a ringgit string with two decimal places.
func (a Amount) RM() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// NullAmount mirrors sql.NullInt64 for monetary columns that may be absent.
// Valid marks a value the source explicitly stored; an invalid amount means
// the column was NULL and the total must be derived.
type NullAmount struct {
	Amount Amount
	Valid  bool
}

// Status is the payroll record lifecycle state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
	StatusPaid     Status = "paid"
)

// DeductionKind tags which side of the payroll a deduction belongs to.
// Employer deductions never reduce net pay.
type DeductionKind string

const (
	DeductionEmployee DeductionKind = "employee"
	DeductionEmployer DeductionKind = "employer"
)

// Deduction is a single statutory or voluntary deduction line.
type Deduction struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Amount    Amount        `json:"amount"`
	Kind      DeductionKind `json:"type"`
	Mandatory bool          `json:"mandatory"`
}

// CustomEarning is a free-form earning line added on top of the fixed ones.
type CustomEarning struct {
	Name   string `json:"name"`
	Amount Amount `json:"amount"`
}

// Incentive is an optional performance incentive; the amount only counts
// toward gross pay when enabled.
type Incentive struct {
	Enabled bool   `json:"enabled"`
	Amount  Amount `json:"amount"`
}

// Earnings is the normalized earnings breakdown of one pay period.
type Earnings struct {
	BasicPay       Amount          `json:"basic_pay"`
	Allowance      Amount          `json:"allowance"`
	Overtime       Amount          `json:"overtime"`
	CustomEarnings []CustomEarning `json:"custom_earnings,omitempty"`
	Incentive      Incentive       `json:"performance_incentive"`
	GrossPay       Amount          `json:"gross_pay"`
}

// CustomTotal sums the custom earning lines.
func (e Earnings) CustomTotal() Amount {
	var total Amount
	for _, c := range e.CustomEarnings {
		total += c.Amount
	}
	return total
}

// IncentiveAmount returns the incentive contribution to gross pay.
func (e Earnings) IncentiveAmount() Amount {
	if !e.Incentive.Enabled {
		return 0
	}
	return e.Incentive.Amount
}

// PayrollRow is the raw record shape produced by a Source. Stored totals are
// nullable: the aggregator prefers an explicitly stored value over its own
// derivation.
type PayrollRow struct {
	ID             string
	StaffID        string
	StaffJobID     string
	OrganizationID string

	Month   int
	Year    int
	PayDate time.Time

	BasicPay  Amount
	Allowance Amount
	Overtime  Amount

	// Embedded structured fields, possibly absent or malformed.
	EarningsJSON           []byte
	EmployerDeductionsJSON []byte
	EmployeeDeductionsJSON []byte

	GrossPay               NullAmount
	EmployerDeductionTotal NullAmount
	EmployeeDeductionTotal NullAmount
	NetPay                 NullAmount

	Status     Status
	CreatedBy  string
	CreatedAt  time.Time
	ApprovedBy string
	ApprovedAt *time.Time
}

// PayrollRecord is the normalized pay-period record the renderer consumes.
// All totals are populated, either from stored values or derived.
type PayrollRecord struct {
	ID             string
	StaffID        string
	StaffJobID     string
	OrganizationID string

	Month   int
	Year    int
	PayDate time.Time

	Earnings           Earnings
	EmployerDeductions []Deduction
	EmployeeDeductions []Deduction

	TotalEmployerDeductions Amount
	TotalEmployeeDeductions Amount
	NetPay                  Amount

	Status     Status
	CreatedBy  string
	CreatedAt  time.Time
	ApprovedBy string
	ApprovedAt *time.Time
}

// StaffProfile is the identity slice used in rendered documents.
type StaffProfile struct {
	ID       string
	FullName string
	ICNo     string
	UserID   string
}

// StaffJob is the active position and site assignment at generation time.
type StaffJob struct {
	ID               string
	StaffID          string
	SiteID           string
	Position         string
	SiteName         string
	OrganizationID   string
	OrganizationName string
	Active           bool
}

// StaffPayInfo carries statutory and bank identifiers. The whole record is
// optional; a zero value renders as blank fields.
type StaffPayInfo struct {
	EPFNo         string
	SOCSONo       string
	TaxNo         string
	BankAccountNo string
	BankName      string
}

// CompletePayrollData is everything document rendering needs for one record.
type CompletePayrollData struct {
	Record  PayrollRecord
	Staff   StaffProfile
	Job     StaffJob
	PayInfo StaffPayInfo
}

var (
	// ErrNotFound is returned by Source implementations for any absent row.
	ErrNotFound = errors.New("payroll: not found")
	// ErrRecordNotFound means the requested payroll record does not exist.
	ErrRecordNotFound = errors.New("payroll: record not found")
	// ErrDependencyNotFound means a record exists but a required related row
	// (staff profile, active job) is missing. This is a data-integrity error.
	ErrDependencyNotFound = errors.New("payroll: dependency not found")
)

// MonthName returns the English month label used on rendered documents.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return fmt.Sprintf("month %d", m)
	}
	return time.Month(m).String()
}

// PeriodLabel formats the pay period, e.g. "March 2026".
func (r PayrollRecord) PeriodLabel() string {
	return fmt.Sprintf("%s %d", MonthName(r.Month), r.Year)
}
