package payroll

import (
	"context"
	"errors"
	"fmt"

	"nadi.org/internal/obs"
)

// Aggregator joins a payroll record with its staff, job and pay-info rows
// and normalizes the result into a CompletePayrollData.
type Aggregator struct {
	src Source
}

// NewAggregator wires an aggregator to a data source.
func NewAggregator(src Source) *Aggregator {
	return &Aggregator{src: src}
}

// Aggregate fetches and normalizes everything needed to render documents
// for one payroll record.
//
// Failure modes: ErrRecordNotFound when the payroll id is unknown and
// ErrDependencyNotFound when the staff profile is gone or no job assignment
// is active. A missing pay-info row is tolerated and yields blank statutory
// fields. Malformed embedded payloads degrade to empty structures and are
// logged; aggregation still succeeds.
func (a *Aggregator) Aggregate(ctx context.Context, payrollID string) (CompletePayrollData, error) {
	row, err := a.src.PayrollRecordByID(ctx, payrollID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return CompletePayrollData{}, fmt.Errorf("payroll record %s: %w", payrollID, ErrRecordNotFound)
		}
		return CompletePayrollData{}, fmt.Errorf("fetch payroll record %s: %w", payrollID, err)
	}

	staff, err := a.src.StaffProfileByID(ctx, row.StaffID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return CompletePayrollData{}, fmt.Errorf("staff profile %s: %w", row.StaffID, ErrDependencyNotFound)
		}
		return CompletePayrollData{}, fmt.Errorf("fetch staff profile %s: %w", row.StaffID, err)
	}

	job, err := a.src.ActiveJobByStaffID(ctx, row.StaffID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return CompletePayrollData{}, fmt.Errorf("active job for staff %s: %w", row.StaffID, ErrDependencyNotFound)
		}
		return CompletePayrollData{}, fmt.Errorf("fetch active job for staff %s: %w", row.StaffID, err)
	}

	payInfo, ok, err := a.src.PayInfoByStaffID(ctx, row.StaffID)
	if err != nil {
		return CompletePayrollData{}, fmt.Errorf("fetch pay info for staff %s: %w", row.StaffID, err)
	}
	if !ok {
		payInfo = StaffPayInfo{}
	}

	return CompletePayrollData{
		Record:  Normalize(row),
		Staff:   staff,
		Job:     job,
		PayInfo: payInfo,
	}, nil
}

// Normalize turns a raw row into a fully-populated record. Totals follow
// the precedence: explicitly stored value, then derivation from parts,
// then zero.
func Normalize(row PayrollRow) PayrollRecord {
	earnings, err := ParseEarnings(row.EarningsJSON)
	if err != nil {
		logDegradation(row.ID, "earnings", err)
		earnings = Earnings{}
	}
	// Flat columns back-fill anything the payload omitted.
	if earnings.BasicPay == 0 {
		earnings.BasicPay = row.BasicPay
	}
	if earnings.Allowance == 0 {
		earnings.Allowance = row.Allowance
	}
	if earnings.Overtime == 0 {
		earnings.Overtime = row.Overtime
	}

	employer, err := ParseDeductions(row.EmployerDeductionsJSON, DeductionEmployer)
	if err != nil {
		logDegradation(row.ID, "employer_deductions", err)
		employer = nil
	}
	employee, err := ParseDeductions(row.EmployeeDeductionsJSON, DeductionEmployee)
	if err != nil {
		logDegradation(row.ID, "employee_deductions", err)
		employee = nil
	}

	if row.GrossPay.Valid {
		earnings.GrossPay = row.GrossPay.Amount
	} else if earnings.GrossPay == 0 {
		earnings.GrossPay = earnings.BasicPay + earnings.Allowance + earnings.Overtime +
			earnings.CustomTotal() + earnings.IncentiveAmount()
	}

	employerTotal := row.EmployerDeductionTotal.Amount
	if !row.EmployerDeductionTotal.Valid {
		employerTotal = SumDeductions(employer)
	}
	employeeTotal := row.EmployeeDeductionTotal.Amount
	if !row.EmployeeDeductionTotal.Valid {
		employeeTotal = SumDeductions(employee)
	}

	netPay := row.NetPay.Amount
	if !row.NetPay.Valid {
		netPay = earnings.GrossPay - employeeTotal
	}

	status := row.Status
	if status == "" {
		status = StatusDraft
	}

	return PayrollRecord{
		ID:                      row.ID,
		StaffID:                 row.StaffID,
		StaffJobID:              row.StaffJobID,
		OrganizationID:          row.OrganizationID,
		Month:                   row.Month,
		Year:                    row.Year,
		PayDate:                 row.PayDate,
		Earnings:                earnings,
		EmployerDeductions:      employer,
		EmployeeDeductions:      employee,
		TotalEmployerDeductions: employerTotal,
		TotalEmployeeDeductions: employeeTotal,
		NetPay:                  netPay,
		Status:                  status,
		CreatedBy:               row.CreatedBy,
		CreatedAt:               row.CreatedAt,
		ApprovedBy:              row.ApprovedBy,
		ApprovedAt:              row.ApprovedAt,
	}
}

func logDegradation(recordID, field string, err error) {
	obs.Log(map[string]any{
		"level":      "warn",
		"msg":        "payroll_field_degraded",
		"payroll_id": recordID,
		"field":      field,
		"error":      err.Error(),
	})
}
