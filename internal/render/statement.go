package render

import (
	"fmt"

	"nadi.org/internal/payroll"
)

// annualStatement covers a single pay period. A true annual roll-up needs
// every record of the year aggregated; the statement says so in its footer.
func (r *Renderer) annualStatement(data payroll.CompletePayrollData, opts Options) ([]byte, error) {
	pdf, now := r.newDoc()
	rec := data.Record

	heading(pdf, "ANNUAL SALARY STATEMENT")

	year := opts.Year
	if year == 0 {
		year = rec.Year
	}

	pdf.Text(20, 50, "Employee Name: "+data.Staff.FullName)
	pdf.Text(20, 60, "IC Number: "+data.Staff.ICNo)
	pdf.Text(20, 70, "Position: "+data.Job.Position)
	pdf.Text(20, 80, fmt.Sprintf("Year: %d", year))

	y := 100.0
	pdf.Text(20, y, "SUMMARY:")
	y += 20

	line := func(label string, a payroll.Amount) {
		pdf.Text(20, y, label)
		pdf.Text(120, y, rm(a))
		y += 10
	}

	line("Total Gross Pay (Current Month):", rec.Earnings.GrossPay)
	line("Total Deductions (Current Month):", rec.TotalEmployeeDeductions)
	line("Total Net Pay (Current Month):", rec.NetPay)

	footer(pdf, y+30, now,
		"Note: This statement shows data for current month only.",
		"For complete annual summary, contact HR department.")
	return output(pdf)
}
