package render

import (
	"fmt"

	"nadi.org/internal/payroll"
)

func (r *Renderer) payslip(data payroll.CompletePayrollData) ([]byte, error) {
	pdf, now := r.newDoc()
	rec := data.Record

	heading(pdf, "PAYSLIP")

	pdf.Text(20, 50, "Employee Name: "+data.Staff.FullName)
	pdf.Text(20, 60, "IC Number: "+data.Staff.ICNo)
	pdf.Text(20, 70, "Position: "+data.Job.Position)
	pdf.Text(20, 80, "Organization: "+data.Job.OrganizationName)
	pdf.Text(20, 90, "Site: "+data.Job.SiteName)

	pdf.Text(120, 50, fmt.Sprintf("Pay Period: %d/%d", rec.Month, rec.Year))
	pdf.Text(120, 60, "Pay Date: "+rec.PayDate.Format("02/01/2006"))
	pdf.Text(120, 70, "EPF No: "+orDash(data.PayInfo.EPFNo))
	pdf.Text(120, 80, "SOCSO No: "+orDash(data.PayInfo.SOCSONo))
	pdf.Text(120, 90, "Bank: "+orDash(data.PayInfo.BankName)+" "+orDash(data.PayInfo.BankAccountNo))

	y := 110.0
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(20, y, "EARNINGS")
	pdf.SetFont("Helvetica", "", 12)
	y += 10

	line := func(label string, a payroll.Amount) {
		pdf.Text(20, y, label)
		pdf.Text(120, y, rm(a))
		y += 10
	}

	line("Basic Pay:", rec.Earnings.BasicPay)
	if rec.Earnings.Allowance > 0 {
		line("Allowance:", rec.Earnings.Allowance)
	}
	if rec.Earnings.Overtime > 0 {
		line("Overtime:", rec.Earnings.Overtime)
	}
	for _, c := range rec.Earnings.CustomEarnings {
		line(c.Name+":", c.Amount)
	}
	if rec.Earnings.Incentive.Enabled && rec.Earnings.Incentive.Amount > 0 {
		line("Performance Incentive:", rec.Earnings.Incentive.Amount)
	}
	line("Gross Pay:", rec.Earnings.GrossPay)
	y += 10

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(20, y, "DEDUCTIONS")
	pdf.SetFont("Helvetica", "", 12)
	y += 10

	for _, d := range rec.EmployeeDeductions {
		line(d.Name+":", d.Amount)
	}
	line("Total Deductions:", rec.TotalEmployeeDeductions)
	y += 10

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(20, y, "NET PAY:")
	pdf.Text(120, y, rm(rec.NetPay))

	footer(pdf, y+30, now)
	return output(pdf)
}
