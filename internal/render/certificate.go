package render

import (
	"fmt"

	"nadi.org/internal/payroll"
)

func (r *Renderer) salaryCertificate(data payroll.CompletePayrollData) ([]byte, error) {
	pdf, now := r.newDoc()
	rec := data.Record

	heading(pdf, "SALARY CERTIFICATE")

	pdf.Text(120, 50, "Date: "+now.Format("02/01/2006"))

	y := 80.0
	pdf.Text(20, y, "TO WHOM IT MAY CONCERN:")
	y += 20

	pdf.Text(20, y, fmt.Sprintf("This is to certify that %s (IC: %s)", data.Staff.FullName, data.Staff.ICNo))
	y += 10
	pdf.Text(20, y, fmt.Sprintf("is employed with %s as a %s.", data.Job.OrganizationName, data.Job.Position))
	y += 20

	pdf.Text(20, y, "Current monthly salary: "+rm(rec.Earnings.GrossPay))
	y += 10
	pdf.Text(20, y, "Net monthly salary: "+rm(rec.NetPay))
	y += 30

	pdf.Text(20, y, "This certificate is issued for official purposes.")
	y += 40

	pdf.Text(20, y, "Authorized Signature:")
	pdf.Text(20, y+20, "_____________________")
	pdf.Text(20, y+30, "HR Department")
	pdf.Text(20, y+40, letterhead)

	return output(pdf)
}
