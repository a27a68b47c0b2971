// Package export builds spreadsheet exports of payroll records for HR
// download.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"nadi.org/internal/payroll"
)

// Row is one exported payroll line, already joined with staff data.
type Row struct {
	StaffName  string
	ICNo       string
	Position   string
	SiteName   string
	Month      int
	Year       int
	GrossPay   payroll.Amount
	Deductions payroll.Amount
	NetPay     payroll.Amount
	Incentive  payroll.Amount
	Status     payroll.Status
}

// RowFromData flattens aggregated payroll data into an export line.
func RowFromData(d payroll.CompletePayrollData) Row {
	return Row{
		StaffName:  d.Staff.FullName,
		ICNo:       d.Staff.ICNo,
		Position:   d.Job.Position,
		SiteName:   d.Job.SiteName,
		Month:      d.Record.Month,
		Year:       d.Record.Year,
		GrossPay:   d.Record.Earnings.GrossPay,
		Deductions: d.Record.TotalEmployeeDeductions,
		NetPay:     d.Record.NetPay,
		Incentive:  d.Record.Earnings.IncentiveAmount(),
		Status:     d.Record.Status,
	}
}

const sheetName = "Payroll"

var headers = []string{
	"Staff Name", "IC Number", "Position", "Site",
	"Pay Period", "Gross Pay (RM)", "Deductions (RM)", "Net Pay (RM)",
	"Incentive (RM)", "Status",
}

// Workbook renders the rows into an xlsx workbook, one line per payroll
// record with a styled header row.
func Workbook(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for i, r := range rows {
		values := []any{
			r.StaffName,
			r.ICNo,
			r.Position,
			r.SiteName,
			fmt.Sprintf("%d/%d", r.Month, r.Year),
			r.GrossPay.RM(),
			r.Deductions.RM(),
			r.NetPay.RM(),
			r.Incentive.RM(),
			string(r.Status),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 28); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "B", "J", 16); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
