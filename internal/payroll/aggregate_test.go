package payroll

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fixtureSource() *InMemorySource {
	src := NewInMemorySource()
	src.AddStaff(StaffProfile{ID: "staff-1", FullName: "Aina Rahim", ICNo: "880101-10-5566", UserID: "user-1"})
	src.AddJob(StaffJob{
		ID: "job-1", StaffID: "staff-1", SiteID: "site-1",
		Position: "Site Manager", SiteName: "NADI Kg Baru",
		OrganizationID: "org-1", OrganizationName: "Harmoni Tech",
		Active: true,
	})
	src.AddPayInfo("staff-1", StaffPayInfo{
		EPFNo: "E1234567", SOCSONo: "S7654321", TaxNo: "SG1122334",
		BankAccountNo: "1234567890", BankName: "Maybank",
	})
	src.AddRecord(PayrollRow{
		ID: "pay-1", StaffID: "staff-1", StaffJobID: "job-1", OrganizationID: "org-1",
		Month: 3, Year: 2026, PayDate: time.Date(2026, 3, 28, 0, 0, 0, 0, time.UTC),
		BasicPay: 250000, Allowance: 20000, Overtime: 0,
		EmployeeDeductionsJSON: []byte(`[{"id":"epf_employee","name":"EPF","amount":275,"type":"employee","mandatory":true}]`),
		Status:                 StatusApproved,
		CreatedBy:              "user-9",
		CreatedAt:              time.Date(2026, 3, 25, 8, 0, 0, 0, time.UTC),
	})
	return src
}

func TestAggregateDerivesTotals(t *testing.T) {
	agg := NewAggregator(fixtureSource())

	data, err := agg.Aggregate(context.Background(), "pay-1")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	rec := data.Record
	if got, want := rec.Earnings.GrossPay, Amount(270000); got != want {
		t.Fatalf("gross pay = %d, want %d", got, want)
	}
	if got, want := rec.TotalEmployeeDeductions, Amount(27500); got != want {
		t.Fatalf("employee deductions = %d, want %d", got, want)
	}
	if got, want := rec.NetPay, Amount(242500); got != want {
		t.Fatalf("net pay = %d, want %d", got, want)
	}
	if rec.NetPay != rec.Earnings.GrossPay-rec.TotalEmployeeDeductions {
		t.Fatalf("net pay invariant violated: %d != %d - %d",
			rec.NetPay, rec.Earnings.GrossPay, rec.TotalEmployeeDeductions)
	}
	if data.Staff.FullName != "Aina Rahim" {
		t.Fatalf("unexpected staff name: %s", data.Staff.FullName)
	}
	if data.Job.Position != "Site Manager" {
		t.Fatalf("unexpected position: %s", data.Job.Position)
	}
	if data.PayInfo.BankName != "Maybank" {
		t.Fatalf("unexpected bank: %s", data.PayInfo.BankName)
	}
}

func TestAggregateUnknownRecord(t *testing.T) {
	agg := NewAggregator(fixtureSource())
	_, err := agg.Aggregate(context.Background(), "missing")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestAggregateMissingStaffProfile(t *testing.T) {
	src := fixtureSource()
	src.AddRecord(PayrollRow{ID: "pay-orphan", StaffID: "gone", Month: 1, Year: 2026})

	agg := NewAggregator(src)
	_, err := agg.Aggregate(context.Background(), "pay-orphan")
	if !errors.Is(err, ErrDependencyNotFound) {
		t.Fatalf("expected ErrDependencyNotFound, got %v", err)
	}
}

func TestAggregateInactiveJob(t *testing.T) {
	src := fixtureSource()
	src.AddJob(StaffJob{ID: "job-1", StaffID: "staff-1", Active: false})

	agg := NewAggregator(src)
	_, err := agg.Aggregate(context.Background(), "pay-1")
	if !errors.Is(err, ErrDependencyNotFound) {
		t.Fatalf("expected ErrDependencyNotFound, got %v", err)
	}
}

func TestAggregateMissingPayInfo(t *testing.T) {
	src := NewInMemorySource()
	src.AddStaff(StaffProfile{ID: "staff-2", FullName: "Lim Wei", ICNo: "900202-14-1122"})
	src.AddJob(StaffJob{ID: "job-2", StaffID: "staff-2", Position: "Assistant", Active: true})
	src.AddRecord(PayrollRow{ID: "pay-2", StaffID: "staff-2", Month: 4, Year: 2026, BasicPay: 180000})

	agg := NewAggregator(src)
	data, err := agg.Aggregate(context.Background(), "pay-2")
	if err != nil {
		t.Fatalf("Aggregate should tolerate missing pay info: %v", err)
	}
	if data.PayInfo != (StaffPayInfo{}) {
		t.Fatalf("expected zero pay info, got %+v", data.PayInfo)
	}
}

func TestNormalizeStoredTotalsWin(t *testing.T) {
	row := PayrollRow{
		ID: "pay-3", Month: 5, Year: 2026,
		BasicPay: 100000,
		EmployeeDeductionsJSON: []byte(`[{"name":"EPF","amount":110,"type":"employee"}]`),
		GrossPay:               NullAmount{Amount: 123400, Valid: true},
		EmployeeDeductionTotal: NullAmount{Amount: 9900, Valid: true},
		NetPay:                 NullAmount{Amount: 113500, Valid: true},
	}
	rec := Normalize(row)
	if rec.Earnings.GrossPay != 123400 {
		t.Fatalf("stored gross ignored: %d", rec.Earnings.GrossPay)
	}
	if rec.TotalEmployeeDeductions != 9900 {
		t.Fatalf("stored total ignored: %d", rec.TotalEmployeeDeductions)
	}
	if rec.NetPay != 113500 {
		t.Fatalf("stored net ignored: %d", rec.NetPay)
	}
}

func TestNormalizeMalformedPayloadDegrades(t *testing.T) {
	row := PayrollRow{
		ID: "pay-4", Month: 6, Year: 2026,
		BasicPay:               150000,
		EarningsJSON:           []byte(`{not json`),
		EmployeeDeductionsJSON: []byte(`also broken`),
	}
	rec := Normalize(row)
	if rec.Earnings.BasicPay != 150000 {
		t.Fatalf("column back-fill missing: %d", rec.Earnings.BasicPay)
	}
	if len(rec.EmployeeDeductions) != 0 {
		t.Fatalf("expected empty deductions, got %d", len(rec.EmployeeDeductions))
	}
	if rec.Earnings.GrossPay != 150000 {
		t.Fatalf("derived gross = %d, want 150000", rec.Earnings.GrossPay)
	}
	if rec.NetPay != 150000 {
		t.Fatalf("derived net = %d, want 150000", rec.NetPay)
	}
}

func TestNormalizeIncentiveAndCustomEarnings(t *testing.T) {
	row := PayrollRow{
		ID: "pay-5", Month: 7, Year: 2026,
		EarningsJSON: []byte(`{
			"basicPay": 2000, "allowance": 150.50, "overtime": 0,
			"customEarnings": [{"name":"On-call","amount":100}],
			"performanceIncentive": {"enabled": true, "amount": 250}
		}`),
	}
	rec := Normalize(row)
	want := Amount(200000 + 15050 + 10000 + 25000)
	if rec.Earnings.GrossPay != want {
		t.Fatalf("gross = %d, want %d", rec.Earnings.GrossPay, want)
	}

	// Disabled incentive contributes nothing.
	row.EarningsJSON = []byte(`{"basicPay": 2000, "performanceIncentive": {"enabled": false, "amount": 250}}`)
	rec = Normalize(row)
	if rec.Earnings.GrossPay != 200000 {
		t.Fatalf("gross with disabled incentive = %d, want 200000", rec.Earnings.GrossPay)
	}
}
