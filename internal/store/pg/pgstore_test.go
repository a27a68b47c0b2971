package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"nadi.org/internal/artifact"
	"nadi.org/internal/payroll"
	"nadi.org/internal/render"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func TestPayrollRecordByID(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	payDate := time.Date(2026, time.March, 28, 0, 0, 0, 0, time.UTC)

	cols := []string{
		"id", "staff_id", "staff_job_id", "organization_id",
		"month", "year", "pay_date",
		"basic_pay", "allowance", "overtime",
		"earnings", "employer_deductions", "employee_deductions",
		"gross_pay", "total_employer_deductions", "total_employee_deductions", "net_pay",
		"status", "created_by", "created_at", "approved_by", "approved_at",
	}
	mock.ExpectQuery("from payroll_records").
		WithArgs("pay-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"pay-1", "staff-1", "job-1", "org-1",
			3, 2026, payDate,
			int64(250000), int64(20000), int64(0),
			[]byte(`{"basicPay":2500}`), nil, []byte(`[]`),
			nil, nil, nil, nil,
			"draft", "user-1", created, nil, nil,
		))

	row, err := s.PayrollRecordByID(context.Background(), "pay-1")
	if err != nil {
		t.Fatalf("PayrollRecordByID failed: %v", err)
	}
	if row.StaffID != "staff-1" || row.Month != 3 || row.Year != 2026 {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.GrossPay.Valid {
		t.Fatal("null gross_pay should scan as invalid")
	}
	if row.ApprovedAt != nil {
		t.Fatal("null approved_at should stay nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPayrollRecordByIDNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("from payroll_records").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.PayrollRecordByID(context.Background(), "missing")
	if !errors.Is(err, payroll.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActiveJobByStaffID(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("from staff_jobs").
		WithArgs("staff-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "staff_id", "site_id", "position", "name", "organization_id", "name", "is_active",
		}).AddRow("job-1", "staff-1", "site-1", "Site Manager", "NADI Kg Baru", "org-1", "Harmoni Tech", true))

	j, err := s.ActiveJobByStaffID(context.Background(), "staff-1")
	if err != nil {
		t.Fatalf("ActiveJobByStaffID failed: %v", err)
	}
	if j.SiteName != "NADI Kg Baru" || j.OrganizationName != "Harmoni Tech" || !j.Active {
		t.Fatalf("unexpected job: %+v", j)
	}
}

func TestPayInfoByStaffIDAbsent(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("from staff_pay_info").
		WithArgs("staff-1").
		WillReturnRows(sqlmock.NewRows([]string{"epf_no"}))

	_, ok, err := s.PayInfoByStaffID(context.Background(), "staff-1")
	if err != nil {
		t.Fatalf("PayInfoByStaffID failed: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing pay info")
	}
}

func TestInsertCurrentSupersedesInOneTx(t *testing.T) {
	s, mock := newMockStore(t)
	a := artifact.Artifact{
		ID:           "art-2",
		PayrollID:    "pay-1",
		DocumentType: render.TypePayslip,
		FilePath:     "payroll/payslip/payslip_900101-14-5678_3_2026.pdf",
		FileSize:     1234,
		IsCurrent:    true,
		GeneratedBy:  "user-42",
		GeneratedAt:  time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectBegin()
	mock.ExpectExec("update payroll_documents").
		WithArgs(a.PayrollID, string(a.DocumentType)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into payroll_documents").
		WithArgs(a.ID, a.PayrollID, string(a.DocumentType), a.FilePath, a.FileSize, a.GeneratedBy, a.GeneratedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := s.InsertCurrent(context.Background(), a); err != nil {
		t.Fatalf("InsertCurrent failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInsertCurrentRollsBackOnInsertFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("update payroll_documents").
		WithArgs("pay-1", "payslip").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into payroll_documents").
		WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	err := s.InsertCurrent(context.Background(), artifact.Artifact{
		ID: "art-1", PayrollID: "pay-1", DocumentType: render.TypePayslip,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestByIDNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("from payroll_documents").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.ByID(context.Background(), "missing")
	if !errors.Is(err, artifact.ErrNotFound) {
		t.Fatalf("expected artifact.ErrNotFound, got %v", err)
	}
}

func TestListCurrent(t *testing.T) {
	s, mock := newMockStore(t)
	newer := time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	mock.ExpectQuery("from payroll_documents").
		WithArgs("pay-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "payroll_id", "document_type", "file_path", "file_size", "is_current", "generated_by", "generated_at",
		}).
			AddRow("art-2", "pay-1", "payslip", "payroll/payslip/b.pdf", int64(2000), true, "user-42", newer).
			AddRow("art-1", "pay-1", "salary_certificate", "payroll/salary_certificate/a.pdf", int64(1000), true, "user-42", older))

	out, err := s.ListCurrent(context.Background(), "pay-1")
	if err != nil {
		t.Fatalf("ListCurrent failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(out))
	}
	if out[0].ID != "art-2" || out[0].DocumentType != render.TypePayslip {
		t.Fatalf("unexpected first artifact: %+v", out[0])
	}
}
