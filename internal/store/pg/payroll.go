package pg

import (
	"context"
	"database/sql"
	"errors"

	"nadi.org/internal/payroll"
)

func (s *Store) PayrollRecordByID(ctx context.Context, id string) (payroll.PayrollRow, error) {
	var (
		row        payroll.PayrollRow
		earnings   []byte
		employerD  []byte
		employeeD  []byte
		gross      sql.NullInt64
		employerT  sql.NullInt64
		employeeT  sql.NullInt64
		net        sql.NullInt64
		approvedBy sql.NullString
		approvedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		select id, staff_id, staff_job_id, organization_id,
		       month, year, pay_date,
		       basic_pay, allowance, overtime,
		       earnings, employer_deductions, employee_deductions,
		       gross_pay, total_employer_deductions, total_employee_deductions, net_pay,
		       status, created_by, created_at, approved_by, approved_at
		from payroll_records where id=$1
	`, id).Scan(
		&row.ID, &row.StaffID, &row.StaffJobID, &row.OrganizationID,
		&row.Month, &row.Year, &row.PayDate,
		&row.BasicPay, &row.Allowance, &row.Overtime,
		&earnings, &employerD, &employeeD,
		&gross, &employerT, &employeeT, &net,
		&row.Status, &row.CreatedBy, &row.CreatedAt, &approvedBy, &approvedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.PayrollRow{}, payroll.ErrNotFound
	}
	if err != nil {
		return payroll.PayrollRow{}, err
	}

	row.EarningsJSON = earnings
	row.EmployerDeductionsJSON = employerD
	row.EmployeeDeductionsJSON = employeeD
	row.GrossPay = nullAmount(gross)
	row.EmployerDeductionTotal = nullAmount(employerT)
	row.EmployeeDeductionTotal = nullAmount(employeeT)
	row.NetPay = nullAmount(net)
	if approvedBy.Valid {
		row.ApprovedBy = approvedBy.String
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		row.ApprovedAt = &t
	}
	return row, nil
}

func (s *Store) StaffProfileByID(ctx context.Context, id string) (payroll.StaffProfile, error) {
	var p payroll.StaffProfile
	err := s.db.QueryRowContext(ctx, `
		select id, full_name, ic_no, coalesce(user_id,'')
		from staff_profiles where id=$1
	`, id).Scan(&p.ID, &p.FullName, &p.ICNo, &p.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.StaffProfile{}, payroll.ErrNotFound
	}
	if err != nil {
		return payroll.StaffProfile{}, err
	}
	return p, nil
}

func (s *Store) ActiveJobByStaffID(ctx context.Context, staffID string) (payroll.StaffJob, error) {
	var j payroll.StaffJob
	err := s.db.QueryRowContext(ctx, `
		select j.id, j.staff_id, j.site_id, j.position,
		       s.name, s.organization_id, o.name, j.is_active
		from staff_jobs j
		join sites s on s.id = j.site_id
		join organizations o on o.id = s.organization_id
		where j.staff_id=$1 and j.is_active
		order by j.created_at desc
		limit 1
	`, staffID).Scan(
		&j.ID, &j.StaffID, &j.SiteID, &j.Position,
		&j.SiteName, &j.OrganizationID, &j.OrganizationName, &j.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.StaffJob{}, payroll.ErrNotFound
	}
	if err != nil {
		return payroll.StaffJob{}, err
	}
	return j, nil
}

func (s *Store) PayInfoByStaffID(ctx context.Context, staffID string) (payroll.StaffPayInfo, bool, error) {
	var info payroll.StaffPayInfo
	err := s.db.QueryRowContext(ctx, `
		select coalesce(epf_no,''), coalesce(socso_no,''), coalesce(tax_no,''),
		       coalesce(bank_account_no,''), coalesce(bank_name,'')
		from staff_pay_info where staff_id=$1
	`, staffID).Scan(&info.EPFNo, &info.SOCSONo, &info.TaxNo, &info.BankAccountNo, &info.BankName)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.StaffPayInfo{}, false, nil
	}
	if err != nil {
		return payroll.StaffPayInfo{}, false, err
	}
	return info, true, nil
}

// ListRecordIDs returns payroll record ids for one pay period, used by the
// bulk endpoint when the caller passes a period instead of explicit ids.
func (s *Store) ListRecordIDs(ctx context.Context, month, year int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id from payroll_records
		where month=$1 and year=$2
		order by created_at asc
	`, month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullAmount(v sql.NullInt64) payroll.NullAmount {
	return payroll.NullAmount{Amount: payroll.Amount(v.Int64), Valid: v.Valid}
}
