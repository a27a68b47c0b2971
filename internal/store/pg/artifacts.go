package pg

import (
	"context"
	"database/sql"
	"errors"

	"nadi.org/internal/artifact"
	"nadi.org/internal/render"
)

// InsertCurrent supersedes the previous current artifact for the same
// (payroll, type) pair and inserts the new row, in one transaction. The
// partial unique index on (payroll_id, document_type) where is_current
// rejects any interleaving that would create a second current row.
func (s *Store) InsertCurrent(ctx context.Context, a artifact.Artifact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		update payroll_documents
		set is_current = false
		where payroll_id=$1 and document_type=$2 and is_current
	`, a.PayrollID, a.DocumentType); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		insert into payroll_documents(id, payroll_id, document_type, file_path, file_size, is_current, generated_by, generated_at)
		values ($1,$2,$3,$4,$5,true,nullif($6,''),$7)
	`, a.ID, a.PayrollID, a.DocumentType, a.FilePath, a.FileSize, a.GeneratedBy, a.GeneratedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ByID(ctx context.Context, id string) (artifact.Artifact, error) {
	a, err := scanArtifact(s.db.QueryRowContext(ctx, `
		select id, payroll_id, document_type, file_path, file_size, is_current, coalesce(generated_by,''), generated_at
		from payroll_documents where id=$1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return artifact.Artifact{}, artifact.ErrNotFound
	}
	if err != nil {
		return artifact.Artifact{}, err
	}
	return a, nil
}

func (s *Store) ListCurrent(ctx context.Context, payrollID string) ([]artifact.Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, payroll_id, document_type, file_path, file_size, is_current, coalesce(generated_by,''), generated_at
		from payroll_documents
		where payroll_id=$1 and is_current
		order by generated_at desc
	`, payrollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []artifact.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(sc scanner) (artifact.Artifact, error) {
	var (
		a   artifact.Artifact
		typ string
	)
	err := sc.Scan(&a.ID, &a.PayrollID, &typ, &a.FilePath, &a.FileSize, &a.IsCurrent, &a.GeneratedBy, &a.GeneratedAt)
	if err != nil {
		return artifact.Artifact{}, err
	}
	a.DocumentType = render.DocumentType(typ)
	return a, nil
}
