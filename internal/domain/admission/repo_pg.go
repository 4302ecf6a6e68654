package admission

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const admCols = `id, patient_id, status, admission_type, ward_id, bed_number,
	admitting_doctor_id, department_id, diagnosis, admission_date,
	discharge_date, deleted, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Admission) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO admissions (
			id, patient_id, status, admission_type, ward_id, bed_number,
			admitting_doctor_id, department_id, diagnosis, admission_date
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.PatientID, a.Status, a.AdmissionType, a.WardID, a.BedNumber,
		a.AdmittingDoctorID, a.DepartmentID, a.Diagnosis, a.AdmissionDate,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return scanAdmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+admCols+` FROM admissions WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Admission) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE admissions SET
			status=$2, ward_id=$3, bed_number=$4, diagnosis=$5,
			discharge_date=$6, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Status, a.WardID, a.BedNumber, a.Diagnosis, a.DischargeDate,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM admissions WHERE id = $1`, id)
	return err
}

func (r *repoPG) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE admissions SET deleted=$2, updated_at=NOW() WHERE id = $1`,
		id, deleted,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAdmissionNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Admission, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM admissions WHERE NOT deleted`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+admCols+` FROM admissions WHERE NOT deleted
		 ORDER BY admission_date DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectAdmissions(rows, total)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Admission, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM admissions WHERE patient_id = $1 AND NOT deleted`,
		patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+admCols+` FROM admissions WHERE patient_id = $1 AND NOT deleted
		 ORDER BY admission_date DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectAdmissions(rows, total)
}

func (r *repoPG) AddTransfer(ctx context.Context, tr *TransferRecord) error {
	tr.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO admission_transfers (
			id, admission_id, from_ward_id, from_bed_number, to_ward_id, to_bed_number
		) VALUES ($1,$2,$3,$4,$5,$6)`,
		tr.ID, tr.AdmissionID, tr.FromWardID, tr.FromBedNumber, tr.ToWardID, tr.ToBedNumber,
	)
	return err
}

func (r *repoPG) ListTransfers(ctx context.Context, admissionID uuid.UUID) ([]*TransferRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, admission_id, from_ward_id, from_bed_number, to_ward_id, to_bed_number, transferred_at
		FROM admission_transfers WHERE admission_id = $1 ORDER BY transferred_at`, admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []*TransferRecord
	for rows.Next() {
		var tr TransferRecord
		if err := rows.Scan(&tr.ID, &tr.AdmissionID, &tr.FromWardID, &tr.FromBedNumber,
			&tr.ToWardID, &tr.ToBedNumber, &tr.TransferredAt); err != nil {
			return nil, err
		}
		transfers = append(transfers, &tr)
	}
	return transfers, rows.Err()
}

func scanAdmission(row pgx.Row) (*Admission, error) {
	var a Admission
	err := row.Scan(
		&a.ID, &a.PatientID, &a.Status, &a.AdmissionType, &a.WardID, &a.BedNumber,
		&a.AdmittingDoctorID, &a.DepartmentID, &a.Diagnosis, &a.AdmissionDate,
		&a.DischargeDate, &a.Deleted, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAdmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAdmissions(rows pgx.Rows, total int) ([]*Admission, int, error) {
	var adms []*Admission
	for rows.Next() {
		var a Admission
		if err := rows.Scan(
			&a.ID, &a.PatientID, &a.Status, &a.AdmissionType, &a.WardID, &a.BedNumber,
			&a.AdmittingDoctorID, &a.DepartmentID, &a.Diagnosis, &a.AdmissionDate,
			&a.DischargeDate, &a.Deleted, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		adms = append(adms, &a)
	}
	return adms, total, rows.Err()
}
