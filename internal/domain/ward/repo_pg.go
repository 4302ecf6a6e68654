package ward

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

func (r *repoPG) CreateDepartment(ctx context.Context, dept *Department) error {
	dept.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO departments (id, name) VALUES ($1, $2)`,
		dept.ID, dept.Name,
	)
	return err
}

func (r *repoPG) ListDepartments(ctx context.Context) ([]*Department, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name, created_at FROM departments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var depts []*Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		depts = append(depts, &d)
	}
	return depts, rows.Err()
}

// CreateWard inserts the ward and seeds its bed inventory in one
// transaction, so a ward row never exists without its beds.
func (r *repoPG) CreateWard(ctx context.Context, w *Ward) error {
	w.ID = uuid.New()
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO wards (id, name, department_id, bed_count)
			VALUES ($1, $2, $3, $4)`,
			w.ID, w.Name, w.DepartmentID, w.BedCount,
		); err != nil {
			return err
		}
		// Seed the bed inventory 1..bed_count.
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO beds (ward_id, bed_number)
			SELECT $1, n FROM generate_series(1, $2::int) AS n`,
			w.ID, w.BedCount,
		)
		return err
	})
}

const wardCols = `id, name, department_id, bed_count, created_at, updated_at`

func (r *repoPG) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	var w Ward
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+wardCols+` FROM wards WHERE id = $1`, id,
	).Scan(&w.ID, &w.Name, &w.DepartmentID, &w.BedCount, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWardNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repoPG) ListWards(ctx context.Context) ([]*Ward, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+wardCols+` FROM wards ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wards []*Ward
	for rows.Next() {
		var w Ward
		if err := rows.Scan(&w.ID, &w.Name, &w.DepartmentID, &w.BedCount, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		wards = append(wards, &w)
	}
	return wards, rows.Err()
}

const bedCols = `ward_id, bed_number, occupied, admission_id, updated_at`

func (r *repoPG) ListBeds(ctx context.Context, wardID uuid.UUID) ([]*Bed, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+bedCols+` FROM beds WHERE ward_id = $1 ORDER BY bed_number`, wardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBeds(rows)
}

func (r *repoPG) ListAvailableBeds(ctx context.Context, wardID uuid.UUID) ([]*Bed, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+bedCols+` FROM beds WHERE ward_id = $1 AND NOT occupied ORDER BY bed_number`, wardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBeds(rows)
}

func (r *repoPG) GetBed(ctx context.Context, wardID uuid.UUID, bedNumber int) (*Bed, error) {
	var b Bed
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+bedCols+` FROM beds WHERE ward_id = $1 AND bed_number = $2`,
		wardID, bedNumber,
	).Scan(&b.WardID, &b.BedNumber, &b.Occupied, &b.AdmissionID, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBedNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// OccupyBed only matches a free bed row, so two concurrent callers cannot
// both claim the same bed.
func (r *repoPG) OccupyBed(ctx context.Context, wardID uuid.UUID, bedNumber int, admissionID uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE beds SET occupied = TRUE, admission_id = $3, updated_at = NOW()
		WHERE ward_id = $1 AND bed_number = $2 AND NOT occupied`,
		wardID, bedNumber, admissionID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) ReleaseBed(ctx context.Context, wardID uuid.UUID, bedNumber int) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE beds SET occupied = FALSE, admission_id = NULL, updated_at = NOW()
		WHERE ward_id = $1 AND bed_number = $2`,
		wardID, bedNumber,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) Summary(ctx context.Context, wardID uuid.UUID) (*Summary, error) {
	var s Summary
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT w.id, w.name, COUNT(b.*), COUNT(b.*) FILTER (WHERE b.occupied)
		FROM wards w LEFT JOIN beds b ON b.ward_id = w.id
		WHERE w.id = $1
		GROUP BY w.id, w.name`,
		wardID,
	).Scan(&s.WardID, &s.WardName, &s.Total, &s.Occupied)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWardNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Available = s.Total - s.Occupied
	return &s, nil
}

func (r *repoPG) SummaryAll(ctx context.Context) ([]*Summary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT w.id, w.name, COUNT(b.*), COUNT(b.*) FILTER (WHERE b.occupied)
		FROM wards w LEFT JOIN beds b ON b.ward_id = w.id
		GROUP BY w.id, w.name
		ORDER BY w.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.WardID, &s.WardName, &s.Total, &s.Occupied); err != nil {
			return nil, err
		}
		s.Available = s.Total - s.Occupied
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

func collectBeds(rows pgx.Rows) ([]*Bed, error) {
	var beds []*Bed
	for rows.Next() {
		var b Bed
		if err := rows.Scan(&b.WardID, &b.BedNumber, &b.Occupied, &b.AdmissionID, &b.UpdatedAt); err != nil {
			return nil, err
		}
		beds = append(beds, &b)
	}
	return beds, rows.Err()
}
