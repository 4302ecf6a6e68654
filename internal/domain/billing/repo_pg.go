package billing

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

const ledgerCols = `id, admission_id, admission_fee, discount, total_charges,
	amount_paid, waived, refund_due, payment_status, discharged, closed, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, l *Ledger) error {
	l.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO ledgers (
			id, admission_id, admission_fee, discount, total_charges,
			amount_paid, waived, refund_due, payment_status, discharged, closed
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		l.ID, l.AdmissionID, l.AdmissionFee, l.Discount, l.TotalCharges,
		l.AmountPaid, l.Waived, l.RefundDue, l.PaymentStatus, l.Discharged, l.Closed,
	)
	return err
}

func (r *repoPG) GetByAdmission(ctx context.Context, admissionID uuid.UUID) (*Ledger, error) {
	var l Ledger
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+ledgerCols+` FROM ledgers WHERE admission_id = $1`, admissionID,
	).Scan(
		&l.ID, &l.AdmissionID, &l.AdmissionFee, &l.Discount, &l.TotalCharges,
		&l.AmountPaid, &l.Waived, &l.RefundDue, &l.PaymentStatus, &l.Discharged,
		&l.Closed, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLedgerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repoPG) Update(ctx context.Context, l *Ledger) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE ledgers SET
			admission_fee=$2, discount=$3, total_charges=$4, amount_paid=$5,
			waived=$6, refund_due=$7, payment_status=$8, discharged=$9, closed=$10,
			updated_at=NOW()
		WHERE id = $1`,
		l.ID, l.AdmissionFee, l.Discount, l.TotalCharges, l.AmountPaid,
		l.Waived, l.RefundDue, l.PaymentStatus, l.Discharged, l.Closed,
	)
	return err
}

func (r *repoPG) AddPayment(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payments (id, ledger_id, amount) VALUES ($1,$2,$3)`,
		p.ID, p.LedgerID, p.Amount,
	)
	return err
}

func (r *repoPG) ListPayments(ctx context.Context, ledgerID uuid.UUID) ([]*Payment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, ledger_id, amount, received_at
		FROM payments WHERE ledger_id = $1 ORDER BY received_at`, ledgerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.LedgerID, &p.Amount, &p.ReceivedAt); err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

func (r *repoPG) AddWaiver(ctx context.Context, w *Waiver) error {
	w.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO waivers (id, ledger_id, amount, reason) VALUES ($1,$2,$3,$4)`,
		w.ID, w.LedgerID, w.Amount, w.Reason,
	)
	return err
}

func (r *repoPG) ListWaivers(ctx context.Context, ledgerID uuid.UUID) ([]*Waiver, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, ledger_id, amount, reason, created_at
		FROM waivers WHERE ledger_id = $1 ORDER BY created_at`, ledgerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var waivers []*Waiver
	for rows.Next() {
		var w Waiver
		if err := rows.Scan(&w.ID, &w.LedgerID, &w.Amount, &w.Reason, &w.CreatedAt); err != nil {
			return nil, err
		}
		waivers = append(waivers, &w)
	}
	return waivers, rows.Err()
}

func (r *repoPG) RevenueSummary(ctx context.Context) (*RevenueSummary, error) {
	var s RevenueSummary
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(total_charges), 0),
			COALESCE(SUM(amount_paid), 0),
			COALESCE(SUM(waived), 0),
			COALESCE(SUM(GREATEST(total_charges - amount_paid - waived, 0)), 0)
		FROM ledgers`,
	).Scan(&s.LedgerCount, &s.TotalBilled, &s.TotalCollected, &s.TotalWaived, &s.TotalOutstanding)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
