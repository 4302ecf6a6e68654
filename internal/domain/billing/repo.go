package billing

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence surface for ledgers and their events.
type Repository interface {
	Create(ctx context.Context, l *Ledger) error
	GetByAdmission(ctx context.Context, admissionID uuid.UUID) (*Ledger, error)
	Update(ctx context.Context, l *Ledger) error

	AddPayment(ctx context.Context, p *Payment) error
	ListPayments(ctx context.Context, ledgerID uuid.UUID) ([]*Payment, error)

	AddWaiver(ctx context.Context, w *Waiver) error
	ListWaivers(ctx context.Context, ledgerID uuid.UUID) ([]*Waiver, error)

	RevenueSummary(ctx context.Context) (*RevenueSummary, error)
}
