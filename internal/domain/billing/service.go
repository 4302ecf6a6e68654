package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrLedgerNotFound               = errors.New("ledger not found")
	ErrNegativeAmount               = errors.New("amount must not be negative")
	ErrDiscountExceedsCharges       = errors.New("discount exceeds charges")
	ErrCustomAmountExceedsRemaining = errors.New("custom amount exceeds remaining balance")
	ErrRefundReasonRequired         = errors.New("refund reason is required")
	ErrAlreadyFinalized             = errors.New("ledger already finalized")
	ErrLedgerClosed                 = errors.New("ledger is closed")
	ErrLedgerDischarged             = errors.New("admission already discharged")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// OpenLedger creates the ledger for a new admission, seeded with the
// admission fee and any up-front discount.
func (s *Service) OpenLedger(ctx context.Context, admissionID uuid.UUID, admissionFee, discount int64) (*Ledger, error) {
	if admissionID == uuid.Nil {
		return nil, fmt.Errorf("admission_id is required")
	}
	if admissionFee < 0 || discount < 0 {
		return nil, ErrNegativeAmount
	}
	if discount > admissionFee {
		return nil, ErrDiscountExceedsCharges
	}
	l := &Ledger{AdmissionID: admissionID, AdmissionFee: admissionFee, Discount: discount}
	l.Recompute()
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("create ledger: %w", err)
	}
	return l, nil
}

func (s *Service) GetByAdmission(ctx context.Context, admissionID uuid.UUID) (*Ledger, error) {
	return s.repo.GetByAdmission(ctx, admissionID)
}

// ApplyCharge adds to the admission fee and rederives the totals. Charges
// are only accepted while the patient is still admitted.
func (s *Service) ApplyCharge(ctx context.Context, admissionID uuid.UUID, amount int64) (*Ledger, error) {
	if amount < 0 {
		return nil, ErrNegativeAmount
	}
	l, err := s.repo.GetByAdmission(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	if l.Closed {
		return nil, ErrLedgerClosed
	}
	if l.Discharged {
		return nil, ErrLedgerDischarged
	}
	l.AdmissionFee += amount
	l.Recompute()
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("update ledger: %w", err)
	}
	return l, nil
}

// ApplyDiscount adds to the discount. The resulting total may not drop
// below zero or below what has already been paid.
func (s *Service) ApplyDiscount(ctx context.Context, admissionID uuid.UUID, amount int64) (*Ledger, error) {
	if amount < 0 {
		return nil, ErrNegativeAmount
	}
	l, err := s.repo.GetByAdmission(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	if l.Closed {
		return nil, ErrLedgerClosed
	}
	if l.Discharged {
		return nil, ErrLedgerDischarged
	}
	newDiscount := l.Discount + amount
	newTotal := l.AdmissionFee - newDiscount
	if newTotal < 0 || newTotal < l.AmountPaid+l.Waived {
		return nil, ErrDiscountExceedsCharges
	}
	l.Discount = newDiscount
	l.Recompute()
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("update ledger: %w", err)
	}
	return l, nil
}

// RecordPayment accepts a payment up to the remaining balance. Any excess
// is returned to the caller as a pending refund amount and tracked on the
// ledger until reconciled, never silently absorbed.
func (s *Service) RecordPayment(ctx context.Context, admissionID uuid.UUID, amount int64) (*Ledger, int64, error) {
	if amount < 0 {
		return nil, 0, ErrNegativeAmount
	}
	l, err := s.repo.GetByAdmission(ctx, admissionID)
	if err != nil {
		return nil, 0, err
	}
	if l.Closed {
		return nil, 0, ErrLedgerClosed
	}

	accepted := amount
	var excess int64
	if rem := l.Remaining(); accepted > rem {
		accepted = rem
		excess = amount - rem
	}

	if accepted > 0 {
		if err := s.repo.AddPayment(ctx, &Payment{LedgerID: l.ID, Amount: accepted}); err != nil {
			return nil, 0, fmt.Errorf("add payment: %w", err)
		}
	}
	l.AmountPaid += accepted
	l.RefundDue += excess
	l.Recompute()
	l.CloseIfSettled()
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, 0, fmt.Errorf("update ledger: %w", err)
	}
	return l, excess, nil
}

// Finalize settles the outstanding balance in one operation. With no
// custom amount the full balance is paid. A custom amount above the
// balance is rejected. A custom amount below the balance pays that much
// and waives the gap, which requires a reason.
func (s *Service) Finalize(ctx context.Context, admissionID uuid.UUID, customAmount *int64, refundReason string) (*Ledger, error) {
	l, err := s.repo.GetByAdmission(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	if l.Closed {
		return nil, ErrLedgerClosed
	}
	remaining := l.Remaining()
	if remaining == 0 {
		return nil, ErrAlreadyFinalized
	}

	pay := remaining
	if customAmount != nil {
		if *customAmount < 0 {
			return nil, ErrNegativeAmount
		}
		if *customAmount > remaining {
			return nil, ErrCustomAmountExceedsRemaining
		}
		pay = *customAmount
	}

	waived := remaining - pay
	if waived > 0 && refundReason == "" {
		return nil, ErrRefundReasonRequired
	}

	if pay > 0 {
		if err := s.repo.AddPayment(ctx, &Payment{LedgerID: l.ID, Amount: pay}); err != nil {
			return nil, fmt.Errorf("add payment: %w", err)
		}
	}
	if waived > 0 {
		if err := s.repo.AddWaiver(ctx, &Waiver{LedgerID: l.ID, Amount: waived, Reason: refundReason}); err != nil {
			return nil, fmt.Errorf("add waiver: %w", err)
		}
	}
	l.AmountPaid += pay
	l.Waived += waived
	l.Recompute()
	l.CloseIfSettled()
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("update ledger: %w", err)
	}
	return l, nil
}

// SettleOnDischarge marks the ledger discharged and reports the balance
// outstanding at discharge time. No further charges or discounts are
// accepted afterwards; the ledger closes as soon as nothing is owed,
// either here or when a later payment settles the balance.
func (s *Service) SettleOnDischarge(ctx context.Context, admissionID uuid.UUID) (int64, error) {
	l, err := s.repo.GetByAdmission(ctx, admissionID)
	if err != nil {
		return 0, err
	}
	outstanding := l.Remaining()
	l.Discharged = true
	l.CloseIfSettled()
	if err := s.repo.Update(ctx, l); err != nil {
		return 0, fmt.Errorf("update ledger: %w", err)
	}
	return outstanding, nil
}

func (s *Service) ListPayments(ctx context.Context, admissionID uuid.UUID) ([]*Payment, error) {
	l, err := s.repo.GetByAdmission(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, l.ID)
}

func (s *Service) ListWaivers(ctx context.Context, admissionID uuid.UUID) ([]*Waiver, error) {
	l, err := s.repo.GetByAdmission(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListWaivers(ctx, l.ID)
}

func (s *Service) RevenueSummary(ctx context.Context) (*RevenueSummary, error) {
	return s.repo.RevenueSummary(ctx)
}
