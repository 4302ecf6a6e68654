package billing

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is derived from the ledger's source fields, never stored
// authoritatively on its own.
type PaymentStatus string

const (
	StatusUnpaid        PaymentStatus = "unpaid"
	StatusPartiallyPaid PaymentStatus = "partially_paid"
	StatusPaid          PaymentStatus = "paid"
	StatusRefunded      PaymentStatus = "refunded"
)

// Ledger is the financial truth for one admission. All amounts are integer
// minor currency units.
type Ledger struct {
	ID            uuid.UUID     `json:"id"`
	AdmissionID   uuid.UUID     `json:"admission_id"`
	AdmissionFee  int64         `json:"admission_fee"`
	Discount      int64         `json:"discount"`
	TotalCharges  int64         `json:"total_charges"`
	AmountPaid    int64         `json:"amount_paid"`
	Waived        int64         `json:"waived"`
	RefundDue     int64         `json:"refund_due"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Discharged    bool          `json:"discharged"`
	Closed        bool          `json:"closed"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Recompute derives TotalCharges and PaymentStatus from the source fields.
// Derived values are never adjusted incrementally.
func (l *Ledger) Recompute() {
	l.TotalCharges = l.AdmissionFee - l.Discount
	if l.TotalCharges < 0 {
		l.TotalCharges = 0
	}
	switch {
	case l.RefundDue > 0:
		l.PaymentStatus = StatusRefunded
	case l.AmountPaid == 0 && l.Waived == 0:
		l.PaymentStatus = StatusUnpaid
	case l.AmountPaid+l.Waived >= l.TotalCharges:
		l.PaymentStatus = StatusPaid
	default:
		l.PaymentStatus = StatusPartiallyPaid
	}
}

// CloseIfSettled closes the ledger once the stay has ended and nothing
// is owed. A closed ledger accepts no further mutations.
func (l *Ledger) CloseIfSettled() {
	if l.Discharged && l.Remaining() == 0 {
		l.Closed = true
	}
}

// Remaining is the balance still owed after payments and waivers.
func (l *Ledger) Remaining() int64 {
	rem := l.TotalCharges - l.AmountPaid - l.Waived
	if rem < 0 {
		return 0
	}
	return rem
}

// Payment is one accepted payment event against a ledger.
type Payment struct {
	ID         uuid.UUID `json:"id"`
	LedgerID   uuid.UUID `json:"ledger_id"`
	Amount     int64     `json:"amount"`
	ReceivedAt time.Time `json:"received_at"`
}

// Waiver records a forgiven balance with the reason it was forgiven.
type Waiver struct {
	ID        uuid.UUID `json:"id"`
	LedgerID  uuid.UUID `json:"ledger_id"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// RevenueSummary is the billing aggregate consumed by dashboards.
type RevenueSummary struct {
	LedgerCount      int   `json:"ledger_count"`
	TotalBilled      int64 `json:"total_billed"`
	TotalCollected   int64 `json:"total_collected"`
	TotalWaived      int64 `json:"total_waived"`
	TotalOutstanding int64 `json:"total_outstanding"`
}
