package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/hms/hms/internal/domain/billing"
)

func TestBillingFlow(t *testing.T) {
	ctx := context.Background()
	svcs := newServices()

	w := createTestWard(t, ctx, svcs.Registry, "Billing A", 2)
	a := admitPatient(t, ctx, svcs.Admissions, w, 1, 2000, 0)

	t.Run("ApplyCharge", func(t *testing.T) {
		ledger, err := svcs.Billing.ApplyCharge(ctx, a.ID, 500)
		if err != nil {
			t.Fatalf("apply charge: %v", err)
		}
		if ledger.TotalCharges != 2500 {
			t.Fatalf("total charges = %d, want 2500", ledger.TotalCharges)
		}
		if ledger.PaymentStatus != billing.StatusUnpaid {
			t.Fatalf("status = %s, want unpaid", ledger.PaymentStatus)
		}
	})

	t.Run("PartialPayment", func(t *testing.T) {
		ledger, excess, err := svcs.Billing.RecordPayment(ctx, a.ID, 1000)
		if err != nil {
			t.Fatalf("record payment: %v", err)
		}
		if excess != 0 {
			t.Fatalf("excess = %d, want 0", excess)
		}
		if ledger.PaymentStatus != billing.StatusPartiallyPaid {
			t.Fatalf("status = %s, want partially_paid", ledger.PaymentStatus)
		}
		payments, err := svcs.Billing.ListPayments(ctx, a.ID)
		if err != nil {
			t.Fatalf("list payments: %v", err)
		}
		if len(payments) != 1 || payments[0].Amount != 1000 {
			t.Fatalf("payments = %+v, want one of 1000", payments)
		}
	})

	t.Run("Finalize_UnderBalance_RecordsWaiver", func(t *testing.T) {
		custom := int64(1000)
		ledger, err := svcs.Billing.Finalize(ctx, a.ID, &custom, "management approval")
		if err != nil {
			t.Fatalf("finalize: %v", err)
		}
		if ledger.PaymentStatus != billing.StatusPaid {
			t.Fatalf("status = %s, want paid", ledger.PaymentStatus)
		}
		if ledger.Waived != 500 {
			t.Fatalf("waived = %d, want 500", ledger.Waived)
		}
		waivers, err := svcs.Billing.ListWaivers(ctx, a.ID)
		if err != nil {
			t.Fatalf("list waivers: %v", err)
		}
		if len(waivers) != 1 || waivers[0].Amount != 500 {
			t.Fatalf("waivers = %+v, want one of 500", waivers)
		}
		if waivers[0].Reason != "management approval" {
			t.Fatalf("waiver reason = %q", waivers[0].Reason)
		}
	})

	t.Run("Finalize_Twice_Rejected", func(t *testing.T) {
		_, err := svcs.Billing.Finalize(ctx, a.ID, nil, "")
		if !errors.Is(err, billing.ErrAlreadyFinalized) {
			t.Fatalf("err = %v, want ErrAlreadyFinalized", err)
		}
	})
}

func TestBilling_OverpaymentTracksRefund(t *testing.T) {
	ctx := context.Background()
	svcs := newServices()

	w := createTestWard(t, ctx, svcs.Registry, "Billing B", 1)
	a := admitPatient(t, ctx, svcs.Admissions, w, 1, 1000, 0)

	ledger, excess, err := svcs.Billing.RecordPayment(ctx, a.ID, 1500)
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if excess != 500 {
		t.Fatalf("excess = %d, want 500", excess)
	}
	if ledger.AmountPaid != 1000 {
		t.Fatalf("amount paid = %d, want capped at 1000", ledger.AmountPaid)
	}
	if ledger.RefundDue != 500 {
		t.Fatalf("refund due = %d, want 500", ledger.RefundDue)
	}
	if ledger.PaymentStatus != billing.StatusRefunded {
		t.Fatalf("status = %s, want refunded", ledger.PaymentStatus)
	}
}

func TestRevenueSummary_AggregatesLedgers(t *testing.T) {
	ctx := context.Background()
	svcs := newServices()

	w := createTestWard(t, ctx, svcs.Registry, "Billing C", 2)
	a := admitPatient(t, ctx, svcs.Admissions, w, 1, 3000, 0)
	if _, _, err := svcs.Billing.RecordPayment(ctx, a.ID, 1000); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	summary, err := svcs.Billing.RevenueSummary(ctx)
	if err != nil {
		t.Fatalf("revenue summary: %v", err)
	}
	if summary.LedgerCount < 1 {
		t.Fatalf("ledger count = %d, want at least 1", summary.LedgerCount)
	}
	if summary.TotalBilled < summary.TotalCollected {
		t.Fatalf("billed %d < collected %d", summary.TotalBilled, summary.TotalCollected)
	}
	if summary.TotalOutstanding < 0 {
		t.Fatalf("outstanding = %d, want non-negative", summary.TotalOutstanding)
	}
}
