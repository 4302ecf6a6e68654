package admission

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/ward"
)

type mockRepo struct {
	admissions map[uuid.UUID]*Admission
	transfers  map[uuid.UUID][]*TransferRecord
	failCreate bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		admissions: make(map[uuid.UUID]*Admission),
		transfers:  make(map[uuid.UUID][]*TransferRecord),
	}
}

func (m *mockRepo) Create(_ context.Context, a *Admission) error {
	if m.failCreate {
		return fmt.Errorf("insert failed")
	}
	cp := *a
	m.admissions[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Admission, error) {
	a, ok := m.admissions[id]
	if !ok {
		return nil, ErrAdmissionNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, a *Admission) error {
	if _, ok := m.admissions[a.ID]; !ok {
		return ErrAdmissionNotFound
	}
	cp := *a
	m.admissions[a.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.admissions, id)
	return nil
}

func (m *mockRepo) SetDeleted(_ context.Context, id uuid.UUID, deleted bool) error {
	a, ok := m.admissions[id]
	if !ok {
		return ErrAdmissionNotFound
	}
	a.Deleted = deleted
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Admission, int, error) {
	var out []*Admission
	for _, a := range m.admissions {
		if !a.Deleted {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Admission, int, error) {
	var out []*Admission
	for _, a := range m.admissions {
		if a.PatientID == patientID && !a.Deleted {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) AddTransfer(_ context.Context, tr *TransferRecord) error {
	tr.ID = uuid.New()
	tr.TransferredAt = time.Now()
	m.transfers[tr.AdmissionID] = append(m.transfers[tr.AdmissionID], tr)
	return nil
}

func (m *mockRepo) ListTransfers(_ context.Context, admissionID uuid.UUID) ([]*TransferRecord, error) {
	return m.transfers[admissionID], nil
}

type bedKey struct {
	wardID    uuid.UUID
	bedNumber int
}

// mockAllocator tracks occupancy per bed with conditional claim semantics.
type mockAllocator struct {
	beds        map[bedKey]uuid.UUID
	known       map[bedKey]bool
	releases    []bedKey
	failRelease map[bedKey]error
}

func newMockAllocator(keys ...bedKey) *mockAllocator {
	a := &mockAllocator{
		beds:        make(map[bedKey]uuid.UUID),
		known:       make(map[bedKey]bool),
		failRelease: make(map[bedKey]error),
	}
	for _, k := range keys {
		a.known[k] = true
	}
	return a
}

func (a *mockAllocator) Occupy(_ context.Context, wardID uuid.UUID, bedNumber int, admissionID uuid.UUID) error {
	k := bedKey{wardID, bedNumber}
	if !a.known[k] {
		return ward.ErrBedNotFound
	}
	if _, taken := a.beds[k]; taken {
		return ward.ErrBedOccupied
	}
	a.beds[k] = admissionID
	return nil
}

func (a *mockAllocator) Release(_ context.Context, wardID uuid.UUID, bedNumber int) error {
	k := bedKey{wardID, bedNumber}
	if err, ok := a.failRelease[k]; ok {
		return err
	}
	if !a.known[k] {
		return ward.ErrBedNotFound
	}
	delete(a.beds, k)
	a.releases = append(a.releases, k)
	return nil
}

func (a *mockAllocator) holder(wardID uuid.UUID, bedNumber int) (uuid.UUID, bool) {
	id, ok := a.beds[bedKey{wardID, bedNumber}]
	return id, ok
}

type mockBilling struct {
	ledgers     map[uuid.UUID]struct{ fee, discount int64 }
	outstanding int64
	failOpen    bool
}

func newMockBilling() *mockBilling {
	return &mockBilling{ledgers: make(map[uuid.UUID]struct{ fee, discount int64 })}
}

func (b *mockBilling) OpenLedger(_ context.Context, admissionID uuid.UUID, fee, discount int64) error {
	if b.failOpen {
		return fmt.Errorf("ledger insert failed")
	}
	b.ledgers[admissionID] = struct{ fee, discount int64 }{fee, discount}
	return nil
}

func (b *mockBilling) SettleOnDischarge(_ context.Context, admissionID uuid.UUID) (int64, error) {
	return b.outstanding, nil
}

type fixture struct {
	svc     *Service
	repo    *mockRepo
	beds    *mockAllocator
	billing *mockBilling
	wardA   uuid.UUID
	wardB   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	wardA, wardB := uuid.New(), uuid.New()
	beds := newMockAllocator(
		bedKey{wardA, 1}, bedKey{wardA, 2}, bedKey{wardA, 3},
		bedKey{wardB, 1},
	)
	repo := newMockRepo()
	billing := newMockBilling()
	svc := NewService(repo, beds, billing, zerolog.Nop())
	return &fixture{svc: svc, repo: repo, beds: beds, billing: billing, wardA: wardA, wardB: wardB}
}

func admitRequest(f *fixture, bedNumber int) AdmitRequest {
	return AdmitRequest{
		PatientID:         uuid.New(),
		WardID:            f.wardA,
		BedNumber:         bedNumber,
		AdmissionType:     "private",
		AdmittingDoctorID: uuid.New(),
		DepartmentID:      uuid.New(),
		Diagnosis:         "fever",
		AdmissionFee:      5000,
		Discount:          500,
	}
}

func TestAdmit_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Admit(ctx, admitRequest(f, 3))
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if a.Status != StatusAdmitted {
		t.Errorf("expected admitted, got %s", a.Status)
	}
	if a.WardID == nil || *a.WardID != f.wardA || a.BedNumber == nil || *a.BedNumber != 3 {
		t.Errorf("unexpected bed assignment: %+v", a)
	}

	holder, occupied := f.beds.holder(f.wardA, 3)
	if !occupied || holder != a.ID {
		t.Error("bed must be occupied by the new admission")
	}
	ledger, ok := f.billing.ledgers[a.ID]
	if !ok || ledger.fee != 5000 || ledger.discount != 500 {
		t.Errorf("expected ledger seeded with 5000/500, got %+v", ledger)
	}
}

func TestAdmit_OccupiedBed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Admit(ctx, admitRequest(f, 1)); err != nil {
		t.Fatalf("first admit: %v", err)
	}
	_, err := f.svc.Admit(ctx, admitRequest(f, 1))
	if !errors.Is(err, ErrInvalidBedSelection) {
		t.Errorf("expected ErrInvalidBedSelection, got %v", err)
	}
	if !errors.Is(err, ward.ErrBedOccupied) {
		t.Errorf("expected wrapped ErrBedOccupied, got %v", err)
	}
	if len(f.repo.admissions) != 1 {
		t.Errorf("failed admit must not create a record, have %d", len(f.repo.admissions))
	}
}

func TestAdmit_MissingBed(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Admit(context.Background(), admitRequest(f, 99))
	if !errors.Is(err, ward.ErrBedNotFound) {
		t.Errorf("expected wrapped ErrBedNotFound, got %v", err)
	}
}

func TestAdmit_RecordFailureReleasesBed(t *testing.T) {
	f := newFixture(t)
	f.repo.failCreate = true

	_, err := f.svc.Admit(context.Background(), admitRequest(f, 2))
	if err == nil {
		t.Fatal("expected admit to fail")
	}
	if _, occupied := f.beds.holder(f.wardA, 2); occupied {
		t.Error("bed must be released when record creation fails")
	}
}

func TestAdmit_LedgerFailureUndoesAdmission(t *testing.T) {
	f := newFixture(t)
	f.billing.failOpen = true

	_, err := f.svc.Admit(context.Background(), admitRequest(f, 2))
	if err == nil {
		t.Fatal("expected admit to fail")
	}
	if _, occupied := f.beds.holder(f.wardA, 2); occupied {
		t.Error("bed must be released when ledger creation fails")
	}
	if len(f.repo.admissions) != 0 {
		t.Error("record must be removed when ledger creation fails")
	}
}

func TestTransferBed_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Admit(ctx, admitRequest(f, 1))
	if err != nil {
		t.Fatalf("admit: %v", err)
	}

	moved, err := f.svc.TransferBed(ctx, a.ID, f.wardB, 1)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if *moved.WardID != f.wardB || *moved.BedNumber != 1 {
		t.Errorf("unexpected location after transfer: %+v", moved)
	}
	if _, occupied := f.beds.holder(f.wardA, 1); occupied {
		t.Error("old bed must be released")
	}
	holder, occupied := f.beds.holder(f.wardB, 1)
	if !occupied || holder != a.ID {
		t.Error("new bed must be occupied by the admission")
	}

	transfers, _ := f.svc.ListTransfers(ctx, a.ID)
	if len(transfers) != 1 {
		t.Fatalf("expected 1 transfer record, got %d", len(transfers))
	}
	tr := transfers[0]
	if tr.FromWardID != f.wardA || tr.FromBedNumber != 1 || tr.ToWardID != f.wardB || tr.ToBedNumber != 1 {
		t.Errorf("unexpected transfer record %+v", tr)
	}
}

func TestTransferBed_TargetOccupied_NoResourceLoss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Admit(ctx, admitRequest(f, 1))
	if err != nil {
		t.Fatalf("admit a: %v", err)
	}
	b, err := f.svc.Admit(ctx, admitRequest(f, 2))
	if err != nil {
		t.Fatalf("admit b: %v", err)
	}

	_, err = f.svc.TransferBed(ctx, a.ID, f.wardA, 2)
	if !errors.Is(err, ward.ErrBedOccupied) {
		t.Fatalf("expected ErrBedOccupied, got %v", err)
	}

	// The failed transfer leaves both patients exactly where they were.
	holder, occupied := f.beds.holder(f.wardA, 1)
	if !occupied || holder != a.ID {
		t.Error("patient a must keep the original bed")
	}
	holder, occupied = f.beds.holder(f.wardA, 2)
	if !occupied || holder != b.ID {
		t.Error("patient b must keep bed 2")
	}
	got, _ := f.svc.Get(ctx, a.ID)
	if *got.WardID != f.wardA || *got.BedNumber != 1 {
		t.Errorf("record must still reference the original bed, got %+v", got)
	}
}

func TestTransferBed_OldBedReleaseFailure_TransferStands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Admit(ctx, admitRequest(f, 1))
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	f.beds.failRelease[bedKey{f.wardA, 1}] = fmt.Errorf("connection reset")

	moved, err := f.svc.TransferBed(ctx, a.ID, f.wardB, 1)
	if err != nil {
		t.Fatalf("transfer must succeed once the record is moved: %v", err)
	}
	if *moved.WardID != f.wardB || *moved.BedNumber != 1 {
		t.Errorf("unexpected location after transfer: %+v", moved)
	}

	holder, occupied := f.beds.holder(f.wardB, 1)
	if !occupied || holder != a.ID {
		t.Error("new bed must be occupied by the admission")
	}
	got, _ := f.svc.Get(ctx, a.ID)
	if *got.WardID != f.wardB || *got.BedNumber != 1 {
		t.Errorf("record must reference the new bed, got %+v", got)
	}
	if transfers, _ := f.svc.ListTransfers(ctx, a.ID); len(transfers) != 1 {
		t.Errorf("expected 1 transfer record, got %d", len(transfers))
	}

	// The old bed is stuck until a release retry; retrying frees it.
	delete(f.beds.failRelease, bedKey{f.wardA, 1})
	if err := f.beds.Release(ctx, f.wardA, 1); err != nil {
		t.Fatalf("release retry: %v", err)
	}
	if _, occupied := f.beds.holder(f.wardA, 1); occupied {
		t.Error("old bed must be free after the release retry")
	}
}

func TestTransferBed_Discharged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Admit(ctx, admitRequest(f, 1))
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if _, err := f.svc.Discharge(ctx, a.ID); err != nil {
		t.Fatalf("discharge: %v", err)
	}

	_, err = f.svc.TransferBed(ctx, a.ID, f.wardB, 1)
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestTransferBed_SameBedIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Admit(ctx, admitRequest(f, 1))
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	got, err := f.svc.TransferBed(ctx, a.ID, f.wardA, 1)
	if err != nil {
		t.Fatalf("transfer to same bed: %v", err)
	}
	if *got.WardID != f.wardA || *got.BedNumber != 1 {
		t.Errorf("unexpected location %+v", got)
	}
	if transfers, _ := f.svc.ListTransfers(ctx, a.ID); len(transfers) != 0 {
		t.Errorf("same-bed transfer must not record history, got %d", len(transfers))
	}
}

func TestDischarge_FreesBedAndSurfacesBalance(t *testing.T) {
	f := newFixture(t)
	f.billing.outstanding = 2500
	ctx := context.Background()

	a, err := f.svc.Admit(ctx, admitRequest(f, 3))
	if err != nil {
		t.Fatalf("admit: %v", err)
	}

	res, err := f.svc.Discharge(ctx, a.ID)
	if err != nil {
		t.Fatalf("discharge: %v", err)
	}
	if res.OutstandingBalance != 2500 {
		t.Errorf("expected outstanding 2500, got %d", res.OutstandingBalance)
	}
	if res.Admission.Status != StatusDischarged {
		t.Errorf("expected discharged, got %s", res.Admission.Status)
	}
	if res.Admission.WardID != nil || res.Admission.BedNumber != nil {
		t.Error("discharged record must not reference a bed")
	}
	if res.Admission.DischargeDate == nil {
		t.Error("expected discharge date to be set")
	}
	if _, occupied := f.beds.holder(f.wardA, 3); occupied {
		t.Error("bed must be free after discharge")
	}
}

func TestDischarge_Terminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Admit(ctx, admitRequest(f, 1))
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if _, err := f.svc.Discharge(ctx, a.ID); err != nil {
		t.Fatalf("first discharge: %v", err)
	}
	_, err = f.svc.Discharge(ctx, a.ID)
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestSoftDelete_RetainsRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Admit(ctx, admitRequest(f, 1))
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if err := f.svc.SoftDelete(ctx, a.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	got, err := f.svc.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("record must survive soft delete: %v", err)
	}
	if !got.Deleted {
		t.Error("expected deleted flag set")
	}
	adms, _, _ := f.svc.List(ctx, 20, 0)
	for _, x := range adms {
		if x.ID == a.ID {
			t.Error("soft-deleted record must not appear in listings")
		}
	}
}

func TestSoftDelete_Missing(t *testing.T) {
	f := newFixture(t)

	err := f.svc.SoftDelete(context.Background(), uuid.New())
	if !errors.Is(err, ErrAdmissionNotFound) {
		t.Errorf("expected ErrAdmissionNotFound, got %v", err)
	}
}
