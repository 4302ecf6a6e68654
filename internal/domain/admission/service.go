package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrAdmissionNotFound      = errors.New("admission not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidBedSelection    = errors.New("invalid bed selection")
)

// BedAllocator is the slice of the ward registry the lifecycle manager
// needs. Occupy must be conditional so concurrent admits for one bed
// resolve to a single winner.
type BedAllocator interface {
	Occupy(ctx context.Context, wardID uuid.UUID, bedNumber int, admissionID uuid.UUID) error
	Release(ctx context.Context, wardID uuid.UUID, bedNumber int) error
}

// BillingGateway is the slice of the billing service the lifecycle
// manager needs.
type BillingGateway interface {
	OpenLedger(ctx context.Context, admissionID uuid.UUID, admissionFee, discount int64) error
	SettleOnDischarge(ctx context.Context, admissionID uuid.UUID) (int64, error)
}

// Service orchestrates the admission lifecycle across the bed registry,
// the admission records and the billing ledgers.
type Service struct {
	repo    Repository
	beds    BedAllocator
	billing BillingGateway
	logger  zerolog.Logger
}

func NewService(repo Repository, beds BedAllocator, billing BillingGateway, logger zerolog.Logger) *Service {
	return &Service{repo: repo, beds: beds, billing: billing, logger: logger}
}

type AdmitRequest struct {
	PatientID         uuid.UUID `json:"patient_id"`
	WardID            uuid.UUID `json:"ward_id"`
	BedNumber         int       `json:"bed_number"`
	AdmissionType     string    `json:"admission_type"`
	AdmittingDoctorID uuid.UUID `json:"admitting_doctor_id"`
	DepartmentID      uuid.UUID `json:"department_id"`
	Diagnosis         string    `json:"diagnosis"`
	AdmissionFee      int64     `json:"admission_fee"`
	Discount          int64     `json:"discount"`
}

func (req *AdmitRequest) validate() error {
	if req.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if req.AdmittingDoctorID == uuid.Nil {
		return fmt.Errorf("admitting_doctor_id is required")
	}
	if req.AdmissionType == "" {
		return fmt.Errorf("admission_type is required")
	}
	if req.WardID == uuid.Nil || req.BedNumber <= 0 {
		return ErrInvalidBedSelection
	}
	if req.AdmissionFee < 0 || req.Discount < 0 {
		return fmt.Errorf("fee and discount must not be negative")
	}
	return nil
}

// Admit reserves the bed under the new record's ID before anything else
// is written. Bed reservation and record creation succeed or fail
// together; a later failure releases the bed again.
func (s *Service) Admit(ctx context.Context, req AdmitRequest) (*Admission, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	if err := s.beds.Occupy(ctx, req.WardID, req.BedNumber, id); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBedSelection, err)
	}

	wardID := req.WardID
	bedNumber := req.BedNumber
	a := &Admission{
		ID:                id,
		PatientID:         req.PatientID,
		Status:            StatusAdmitted,
		AdmissionType:     req.AdmissionType,
		WardID:            &wardID,
		BedNumber:         &bedNumber,
		AdmittingDoctorID: req.AdmittingDoctorID,
		DepartmentID:      req.DepartmentID,
		Diagnosis:         req.Diagnosis,
		AdmissionDate:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		s.releaseQuietly(ctx, req.WardID, req.BedNumber)
		return nil, fmt.Errorf("create admission: %w", err)
	}

	if err := s.billing.OpenLedger(ctx, id, req.AdmissionFee, req.Discount); err != nil {
		s.releaseQuietly(ctx, req.WardID, req.BedNumber)
		if derr := s.repo.Delete(ctx, id); derr != nil {
			s.logger.Error().Err(derr).Str("admission_id", id.String()).
				Msg("failed to undo admission after ledger error")
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	s.logger.Info().
		Str("admission_id", id.String()).
		Str("patient_id", req.PatientID.String()).
		Str("ward_id", req.WardID.String()).
		Int("bed_number", req.BedNumber).
		Msg("patient admitted")
	return a, nil
}

func (s *Service) releaseQuietly(ctx context.Context, wardID uuid.UUID, bedNumber int) {
	if err := s.beds.Release(ctx, wardID, bedNumber); err != nil {
		s.logger.Error().Err(err).
			Str("ward_id", wardID.String()).
			Int("bed_number", bedNumber).
			Msg("failed to release bed during rollback")
	}
}

// TransferBed moves an admitted patient to another bed. The new bed is
// occupied before the old one is released, so a failed transfer leaves
// the patient in the original bed.
func (s *Service) TransferBed(ctx context.Context, id uuid.UUID, newWardID uuid.UUID, newBedNumber int) (*Admission, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusAdmitted {
		return nil, ErrInvalidStateTransition
	}
	if newWardID == uuid.Nil || newBedNumber <= 0 {
		return nil, ErrInvalidBedSelection
	}
	oldWardID, oldBedNumber := *a.WardID, *a.BedNumber
	if newWardID == oldWardID && newBedNumber == oldBedNumber {
		return a, nil
	}

	if err := s.beds.Occupy(ctx, newWardID, newBedNumber, id); err != nil {
		return nil, err
	}

	a.WardID = &newWardID
	a.BedNumber = &newBedNumber
	if err := s.repo.Update(ctx, a); err != nil {
		s.releaseQuietly(ctx, newWardID, newBedNumber)
		a.WardID = &oldWardID
		a.BedNumber = &oldBedNumber
		return nil, fmt.Errorf("update admission: %w", err)
	}
	if err := s.beds.Release(ctx, oldWardID, oldBedNumber); err != nil {
		// The record already points at the new bed; the old bed stays
		// held until a release is retried. Release is idempotent, so a
		// retry converges.
		s.logger.Error().Err(err).
			Str("admission_id", id.String()).
			Str("ward_id", oldWardID.String()).
			Int("bed_number", oldBedNumber).
			Msg("failed to release old bed after transfer")
	}

	if err := s.repo.AddTransfer(ctx, &TransferRecord{
		AdmissionID:   id,
		FromWardID:    oldWardID,
		FromBedNumber: oldBedNumber,
		ToWardID:      newWardID,
		ToBedNumber:   newBedNumber,
	}); err != nil {
		s.logger.Error().Err(err).Str("admission_id", id.String()).
			Msg("failed to record transfer history")
	}

	s.logger.Info().
		Str("admission_id", id.String()).
		Str("to_ward_id", newWardID.String()).
		Int("to_bed_number", newBedNumber).
		Msg("patient transferred")
	return a, nil
}

// Discharge is terminal. The outstanding balance never blocks it but is
// surfaced in the result for the caller to display.
func (s *Service) Discharge(ctx context.Context, id uuid.UUID) (*DischargeResult, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusAdmitted {
		return nil, ErrInvalidStateTransition
	}

	outstanding, err := s.billing.SettleOnDischarge(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("settle ledger: %w", err)
	}

	wardID, bedNumber := *a.WardID, *a.BedNumber
	if err := s.beds.Release(ctx, wardID, bedNumber); err != nil {
		return nil, fmt.Errorf("release bed: %w", err)
	}

	now := time.Now().UTC()
	a.Status = StatusDischarged
	a.DischargeDate = &now
	a.WardID = nil
	a.BedNumber = nil
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update admission: %w", err)
	}

	s.logger.Info().
		Str("admission_id", id.String()).
		Int64("outstanding_balance", outstanding).
		Msg("patient discharged")
	return &DischargeResult{Admission: a, OutstandingBalance: outstanding}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Admission, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Admission, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListTransfers(ctx context.Context, id uuid.UUID) ([]*TransferRecord, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListTransfers(ctx, id)
}

// SoftDelete flags the record out of listings. The row stays for audit.
func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetDeleted(ctx, id, true)
}
