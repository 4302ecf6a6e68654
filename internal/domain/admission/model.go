package admission

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusAdmitted   Status = "admitted"
	StatusDischarged Status = "discharged"
)

// Admission is one patient's inpatient stay. WardID and BedNumber are set
// exactly while Status is admitted; a discharged record carries neither.
// Rows are never physically deleted, Deleted is an audit-retaining flag.
type Admission struct {
	ID                uuid.UUID  `json:"id"`
	PatientID         uuid.UUID  `json:"patient_id"`
	Status            Status     `json:"status"`
	AdmissionType     string     `json:"admission_type"`
	WardID            *uuid.UUID `json:"ward_id,omitempty"`
	BedNumber         *int       `json:"bed_number,omitempty"`
	AdmittingDoctorID uuid.UUID  `json:"admitting_doctor_id"`
	DepartmentID      uuid.UUID  `json:"department_id"`
	Diagnosis         string     `json:"diagnosis"`
	AdmissionDate     time.Time  `json:"admission_date"`
	DischargeDate     *time.Time `json:"discharge_date,omitempty"`
	Deleted           bool       `json:"deleted"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TransferRecord is one bed movement in the admission's audit trail.
type TransferRecord struct {
	ID            uuid.UUID `json:"id"`
	AdmissionID   uuid.UUID `json:"admission_id"`
	FromWardID    uuid.UUID `json:"from_ward_id"`
	FromBedNumber int       `json:"from_bed_number"`
	ToWardID      uuid.UUID `json:"to_ward_id"`
	ToBedNumber   int       `json:"to_bed_number"`
	TransferredAt time.Time `json:"transferred_at"`
}

// DischargeResult carries the final record plus the balance still owed,
// surfaced so the caller can display it. An outstanding balance does not
// block a clinical discharge.
type DischargeResult struct {
	Admission          *Admission `json:"admission"`
	OutstandingBalance int64      `json:"outstanding_balance"`
}
