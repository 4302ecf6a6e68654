package admission

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence surface for admission records. Create
// respects the caller-assigned ID so the bed can be reserved under the
// record's ID before the row exists.
type Repository interface {
	Create(ctx context.Context, a *Admission) error
	GetByID(ctx context.Context, id uuid.UUID) (*Admission, error)
	Update(ctx context.Context, a *Admission) error
	// Delete removes the row outright. Only used to undo a half-finished
	// admit; callers everywhere else use SetDeleted.
	Delete(ctx context.Context, id uuid.UUID) error
	SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error

	List(ctx context.Context, limit, offset int) ([]*Admission, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Admission, int, error)

	AddTransfer(ctx context.Context, tr *TransferRecord) error
	ListTransfers(ctx context.Context, admissionID uuid.UUID) ([]*TransferRecord, error)
}
