package ward

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence surface for wards, beds and departments.
type Repository interface {
	CreateDepartment(ctx context.Context, dept *Department) error
	ListDepartments(ctx context.Context) ([]*Department, error)

	CreateWard(ctx context.Context, w *Ward) error
	GetWard(ctx context.Context, id uuid.UUID) (*Ward, error)
	ListWards(ctx context.Context) ([]*Ward, error)

	ListBeds(ctx context.Context, wardID uuid.UUID) ([]*Bed, error)
	ListAvailableBeds(ctx context.Context, wardID uuid.UUID) ([]*Bed, error)
	GetBed(ctx context.Context, wardID uuid.UUID, bedNumber int) (*Bed, error)

	// OccupyBed is a conditional update: it reports false when no free bed
	// row matched, without distinguishing absent from occupied.
	OccupyBed(ctx context.Context, wardID uuid.UUID, bedNumber int, admissionID uuid.UUID) (bool, error)
	// ReleaseBed reports false when the bed row does not exist. Releasing a
	// free bed matches the row and reports true.
	ReleaseBed(ctx context.Context, wardID uuid.UUID, bedNumber int) (bool, error)

	Summary(ctx context.Context, wardID uuid.UUID) (*Summary, error)
	SummaryAll(ctx context.Context) ([]*Summary, error)
}
