package ward

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrWardNotFound = errors.New("ward not found")
	ErrBedNotFound  = errors.New("bed not found")
	ErrBedOccupied  = errors.New("bed already occupied")
)

// Registry is the single source of truth for bed inventory and occupancy.
type Registry struct {
	repo Repository
}

func NewRegistry(repo Repository) *Registry {
	return &Registry{repo: repo}
}

func (r *Registry) CreateDepartment(ctx context.Context, name string) (*Department, error) {
	if name == "" {
		return nil, fmt.Errorf("department name is required")
	}
	dept := &Department{Name: name}
	if err := r.repo.CreateDepartment(ctx, dept); err != nil {
		return nil, err
	}
	return dept, nil
}

func (r *Registry) ListDepartments(ctx context.Context) ([]*Department, error) {
	return r.repo.ListDepartments(ctx)
}

// CreateWard registers a ward and seeds its bed inventory 1..bedCount.
func (r *Registry) CreateWard(ctx context.Context, name string, departmentID uuid.UUID, bedCount int) (*Ward, error) {
	if name == "" {
		return nil, fmt.Errorf("ward name is required")
	}
	if departmentID == uuid.Nil {
		return nil, fmt.Errorf("department_id is required")
	}
	if bedCount <= 0 {
		return nil, fmt.Errorf("bed_count must be positive")
	}
	w := &Ward{Name: name, DepartmentID: departmentID, BedCount: bedCount}
	if err := r.repo.CreateWard(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (r *Registry) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	return r.repo.GetWard(ctx, id)
}

func (r *Registry) ListWards(ctx context.Context) ([]*Ward, error) {
	return r.repo.ListWards(ctx)
}

// ListBeds returns the ward's full bed inventory in bed-number order.
func (r *Registry) ListBeds(ctx context.Context, wardID uuid.UUID) ([]*Bed, error) {
	if _, err := r.repo.GetWard(ctx, wardID); err != nil {
		return nil, err
	}
	return r.repo.ListBeds(ctx, wardID)
}

// ListAvailableBeds returns the ward's free beds in bed-number order.
func (r *Registry) ListAvailableBeds(ctx context.Context, wardID uuid.UUID) ([]*Bed, error) {
	if _, err := r.repo.GetWard(ctx, wardID); err != nil {
		return nil, err
	}
	return r.repo.ListAvailableBeds(ctx, wardID)
}

// Occupy claims a free bed for an admission. The underlying update is
// conditional, so when two callers race for the same bed exactly one wins
// and the other observes ErrBedOccupied.
func (r *Registry) Occupy(ctx context.Context, wardID uuid.UUID, bedNumber int, admissionID uuid.UUID) error {
	ok, err := r.repo.OccupyBed(ctx, wardID, bedNumber, admissionID)
	if err != nil {
		return fmt.Errorf("occupy bed: %w", err)
	}
	if ok {
		return nil
	}
	// No free row matched: classify as missing vs taken.
	if _, err := r.repo.GetBed(ctx, wardID, bedNumber); err != nil {
		return err
	}
	return ErrBedOccupied
}

// Release frees a bed. Releasing an already free bed is a no-op, so a
// repeated release converges to the same state.
func (r *Registry) Release(ctx context.Context, wardID uuid.UUID, bedNumber int) error {
	ok, err := r.repo.ReleaseBed(ctx, wardID, bedNumber)
	if err != nil {
		return fmt.Errorf("release bed: %w", err)
	}
	if !ok {
		return ErrBedNotFound
	}
	return nil
}

func (r *Registry) Summary(ctx context.Context, wardID uuid.UUID) (*Summary, error) {
	return r.repo.Summary(ctx, wardID)
}

func (r *Registry) SummaryAll(ctx context.Context) ([]*Summary, error) {
	return r.repo.SummaryAll(ctx)
}
