package ward

import (
	"time"

	"github.com/google/uuid"
)

// Department is a directory row wards are grouped under.
type Department struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Ward is a physical ward with a fixed bed inventory.
// BedCount always equals the number of bed rows seeded for the ward.
type Ward struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	DepartmentID uuid.UUID `json:"department_id"`
	BedCount     int       `json:"bed_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Bed is one bed slot within a ward. Occupied is true exactly when
// AdmissionID is non-nil.
type Bed struct {
	WardID      uuid.UUID  `json:"ward_id"`
	BedNumber   int        `json:"bed_number"`
	Occupied    bool       `json:"occupied"`
	AdmissionID *uuid.UUID `json:"admission_id,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Summary is the per-ward occupancy aggregate consumed by dashboards.
type Summary struct {
	WardID    uuid.UUID `json:"ward_id"`
	WardName  string    `json:"ward_name"`
	Total     int       `json:"total"`
	Occupied  int       `json:"occupied"`
	Available int       `json:"available"`
}
