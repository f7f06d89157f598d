package patient

import (
	"context"
	"time"
)

// IDAllocator issues the next patient identifier from a shared monotonic
// counter. Every call returns a value no other call has returned.
type IDAllocator interface {
	Next(ctx context.Context) (string, error)
}

type Repository interface {
	// Create persists a new patient. A unique violation on the national id
	// column is reported as ErrDuplicateNationalID.
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id string) (*Patient, error)
	GetByNationalID(ctx context.Context, nationalID string) (*Patient, error)
	// Update rewrites the stored row. A unique violation on the national id
	// column is reported as ErrDuplicateNationalID.
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	All(ctx context.Context) ([]*Patient, error)
	Search(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error)

	// LatestVisit returns the patient's most recent visit, or nil when the
	// patient has none.
	LatestVisit(ctx context.Context, patientID string) (*VisitSummary, error)
	// IDsVisitedOn returns the distinct patient ids with a visit on the given
	// calendar day.
	IDsVisitedOn(ctx context.Context, day time.Time) ([]string, error)
}
