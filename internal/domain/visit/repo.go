package visit

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id int64) (*Visit, error)
	Update(ctx context.Context, v *Visit) error
	List(ctx context.Context, limit, offset int) ([]*Visit, int, error)
	// ListByPatient returns the patient's visits newest first, each with the
	// attending doctor's name resolved.
	ListByPatient(ctx context.Context, patientID string) ([]*View, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]*Visit, error)
	ListOnDay(ctx context.Context, day time.Time) ([]*Visit, error)

	// ListMissingTemperature returns visits whose temperature is NULL or
	// empty.
	ListMissingTemperature(ctx context.Context) ([]*Visit, error)
	SetTemperature(ctx context.Context, visitID int64, temperature string) error

	PatientExists(ctx context.Context, patientID string) (bool, error)
	PatientTotalVisits(ctx context.Context, patientID string) (int, error)
	// MarkFirstPrescription sets the patient's total visits to one, but only
	// while it is still zero. Safe under concurrent prescription saves.
	MarkFirstPrescription(ctx context.Context, patientID string) error
}
