package labtest

import "context"

type Repository interface {
	Insert(ctx context.Context, t *LabTest) error
	GetByID(ctx context.Context, id int64) (*LabTest, error)
	Update(ctx context.Context, t *LabTest) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*LabTest, int, error)
	ListByPatient(ctx context.Context, patientID string) ([]*LabTest, error)
	Count(ctx context.Context) (int, error)

	// Visit association access paths. They express the same question four
	// ways because the visit_id column carries no foreign key and different
	// row generations populate it differently.
	ByVisitDirect(ctx context.Context, visitID int64) ([]*LabTest, error)
	ByVisitMapped(ctx context.Context, visitID int64) ([]*LabTest, error)
	ByVisitNative(ctx context.Context, visitID int64) ([]*LabTest, error)
	ByVisitComprehensive(ctx context.Context, visitID int64) ([]*LabTest, error)
	ByVisitAndPatient(ctx context.Context, visitID int64, patientID string) ([]*LabTest, error)
}
