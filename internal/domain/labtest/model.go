package labtest

import "time"

// Defaults applied when a request omits the field.
const (
	DefaultTestName       = "Unknown Test"
	DefaultReferenceRange = "Pending"
	DefaultStatus         = "pending"
)

// LabTest maps to the labtests table. VisitID is a plain column, not a
// foreign key: rows imported from the legacy system may reference visits that
// no longer exist, which is why reads go through the fallback resolver.
// PatientID is denormalized and may be empty on legacy rows.
type LabTest struct {
	TestID          int64      `db:"test_id" json:"test_id"`
	VisitID         int64      `db:"visit_id" json:"visit_id"`
	PatientID       string     `db:"patient_id" json:"patient_id,omitempty"`
	TestName        string     `db:"test_name" json:"test_name"`
	Result          string     `db:"result" json:"result,omitempty"`
	ReferenceRange  string     `db:"reference_range" json:"reference_range"`
	Status          string     `db:"status" json:"status"`
	TestGivenAt     time.Time  `db:"test_given_at" json:"test_given_at"`
	ResultUpdatedAt *time.Time `db:"result_updated_at" json:"result_updated_at,omitempty"`
}

// CreateRequest accepts the field aliases the two client generations send:
// the old consult screen posts "name" and "referenceRange", the new one
// posts "test_name" and "reference_range". Normalize resolves them to the
// canonical fields before the service sees the request.
type CreateRequest struct {
	VisitID   int64  `json:"visit_id"`
	PatientID string `json:"patient_id"`

	TestName string `json:"test_name"`
	Name     string `json:"name"`

	ReferenceRange    string `json:"reference_range"`
	ReferenceRangeAlt string `json:"referenceRange"`

	Result string `json:"result"`
	Status string `json:"status"`
}

// Normalize resolves alias fields and fills defaults.
func (r *CreateRequest) Normalize() {
	if r.TestName == "" {
		r.TestName = r.Name
	}
	if r.TestName == "" {
		r.TestName = DefaultTestName
	}
	if r.ReferenceRange == "" {
		r.ReferenceRange = r.ReferenceRangeAlt
	}
	if r.ReferenceRange == "" {
		r.ReferenceRange = DefaultReferenceRange
	}
	if r.Status == "" {
		r.Status = DefaultStatus
	}
}

// UpdateRequest applies a partial lab test update; nil fields are untouched.
// The same aliases as CreateRequest are accepted.
type UpdateRequest struct {
	TestName *string `json:"test_name"`
	Name     *string `json:"name"`

	ReferenceRange    *string `json:"reference_range"`
	ReferenceRangeAlt *string `json:"referenceRange"`

	Result          *string    `json:"result"`
	Status          *string    `json:"status"`
	ResultUpdatedAt *time.Time `json:"result_updated_at"`
}

// Normalize resolves alias fields.
func (r *UpdateRequest) Normalize() {
	if r.TestName == nil {
		r.TestName = r.Name
	}
	if r.ReferenceRange == nil {
		r.ReferenceRange = r.ReferenceRangeAlt
	}
}
