package visit

import (
	"context"
	"time"
)

// Visit maps to the visits table.
type Visit struct {
	VisitID      int64     `db:"visit_id" json:"visit_id"`
	PatientID    string    `db:"patient_id" json:"patient_id"`
	DoctorID     string    `db:"doctor_id" json:"doctor_id,omitempty"`
	OpNo         string    `db:"op_no" json:"op_no,omitempty"`
	RegNo        string    `db:"reg_no" json:"reg_no,omitempty"`
	BP           string    `db:"bp" json:"bp,omitempty"`
	Weight       string    `db:"weight" json:"weight,omitempty"`
	Temperature  string    `db:"temperature" json:"temperature,omitempty"`
	Symptoms     string    `db:"symptoms" json:"symptoms,omitempty"`
	Complaint    string    `db:"complaint" json:"complaint,omitempty"`
	Status       string    `db:"status" json:"status,omitempty"`
	Prescription string    `db:"prescription" json:"prescription,omitempty"`
	Notes        string    `db:"notes" json:"notes,omitempty"`
	VisitDate    time.Time `db:"visit_date" json:"visit_date"`
}

// CreateRequest is the inbound payload for creating a visit directly.
type CreateRequest struct {
	PatientID   string `json:"patient_id"`
	DoctorID    string `json:"doctor_id"`
	OpNo        string `json:"op_no"`
	RegNo       string `json:"reg_no"`
	BP          string `json:"bp"`
	Weight      string `json:"weight"`
	Temperature string `json:"temperature"`
	Symptoms    string `json:"symptoms"`
	Complaint   string `json:"complaint"`
	Status      string `json:"status"`
}

// Update applies a partial visit update; nil fields are untouched. A
// prescription is applied only when non-empty: the consult screen always
// submits the field, and a blank value must not erase a saved prescription.
type Update struct {
	DoctorID     *string `json:"doctor_id"`
	OpNo         *string `json:"op_no"`
	RegNo        *string `json:"reg_no"`
	BP           *string `json:"bp"`
	Weight       *string `json:"weight"`
	Temperature  *string `json:"temperature"`
	Symptoms     *string `json:"symptoms"`
	Complaint    *string `json:"complaint"`
	Status       *string `json:"status"`
	Prescription *string `json:"prescription"`
	Notes        *string `json:"notes"`
}

// LabTestInfo is the slice of a lab test the visit view carries.
type LabTestInfo struct {
	TestID         int64  `json:"test_id"`
	TestName       string `json:"test_name"`
	Result         string `json:"result"`
	ReferenceRange string `json:"reference_range"`
	Status         string `json:"status"`
}

// LabTestResolver resolves the lab tests associated with a visit. The
// concrete resolver lives in the labtest package; an adapter wires it in at
// startup.
type LabTestResolver interface {
	ByVisit(ctx context.Context, visitID int64) ([]LabTestInfo, error)
}

// View is a visit enriched with the attending doctor's name and the visit's
// lab tests.
type View struct {
	Visit
	DoctorName string        `json:"doctor_name,omitempty"`
	LabTests   []LabTestInfo `json:"lab_tests"`
}
