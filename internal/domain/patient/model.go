package patient

import (
	"time"
)

// Patient maps to the patients table. PatientID is a zero-padded decimal
// string drawn from a shared sequence ("001", "042", ...). NationalID is the
// deduplication key; the column carries a unique constraint.
type Patient struct {
	PatientID   string    `db:"patient_id" json:"patient_id"`
	Surname     string    `db:"surname" json:"surname"`
	Name        string    `db:"name" json:"name"`
	FatherName  string    `db:"father_name" json:"father_name,omitempty"`
	Age         int       `db:"age" json:"age"`
	BloodGroup  string    `db:"blood_group" json:"blood_group,omitempty"`
	Gender      string    `db:"gender" json:"gender,omitempty"`
	NationalID  string    `db:"national_id" json:"national_id"`
	PhoneNumber string    `db:"phone_number" json:"phone_number,omitempty"`
	Address     string    `db:"address" json:"address,omitempty"`
	Photo       []byte    `db:"photo" json:"-"`
	TotalVisits int       `db:"total_visits" json:"total_visits"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// RegistrationRequest is the inbound payload for patient registration. It
// carries both patient identity fields and the vitals recorded at the desk,
// which seed the initial visit.
type RegistrationRequest struct {
	Surname     string `json:"surname"`
	Name        string `json:"name"`
	FatherName  string `json:"father_name"`
	Age         int    `json:"age"`
	BloodGroup  string `json:"blood_group"`
	Gender      string `json:"gender"`
	NationalID  string `json:"national_id"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	Photo       string `json:"photo"`

	BP          string `json:"bp"`
	Weight      string `json:"weight"`
	Temperature string `json:"temperature"`
	Symptoms    string `json:"symptoms"`
	Complaint   string `json:"complaint"`
	Status      string `json:"status"`
}

// Validate checks the request before any persistence happens.
func (r *RegistrationRequest) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}
	if r.Surname == "" {
		return ErrMissingSurname
	}
	if !isDigits(r.NationalID) || len(r.NationalID) != 12 {
		return ErrInvalidNationalID
	}
	if r.PhoneNumber != "" && (!isDigits(r.PhoneNumber) || len(r.PhoneNumber) != 10) {
		return ErrInvalidPhone
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// UpdateRequest applies a partial patient update; nil fields are untouched.
type UpdateRequest struct {
	Surname     *string `json:"surname"`
	Name        *string `json:"name"`
	FatherName  *string `json:"father_name"`
	Age         *int    `json:"age"`
	BloodGroup  *string `json:"blood_group"`
	Gender      *string `json:"gender"`
	NationalID  *string `json:"national_id"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	Photo       *string `json:"photo"`
}

// RegistrationResult is the outcome of a registration attempt.
type RegistrationResult struct {
	Patient      *View  `json:"patient"`
	IsNewPatient bool   `json:"is_new_patient"`
	Message      string `json:"message"`
}

// VisitSummary is the slice of a visit the patient read model overlays.
type VisitSummary struct {
	VisitID     int64     `json:"visit_id"`
	RegNo       string    `json:"reg_no"`
	OpNo        string    `json:"op_no"`
	BP          string    `json:"bp"`
	Weight      string    `json:"weight"`
	Temperature string    `json:"temperature"`
	Symptoms    string    `json:"symptoms"`
	Complaint   string    `json:"complaint"`
	Status      string    `json:"status"`
	VisitDate   time.Time `json:"visit_date"`
}

// InitialVisit is the visit record seeded from a registration request. The
// visit lifecycle service persists it inside the registration transaction.
type InitialVisit struct {
	PatientID   string
	BP          string
	Weight      string
	Temperature string
	Symptoms    string
	Complaint   string
	Status      string
}
