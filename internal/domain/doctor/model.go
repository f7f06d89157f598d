package doctor

import "errors"

// Doctor is a directory entry. Credentials are not stored here.
type Doctor struct {
	DoctorID       string `db:"doctor_id" json:"doctor_id"`
	Name           string `db:"name" json:"name"`
	Specialization string `db:"specialization" json:"specialization,omitempty"`
	PhoneNumber    string `db:"phone_number" json:"phone_number,omitempty"`
	Email          string `db:"email" json:"email,omitempty"`
}

var ErrNotFound = errors.New("doctor not found")
