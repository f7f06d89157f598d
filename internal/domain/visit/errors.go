package visit

import "errors"

var (
	ErrNotFound        = errors.New("visit not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrMissingPatient  = errors.New("patient id is required")
)
