package patient

import "errors"

var (
	ErrNotFound            = errors.New("patient not found")
	ErrMissingName         = errors.New("name is required")
	ErrMissingSurname      = errors.New("surname is required")
	ErrInvalidNationalID   = errors.New("national id must be exactly 12 digits")
	ErrInvalidPhone        = errors.New("phone number must be empty or exactly 10 digits")
	ErrInvalidPhoto        = errors.New("invalid photo encoding")
	ErrIdentityConflict    = errors.New("a patient with this national id already exists under a different name")
	ErrDuplicateNationalID = errors.New("national id already registered")
	ErrIDAllocation        = errors.New("patient id allocation failed")
)
