package labtest

import "errors"

var (
	ErrNotFound       = errors.New("lab test not found")
	ErrMissingVisitID = errors.New("visit id is required")
)
