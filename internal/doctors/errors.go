package doctors

import "errors"

var (
	// ErrMissingName is returned when the doctor name is empty.
	ErrMissingName = errors.New("name is required")

	// ErrInvalidEmail is returned when the email is missing or malformed.
	ErrInvalidEmail = errors.New("a valid email is required")

	// ErrNoBranches is returned when a doctor has no branch assignment.
	ErrNoBranches = errors.New("at least one branch assignment is required")

	// ErrDoctorNotFound is returned when a doctor is not found.
	ErrDoctorNotFound = errors.New("doctor not found")
)
