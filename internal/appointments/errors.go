package appointments

import "errors"

var (
	// ErrMissingPatient is returned when the patient name is empty.
	ErrMissingPatient = errors.New("patient name is required")

	// ErrMissingContact is returned when both email and phone are missing.
	ErrMissingContact = errors.New("either email or phone is required")

	// ErrMissingBranch is returned when the branch is empty.
	ErrMissingBranch = errors.New("branch is required")

	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

	// ErrInvalidTime is returned for times not in HH:MM form.
	ErrInvalidTime = errors.New("time must be HH:MM")

	// ErrInvalidDuration is returned for negative durations.
	ErrInvalidDuration = errors.New("duration must be positive")

	// ErrSlotTaken is returned when the requested slot cannot be
	// confirmed for the doctor.
	ErrSlotTaken = errors.New("the requested slot is not available")

	// ErrNoDoctorAvailable is returned when auto-assignment finds no
	// doctor for the requested slot.
	ErrNoDoctorAvailable = errors.New("no doctor is available for the requested slot")

	// ErrAppointmentNotFound is returned when an appointment is not found.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrInvalidTransition is returned for a disallowed status change.
	ErrInvalidTransition = errors.New("status transition not allowed")
)
