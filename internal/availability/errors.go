package availability

import "errors"

var (
	// ErrMissingDoctor is returned when the doctor id is empty.
	ErrMissingDoctor = errors.New("doctor_id is required")

	// ErrMissingBranch is returned when the branch is empty.
	ErrMissingBranch = errors.New("branch is required")

	// ErrAmbiguousRecurrence is returned unless exactly one of weekday
	// or date is set.
	ErrAmbiguousRecurrence = errors.New("set exactly one of weekday or date")

	// ErrInvalidWeekday is returned for weekdays outside 0-6.
	ErrInvalidWeekday = errors.New("weekday must be between 0 and 6")

	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

	// ErrInvalidTimes is returned when start/end are malformed or
	// start is not before end.
	ErrInvalidTimes = errors.New("start must be a valid HH:MM time before end")

	// ErrWindowNotFound is returned when a window is not found.
	ErrWindowNotFound = errors.New("availability window not found")
)
