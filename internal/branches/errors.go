package branches

import "errors"

var (
	// ErrMissingCode is returned when the branch code is empty.
	ErrMissingCode = errors.New("branch code is required")

	// ErrMissingName is returned when the branch name is empty.
	ErrMissingName = errors.New("branch name is required")

	// ErrBranchNotFound is returned when a branch is not found.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrEmptySchedule is returned when a schedule update carries no days.
	ErrEmptySchedule = errors.New("schedule must include at least one day")

	// ErrInvalidWeekday is returned for weekdays outside 0-6.
	ErrInvalidWeekday = errors.New("weekday must be between 0 and 6")

	// ErrDuplicateWeekday is returned when a schedule repeats a weekday.
	ErrDuplicateWeekday = errors.New("schedule repeats a weekday")

	// ErrInvalidHours is returned when open/close times are malformed
	// or inverted.
	ErrInvalidHours = errors.New("open must be a valid HH:MM time before close")
)
