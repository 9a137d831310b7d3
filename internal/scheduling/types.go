// Package scheduling computes open appointment slots and doctor
// availability from recurring and date-specific schedule windows.
package scheduling

import (
	"context"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// TimeLayout is the wire format for times of day (zero-padded, 24h).
const TimeLayout = "15:04"

// Window is a doctor's bookable span within a single day. Start and End
// are zero-padded HH:MM strings with Start < End.
type Window struct {
	DoctorID string
	Branch   string
	Start    string
	End      string
}

// Appointment is the subset of a stored appointment the resolver needs
// for conflict detection. Cancelled and rejected appointments are never
// returned by the store.
type Appointment struct {
	ID              string
	DoctorID        string
	Date            string
	Time            string
	DurationMinutes int
}

// Doctor is a bookable practitioner. Disabled doctors are never
// returned by the store.
type Doctor struct {
	ID          string
	Name        string
	Email       string
	Specialties []string
}

// DayHours is a branch's operating hours for one weekday.
type DayHours struct {
	Open   string
	Close  string
	Closed bool
}

// DoctorCandidate is one entry in the ranked auto-assignment result.
type DoctorCandidate struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Specialties         []string `json:"specialties"`
	AppointmentCount    int      `json:"appointment_count"`
	SpecialtyMatchScore int      `json:"specialty_match_score"`
	NextAvailableTime   *string  `json:"next_available_time"`
	AvailableTimeSlots  []string `json:"available_time_slots"`
}

// NextSlotResult is the outcome of a next-available-slot search.
// NextAvailable is nil when no slot inside the lookahead horizon can
// fit the requested duration.
type NextSlotResult struct {
	NextAvailable *string  `json:"next_available"`
	Date          string   `json:"date,omitempty"`
	TimeSlots     []string `json:"time_slots"`
}

// Store is the read-only query surface the resolver needs. All methods
// return snapshots; the resolver never writes.
type Store interface {
	// BranchHours returns the operating hours of a branch on a weekday.
	BranchHours(ctx context.Context, branch string, weekday time.Weekday) (DayHours, error)

	// RecurringAvailability returns a doctor's weekly windows for a
	// branch and weekday where the doctor marked themselves available.
	RecurringAvailability(ctx context.Context, doctorID, branch string, weekday time.Weekday) ([]Window, error)

	// SpecificAvailability returns date-specific override windows for a
	// doctor, branch and date where the doctor is available.
	SpecificAvailability(ctx context.Context, doctorID, branch, date string) ([]Window, error)

	// Appointments returns a doctor's appointments on a date, excluding
	// cancelled and rejected ones. excludeID, when non-empty, omits one
	// appointment (reschedule flows check against everything else).
	Appointments(ctx context.Context, doctorID, date, excludeID string) ([]Appointment, error)

	// Doctors returns enabled doctors, optionally restricted to those
	// with any availability at the given branch.
	Doctors(ctx context.Context, branch string) ([]Doctor, error)
}
