package appointments

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

// transitions lists the allowed status moves. Cancelled and rejected
// rows release their time slot; completed and no_show are terminal.
var transitions = map[Status][]Status{
	StatusPending:  {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransition reports whether a status move is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Blocking reports whether the appointment still occupies its slot.
func (s Status) Blocking() bool {
	return s != StatusCancelled && s != StatusRejected
}

// Appointment represents a booked visit.
type Appointment struct {
	ID                string    `json:"id"`
	PatientName       string    `json:"patient_name"`
	PatientEmail      string    `json:"patient_email"`
	PatientPhone      string    `json:"patient_phone"`
	DoctorID          string    `json:"doctor_id"`
	Branch            string    `json:"branch"`
	Date              string    `json:"date"`
	Time              string    `json:"time"`
	DurationMinutes   int       `json:"duration_minutes"`
	ServiceCategories []string  `json:"service_categories"`
	Status            Status    `json:"status"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// BookRequest represents the request body for booking an appointment.
// DoctorID may be empty, in which case the least loaded matching
// doctor is assigned automatically.
type BookRequest struct {
	PatientName       string   `json:"patient_name"`
	PatientEmail      string   `json:"patient_email"`
	PatientPhone      string   `json:"patient_phone"`
	DoctorID          string   `json:"doctor_id,omitempty"`
	Branch            string   `json:"branch"`
	Date              string   `json:"date"`
	Time              string   `json:"time"`
	DurationMinutes   int      `json:"duration_minutes,omitempty"`
	ServiceCategories []string `json:"service_categories,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

// Validate validates the booking request.
func (r *BookRequest) Validate() error {
	if strings.TrimSpace(r.PatientName) == "" {
		return ErrMissingPatient
	}
	if r.PatientEmail == "" && r.PatientPhone == "" {
		return ErrMissingContact
	}
	if r.Branch == "" {
		return ErrMissingBranch
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return ErrInvalidDate
	}
	if _, err := time.Parse("15:04", r.Time); err != nil {
		return ErrInvalidTime
	}
	if r.DurationMinutes < 0 {
		return ErrInvalidDuration
	}
	return nil
}

// RescheduleRequest moves an existing appointment to a new slot.
type RescheduleRequest struct {
	Date            string `json:"date"`
	Time            string `json:"time"`
	DoctorID        string `json:"doctor_id,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

// Validate validates the reschedule request.
func (r *RescheduleRequest) Validate() error {
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return ErrInvalidDate
	}
	if _, err := time.Parse("15:04", r.Time); err != nil {
		return ErrInvalidTime
	}
	if r.DurationMinutes < 0 {
		return ErrInvalidDuration
	}
	return nil
}

// ListFilter narrows appointment listings.
type ListFilter struct {
	DoctorID string
	Branch   string
	Date     string
	Status   Status
	Limit    int
	Offset   int
}
