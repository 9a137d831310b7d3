package availability

import (
	"time"
)

// WindowEntry is one schedule entry for a doctor at a branch. Exactly
// one of Weekday (recurring) or Date (one-off) is set. One-off entries
// replace the recurring schedule for their date. Available=false
// records time off inside an otherwise open schedule.
type WindowEntry struct {
	ID        string    `json:"id"`
	DoctorID  string    `json:"doctor_id"`
	Branch    string    `json:"branch"`
	Weekday   *int      `json:"weekday,omitempty"`
	Date      *string   `json:"date,omitempty"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateWindowRequest represents the request body for adding a window.
type CreateWindowRequest struct {
	DoctorID  string  `json:"doctor_id"`
	Branch    string  `json:"branch"`
	Weekday   *int    `json:"weekday,omitempty"`
	Date      *string `json:"date,omitempty"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	Available *bool   `json:"available,omitempty"`
}

// Validate checks the create window request.
func (r *CreateWindowRequest) Validate() error {
	if r.DoctorID == "" {
		return ErrMissingDoctor
	}
	if r.Branch == "" {
		return ErrMissingBranch
	}
	if (r.Weekday == nil) == (r.Date == nil) {
		return ErrAmbiguousRecurrence
	}
	if r.Weekday != nil && (*r.Weekday < 0 || *r.Weekday > 6) {
		return ErrInvalidWeekday
	}
	if r.Date != nil {
		if _, err := time.Parse("2006-01-02", *r.Date); err != nil {
			return ErrInvalidDate
		}
	}
	if !validClock(r.Start) || !validClock(r.End) {
		return ErrInvalidTimes
	}
	if r.Start >= r.End {
		return ErrInvalidTimes
	}
	return nil
}

// IsAvailable defaults omitted available flags to true.
func (r *CreateWindowRequest) IsAvailable() bool {
	if r.Available == nil {
		return true
	}
	return *r.Available
}

func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
