package branches

import (
	"strings"
	"time"
)

// Branch represents a physical clinic location.
type Branch struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// DaySchedule is one weekday's opening hours for a branch.
type DaySchedule struct {
	Weekday int    `json:"weekday"`
	Open    string `json:"open,omitempty"`
	Close   string `json:"close,omitempty"`
	Closed  bool   `json:"closed"`
}

// UpsertBranchRequest is the request body for creating or updating a
// branch.
type UpsertBranchRequest struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Validate checks the upsert request.
func (r *UpsertBranchRequest) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return ErrMissingCode
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingName
	}
	return nil
}

// SetHoursRequest replaces a branch's full weekly schedule.
type SetHoursRequest struct {
	Days []DaySchedule `json:"days"`
}

// Validate checks that each day is either closed or carries a sane
// open/close pair.
func (r *SetHoursRequest) Validate() error {
	if len(r.Days) == 0 {
		return ErrEmptySchedule
	}
	seen := make(map[int]struct{}, len(r.Days))
	for _, d := range r.Days {
		if d.Weekday < 0 || d.Weekday > 6 {
			return ErrInvalidWeekday
		}
		if _, dup := seen[d.Weekday]; dup {
			return ErrDuplicateWeekday
		}
		seen[d.Weekday] = struct{}{}
		if d.Closed {
			continue
		}
		if !validClock(d.Open) || !validClock(d.Close) {
			return ErrInvalidHours
		}
		if d.Open >= d.Close {
			return ErrInvalidHours
		}
	}
	return nil
}

func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
