package doctors

import (
	"strings"
	"time"
)

// Doctor represents a practitioner who can take appointments.
type Doctor struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Specialties []string  `json:"specialties"`
	Branches    []string  `json:"branches"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateDoctorRequest represents the request body for registering a
// doctor.
type CreateDoctorRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Specialties []string `json:"specialties"`
	Branches    []string `json:"branches"`
}

// Validate validates the create doctor request.
func (r *CreateDoctorRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingName
	}
	if !strings.Contains(r.Email, "@") {
		return ErrInvalidEmail
	}
	if len(r.Branches) == 0 {
		return ErrNoBranches
	}
	return nil
}

// UpdateDoctorRequest carries partial updates. Nil fields are left
// unchanged.
type UpdateDoctorRequest struct {
	Name        *string   `json:"name,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Specialties *[]string `json:"specialties,omitempty"`
	Branches    *[]string `json:"branches,omitempty"`
	Enabled     *bool     `json:"enabled,omitempty"`
}

// NormalizeSpecialties lowercases and deduplicates specialty tags so
// matching against service categories is case-insensitive.
func NormalizeSpecialties(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
