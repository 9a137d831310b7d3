package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for appointment storage.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]*Appointment, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error)
	UpdateSlot(ctx context.Context, id string, doctorID, date, at string, durationMinutes int) (*Appointment, error)
}

// InMemoryRepository is a stub implementation of Repository using
// in-memory storage.
type InMemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*Appointment
	order []string
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[string]*Appointment)}
}

// Create stores an appointment in memory.
func (r *InMemoryRepository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	stored := *appt
	stored.ID = uuid.New().String()
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.mu.Lock()
	r.byID[stored.ID] = &stored
	r.order = append(r.order, stored.ID)
	r.mu.Unlock()
	return &stored, nil
}

// GetByID retrieves an appointment by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	appt, ok := r.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	copy := *appt
	return &copy, nil
}

// List returns appointments matching the filter in creation order.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Appointment
	for _, id := range r.order {
		appt := r.byID[id]
		if filter.DoctorID != "" && appt.DoctorID != filter.DoctorID {
			continue
		}
		if filter.Branch != "" && appt.Branch != filter.Branch {
			continue
		}
		if filter.Date != "" && appt.Date != filter.Date {
			continue
		}
		if filter.Status != "" && appt.Status != filter.Status {
			continue
		}
		copy := *appt
		out = append(out, &copy)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

// UpdateStatus sets a new status without transition checks; the
// service layer enforces the lifecycle.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	appt.Status = status
	appt.UpdatedAt = time.Now().UTC()
	copy := *appt
	return &copy, nil
}

// UpdateSlot moves an appointment to a new doctor/date/time.
func (r *InMemoryRepository) UpdateSlot(ctx context.Context, id string, doctorID, date, at string, durationMinutes int) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	appt.DoctorID = doctorID
	appt.Date = date
	appt.Time = at
	appt.DurationMinutes = durationMinutes
	appt.UpdatedAt = time.Now().UTC()
	copy := *appt
	return &copy, nil
}
