package availability

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for availability window storage.
type Repository interface {
	Create(ctx context.Context, req *CreateWindowRequest) (*WindowEntry, error)
	ListForDoctor(ctx context.Context, doctorID string) ([]*WindowEntry, error)
	Delete(ctx context.Context, doctorID, windowID string) error
}

// InMemoryRepository is a stub implementation of Repository using
// in-memory storage.
type InMemoryRepository struct {
	mu      sync.RWMutex
	windows map[string]*WindowEntry
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{windows: make(map[string]*WindowEntry)}
}

// Create adds a window in memory.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateWindowRequest) (*WindowEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	entry := &WindowEntry{
		ID:        uuid.New().String(),
		DoctorID:  req.DoctorID,
		Branch:    req.Branch,
		Weekday:   req.Weekday,
		Date:      req.Date,
		Start:     req.Start,
		End:       req.End,
		Available: req.IsAvailable(),
		CreatedAt: time.Now().UTC(),
	}
	r.mu.Lock()
	r.windows[entry.ID] = entry
	r.mu.Unlock()
	return entry, nil
}

// ListForDoctor returns a doctor's windows ordered by start time.
func (r *InMemoryRepository) ListForDoctor(ctx context.Context, doctorID string) ([]*WindowEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*WindowEntry
	for _, w := range r.windows {
		if w.DoctorID == doctorID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

// Delete removes a window owned by the doctor.
func (r *InMemoryRepository) Delete(ctx context.Context, doctorID, windowID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[windowID]
	if !ok || w.DoctorID != doctorID {
		return ErrWindowNotFound
	}
	delete(r.windows, windowID)
	return nil
}
