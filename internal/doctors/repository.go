package doctors

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for doctor storage.
type Repository interface {
	Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error)
	GetByID(ctx context.Context, id string) (*Doctor, error)
	List(ctx context.Context, branch string) ([]*Doctor, error)
	Update(ctx context.Context, id string, req *UpdateDoctorRequest) (*Doctor, error)
}

// InMemoryRepository is a stub implementation of Repository using
// in-memory storage.
type InMemoryRepository struct {
	mu      sync.RWMutex
	doctors map[string]*Doctor
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{doctors: make(map[string]*Doctor)}
}

// Create registers a new doctor in memory.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	doc := &Doctor{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Email:       req.Email,
		Specialties: NormalizeSpecialties(req.Specialties),
		Branches:    append([]string(nil), req.Branches...),
		Enabled:     true,
		CreatedAt:   time.Now().UTC(),
	}
	r.mu.Lock()
	r.doctors[doc.ID] = doc
	r.mu.Unlock()
	return doc, nil
}

// GetByID retrieves a doctor by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return doc, nil
}

// List returns doctors, optionally filtered to a branch assignment.
func (r *InMemoryRepository) List(ctx context.Context, branch string) ([]*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Doctor, 0, len(r.doctors))
	for _, doc := range r.doctors {
		if branch != "" && !assignedTo(doc, branch) {
			continue
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Update applies a partial update.
func (r *InMemoryRepository) Update(ctx context.Context, id string, req *UpdateDoctorRequest) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	if req.Name != nil {
		doc.Name = *req.Name
	}
	if req.Email != nil {
		doc.Email = *req.Email
	}
	if req.Specialties != nil {
		doc.Specialties = NormalizeSpecialties(*req.Specialties)
	}
	if req.Branches != nil {
		doc.Branches = append([]string(nil), (*req.Branches)...)
	}
	if req.Enabled != nil {
		doc.Enabled = *req.Enabled
	}
	return doc, nil
}

func assignedTo(doc *Doctor, branch string) bool {
	for _, b := range doc.Branches {
		if b == branch {
			return true
		}
	}
	return false
}
