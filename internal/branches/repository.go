package branches

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository defines the interface for branch storage.
type Repository interface {
	Upsert(ctx context.Context, req *UpsertBranchRequest) (*Branch, error)
	GetByCode(ctx context.Context, code string) (*Branch, error)
	List(ctx context.Context) ([]*Branch, error)
	Hours(ctx context.Context, code string) ([]DaySchedule, error)
	SetHours(ctx context.Context, code string, days []DaySchedule) error
}

// InMemoryRepository is a stub implementation of Repository using
// in-memory storage.
type InMemoryRepository struct {
	mu       sync.RWMutex
	branches map[string]*Branch
	hours    map[string][]DaySchedule
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		branches: make(map[string]*Branch),
		hours:    make(map[string][]DaySchedule),
	}
}

// Upsert creates or replaces a branch in memory.
func (r *InMemoryRepository) Upsert(ctx context.Context, req *UpsertBranchRequest) (*Branch, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	branch := &Branch{
		Code:      req.Code,
		Name:      req.Name,
		Address:   req.Address,
		Phone:     req.Phone,
		CreatedAt: time.Now().UTC(),
	}
	r.mu.Lock()
	if existing, ok := r.branches[req.Code]; ok {
		branch.CreatedAt = existing.CreatedAt
	}
	r.branches[req.Code] = branch
	r.mu.Unlock()
	return branch, nil
}

// GetByCode retrieves a branch by code.
func (r *InMemoryRepository) GetByCode(ctx context.Context, code string) (*Branch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	branch, ok := r.branches[code]
	if !ok {
		return nil, ErrBranchNotFound
	}
	return branch, nil
}

// List returns all branches ordered by code.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Branch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Branch, 0, len(r.branches))
	for _, b := range r.branches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Hours returns the stored weekly schedule.
func (r *InMemoryRepository) Hours(ctx context.Context, code string) ([]DaySchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]DaySchedule(nil), r.hours[code]...), nil
}

// SetHours replaces the weekly schedule.
func (r *InMemoryRepository) SetHours(ctx context.Context, code string, days []DaySchedule) error {
	r.mu.Lock()
	r.hours[code] = append([]DaySchedule(nil), days...)
	r.mu.Unlock()
	return nil
}
