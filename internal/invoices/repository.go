package invoices

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for invoice storage.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) (*Invoice, error)
	GetByID(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]*Invoice, error)
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (*Invoice, error)
}

// InMemoryRepository is a stub implementation of Repository using
// in-memory storage.
type InMemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*Invoice
	order []string
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[string]*Invoice)}
}

// Create stores an invoice in memory.
func (r *InMemoryRepository) Create(ctx context.Context, inv *Invoice) (*Invoice, error) {
	stored := *inv
	stored.ID = uuid.New().String()
	stored.Items = append([]LineItem(nil), inv.Items...)
	for i := range stored.Items {
		stored.Items[i].ID = uuid.New().String()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.mu.Lock()
	r.byID[stored.ID] = &stored
	r.order = append(r.order, stored.ID)
	r.mu.Unlock()
	return copyInvoice(&stored), nil
}

// GetByID retrieves an invoice by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.byID[id]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	return copyInvoice(inv), nil
}

// List returns invoices matching the filter in creation order.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Invoice
	for _, id := range r.order {
		inv := r.byID[id]
		if filter.Branch != "" && inv.Branch != filter.Branch {
			continue
		}
		if filter.AppointmentID != "" && inv.AppointmentID != filter.AppointmentID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, copyInvoice(inv))
	}
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
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byID[id]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	inv.Status = status
	switch status {
	case StatusIssued:
		inv.IssuedAt = &at
	case StatusPaid:
		inv.PaidAt = &at
	}
	inv.UpdatedAt = at
	return copyInvoice(inv), nil
}

func copyInvoice(inv *Invoice) *Invoice {
	out := *inv
	out.Items = append([]LineItem(nil), inv.Items...)
	return &out
}
