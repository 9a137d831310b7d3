package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dentalops/clinic-platform/internal/events"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

type eventRecorder interface {
	Insert(ctx context.Context, branch, eventType string, payload any) (uuid.UUID, error)
}

// Service owns the invoice lifecycle. Totals are computed here so the
// stored amount always matches the line items.
type Service struct {
	repo   Repository
	events eventRecorder
	logger *logging.Logger
	now    func() time.Time
}

// NewService creates an invoice service. events may be nil when the
// outbox is not configured.
func NewService(repo Repository, events eventRecorder, logger *logging.Logger) *Service {
	if repo == nil {
		panic("invoices: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:   repo,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// Create drafts a new invoice from the request line items.
func (s *Service) Create(ctx context.Context, req *CreateInvoiceRequest) (*Invoice, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var total int64
	for _, item := range req.Items {
		total += item.TotalCents()
	}

	inv, err := s.repo.Create(ctx, &Invoice{
		AppointmentID: req.AppointmentID,
		PatientName:   req.PatientName,
		PatientEmail:  req.PatientEmail,
		Branch:        req.Branch,
		Items:         req.Items,
		TotalCents:    total,
		Status:        StatusDraft,
	})
	if err != nil {
		return nil, fmt.Errorf("invoices: create failed: %w", err)
	}

	s.logger.Info("invoice drafted", "id", inv.ID, "branch", inv.Branch, "total_cents", inv.TotalCents)
	return inv, nil
}

// Issue moves a draft invoice to issued and emits the billing event.
func (s *Service) Issue(ctx context.Context, id string) (*Invoice, error) {
	return s.transition(ctx, id, StatusIssued, events.TypeInvoiceIssued)
}

// MarkPaid settles an issued invoice and emits the receipt event.
func (s *Service) MarkPaid(ctx context.Context, id string) (*Invoice, error) {
	return s.transition(ctx, id, StatusPaid, events.TypeInvoicePaid)
}

// Void cancels a draft or issued invoice. No event is emitted; voided
// invoices never reached the patient as a payable document.
func (s *Service) Void(ctx context.Context, id string) (*Invoice, error) {
	return s.transition(ctx, id, StatusVoid, "")
}

func (s *Service) transition(ctx context.Context, id string, to Status, eventType string) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(inv.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, inv.Status, to)
	}
	from := inv.Status

	updated, err := s.repo.UpdateStatus(ctx, id, to, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if eventType != "" && s.events != nil {
		if _, err := s.events.Insert(ctx, updated.Branch, eventType, updated); err != nil {
			s.logger.Error("failed to record invoice event", "error", err, "id", id, "type", eventType)
		}
	}
	s.logger.Info("invoice status changed", "id", id, "from", from, "to", to)
	return updated, nil
}

// Get returns one invoice.
func (s *Service) Get(ctx context.Context, id string) (*Invoice, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns invoices matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Invoice, error) {
	return s.repo.List(ctx, filter)
}
