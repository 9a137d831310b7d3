package appointments

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dentalops/clinic-platform/internal/events"
	"github.com/dentalops/clinic-platform/internal/observability/metrics"
	"github.com/dentalops/clinic-platform/internal/scheduling"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

const defaultDurationMinutes = 30

type availabilityChecker interface {
	CheckDoctorAvailability(ctx context.Context, doctorID, date, at, branch string, durationMinutes int, excludeAppointmentID string) bool
	FindAvailableDoctors(ctx context.Context, date, at, branch string, serviceCategories []string, durationMinutes int, excludeAppointmentID string) []scheduling.DoctorCandidate
}

type eventRecorder interface {
	Insert(ctx context.Context, branch, eventType string, payload any) (uuid.UUID, error)
}

// Service owns the appointment lifecycle. Every booking is confirmed
// against the slot resolver before it is written, so the fail-closed
// confirmation semantics apply to all writes.
type Service struct {
	repo    Repository
	checker availabilityChecker
	events  eventRecorder
	metrics *metrics.AppointmentMetrics
	logger  *logging.Logger
}

// NewService creates an appointment service. events and metrics may be
// nil when the outbox or metrics registry is not configured.
func NewService(repo Repository, checker availabilityChecker, events eventRecorder, m *metrics.AppointmentMetrics, logger *logging.Logger) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if checker == nil {
		panic("appointments: availability checker required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:    repo,
		checker: checker,
		events:  events,
		metrics: m,
		logger:  logger,
	}
}

// Book confirms and stores a new appointment. With an empty DoctorID
// the best ranked available doctor is assigned automatically.
func (s *Service) Book(ctx context.Context, req *BookRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		s.metrics.ObserveBooking("invalid")
		return nil, err
	}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = defaultDurationMinutes
	}

	doctorID := req.DoctorID
	if doctorID == "" {
		candidates := s.checker.FindAvailableDoctors(ctx, req.Date, req.Time, req.Branch, req.ServiceCategories, duration, "")
		if len(candidates) == 0 {
			s.metrics.ObserveBooking("no_doctor")
			return nil, ErrNoDoctorAvailable
		}
		doctorID = candidates[0].ID
		s.logger.Info("doctor auto-assigned",
			"doctor_id", doctorID, "date", req.Date, "time", req.Time, "branch", req.Branch)
	} else if !s.checker.CheckDoctorAvailability(ctx, doctorID, req.Date, req.Time, req.Branch, duration, "") {
		s.metrics.ObserveBooking("conflict")
		return nil, ErrSlotTaken
	}

	appt, err := s.repo.Create(ctx, &Appointment{
		PatientName:       req.PatientName,
		PatientEmail:      req.PatientEmail,
		PatientPhone:      req.PatientPhone,
		DoctorID:          doctorID,
		Branch:            req.Branch,
		Date:              req.Date,
		Time:              req.Time,
		DurationMinutes:   duration,
		ServiceCategories: req.ServiceCategories,
		Status:            StatusPending,
		Notes:             req.Notes,
	})
	if err != nil {
		s.metrics.ObserveBooking("error")
		return nil, fmt.Errorf("appointments: book failed: %w", err)
	}

	s.metrics.ObserveBooking("booked")
	s.recordEvent(ctx, appt, events.TypeAppointmentBooked)
	s.logger.Info("appointment booked",
		"id", appt.ID, "doctor_id", appt.DoctorID, "date", appt.Date, "time", appt.Time)
	return appt, nil
}

// UpdateStatus applies a lifecycle transition.
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(appt.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, appt.Status, to)
	}
	from := appt.Status

	updated, err := s.repo.UpdateStatus(ctx, id, to)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(string(from), string(to))
	s.recordEvent(ctx, updated, events.TypeAppointmentStatusChanged)
	s.logger.Info("appointment status changed", "id", id, "from", from, "to", to)
	return updated, nil
}

// Reschedule moves an appointment to a new slot, excluding the
// appointment itself from the conflict check so it can keep its own
// time or shift within it.
func (s *Service) Reschedule(ctx context.Context, id string, req *RescheduleRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusPending && appt.Status != StatusConfirmed {
		return nil, fmt.Errorf("%w: %s appointments cannot be rescheduled", ErrInvalidTransition, appt.Status)
	}

	doctorID := req.DoctorID
	if doctorID == "" {
		doctorID = appt.DoctorID
	}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = appt.DurationMinutes
	}

	if !s.checker.CheckDoctorAvailability(ctx, doctorID, req.Date, req.Time, appt.Branch, duration, id) {
		s.metrics.ObserveBooking("conflict")
		return nil, ErrSlotTaken
	}

	updated, err := s.repo.UpdateSlot(ctx, id, doctorID, req.Date, req.Time, duration)
	if err != nil {
		return nil, err
	}

	s.recordEvent(ctx, updated, events.TypeAppointmentRescheduled)
	s.logger.Info("appointment rescheduled",
		"id", id, "doctor_id", doctorID, "date", req.Date, "time", req.Time)
	return updated, nil
}

// FindDoctors returns ranked candidates for a slot without booking.
func (s *Service) FindDoctors(ctx context.Context, date, at, branch string, serviceCategories []string, durationMinutes int) []scheduling.DoctorCandidate {
	if durationMinutes == 0 {
		durationMinutes = defaultDurationMinutes
	}
	return s.checker.FindAvailableDoctors(ctx, date, at, branch, serviceCategories, durationMinutes, "")
}

// Get returns one appointment.
func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns appointments matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	return s.repo.List(ctx, filter)
}

// recordEvent writes the appointment to the outbox. Delivery failures
// never fail the booking; the outbox poller retries.
func (s *Service) recordEvent(ctx context.Context, appt *Appointment, eventType string) {
	if s.events == nil {
		return
	}
	if _, err := s.events.Insert(ctx, appt.Branch, eventType, appt); err != nil {
		s.logger.Error("failed to record appointment event", "error", err, "id", appt.ID, "type", eventType)
	}
}
