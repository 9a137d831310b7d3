package appointments

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/dentalops/clinic-platform/internal/scheduling"
)

type stubChecker struct {
	available  map[string]bool
	candidates []scheduling.DoctorCandidate
	lastCheck  struct {
		doctorID, excludeID string
	}
}

func (s *stubChecker) CheckDoctorAvailability(_ context.Context, doctorID, date, at, branch string, durationMinutes int, excludeAppointmentID string) bool {
	s.lastCheck.doctorID = doctorID
	s.lastCheck.excludeID = excludeAppointmentID
	return s.available[doctorID]
}

func (s *stubChecker) FindAvailableDoctors(_ context.Context, date, at, branch string, serviceCategories []string, durationMinutes int, excludeAppointmentID string) []scheduling.DoctorCandidate {
	return s.candidates
}

type stubEvents struct {
	types []string
}

func (s *stubEvents) Insert(_ context.Context, branch, eventType string, payload any) (uuid.UUID, error) {
	s.types = append(s.types, eventType)
	return uuid.New(), nil
}

func validBookRequest() *BookRequest {
	return &BookRequest{
		PatientName:  "Juan Dela Cruz",
		PatientEmail: "juan@example.test",
		DoctorID:     "doc-1",
		Branch:       "vigan",
		Date:         "2026-01-05",
		Time:         "10:00",
	}
}

func TestBookConfirmedSlot(t *testing.T) {
	checker := &stubChecker{available: map[string]bool{"doc-1": true}}
	events := &stubEvents{}
	svc := NewService(NewInMemoryRepository(), checker, events, nil, nil)

	appt, err := svc.Book(context.Background(), validBookRequest())
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if appt.Status != StatusPending {
		t.Fatalf("expected pending status, got %s", appt.Status)
	}
	if appt.DurationMinutes != 30 {
		t.Fatalf("expected default duration, got %d", appt.DurationMinutes)
	}
	if len(events.types) != 1 || events.types[0] != "appointment.booked" {
		t.Fatalf("expected booked event, got %v", events.types)
	}
}

func TestBookRejectsTakenSlot(t *testing.T) {
	checker := &stubChecker{available: map[string]bool{}}
	svc := NewService(NewInMemoryRepository(), checker, nil, nil, nil)

	if _, err := svc.Book(context.Background(), validBookRequest()); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestBookAutoAssignsDoctor(t *testing.T) {
	checker := &stubChecker{
		candidates: []scheduling.DoctorCandidate{
			{ID: "doc-best", SpecialtyMatchScore: 2},
			{ID: "doc-next", SpecialtyMatchScore: 1},
		},
	}
	svc := NewService(NewInMemoryRepository(), checker, nil, nil, nil)

	req := validBookRequest()
	req.DoctorID = ""
	appt, err := svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if appt.DoctorID != "doc-best" {
		t.Fatalf("expected top ranked doctor assigned, got %s", appt.DoctorID)
	}
}

func TestBookNoDoctorAvailable(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), &stubChecker{}, nil, nil, nil)

	req := validBookRequest()
	req.DoctorID = ""
	if _, err := svc.Book(context.Background(), req); !errors.Is(err, ErrNoDoctorAvailable) {
		t.Fatalf("expected ErrNoDoctorAvailable, got %v", err)
	}
}

func TestBookValidation(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), &stubChecker{available: map[string]bool{"doc-1": true}}, nil, nil, nil)
	ctx := context.Background()

	req := validBookRequest()
	req.PatientName = ""
	if _, err := svc.Book(ctx, req); !errors.Is(err, ErrMissingPatient) {
		t.Fatalf("expected ErrMissingPatient, got %v", err)
	}

	req = validBookRequest()
	req.PatientEmail = ""
	if _, err := svc.Book(ctx, req); !errors.Is(err, ErrMissingContact) {
		t.Fatalf("expected ErrMissingContact, got %v", err)
	}

	req = validBookRequest()
	req.Date = "05-01-2026"
	if _, err := svc.Book(ctx, req); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestStatusLifecycle(t *testing.T) {
	checker := &stubChecker{available: map[string]bool{"doc-1": true}}
	events := &stubEvents{}
	svc := NewService(NewInMemoryRepository(), checker, events, nil, nil)
	ctx := context.Background()

	appt, err := svc.Book(ctx, validBookRequest())
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}

	confirmed, err := svc.UpdateStatus(ctx, appt.ID, StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if confirmed.Status != StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}

	if _, err := svc.UpdateStatus(ctx, appt.ID, StatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition going back to pending, got %v", err)
	}

	done, err := svc.UpdateStatus(ctx, appt.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}

	if _, err := svc.UpdateStatus(ctx, appt.ID, StatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected completed to be terminal, got %v", err)
	}

	want := []string{"appointment.booked", "appointment.status_changed", "appointment.status_changed"}
	if len(events.types) != len(want) {
		t.Fatalf("unexpected events: %v", events.types)
	}
}

func TestRescheduleExcludesSelf(t *testing.T) {
	checker := &stubChecker{available: map[string]bool{"doc-1": true}}
	svc := NewService(NewInMemoryRepository(), checker, nil, nil, nil)
	ctx := context.Background()

	appt, err := svc.Book(ctx, validBookRequest())
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}

	moved, err := svc.Reschedule(ctx, appt.ID, &RescheduleRequest{Date: "2026-01-06", Time: "11:00"})
	if err != nil {
		t.Fatalf("reschedule failed: %v", err)
	}
	if moved.Date != "2026-01-06" || moved.Time != "11:00" {
		t.Fatalf("unexpected slot: %+v", moved)
	}
	if checker.lastCheck.excludeID != appt.ID {
		t.Fatalf("expected conflict check to exclude the appointment itself, got %q", checker.lastCheck.excludeID)
	}
}

func TestRescheduleCancelledFails(t *testing.T) {
	checker := &stubChecker{available: map[string]bool{"doc-1": true}}
	svc := NewService(NewInMemoryRepository(), checker, nil, nil, nil)
	ctx := context.Background()

	appt, err := svc.Book(ctx, validBookRequest())
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, appt.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if _, err := svc.Reschedule(ctx, appt.ID, &RescheduleRequest{Date: "2026-01-06", Time: "11:00"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestStatusBlocking(t *testing.T) {
	if StatusCancelled.Blocking() || StatusRejected.Blocking() {
		t.Fatal("cancelled and rejected must release the slot")
	}
	if !StatusPending.Blocking() || !StatusConfirmed.Blocking() {
		t.Fatal("pending and confirmed must hold the slot")
	}
}
