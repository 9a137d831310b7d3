package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/dentalops/clinic-platform/internal/events"
)

type recordedEvent struct {
	branch    string
	eventType string
}

type stubRecorder struct {
	recorded []recordedEvent
	err      error
}

func (s *stubRecorder) Insert(ctx context.Context, branch, eventType string, payload any) (uuid.UUID, error) {
	if s.err != nil {
		return uuid.Nil, s.err
	}
	s.recorded = append(s.recorded, recordedEvent{branch: branch, eventType: eventType})
	return uuid.New(), nil
}

func reminderRows() *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{
		"id", "patient_name", "patient_email", "patient_phone", "doctor_id", "branch_code",
		"on_date", "start_time", "duration_minutes",
		"service_categories", "status", "notes", "created_at", "updated_at",
	}).AddRow(
		"appt-1", "Maria Cruz", "maria@example.com", "+639170000001", "doc-1", "vigan",
		"2026-01-06", "09:00", 30,
		[]string{"general"}, Status("confirmed"), "", now, now,
	)
}

func TestReminderScanEmitsDueEvents(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	recorder := &stubRecorder{}
	scanner := newReminderScannerWithQuerier(mock, recorder, nil,
		WithReminderLead(24*time.Hour))

	mock.ExpectQuery("UPDATE appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(reminderRows())

	emitted, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if emitted != 1 {
		t.Fatalf("expected 1 reminder, got %d", emitted)
	}
	if len(recorder.recorded) != 1 {
		t.Fatalf("expected 1 event, got %d", len(recorder.recorded))
	}
	if recorder.recorded[0].eventType != events.TypeAppointmentReminderDue {
		t.Fatalf("unexpected event type %s", recorder.recorded[0].eventType)
	}
	if recorder.recorded[0].branch != "vigan" {
		t.Fatalf("unexpected branch %s", recorder.recorded[0].branch)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReminderScanNothingDue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	recorder := &stubRecorder{}
	scanner := newReminderScannerWithQuerier(mock, recorder, nil)

	empty := pgxmock.NewRows([]string{
		"id", "patient_name", "patient_email", "patient_phone", "doctor_id", "branch_code",
		"on_date", "start_time", "duration_minutes",
		"service_categories", "status", "notes", "created_at", "updated_at",
	})
	mock.ExpectQuery("UPDATE appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(empty)

	emitted, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if emitted != 0 || len(recorder.recorded) != 0 {
		t.Fatalf("expected no reminders, got %d emitted", emitted)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
