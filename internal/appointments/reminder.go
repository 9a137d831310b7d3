package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentalops/clinic-platform/internal/events"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

// ReminderScanner periodically finds confirmed appointments starting
// within the lead window and emits a reminder event for each, at most
// once per appointment.
type ReminderScanner struct {
	db       querier
	events   eventRecorder
	logger   *logging.Logger
	lead     time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewReminderScanner creates a scanner over the appointments table.
func NewReminderScanner(pool *pgxpool.Pool, recorder eventRecorder, logger *logging.Logger, opts ...ReminderOption) *ReminderScanner {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return newReminderScannerWithQuerier(pool, recorder, logger, opts...)
}

func newReminderScannerWithQuerier(db querier, recorder eventRecorder, logger *logging.Logger, opts ...ReminderOption) *ReminderScanner {
	if recorder == nil {
		panic("appointments: event recorder required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &ReminderScanner{
		db:       db,
		events:   recorder,
		logger:   logger,
		lead:     24 * time.Hour,
		interval: 15 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReminderOption customizes the scanner.
type ReminderOption func(*ReminderScanner)

// WithReminderLead sets how far ahead of the appointment the reminder
// fires.
func WithReminderLead(lead time.Duration) ReminderOption {
	return func(s *ReminderScanner) {
		if lead > 0 {
			s.lead = lead
		}
	}
}

// WithScanInterval sets the polling interval.
func WithScanInterval(interval time.Duration) ReminderOption {
	return func(s *ReminderScanner) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// Start blocks, scanning on the configured interval until ctx is done.
func (s *ReminderScanner) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.Scan(ctx); err != nil {
				s.logger.Error("reminder scan failed", "error", err)
			} else if n > 0 {
				s.logger.Info("reminder scan emitted events", "count", n)
			}
		}
	}
}

// Scan emits reminder events for confirmed appointments whose start
// falls inside [now, now+lead). Marking reminded_at in the same UPDATE
// keeps a second scan from emitting twice.
func (s *ReminderScanner) Scan(ctx context.Context) (int, error) {
	now := s.now().UTC()
	horizon := now.Add(s.lead)

	query := `
		UPDATE appointments
		SET reminded_at = now()
		WHERE status = 'confirmed'
		  AND reminded_at IS NULL
		  AND (on_date + start_time) >= $1
		  AND (on_date + start_time) < $2
		RETURNING ` + appointmentColumns
	rows, err := s.db.Query(ctx, query, now, horizon)
	if err != nil {
		return 0, fmt.Errorf("appointments: reminder scan: %w", err)
	}
	defer rows.Close()

	var due []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return 0, fmt.Errorf("appointments: reminder scan row: %w", err)
		}
		due = append(due, appt)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("appointments: reminder scan rows: %w", err)
	}

	var emitted int
	for _, appt := range due {
		if _, err := s.events.Insert(ctx, appt.Branch, events.TypeAppointmentReminderDue, appt); err != nil {
			s.logger.Error("failed to record reminder event", "error", err, "appointment_id", appt.ID)
			continue
		}
		emitted++
	}
	return emitted, nil
}
