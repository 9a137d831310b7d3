package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore reads schedule data from the relational database.
type PostgresStore struct {
	db querier
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("scheduling: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

func newPostgresStoreWithQuerier(db querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// BranchHours returns the opening hours row for a branch and weekday.
// A missing row reads as closed.
func (s *PostgresStore) BranchHours(ctx context.Context, branch string, weekday time.Weekday) (DayHours, error) {
	query := `
		SELECT to_char(open_time, 'HH24:MI'), to_char(close_time, 'HH24:MI'), closed
		FROM branch_hours
		WHERE branch_code = $1 AND weekday = $2
	`
	var hours DayHours
	err := s.db.QueryRow(ctx, query, branch, int(weekday)).Scan(&hours.Open, &hours.Close, &hours.Closed)
	if err != nil {
		if err == pgx.ErrNoRows {
			return DayHours{Closed: true}, nil
		}
		return DayHours{}, fmt.Errorf("scheduling: branch hours select failed: %w", err)
	}
	return hours, nil
}

// RecurringAvailability returns the weekly windows a doctor works at a
// branch on the given weekday.
func (s *PostgresStore) RecurringAvailability(ctx context.Context, doctorID, branch string, weekday time.Weekday) ([]Window, error) {
	query := `
		SELECT doctor_id::text, branch_code, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI')
		FROM doctor_availability
		WHERE doctor_id = $1 AND branch_code = $2 AND weekday = $3 AND on_date IS NULL AND is_available
		ORDER BY start_time
	`
	return s.queryWindows(ctx, query, doctorID, branch, int(weekday))
}

// SpecificAvailability returns one-off windows for an exact date. When
// any exist they replace the recurring schedule for that date.
func (s *PostgresStore) SpecificAvailability(ctx context.Context, doctorID, branch, date string) ([]Window, error) {
	query := `
		SELECT doctor_id::text, branch_code, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI')
		FROM doctor_availability
		WHERE doctor_id = $1 AND branch_code = $2 AND on_date = $3 AND is_available
		ORDER BY start_time
	`
	return s.queryWindows(ctx, query, doctorID, branch, date)
}

func (s *PostgresStore) queryWindows(ctx context.Context, query string, args ...any) ([]Window, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scheduling: availability select failed: %w", err)
	}
	defer rows.Close()

	var windows []Window
	for rows.Next() {
		var w Window
		if err := rows.Scan(&w.DoctorID, &w.Branch, &w.Start, &w.End); err != nil {
			return nil, fmt.Errorf("scheduling: availability scan failed: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// Appointments returns a doctor's bookings on a date that still occupy
// time. Cancelled and rejected rows never block a slot. excludeID, when
// set, drops one appointment so reschedule checks do not collide with
// the booking being moved.
func (s *PostgresStore) Appointments(ctx context.Context, doctorID, date, excludeID string) ([]Appointment, error) {
	query := `
		SELECT id::text, doctor_id::text, to_char(on_date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), duration_minutes
		FROM appointments
		WHERE doctor_id = $1 AND on_date = $2
		  AND status NOT IN ('cancelled', 'rejected')
		  AND ($3 = '' OR id::text <> $3)
		ORDER BY start_time
	`
	rows, err := s.db.Query(ctx, query, doctorID, date, excludeID)
	if err != nil {
		return nil, fmt.Errorf("scheduling: appointments select failed: %w", err)
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.DoctorID, &a.Date, &a.Time, &a.DurationMinutes); err != nil {
			return nil, fmt.Errorf("scheduling: appointment scan failed: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

// Doctors returns the enabled doctors assigned to a branch.
func (s *PostgresStore) Doctors(ctx context.Context, branch string) ([]Doctor, error) {
	query := `
		SELECT d.id::text, d.name, d.email, d.specialties
		FROM doctors d
		JOIN doctor_branches db ON db.doctor_id = d.id
		WHERE db.branch_code = $1 AND d.enabled
		ORDER BY d.name
	`
	rows, err := s.db.Query(ctx, query, branch)
	if err != nil {
		return nil, fmt.Errorf("scheduling: doctors select failed: %w", err)
	}
	defer rows.Close()

	var doctors []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.Specialties); err != nil {
			return nil, fmt.Errorf("scheduling: doctor scan failed: %w", err)
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}
