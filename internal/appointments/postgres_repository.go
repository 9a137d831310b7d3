package appointments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const appointmentColumns = `
	id::text, patient_name, patient_email, patient_phone, doctor_id::text, branch_code,
	to_char(on_date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), duration_minutes,
	service_categories, status, notes, created_at, updated_at
`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.PatientName, &a.PatientEmail, &a.PatientPhone, &a.DoctorID, &a.Branch,
		&a.Date, &a.Time, &a.DurationMinutes,
		&a.ServiceCategories, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new appointment row.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	id := uuid.New()
	query := `
		INSERT INTO appointments
			(id, patient_name, patient_email, patient_phone, doctor_id, branch_code,
			 on_date, start_time, duration_minutes, service_categories, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8::time, $9, $10, $11, $12)
		RETURNING ` + appointmentColumns
	row := r.db.QueryRow(ctx, query,
		id, appt.PatientName, appt.PatientEmail, appt.PatientPhone, appt.DoctorID, appt.Branch,
		appt.Date, appt.Time, appt.DurationMinutes, appt.ServiceCategories, appt.Status, appt.Notes,
	)
	created, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}
	return created, nil
}

// GetByID fetches one appointment.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return appt, nil
}

// List returns appointments matching the filter.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE ($1 = '' OR doctor_id::text = $1)
		  AND ($2 = '' OR branch_code = $2)
		  AND ($3 = '' OR on_date = $3::date)
		  AND ($4 = '' OR status = $4)
		ORDER BY on_date, start_time
		LIMIT $5 OFFSET $6
	`
	rows, err := r.db.Query(ctx, query,
		filter.DoctorID, filter.Branch, filter.Date, string(filter.Status), limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, appt)
	}
	return out, rows.Err()
}

// UpdateStatus sets a new status; the service layer enforces the
// lifecycle before calling.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	query := `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + appointmentColumns
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id, status))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: status update failed: %w", err)
	}
	return appt, nil
}

// UpdateSlot moves an appointment to a new doctor/date/time.
func (r *PostgresRepository) UpdateSlot(ctx context.Context, id string, doctorID, date, at string, durationMinutes int) (*Appointment, error) {
	query := `
		UPDATE appointments
		SET doctor_id = $2, on_date = $3::date, start_time = $4::time, duration_minutes = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + appointmentColumns
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id, doctorID, date, at, durationMinutes))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: slot update failed: %w", err)
	}
	return appt, nil
}
