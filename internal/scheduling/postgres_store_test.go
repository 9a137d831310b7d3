package scheduling

import (
	"context"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresStoreBranchHours(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newPostgresStoreWithQuerier(mock)

	rows := pgxmock.NewRows([]string{"open", "close", "closed"}).AddRow("08:00", "17:00", false)
	mock.ExpectQuery("SELECT to_char").WithArgs("vigan", int(time.Monday)).WillReturnRows(rows)

	hours, err := store.BranchHours(context.Background(), "vigan", time.Monday)
	if err != nil {
		t.Fatalf("branch hours failed: %v", err)
	}
	if hours.Open != "08:00" || hours.Close != "17:00" || hours.Closed {
		t.Fatalf("unexpected hours: %+v", hours)
	}

	mock.ExpectQuery("SELECT to_char").WithArgs("ghost", int(time.Sunday)).WillReturnError(pgx.ErrNoRows)
	hours, err = store.BranchHours(context.Background(), "ghost", time.Sunday)
	if err != nil {
		t.Fatalf("expected missing row to read as closed, got error: %v", err)
	}
	if !hours.Closed {
		t.Fatalf("expected closed for missing row, got %+v", hours)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreAvailability(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newPostgresStoreWithQuerier(mock)

	recurring := pgxmock.NewRows([]string{"doctor_id", "branch_code", "start", "end"}).
		AddRow("doc-1", "vigan", "08:00", "12:00").
		AddRow("doc-1", "vigan", "14:00", "17:00")
	mock.ExpectQuery("FROM doctor_availability").WithArgs("doc-1", "vigan", int(time.Monday)).WillReturnRows(recurring)

	windows, err := store.RecurringAvailability(context.Background(), "doc-1", "vigan", time.Monday)
	if err != nil {
		t.Fatalf("recurring availability failed: %v", err)
	}
	if len(windows) != 2 || windows[0].Start != "08:00" || windows[1].End != "17:00" {
		t.Fatalf("unexpected windows: %+v", windows)
	}

	specific := pgxmock.NewRows([]string{"doctor_id", "branch_code", "start", "end"}).
		AddRow("doc-1", "vigan", "10:00", "13:00")
	mock.ExpectQuery("FROM doctor_availability").WithArgs("doc-1", "vigan", "2026-01-05").WillReturnRows(specific)

	windows, err = store.SpecificAvailability(context.Background(), "doc-1", "vigan", "2026-01-05")
	if err != nil {
		t.Fatalf("specific availability failed: %v", err)
	}
	if len(windows) != 1 || windows[0].Start != "10:00" {
		t.Fatalf("unexpected windows: %+v", windows)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreAppointments(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newPostgresStoreWithQuerier(mock)

	rows := pgxmock.NewRows([]string{"id", "doctor_id", "date", "time", "duration_minutes"}).
		AddRow("a1", "doc-1", "2026-01-05", "09:00", 60)
	mock.ExpectQuery("FROM appointments").WithArgs("doc-1", "2026-01-05", "a2").WillReturnRows(rows)

	appts, err := store.Appointments(context.Background(), "doc-1", "2026-01-05", "a2")
	if err != nil {
		t.Fatalf("appointments failed: %v", err)
	}
	if len(appts) != 1 || appts[0].Time != "09:00" || appts[0].DurationMinutes != 60 {
		t.Fatalf("unexpected appointments: %+v", appts)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreDoctors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newPostgresStoreWithQuerier(mock)

	rows := pgxmock.NewRows([]string{"id", "name", "email", "specialties"}).
		AddRow("doc-1", "Santos", "santos@clinic.test", []string{"general", "orthodontics"})
	mock.ExpectQuery("FROM doctors").WithArgs("vigan").WillReturnRows(rows)

	doctors, err := store.Doctors(context.Background(), "vigan")
	if err != nil {
		t.Fatalf("doctors failed: %v", err)
	}
	if len(doctors) != 1 || doctors[0].Name != "Santos" || len(doctors[0].Specialties) != 2 {
		t.Fatalf("unexpected doctors: %+v", doctors)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
