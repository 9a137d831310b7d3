package clinic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

func statsCountRow(booked, confirmed, completed, cancelled, noShows int64) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"count", "confirmed", "completed", "cancelled", "no_show"}).
		AddRow(booked, confirmed, completed, cancelled, noShows)
}

func TestStatsRepository_GetStats_AllTime(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	branch := "vigan"

	mock.ExpectQuery(`FROM appointments`).
		WithArgs(branch).
		WillReturnRows(statsCountRow(42, 20, 15, 5, 2))

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_cents\), 0\)`).
		WithArgs(branch).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(500000)))

	repo := NewStatsRepositoryWithDB(mock)
	stats, err := repo.GetStats(context.Background(), branch, nil, nil)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}

	if stats.Branch != branch {
		t.Errorf("Branch = %q, want %q", stats.Branch, branch)
	}
	if stats.AppointmentsBooked != 42 {
		t.Errorf("AppointmentsBooked = %d, want 42", stats.AppointmentsBooked)
	}
	if stats.AppointmentsConfirmed != 20 {
		t.Errorf("AppointmentsConfirmed = %d, want 20", stats.AppointmentsConfirmed)
	}
	if stats.RevenueCents != 500000 {
		t.Errorf("RevenueCents = %d, want 500000", stats.RevenueCents)
	}
	if stats.PeriodStart != "all-time" {
		t.Errorf("PeriodStart = %q, want 'all-time'", stats.PeriodStart)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestStatsRepository_GetStats_WithTimeRange(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	branch := "cabugao"
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM appointments`).
		WithArgs(branch, start, end).
		WillReturnRows(statsCountRow(20, 10, 8, 1, 1))

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_cents\), 0\)`).
		WithArgs(branch, start, end).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(250000)))

	repo := NewStatsRepositoryWithDB(mock)
	stats, err := repo.GetStats(context.Background(), branch, &start, &end)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}

	if stats.AppointmentsBooked != 20 {
		t.Errorf("AppointmentsBooked = %d, want 20", stats.AppointmentsBooked)
	}
	if stats.RevenueCents != 250000 {
		t.Errorf("RevenueCents = %d, want 250000", stats.RevenueCents)
	}
	if stats.PeriodStart != start.Format(time.RFC3339) {
		t.Errorf("PeriodStart = %q, want %q", stats.PeriodStart, start.Format(time.RFC3339))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestStatsRepository_DoctorLoads(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id", "name", "count"}).
		AddRow("doc-1", "Santos", int64(12)).
		AddRow("doc-2", "Reyes", int64(7))
	mock.ExpectQuery(`JOIN doctors`).
		WithArgs("vigan").
		WillReturnRows(rows)

	repo := NewStatsRepositoryWithDB(mock)
	loads, err := repo.DoctorLoads(context.Background(), "vigan", nil, nil)
	if err != nil {
		t.Fatalf("DoctorLoads failed: %v", err)
	}

	if len(loads) != 2 {
		t.Fatalf("expected 2 doctors, got %d", len(loads))
	}
	if loads[0].DoctorName != "Santos" || loads[0].Appointments != 12 {
		t.Errorf("unexpected first load: %+v", loads[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestStatsHandler_GetStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	branch := "vigan"

	mock.ExpectQuery(`FROM appointments`).
		WithArgs(branch).
		WillReturnRows(statsCountRow(100, 60, 50, 8, 3))
	mock.ExpectQuery(`SELECT COALESCE`).
		WithArgs(branch).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(1250000)))

	repo := NewStatsRepositoryWithDB(mock)
	handler := NewStatsHandler(repo, logging.Default())

	r := chi.NewRouter()
	r.Get("/admin/branches/{code}/stats", handler.GetStats)

	req := httptest.NewRequest(http.MethodGet, "/admin/branches/"+branch+"/stats", nil)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var stats Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if stats.Branch != branch {
		t.Errorf("Branch = %q, want %q", stats.Branch, branch)
	}
	if stats.AppointmentsBooked != 100 {
		t.Errorf("AppointmentsBooked = %d, want 100", stats.AppointmentsBooked)
	}
	if stats.RevenueCents != 1250000 {
		t.Errorf("RevenueCents = %d, want 1250000", stats.RevenueCents)
	}
}

func TestStatsHandler_RequiresBothStartAndEnd(t *testing.T) {
	repo := NewStatsRepositoryWithDB(nil) // won't be used
	handler := NewStatsHandler(repo, logging.Default())

	r := chi.NewRouter()
	r.Get("/admin/branches/{code}/stats", handler.GetStats)

	// Only start provided
	req := httptest.NewRequest(http.MethodGet, "/admin/branches/vigan/stats?start=2026-01-01T00:00:00Z", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}

	// Only end provided
	req = httptest.NewRequest(http.MethodGet, "/admin/branches/vigan/stats?end=2026-02-01T00:00:00Z", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}
