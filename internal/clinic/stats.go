package clinic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Stats aggregates per-branch activity for the admin dashboard.
type Stats struct {
	Branch                string `json:"branch"`
	AppointmentsBooked    int64  `json:"appointments_booked"`
	AppointmentsConfirmed int64  `json:"appointments_confirmed"`
	AppointmentsCompleted int64  `json:"appointments_completed"`
	AppointmentsCancelled int64  `json:"appointments_cancelled"`
	NoShows               int64  `json:"no_shows"`
	RevenueCents          int64  `json:"revenue_cents"`
	PeriodStart           string `json:"period_start"`
	PeriodEnd             string `json:"period_end"`
}

// DoctorLoad is one doctor's share of appointments in the period.
type DoctorLoad struct {
	DoctorID     string `json:"doctor_id"`
	DoctorName   string `json:"doctor_name"`
	Appointments int64  `json:"appointments"`
}

// statsDB defines the database interface needed by StatsRepository.
type statsDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StatsRepository queries branch metrics from the database.
type StatsRepository struct {
	db statsDB
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	if pool == nil {
		panic("clinic: pgx pool required for stats")
	}
	return &StatsRepository{db: pool}
}

// NewStatsRepositoryWithDB allows injecting a mock database for testing.
func NewStatsRepositoryWithDB(db statsDB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetStats retrieves aggregated metrics for a branch. Optional
// start/end times filter by appointment date; nil means all-time.
func (r *StatsRepository) GetStats(ctx context.Context, branch string, start, end *time.Time) (*Stats, error) {
	stats := &Stats{Branch: branch}

	var timeFilter string
	args := []any{branch}
	if start != nil && end != nil {
		timeFilter = " AND on_date >= $2 AND on_date < $3"
		args = append(args, *start, *end)
		stats.PeriodStart = start.Format(time.RFC3339)
		stats.PeriodEnd = end.Format(time.RFC3339)
	} else {
		stats.PeriodStart = "all-time"
		stats.PeriodEnd = "now"
	}

	countsQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'confirmed'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (WHERE status = 'no_show')
		FROM appointments
		WHERE branch_code = $1` + timeFilter
	if err := r.db.QueryRow(ctx, countsQuery, args...).Scan(
		&stats.AppointmentsBooked,
		&stats.AppointmentsConfirmed,
		&stats.AppointmentsCompleted,
		&stats.AppointmentsCancelled,
		&stats.NoShows,
	); err != nil {
		return nil, fmt.Errorf("clinic stats: count appointments: %w", err)
	}

	var revenueFilter string
	revenueArgs := []any{branch}
	if start != nil && end != nil {
		revenueFilter = " AND paid_at >= $2 AND paid_at < $3"
		revenueArgs = append(revenueArgs, *start, *end)
	}
	revenueQuery := `
		SELECT COALESCE(SUM(total_cents), 0)
		FROM invoices
		WHERE branch_code = $1 AND status = 'paid'` + revenueFilter
	if err := r.db.QueryRow(ctx, revenueQuery, revenueArgs...).Scan(&stats.RevenueCents); err != nil {
		return nil, fmt.Errorf("clinic stats: sum revenue: %w", err)
	}

	return stats, nil
}

// DoctorLoads returns per-doctor appointment counts for a branch,
// busiest first. Cancelled and rejected rows do not count toward load.
func (r *StatsRepository) DoctorLoads(ctx context.Context, branch string, start, end *time.Time) ([]DoctorLoad, error) {
	var timeFilter string
	args := []any{branch}
	if start != nil && end != nil {
		timeFilter = " AND a.on_date >= $2 AND a.on_date < $3"
		args = append(args, *start, *end)
	}

	query := `
		SELECT d.id::text, d.name, COUNT(a.id)
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		WHERE a.branch_code = $1
		  AND a.status NOT IN ('cancelled', 'rejected')` + timeFilter + `
		GROUP BY d.id, d.name
		ORDER BY COUNT(a.id) DESC, d.name
	`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("clinic stats: doctor loads: %w", err)
	}
	defer rows.Close()

	var out []DoctorLoad
	for rows.Next() {
		var load DoctorLoad
		if err := rows.Scan(&load.DoctorID, &load.DoctorName, &load.Appointments); err != nil {
			return nil, fmt.Errorf("clinic stats: scan doctor load: %w", err)
		}
		out = append(out, load)
	}
	return out, rows.Err()
}

// StatsHandler provides HTTP endpoints for branch statistics.
type StatsHandler struct {
	repo   *StatsRepository
	logger *logging.Logger
}

// NewStatsHandler creates a new stats HTTP handler.
func NewStatsHandler(repo *StatsRepository, logger *logging.Logger) *StatsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsHandler{
		repo:   repo,
		logger: logger,
	}
}

// GetStats returns aggregated metrics for a branch.
// GET /admin/branches/{code}/stats
// Query params:
//   - start: RFC3339 timestamp for period start (optional)
//   - end: RFC3339 timestamp for period end (optional)
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	branch := chi.URLParam(r, "code")
	if branch == "" {
		http.Error(w, `{"error": "branch required"}`, http.StatusBadRequest)
		return
	}

	start, end, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	stats, err := h.repo.GetStats(r.Context(), branch, start, end)
	if err != nil {
		h.logger.Error("failed to get branch stats", "branch", branch, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		h.logger.Error("failed to encode branch stats", "branch", branch, "error", err)
	}
}

// GetDoctorLoads returns per-doctor appointment counts for a branch.
// GET /admin/branches/{code}/doctor-loads
func (h *StatsHandler) GetDoctorLoads(w http.ResponseWriter, r *http.Request) {
	branch := chi.URLParam(r, "code")
	if branch == "" {
		http.Error(w, `{"error": "branch required"}`, http.StatusBadRequest)
		return
	}

	start, end, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	loads, err := h.repo.DoctorLoads(r.Context(), branch, start, end)
	if err != nil {
		h.logger.Error("failed to get doctor loads", "branch", branch, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"doctors": loads, "count": len(loads)}); err != nil {
		h.logger.Error("failed to encode doctor loads", "branch", branch, "error", err)
	}
}

func parsePeriod(w http.ResponseWriter, r *http.Request) (start, end *time.Time, ok bool) {
	if s := r.URL.Query().Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			http.Error(w, `{"error": "invalid start time, use RFC3339 format"}`, http.StatusBadRequest)
			return nil, nil, false
		}
		start = &t
	}
	if e := r.URL.Query().Get("end"); e != "" {
		t, err := time.Parse(time.RFC3339, e)
		if err != nil {
			http.Error(w, `{"error": "invalid end time, use RFC3339 format"}`, http.StatusBadRequest)
			return nil, nil, false
		}
		end = &t
	}

	// If only one is provided, require both
	if (start == nil) != (end == nil) {
		http.Error(w, `{"error": "both start and end must be provided, or neither"}`, http.StatusBadRequest)
		return nil, nil, false
	}
	return start, end, true
}
