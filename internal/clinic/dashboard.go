package clinic

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

type dashboardDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type dashboardRepo interface {
	BookingsByDay(ctx context.Context, branch string, start, end time.Time) ([]BookingDay, error)
}

// BookingDay captures per-day booking and revenue counts for a branch.
type BookingDay struct {
	Day          time.Time `json:"-"`
	DayLabel     string    `json:"day"`
	Bookings     int64     `json:"bookings"`
	Completed    int64     `json:"completed"`
	RevenueCents int64     `json:"revenue_cents"`
}

type SchedulingLatencySnapshot struct {
	Total   int64                     `json:"total"`
	P90Ms   float64                   `json:"p90_ms"`
	P95Ms   float64                   `json:"p95_ms"`
	Buckets []SchedulingLatencyBucket `json:"buckets"`
}

type SchedulingLatencyBucket struct {
	LeSeconds float64 `json:"le_seconds"`
	Label     string  `json:"label,omitempty"`
	Count     int64   `json:"count"`
}

type BranchDashboard struct {
	Branch            string                    `json:"branch"`
	PeriodStart       string                    `json:"period_start"`
	PeriodEnd         string                    `json:"period_end"`
	Bookings          int64                     `json:"bookings"`
	Completed         int64                     `json:"completed"`
	RevenueCents      int64                     `json:"revenue_cents"`
	SchedulingLatency SchedulingLatencySnapshot `json:"scheduling_latency"`
	Daily             []BookingDay              `json:"daily"`
}

// DashboardRepository queries branch-level operational metrics from
// the database.
type DashboardRepository struct {
	db dashboardDB
}

func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	if pool == nil {
		panic("clinic: pgx pool required for dashboard")
	}
	return &DashboardRepository{db: pool}
}

func NewDashboardRepositoryWithDB(db dashboardDB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) BookingsByDay(ctx context.Context, branch string, start, end time.Time) ([]BookingDay, error) {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return nil, fmt.Errorf("clinic dashboard: branch required")
	}
	if end.Before(start) || end.Equal(start) {
		return nil, fmt.Errorf("clinic dashboard: invalid time range")
	}

	query := `
		SELECT a.on_date AS day,
		       COUNT(*) AS bookings,
		       COUNT(*) FILTER (WHERE a.status = 'completed') AS completed,
		       COALESCE(SUM(i.total_cents), 0) AS revenue_cents
		FROM appointments a
		LEFT JOIN invoices i
		  ON i.appointment_id = a.id
		 AND i.status = 'paid'
		WHERE a.branch_code = $1
		  AND a.on_date >= $2
		  AND a.on_date < $3
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.db.Query(ctx, query, branch, start, end)
	if err != nil {
		return nil, fmt.Errorf("clinic dashboard: query bookings: %w", err)
	}
	defer rows.Close()

	var results []BookingDay
	for rows.Next() {
		var day time.Time
		var bookings, completed, revenue int64
		if err := rows.Scan(&day, &bookings, &completed, &revenue); err != nil {
			return nil, fmt.Errorf("clinic dashboard: scan bookings: %w", err)
		}
		results = append(results, BookingDay{
			Day:          day.UTC(),
			DayLabel:     day.UTC().Format("2006-01-02"),
			Bookings:     bookings,
			Completed:    completed,
			RevenueCents: revenue,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clinic dashboard: iterate bookings: %w", err)
	}
	return results, nil
}

// DashboardHandler serves operational dashboard JSON for a branch.
type DashboardHandler struct {
	repo     dashboardRepo
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

func NewDashboardHandler(repo dashboardRepo, gatherer prometheus.Gatherer, logger *logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &DashboardHandler{
		repo:     repo,
		gatherer: gatherer,
		logger:   logger,
	}
}

// GetDashboard returns branch operational metrics.
// GET /admin/branches/{code}/dashboard
// Query params:
//   - start: RFC3339 timestamp (optional, requires end)
//   - end: RFC3339 timestamp (optional, requires start)
//   - days: integer window (default 7) when start/end omitted
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	branch := chi.URLParam(r, "code")
	if strings.TrimSpace(branch) == "" {
		http.Error(w, `{"error":"branch required"}`, http.StatusBadRequest)
		return
	}
	if h.repo == nil {
		http.Error(w, `{"error":"dashboard disabled (db not configured)"}`, http.StatusServiceUnavailable)
		return
	}

	start, end, err := parseDashboardWindow(r)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	daily, err := h.repo.BookingsByDay(r.Context(), branch, start, end)
	if err != nil {
		h.logger.Error("failed to query dashboard bookings", "branch", branch, "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	daily = fillMissingDays(daily, start, end)

	var bookingsTotal, completedTotal, revenueTotal int64
	for _, day := range daily {
		bookingsTotal += day.Bookings
		completedTotal += day.Completed
		revenueTotal += day.RevenueCents
	}

	latency := snapshotSchedulingLatency(h.gatherer)

	resp := BranchDashboard{
		Branch:            branch,
		PeriodStart:       start.UTC().Format(time.RFC3339),
		PeriodEnd:         end.UTC().Format(time.RFC3339),
		Bookings:          bookingsTotal,
		Completed:         completedTotal,
		RevenueCents:      revenueTotal,
		SchedulingLatency: latency,
		Daily:             daily,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func parseDashboardWindow(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()

	startRaw := strings.TrimSpace(q.Get("start"))
	endRaw := strings.TrimSpace(q.Get("end"))
	if (startRaw == "") != (endRaw == "") {
		return time.Time{}, time.Time{}, fmt.Errorf("both start and end must be provided, or neither")
	}
	if startRaw != "" {
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start time, use RFC3339 format")
		}
		end, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end time, use RFC3339 format")
		}
		if !end.After(start) {
			return time.Time{}, time.Time{}, fmt.Errorf("end must be after start")
		}
		return start.UTC(), end.UTC(), nil
	}

	days := 7
	if raw := strings.TrimSpace(q.Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid days; must be 1-90")
		}
		days = parsed
	}

	now := time.Now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -days)
	return start, end, nil
}

func fillMissingDays(existing []BookingDay, start, end time.Time) []BookingDay {
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	lookup := map[string]BookingDay{}
	for _, d := range existing {
		key := d.Day.UTC().Format("2006-01-02")
		lookup[key] = d
	}

	out := make([]BookingDay, 0, int(endDay.Sub(startDay).Hours()/24)+1)
	for day := startDay; day.Before(endDay); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		if found, ok := lookup[key]; ok {
			out = append(out, found)
			continue
		}
		out = append(out, BookingDay{
			Day:      day,
			DayLabel: key,
		})
	}
	return out
}

func snapshotSchedulingLatency(gatherer prometheus.Gatherer) SchedulingLatencySnapshot {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return SchedulingLatencySnapshot{}
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == "clinic_scheduling_resolve_latency_seconds" {
			family = mf
			break
		}
	}
	if family == nil {
		return SchedulingLatencySnapshot{}
	}

	// Aggregate histograms across operations.
	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64

	for _, metric := range family.Metric {
		if metric == nil {
			continue
		}
		h := metric.GetHistogram()
		if h == nil {
			continue
		}
		sampleCount += h.GetSampleCount()
		for _, b := range h.Bucket {
			if b == nil {
				continue
			}
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}

	if sampleCount == 0 || len(cumulativeByUpper) == 0 {
		return SchedulingLatencySnapshot{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	buckets := make([]SchedulingLatencyBucket, 0, len(uppers))
	var prev uint64
	var lastFiniteUpper float64
	for _, upper := range uppers {
		cum := cumulativeByUpper[upper]
		if math.IsInf(upper, 1) {
			overflow := int64(0)
			if cum >= prev {
				overflow = int64(cum - prev)
			} else {
				overflow = int64(cum)
			}
			if overflow > 0 {
				buckets = append(buckets, SchedulingLatencyBucket{
					LeSeconds: lastFiniteUpper,
					Label:     fmt.Sprintf(">%s", formatSeconds(lastFiniteUpper)),
					Count:     overflow,
				})
			}
			prev = cum
			continue
		}

		lastFiniteUpper = upper
		count := int64(0)
		if cum >= prev {
			count = int64(cum - prev)
		} else {
			count = int64(cum)
		}
		buckets = append(buckets, SchedulingLatencyBucket{
			LeSeconds: upper,
			Count:     count,
		})
		prev = cum
	}

	p90 := histogramQuantile(0.90, sampleCount, uppers, cumulativeByUpper)
	p95 := histogramQuantile(0.95, sampleCount, uppers, cumulativeByUpper)

	return SchedulingLatencySnapshot{
		Total:   int64(sampleCount),
		P90Ms:   p90 * 1000.0,
		P95Ms:   p95 * 1000.0,
		Buckets: buckets,
	}
}

func histogramQuantile(q float64, total uint64, uppers []float64, cumulativeByUpper map[float64]uint64) float64 {
	if total == 0 || q <= 0 {
		return 0
	}
	if q >= 1 {
		for i := len(uppers) - 1; i >= 0; i-- {
			if !math.IsInf(uppers[i], 1) {
				return uppers[i]
			}
		}
		return 0
	}

	target := q * float64(total)
	var prevUpper float64
	var prevCum float64

	for _, upper := range uppers {
		cum := float64(cumulativeByUpper[upper])
		if cum < target {
			prevUpper = upper
			prevCum = cum
			continue
		}

		// If we can't interpolate, return the bucket upper bound.
		bucketCount := cum - prevCum
		if bucketCount <= 0 || upper == prevUpper {
			return upper
		}
		if math.IsInf(upper, 1) {
			return prevUpper
		}

		fraction := (target - prevCum) / bucketCount
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}

		lower := prevUpper
		return lower + fraction*(upper-lower)
	}

	return uppers[len(uppers)-1]
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	if seconds < 1 {
		return fmt.Sprintf("%.2fs", seconds)
	}
	if seconds < 10 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	return fmt.Sprintf("%.0fs", seconds)
}
