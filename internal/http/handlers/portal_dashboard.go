package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

// PortalDashboardHandler serves per-doctor workload metrics for the
// doctor portal.
type PortalDashboardHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

// PortalDashboardResponse contains the core doctor metrics.
type PortalDashboardResponse struct {
	DoctorID       string  `json:"doctor_id"`
	PeriodStart    string  `json:"period_start"`
	PeriodEnd      string  `json:"period_end"`
	Upcoming       int64   `json:"upcoming"`
	Completed      int64   `json:"completed"`
	NoShows        int64   `json:"no_shows"`
	CollectedCents int64   `json:"collected_cents"`
	CompletionPct  float64 `json:"completion_pct"`
}

// NewPortalDashboardHandler creates a new doctor portal dashboard handler.
func NewPortalDashboardHandler(db *sql.DB, logger *logging.Logger) *PortalDashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &PortalDashboardHandler{
		db:     db,
		logger: logger,
	}
}

// GetDashboard returns the portal dashboard metrics for a doctor.
// GET /portal/doctors/{doctorID}/dashboard
// Query params:
//   - start: RFC3339 timestamp (optional, requires end)
//   - end: RFC3339 timestamp (optional, requires start)
//   - phone: optional patient phone filter
func (h *PortalDashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	doctorID := strings.TrimSpace(chi.URLParam(r, "doctorID"))
	if doctorID == "" {
		jsonError(w, "missing doctorID", http.StatusBadRequest)
		return
	}
	if h.db == nil {
		jsonError(w, "dashboard disabled", http.StatusServiceUnavailable)
		return
	}

	start, end, periodStart, periodEnd, err := parsePortalWindow(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	phoneDigits := phoneDigitsCandidates(r.URL.Query().Get("phone"))

	upcoming, err := h.countUpcoming(r.Context(), doctorID, phoneDigits, start, end)
	if err != nil {
		h.logger.Error("failed to count upcoming appointments", "doctor_id", doctorID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	completed, err := h.countByStatus(r.Context(), doctorID, "completed", phoneDigits, start, end)
	if err != nil {
		h.logger.Error("failed to count completed appointments", "doctor_id", doctorID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	noShows, err := h.countByStatus(r.Context(), doctorID, "no_show", phoneDigits, start, end)
	if err != nil {
		h.logger.Error("failed to count no-shows", "doctor_id", doctorID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	collectedCents, err := h.sumCollected(r.Context(), doctorID, phoneDigits, start, end)
	if err != nil {
		h.logger.Error("failed to sum collected payments", "doctor_id", doctorID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	completionPct := 0.0
	if completed+noShows > 0 {
		completionPct = (float64(completed) / float64(completed+noShows)) * 100.0
	}

	resp := PortalDashboardResponse{
		DoctorID:       doctorID,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		Upcoming:       upcoming,
		Completed:      completed,
		NoShows:        noShows,
		CollectedCents: collectedCents,
		CompletionPct:  completionPct,
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *PortalDashboardHandler) countUpcoming(ctx context.Context, doctorID string, phoneDigits []string, start, end *time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND status IN ('pending', 'confirmed') AND on_date >= CURRENT_DATE`
	args := []any{doctorID}
	argNum := 2

	if start != nil && end != nil {
		query += fmt.Sprintf(" AND on_date >= $%d AND on_date < $%d", argNum, argNum+1)
		args = append(args, *start, *end)
		argNum += 2
	}

	query += appendPhoneDigitsFilter(`regexp_replace(patient_phone, '\D', '', 'g')`, phoneDigits, &args, &argNum)

	var count int64
	if err := h.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (h *PortalDashboardHandler) countByStatus(ctx context.Context, doctorID, status string, phoneDigits []string, start, end *time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND status = $2`
	args := []any{doctorID, status}
	argNum := 3

	if start != nil && end != nil {
		query += fmt.Sprintf(" AND on_date >= $%d AND on_date < $%d", argNum, argNum+1)
		args = append(args, *start, *end)
		argNum += 2
	}

	query += appendPhoneDigitsFilter(`regexp_replace(patient_phone, '\D', '', 'g')`, phoneDigits, &args, &argNum)

	var count int64
	if err := h.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (h *PortalDashboardHandler) sumCollected(ctx context.Context, doctorID string, phoneDigits []string, start, end *time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(i.total_cents), 0)
		FROM invoices i
		JOIN appointments a ON i.appointment_id = a.id
		WHERE a.doctor_id = $1 AND i.status = 'paid'
	`
	args := []any{doctorID}
	argNum := 2

	if start != nil && end != nil {
		query += fmt.Sprintf(" AND i.paid_at >= $%d AND i.paid_at < $%d", argNum, argNum+1)
		args = append(args, *start, *end)
		argNum += 2
	}

	query += appendPhoneDigitsFilter(`regexp_replace(a.patient_phone, '\D', '', 'g')`, phoneDigits, &args, &argNum)

	var total int64
	if err := h.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func parsePortalWindow(r *http.Request) (*time.Time, *time.Time, string, string, error) {
	q := r.URL.Query()
	startRaw := strings.TrimSpace(q.Get("start"))
	endRaw := strings.TrimSpace(q.Get("end"))

	if (startRaw == "") != (endRaw == "") {
		return nil, nil, "", "", fmt.Errorf("both start and end must be provided, or neither")
	}

	if startRaw == "" {
		return nil, nil, "all-time", "now", nil
	}

	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return nil, nil, "", "", fmt.Errorf("invalid start time, use RFC3339 format")
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return nil, nil, "", "", fmt.Errorf("invalid end time, use RFC3339 format")
	}
	if !end.After(start) {
		return nil, nil, "", "", fmt.Errorf("end must be after start")
	}
	start = start.UTC()
	end = end.UTC()

	return &start, &end, start.Format(time.RFC3339), end.Format(time.RFC3339), nil
}
