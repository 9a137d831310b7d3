package scheduling

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Handler exposes slot resolution over HTTP for the booking frontend.
type Handler struct {
	resolver *Resolver
	logger   *logging.Logger
}

// NewHandler creates a slot resolution handler.
func NewHandler(resolver *Resolver, logger *logging.Logger) *Handler {
	if resolver == nil {
		panic("scheduling: resolver is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{resolver: resolver, logger: logger}
}

// SlotsResponse lists the open slots for a doctor on a date.
type SlotsResponse struct {
	DoctorID string   `json:"doctor_id"`
	Date     string   `json:"date"`
	Branch   string   `json:"branch"`
	Slots    []string `json:"slots"`
}

// GetSlots handles GET /slots with date, branch and optional doctor_id
// query parameters. Without a doctor the branch's raw opening-hour
// slots are returned, unfiltered by appointments.
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	doctorID := q.Get("doctor_id")
	date := q.Get("date")
	branch := q.Get("branch")
	if date == "" || branch == "" {
		http.Error(w, "date and branch are required", http.StatusBadRequest)
		return
	}

	slots := h.resolver.AvailableTimeSlots(r.Context(), doctorID, date, branch)
	if slots == nil {
		slots = []string{}
	}

	resp := SlotsResponse{
		DoctorID: doctorID,
		Date:     date,
		Branch:   branch,
		Slots:    slots,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// GetNextSlot handles GET /slots/next with doctor_id, date, after,
// branch and duration_minutes query parameters.
func (h *Handler) GetNextSlot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	doctorID := q.Get("doctor_id")
	date := q.Get("date")
	branch := q.Get("branch")
	if doctorID == "" || date == "" || branch == "" {
		http.Error(w, "doctor_id, date and branch are required", http.StatusBadRequest)
		return
	}

	duration := 0
	if raw := q.Get("duration_minutes"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid duration_minutes", http.StatusBadRequest)
			return
		}
		duration = parsed
	}

	result := h.resolver.NextAvailableTimeSlot(r.Context(), doctorID, date, q.Get("after"), branch, duration)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}
