package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Handler handles HTTP requests for appointments.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Book handles POST /appointments requests.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Book(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotTaken), errors.Is(err, ErrNoDoctorAvailable):
			http.Error(w, err.Error(), http.StatusConflict)
		case isValidationError(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to book appointment", "error", err)
			http.Error(w, "failed to book appointment", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// Get handles GET /appointments/{appointmentID} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "appointmentID")
	appt, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load appointment", "error", err, "id", id)
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// List handles GET /appointments requests with doctor_id, branch,
// date, status, limit and offset query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		DoctorID: q.Get("doctor_id"),
		Branch:   q.Get("branch"),
		Date:     q.Get("date"),
		Status:   Status(q.Get("status")),
		Limit:    50,
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 200 {
			filter.Limit = limit
		}
	}
	if offsetStr := q.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	out, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": out, "count": len(out)})
}

// UpdateStatus handles PATCH /appointments/{appointmentID}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "appointmentID")

	var req struct {
		Status Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrAppointmentNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		case errors.Is(err, ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("failed to update appointment status", "error", err, "id", id)
			http.Error(w, "failed to update appointment status", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Reschedule handles POST /appointments/{appointmentID}/reschedule.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "appointmentID")

	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Reschedule(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrAppointmentNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		case errors.Is(err, ErrSlotTaken), errors.Is(err, ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
		case isValidationError(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to reschedule appointment", "error", err, "id", id)
			http.Error(w, "failed to reschedule appointment", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// AvailableDoctors handles GET /appointments/available-doctors with
// date, time, branch, duration and categories query parameters.
func (h *Handler) AvailableDoctors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, at, branch := q.Get("date"), q.Get("time"), q.Get("branch")
	if date == "" || at == "" || branch == "" {
		http.Error(w, "date, time and branch are required", http.StatusBadRequest)
		return
	}
	duration := 0
	if d := q.Get("duration"); d != "" {
		if v, err := strconv.Atoi(d); err == nil && v > 0 {
			duration = v
		}
	}
	categories := q["category"]

	candidates := h.service.FindDoctors(r.Context(), date, at, branch, categories, duration)
	writeJSON(w, http.StatusOK, map[string]any{"doctors": candidates, "count": len(candidates)})
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrMissingPatient) ||
		errors.Is(err, ErrMissingContact) ||
		errors.Is(err, ErrMissingBranch) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidTime) ||
		errors.Is(err, ErrInvalidDuration)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
