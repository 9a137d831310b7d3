package availability

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Handler handles HTTP requests for availability windows.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new availability handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /doctors/{doctorID}/availability requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.DoctorID = chi.URLParam(r, "doctorID")

	entry, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if isValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create availability window", "error", err, "doctor_id", req.DoctorID)
		http.Error(w, "failed to create availability window", http.StatusInternalServerError)
		return
	}

	h.logger.Info("availability window added",
		"doctor_id", entry.DoctorID, "branch", entry.Branch, "start", entry.Start, "end", entry.End)
	writeJSON(w, http.StatusCreated, entry)
}

// List handles GET /doctors/{doctorID}/availability requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	windows, err := h.repo.ListForDoctor(r.Context(), doctorID)
	if err != nil {
		h.logger.Error("failed to list availability", "error", err, "doctor_id", doctorID)
		http.Error(w, "failed to list availability", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"windows": windows, "count": len(windows)})
}

// Delete handles DELETE /doctors/{doctorID}/availability/{windowID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	windowID := chi.URLParam(r, "windowID")

	if err := h.repo.Delete(r.Context(), doctorID, windowID); err != nil {
		if errors.Is(err, ErrWindowNotFound) {
			http.Error(w, "availability window not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete availability window", "error", err, "doctor_id", doctorID, "window_id", windowID)
		http.Error(w, "failed to delete availability window", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrMissingDoctor) ||
		errors.Is(err, ErrMissingBranch) ||
		errors.Is(err, ErrAmbiguousRecurrence) ||
		errors.Is(err, ErrInvalidWeekday) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidTimes)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
