package doctors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Handler handles HTTP requests for doctors.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new doctors handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /admin/doctors requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrMissingName) || errors.Is(err, ErrInvalidEmail) || errors.Is(err, ErrNoBranches) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create doctor", "error", err)
		http.Error(w, "failed to create doctor", http.StatusInternalServerError)
		return
	}

	h.logger.Info("doctor registered", "id", doc.ID, "name", doc.Name)
	writeJSON(w, http.StatusCreated, doc)
}

// Get handles GET /doctors/{doctorID} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doctorID")
	doc, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load doctor", "error", err, "id", id)
		http.Error(w, "failed to load doctor", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// List handles GET /doctors requests. The branch query parameter
// filters to one branch's roster.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	branch := r.URL.Query().Get("branch")
	out, err := h.repo.List(r.Context(), branch)
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err, "branch", branch)
		http.Error(w, "failed to list doctors", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctors": out, "count": len(out)})
}

// Update handles PATCH /admin/doctors/{doctorID} requests.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doctorID")

	var req UpdateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := h.repo.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update doctor", "error", err, "id", id)
		http.Error(w, "failed to update doctor", http.StatusInternalServerError)
		return
	}

	h.logger.Info("doctor updated", "id", doc.ID, "enabled", doc.Enabled)
	writeJSON(w, http.StatusOK, doc)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
