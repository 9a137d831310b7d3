package clinic

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Handler provides HTTP endpoints for branch settings management.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a branch settings HTTP handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// Routes returns a chi router with branch settings routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{code}/settings", h.GetSettings)
	r.Put("/{code}/settings", h.UpdateSettings)
	return r
}

// GetSettings returns the settings for a branch.
// GET /admin/branches/{code}/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	branch := chi.URLParam(r, "code")
	if branch == "" {
		http.Error(w, `{"error": "branch code required"}`, http.StatusBadRequest)
		return
	}

	settings, err := h.store.Get(r.Context(), branch)
	if err != nil {
		h.logger.Error("failed to get branch settings", "branch", branch, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(settings); err != nil {
		h.logger.Error("failed to encode branch settings", "branch", branch, "error", err)
	}
}

// UpdateSettingsRequest is the request body for updating branch settings.
// All fields are optional; omitted fields keep their current value.
type UpdateSettingsRequest struct {
	DisplayName        *string  `json:"display_name,omitempty"`
	Timezone           *string  `json:"timezone,omitempty"`
	StaffEmails        []string `json:"staff_emails,omitempty"`
	ReminderLeadHours  *int     `json:"reminder_lead_hours,omitempty"`
	DefaultSlotMinutes *int     `json:"default_slot_minutes,omitempty"`
}

// UpdateSettings creates or updates the settings for a branch.
// PUT /admin/branches/{code}/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	branch := chi.URLParam(r, "code")
	if branch == "" {
		http.Error(w, `{"error": "branch code required"}`, http.StatusBadRequest)
		return
	}

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	settings, err := h.store.Get(r.Context(), branch)
	if err != nil {
		h.logger.Error("failed to get branch settings", "branch", branch, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	if req.DisplayName != nil {
		settings.DisplayName = *req.DisplayName
	}
	if req.Timezone != nil {
		settings.Timezone = *req.Timezone
	}
	if req.StaffEmails != nil {
		settings.StaffEmails = req.StaffEmails
	}
	if req.ReminderLeadHours != nil {
		settings.ReminderLeadHours = *req.ReminderLeadHours
	}
	if req.DefaultSlotMinutes != nil {
		settings.DefaultSlotMinutes = *req.DefaultSlotMinutes
	}

	if err := h.store.Set(r.Context(), settings); err != nil {
		h.logger.Error("failed to save branch settings", "branch", branch, "error", err)
		http.Error(w, `{"error": "failed to save settings"}`, http.StatusBadRequest)
		return
	}

	h.logger.Info("branch settings updated", "branch", branch)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(settings); err != nil {
		h.logger.Error("failed to encode branch settings", "branch", branch, "error", err)
	}
}
