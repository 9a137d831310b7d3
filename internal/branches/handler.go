package branches

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

type slotCacheInvalidator interface {
	InvalidateBranch(ctx context.Context, branch string) error
}

// Handler handles HTTP requests for branches.
type Handler struct {
	repo   Repository
	cache  slotCacheInvalidator
	logger *logging.Logger
}

// NewHandler creates a new branches handler. cache may be nil when no
// slot cache is configured.
func NewHandler(repo Repository, cache slotCacheInvalidator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// List handles GET /branches requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list branches", "error", err)
		http.Error(w, "failed to list branches", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"branches": out, "count": len(out)})
}

// Get handles GET /branches/{code} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	branch, err := h.repo.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, ErrBranchNotFound) {
			http.Error(w, "branch not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load branch", "error", err, "code", code)
		http.Error(w, "failed to load branch", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, branch)
}

// Upsert handles PUT /admin/branches/{code} requests.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Code = chi.URLParam(r, "code")

	branch, err := h.repo.Upsert(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrMissingCode) || errors.Is(err, ErrMissingName) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to upsert branch", "error", err, "code", req.Code)
		http.Error(w, "failed to save branch", http.StatusInternalServerError)
		return
	}

	h.logger.Info("branch saved", "code", branch.Code, "name", branch.Name)
	writeJSON(w, http.StatusOK, branch)
}

// Hours handles GET /branches/{code}/hours requests.
func (h *Handler) Hours(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if _, err := h.repo.GetByCode(r.Context(), code); err != nil {
		if errors.Is(err, ErrBranchNotFound) {
			http.Error(w, "branch not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load branch", "error", err, "code", code)
		http.Error(w, "failed to load branch", http.StatusInternalServerError)
		return
	}

	days, err := h.repo.Hours(r.Context(), code)
	if err != nil {
		h.logger.Error("failed to load branch hours", "error", err, "code", code)
		http.Error(w, "failed to load branch hours", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"branch": code, "days": days})
}

// SetHours handles PUT /admin/branches/{code}/hours requests. The body
// replaces the whole weekly schedule and cached slot lists for the
// branch are dropped so stale openings disappear immediately.
func (h *Handler) SetHours(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req SetHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.repo.GetByCode(r.Context(), code); err != nil {
		if errors.Is(err, ErrBranchNotFound) {
			http.Error(w, "branch not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load branch", "error", err, "code", code)
		http.Error(w, "failed to load branch", http.StatusInternalServerError)
		return
	}

	if err := h.repo.SetHours(r.Context(), code, req.Days); err != nil {
		h.logger.Error("failed to save branch hours", "error", err, "code", code)
		http.Error(w, "failed to save branch hours", http.StatusInternalServerError)
		return
	}
	if h.cache != nil {
		if err := h.cache.InvalidateBranch(r.Context(), code); err != nil {
			h.logger.Warn("failed to invalidate slot cache", "error", err, "code", code)
		}
	}

	h.logger.Info("branch hours updated", "code", code, "days", len(req.Days))
	writeJSON(w, http.StatusOK, map[string]any{"branch": code, "days": req.Days})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
