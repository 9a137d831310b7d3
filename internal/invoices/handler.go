package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Handler handles HTTP requests for invoices.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new invoices handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Create handles POST /invoices requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	inv, err := h.service.Create(r.Context(), &req)
	if err != nil {
		if isValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create invoice", "error", err)
		http.Error(w, "failed to create invoice", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// Get handles GET /invoices/{invoiceID} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "invoiceID")
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			http.Error(w, "invoice not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load invoice", "error", err, "id", id)
		http.Error(w, "failed to load invoice", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// List handles GET /invoices requests with branch, appointment_id,
// status, limit and offset query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Branch:        q.Get("branch"),
		AppointmentID: q.Get("appointment_id"),
		Status:        Status(q.Get("status")),
		Limit:         50,
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
		h.logger.Error("failed to list invoices", "error", err)
		http.Error(w, "failed to list invoices", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": out, "count": len(out)})
}

// Issue handles POST /invoices/{invoiceID}/issue.
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, h.service.Issue, "issue")
}

// MarkPaid handles POST /invoices/{invoiceID}/pay.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, h.service.MarkPaid, "pay")
}

// Void handles POST /invoices/{invoiceID}/void.
func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, h.service.Void, "void")
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) (*Invoice, error), action string) {
	id := chi.URLParam(r, "invoiceID")
	inv, err := op(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvoiceNotFound):
			http.Error(w, "invoice not found", http.StatusNotFound)
		case errors.Is(err, ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("failed to "+action+" invoice", "error", err, "id", id)
			http.Error(w, "failed to "+action+" invoice", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrMissingPatient) ||
		errors.Is(err, ErrMissingBranch) ||
		errors.Is(err, ErrNoLineItems) ||
		errors.Is(err, ErrInvalidLineItem)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
