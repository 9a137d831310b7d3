package invoices

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusIssued Status = "issued"
	StatusPaid   Status = "paid"
	StatusVoid   Status = "void"
)

// transitions lists the allowed status moves. Paid and void are
// terminal.
var transitions = map[Status][]Status{
	StatusDraft:  {StatusIssued, StatusVoid},
	StatusIssued: {StatusPaid, StatusVoid},
}

// CanTransition reports whether a status move is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LineItem is one charge on an invoice. Amounts are in centavos.
type LineItem struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitCents   int64  `json:"unit_cents"`
}

// TotalCents returns quantity times unit price.
func (li LineItem) TotalCents() int64 {
	return int64(li.Quantity) * li.UnitCents
}

// Invoice bills a patient for an appointment.
type Invoice struct {
	ID            string     `json:"id"`
	AppointmentID string     `json:"appointment_id"`
	PatientName   string     `json:"patient_name"`
	PatientEmail  string     `json:"patient_email"`
	Branch        string     `json:"branch"`
	Items         []LineItem `json:"items"`
	TotalCents    int64      `json:"total_cents"`
	Status        Status     `json:"status"`
	IssuedAt      *time.Time `json:"issued_at,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CreateInvoiceRequest is the request body for drafting an invoice.
type CreateInvoiceRequest struct {
	AppointmentID string     `json:"appointment_id"`
	PatientName   string     `json:"patient_name"`
	PatientEmail  string     `json:"patient_email"`
	Branch        string     `json:"branch"`
	Items         []LineItem `json:"items"`
}

// Validate validates the draft request.
func (r *CreateInvoiceRequest) Validate() error {
	if strings.TrimSpace(r.PatientName) == "" {
		return ErrMissingPatient
	}
	if r.Branch == "" {
		return ErrMissingBranch
	}
	if len(r.Items) == 0 {
		return ErrNoLineItems
	}
	for _, item := range r.Items {
		if strings.TrimSpace(item.Description) == "" {
			return ErrInvalidLineItem
		}
		if item.Quantity <= 0 || item.UnitCents < 0 {
			return ErrInvalidLineItem
		}
	}
	return nil
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	Branch        string
	AppointmentID string
	Status        Status
	Limit         int
	Offset        int
}
