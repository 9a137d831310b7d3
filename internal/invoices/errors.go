package invoices

import "errors"

var (
	// ErrMissingPatient is returned when the patient name is empty.
	ErrMissingPatient = errors.New("patient name is required")

	// ErrMissingBranch is returned when the branch is empty.
	ErrMissingBranch = errors.New("branch is required")

	// ErrNoLineItems is returned when an invoice has no charges.
	ErrNoLineItems = errors.New("at least one line item is required")

	// ErrInvalidLineItem is returned for empty descriptions, zero
	// quantities or negative amounts.
	ErrInvalidLineItem = errors.New("line items need a description, a positive quantity and a non-negative amount")

	// ErrInvoiceNotFound is returned when an invoice is not found.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrInvalidTransition is returned for a disallowed status change.
	ErrInvalidTransition = errors.New("status transition not allowed")
)
