package events

// Event types written to the outbox. The notify worker fans these out
// to email and reminder pipelines.
const (
	TypeAppointmentBooked        = "appointment.booked"
	TypeAppointmentStatusChanged = "appointment.status_changed"
	TypeAppointmentRescheduled   = "appointment.rescheduled"
	TypeAppointmentReminderDue   = "appointment.reminder_due"
	TypeInvoiceIssued            = "invoice.issued"
	TypeInvoicePaid              = "invoice.paid"
)
