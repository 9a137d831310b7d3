package notify

import (
	"fmt"
	"strings"
	"time"
)

// AppointmentPayload mirrors the appointment document written to the
// outbox by the booking service.
type AppointmentPayload struct {
	ID                string   `json:"id"`
	PatientName       string   `json:"patient_name"`
	PatientEmail      string   `json:"patient_email"`
	PatientPhone      string   `json:"patient_phone"`
	DoctorID          string   `json:"doctor_id"`
	Branch            string   `json:"branch"`
	Date              string   `json:"date"`
	Time              string   `json:"time"`
	DurationMinutes   int      `json:"duration_minutes"`
	ServiceCategories []string `json:"service_categories"`
	Status            string   `json:"status"`
	Notes             string   `json:"notes"`
}

// InvoicePayload mirrors the invoice document written to the outbox.
type InvoicePayload struct {
	ID            string `json:"id"`
	AppointmentID string `json:"appointment_id"`
	PatientName   string `json:"patient_name"`
	PatientEmail  string `json:"patient_email"`
	Branch        string `json:"branch"`
	TotalCents    int64  `json:"total_cents"`
	Status        string `json:"status"`
}

// formatWhen renders a date and HH:MM time pair for patient emails.
// Unparseable values fall through as-is rather than losing the email.
func formatWhen(date, clock string) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Sprintf("%s at %s", date, clock)
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return fmt.Sprintf("%s at %s", d.Format("Monday, January 2"), clock)
	}
	return fmt.Sprintf("%s at %s", d.Format("Monday, January 2"), t.Format("3:04 PM"))
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("₱%.2f", float64(cents)/100)
}

func branchLabel(code string) string {
	if code == "" {
		return code
	}
	return strings.ToUpper(code[:1]) + code[1:]
}

func patientFirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

func bookedEmail(p AppointmentPayload) EmailMessage {
	when := formatWhen(p.Date, p.Time)
	body := fmt.Sprintf(`Hi %s,

We received your appointment request at our %s branch for %s.

Our staff will review your request and confirm it shortly. You will
receive another email once it is confirmed.

If you need to make changes, reply to this email or call the branch.`,
		patientFirstName(p.PatientName), branchLabel(p.Branch), when)
	return EmailMessage{
		To:      p.PatientEmail,
		Subject: fmt.Sprintf("Appointment request received - %s", when),
		Body:    body,
	}
}

func staffBookedEmail(p AppointmentPayload, recipient string) EmailMessage {
	when := formatWhen(p.Date, p.Time)
	categories := "none specified"
	if len(p.ServiceCategories) > 0 {
		categories = strings.Join(p.ServiceCategories, ", ")
	}
	body := fmt.Sprintf(`A new appointment request is waiting for review.

Patient: %s
Phone: %s
Email: %s
Branch: %s
When: %s
Duration: %d minutes
Services: %s
Notes: %s

Please confirm or reject it from the admin dashboard.`,
		p.PatientName, p.PatientPhone, p.PatientEmail, p.Branch, when,
		p.DurationMinutes, categories, p.Notes)
	return EmailMessage{
		To:      recipient,
		Subject: fmt.Sprintf("New appointment request - %s, %s", p.PatientName, when),
		Body:    body,
	}
}

func statusChangedEmail(p AppointmentPayload) (EmailMessage, bool) {
	when := formatWhen(p.Date, p.Time)
	first := patientFirstName(p.PatientName)

	var subject, body string
	switch p.Status {
	case "confirmed":
		subject = fmt.Sprintf("Appointment confirmed - %s", when)
		body = fmt.Sprintf(`Hi %s,

Your appointment at our %s branch is confirmed for %s.

Please arrive a few minutes early. See you then!`, first, branchLabel(p.Branch), when)
	case "cancelled":
		subject = fmt.Sprintf("Appointment cancelled - %s", when)
		body = fmt.Sprintf(`Hi %s,

Your appointment at our %s branch for %s has been cancelled.

If this was unexpected, reply to this email or call the branch and we
will help you rebook.`, first, branchLabel(p.Branch), when)
	case "rejected":
		subject = "Appointment request declined"
		body = fmt.Sprintf(`Hi %s,

We could not accommodate your appointment request for %s at our %s
branch. Please pick another time slot and book again, or call the
branch for help finding one.`, first, when, branchLabel(p.Branch))
	case "completed":
		subject = "Thank you for your visit"
		body = fmt.Sprintf(`Hi %s,

Thank you for visiting our %s branch. We hope to see you again at your
next checkup.`, first, branchLabel(p.Branch))
	default:
		// no_show and other internal moves do not email the patient
		return EmailMessage{}, false
	}

	return EmailMessage{To: p.PatientEmail, Subject: subject, Body: body}, true
}

func rescheduledEmail(p AppointmentPayload) EmailMessage {
	when := formatWhen(p.Date, p.Time)
	body := fmt.Sprintf(`Hi %s,

Your appointment at our %s branch has been moved to %s.

If the new time does not work for you, reply to this email or call the
branch.`, patientFirstName(p.PatientName), branchLabel(p.Branch), when)
	return EmailMessage{
		To:      p.PatientEmail,
		Subject: fmt.Sprintf("Appointment rescheduled - %s", when),
		Body:    body,
	}
}

func reminderEmail(p AppointmentPayload) EmailMessage {
	when := formatWhen(p.Date, p.Time)
	body := fmt.Sprintf(`Hi %s,

This is a reminder of your upcoming appointment at our %s branch on
%s.

If you cannot make it, please reply to this email or call the branch
so we can offer the slot to another patient.`,
		patientFirstName(p.PatientName), branchLabel(p.Branch), when)
	return EmailMessage{
		To:      p.PatientEmail,
		Subject: fmt.Sprintf("Appointment reminder - %s", when),
		Body:    body,
	}
}

func invoiceIssuedEmail(inv InvoicePayload) EmailMessage {
	body := fmt.Sprintf(`Hi %s,

Your invoice from our %s branch is ready.

Invoice: %s
Amount due: %s

You can settle it at the front desk on your next visit or through the
payment options on the invoice.`,
		patientFirstName(inv.PatientName), branchLabel(inv.Branch),
		inv.ID, formatAmount(inv.TotalCents))
	return EmailMessage{
		To:      inv.PatientEmail,
		Subject: fmt.Sprintf("Invoice %s - %s due", inv.ID, formatAmount(inv.TotalCents)),
		Body:    body,
	}
}

func invoicePaidEmail(inv InvoicePayload) EmailMessage {
	body := fmt.Sprintf(`Hi %s,

We received your payment of %s for invoice %s. Thank you!

This email serves as your receipt.`,
		patientFirstName(inv.PatientName), formatAmount(inv.TotalCents), inv.ID)
	return EmailMessage{
		To:      inv.PatientEmail,
		Subject: fmt.Sprintf("Payment received - %s", formatAmount(inv.TotalCents)),
		Body:    body,
	}
}
