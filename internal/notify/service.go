package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dentalops/clinic-platform/internal/events"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Service turns outbox events into emails. Patient-facing emails go to
// the address on the event payload; new booking requests are also fanned
// out to the configured staff recipients so the front desk can confirm.
type Service struct {
	email           EmailSender
	staffRecipients []string
	logger          *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, staffRecipients []string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:           email,
		staffRecipients: staffRecipients,
		logger:          logger,
	}
}

// Dispatch routes one queue envelope to the matching email template.
// Unknown event types are skipped so old workers survive new producers.
func (s *Service) Dispatch(ctx context.Context, env Envelope) error {
	switch env.Type {
	case events.TypeAppointmentBooked:
		var p AppointmentPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("notify: decode %s payload: %w", env.Type, err)
		}
		var msgs []EmailMessage
		if p.PatientEmail != "" {
			msgs = append(msgs, bookedEmail(p))
		}
		for _, recipient := range s.staffRecipients {
			msgs = append(msgs, staffBookedEmail(p, recipient))
		}
		return s.sendAll(ctx, env, msgs)

	case events.TypeAppointmentStatusChanged:
		var p AppointmentPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("notify: decode %s payload: %w", env.Type, err)
		}
		if p.PatientEmail == "" {
			s.logger.Debug("notify: no patient email on payload, skipping", "event_id", env.EventID)
			return nil
		}
		msg, ok := statusChangedEmail(p)
		if !ok {
			s.logger.Debug("notify: status not patient-facing", "status", p.Status, "event_id", env.EventID)
			return nil
		}
		return s.sendAll(ctx, env, []EmailMessage{msg})

	case events.TypeAppointmentRescheduled:
		var p AppointmentPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("notify: decode %s payload: %w", env.Type, err)
		}
		if p.PatientEmail == "" {
			return nil
		}
		return s.sendAll(ctx, env, []EmailMessage{rescheduledEmail(p)})

	case events.TypeAppointmentReminderDue:
		var p AppointmentPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("notify: decode %s payload: %w", env.Type, err)
		}
		if p.PatientEmail == "" {
			return nil
		}
		return s.sendAll(ctx, env, []EmailMessage{reminderEmail(p)})

	case events.TypeInvoiceIssued, events.TypeInvoicePaid:
		var inv InvoicePayload
		if err := json.Unmarshal(env.Payload, &inv); err != nil {
			return fmt.Errorf("notify: decode %s payload: %w", env.Type, err)
		}
		if inv.PatientEmail == "" {
			return nil
		}
		msg := invoiceIssuedEmail(inv)
		if env.Type == events.TypeInvoicePaid {
			msg = invoicePaidEmail(inv)
		}
		return s.sendAll(ctx, env, []EmailMessage{msg})

	default:
		s.logger.Debug("notify: unknown event type, skipping", "type", env.Type, "event_id", env.EventID)
		return nil
	}
}

func (s *Service) sendAll(ctx context.Context, env Envelope, msgs []EmailMessage) error {
	if s.email == nil || len(msgs) == 0 {
		return nil
	}
	var failed int
	for _, msg := range msgs {
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: failed to send email", "error", err, "to", msg.To, "type", env.Type)
			failed++
			continue
		}
		s.logger.Info("notify: email sent", "to", msg.To, "type", env.Type, "event_id", env.EventID)
	}
	if failed > 0 {
		return fmt.Errorf("notify: %d notification(s) failed", failed)
	}
	return nil
}
