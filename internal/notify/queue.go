package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dentalops/clinic-platform/internal/events"
)

// Message is one queued notification job.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Queue is the transport between the outbox deliverer and the notify
// worker. SQS in deployments, an in-process channel in development.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// Envelope is the wire format on the notification queue.
type Envelope struct {
	EventID string          `json:"event_id"`
	Branch  string          `json:"branch"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// QueuePublisher forwards outbox entries onto the notification queue.
// It implements events.DeliveryHandler.
type QueuePublisher struct {
	queue Queue
}

// NewQueuePublisher creates a publisher over the given queue.
func NewQueuePublisher(queue Queue) *QueuePublisher {
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	return &QueuePublisher{queue: queue}
}

// Handle wraps the entry in an Envelope and enqueues it.
func (p *QueuePublisher) Handle(ctx context.Context, entry events.OutboxEntry) error {
	env := Envelope{
		EventID: entry.ID.String(),
		Branch:  entry.Branch,
		Type:    entry.Type,
		Payload: entry.Payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("notify: marshal envelope: %w", err)
	}
	if err := p.queue.Send(ctx, string(body)); err != nil {
		return fmt.Errorf("notify: enqueue event: %w", err)
	}
	return nil
}

var _ events.DeliveryHandler = (*QueuePublisher)(nil)
