package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

// ConsumerName identifies this worker in the processed_events table.
const ConsumerName = "notify-worker"

const deleteTimeoutSeconds = 10

type processedEvents interface {
	AlreadyProcessed(ctx context.Context, consumer, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
}

type workerConfig struct {
	workers          int
	receiveBatchSize int
	receiveWaitSecs  int
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consume loops.
func WithWorkerCount(n int) WorkerOption {
	return func(cfg *workerConfig) {
		if n > 0 {
			cfg.workers = n
		}
	}
}

// WithReceiveBatchSize sets the max messages fetched per poll.
func WithReceiveBatchSize(n int) WorkerOption {
	return func(cfg *workerConfig) {
		if n > 0 {
			cfg.receiveBatchSize = n
		}
	}
}

// Worker consumes notification events from the queue and dispatches
// emails. The queue delivers at least once; the processed-events store
// keeps retries from emailing a patient twice.
type Worker struct {
	service   *Service
	queue     Queue
	processed processedEvents
	logger    *logging.Logger
	cfg       workerConfig
	wg        sync.WaitGroup
}

// NewWorker creates a notification worker. The processed store may be
// nil, in which case dedupe is skipped.
func NewWorker(service *Service, queue Queue, processed processedEvents, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if service == nil {
		panic("notify: service cannot be nil")
	}
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:          2,
		receiveBatchSize: 10,
		receiveWaitSecs:  20,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Worker{
		service:   service,
		queue:     queue,
		processed: processed,
		logger:    logger,
		cfg:       cfg,
	}
}

// Start launches the consume loops. It returns immediately; call Wait
// after canceling ctx to drain.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all consume loops have stopped.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("notify worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("notify worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive notification events", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg Message) {
	var env Envelope
	if err := json.Unmarshal([]byte(msg.Body), &env); err != nil {
		w.logger.Error("failed to decode notification event", "error", err, "msg_id", msg.ID)
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}

	if w.processed != nil && env.EventID != "" {
		seen, err := w.processed.AlreadyProcessed(ctx, ConsumerName, env.EventID)
		if err != nil {
			w.logger.Warn("processed-events lookup failed", "error", err, "event_id", env.EventID)
		} else if seen {
			w.logger.Debug("skipping duplicate notification event", "event_id", env.EventID, "type", env.Type)
			w.deleteMessage(context.Background(), msg.ReceiptHandle)
			return
		}
	}

	if err := w.service.Dispatch(ctx, env); err != nil {
		// Leave the message on the queue for redelivery.
		w.logger.Error("notification dispatch failed", "error", err, "event_id", env.EventID, "type", env.Type)
		return
	}

	if w.processed != nil && env.EventID != "" {
		if _, err := w.processed.MarkProcessed(ctx, ConsumerName, env.EventID); err != nil {
			w.logger.Warn("failed to mark event processed", "error", err, "event_id", env.EventID)
		}
	}

	w.deleteMessage(context.Background(), msg.ReceiptHandle)
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if receiptHandle == "" {
		return
	}

	deleteCtx, cancel := context.WithTimeout(ctx, deleteTimeoutSeconds*time.Second)
	defer cancel()

	if err := w.queue.Delete(deleteCtx, receiptHandle); err != nil {
		w.logger.Error("failed to delete notification event", "error", err)
	}
}
