package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/standup/common/logger"
	"basegraph.app/standup/internal/activity"
	"basegraph.app/standup/internal/metrics"
	"basegraph.app/standup/internal/queue"
)

const (
	statusStored       = "stored"
	statusRequeued     = "requeued"
	statusDeadLettered = "dead_lettered"
)

type Config struct {
	MaxAttempts int
	// ErrorBackoff is the pause after a failed stream read.
	ErrorBackoff time.Duration
}

// Worker drains the activity stream into a sink, normally the
// activity_logs table.
type Worker struct {
	consumer Consumer
	sink     activity.Sink
	cfg      Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, sink activity.Sink, cfg Config) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	return &Worker{
		consumer:  consumer,
		sink:      sink,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "standup.worker",
	})
	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
		}

		if err := w.processOneBatch(ctx); err != nil {
			slog.ErrorContext(ctx, "batch processing error", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.stopCh:
				return nil
			case <-time.After(w.cfg.ErrorBackoff):
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		w.Handle(ctx, msg)
	}
	return nil
}

// Handle processes msg and routes a failure to a retry or the DLQ. The
// reclaimer uses it for stale pending messages.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) {
	if err := w.processMessageSafe(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "message processing failed",
			"error", err,
			"message_id", msg.ID,
			"activity_id", msg.Activity.ID)
		w.handleFailedMessage(ctx, msg, err)
	}
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage records the activity and acks it. Recording is keyed by
// the activity id, so a redelivered message is stored once.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	span := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.process_activity")
	defer span.End()
	ctx = span.Context()

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID:        logger.Ptr(msg.ID),
		ActivityID:       logger.Ptr(msg.Activity.ID),
		RequestKind:      logger.Ptr(string(msg.Activity.Kind)),
		SlackUserID:      logger.Ptr(msg.Activity.SlackUserID),
		SlackWorkspaceID: logger.Ptr(msg.Activity.SlackWorkspaceID),
	})

	slog.DebugContext(ctx, "processing activity", "attempt", msg.Attempt)

	entry := msg.Activity
	if err := w.sink.Record(ctx, &entry); err != nil {
		span.RecordError(err)
		return fmt.Errorf("recording activity: %w", err)
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Stays pending; the reclaimer redelivers and the insert is a no-op.
		slog.WarnContext(ctx, "failed to ACK message", "error", err)
	}

	metrics.ActivityProcessedTotal.WithLabelValues(statusStored).Inc()
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"message_id", msg.ID,
			"activity_id", msg.Activity.ID,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
			return
		}
		metrics.ActivityProcessedTotal.WithLabelValues(statusDeadLettered).Inc()
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"activity_id", msg.Activity.ID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
		return
	}
	metrics.ActivityProcessedTotal.WithLabelValues(statusRequeued).Inc()
}
