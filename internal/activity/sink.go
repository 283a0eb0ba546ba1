package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"basegraph.app/standup/common/id"
	"basegraph.app/standup/common/logger"
	"basegraph.app/standup/internal/model"
	"basegraph.app/standup/internal/queue"
	"basegraph.app/standup/internal/store"
)

const maxLoggedPayload = 2048

// Sink receives the raw payload of every inbound Slack request before it is
// authenticated. Callers treat errors as non-fatal.
type Sink interface {
	Record(ctx context.Context, entry *model.ActivityLog) error
}

// NewEntry stamps a raw payload with an id and the current time.
func NewEntry(kind model.RequestKind, slackUserID, slackWorkspaceID string, payload json.RawMessage) *model.ActivityLog {
	if len(payload) == 0 || !json.Valid(payload) {
		payload = json.RawMessage("null")
	}
	return &model.ActivityLog{
		ID:               id.New(),
		Kind:             kind,
		SlackUserID:      slackUserID,
		SlackWorkspaceID: slackWorkspaceID,
		Payload:          payload,
		OccurredAt:       time.Now().UTC(),
	}
}

type logSink struct {
	logger *slog.Logger
}

// NewLogSink writes entries as structured log lines.
func NewLogSink(logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &logSink{logger: logger}
}

func (s *logSink) Record(ctx context.Context, entry *model.ActivityLog) error {
	s.logger.InfoContext(ctx, "slack activity",
		"activity_id", entry.ID,
		"kind", entry.Kind,
		"slack_user_id", entry.SlackUserID,
		"slack_workspace_id", entry.SlackWorkspaceID,
		"payload", logger.Truncate(string(entry.Payload), maxLoggedPayload))
	return nil
}

type streamSink struct {
	producer queue.Producer
}

// NewStreamSink publishes entries to the activity stream for the worker to persist.
func NewStreamSink(producer queue.Producer) Sink {
	return &streamSink{producer: producer}
}

func (s *streamSink) Record(ctx context.Context, entry *model.ActivityLog) error {
	msg := queue.ActivityMessage{Activity: *entry, Attempt: 1}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		msg.TraceID = logger.Ptr(sc.TraceID().String())
	}
	if err := s.producer.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("stream activity %d: %w", entry.ID, err)
	}
	return nil
}

type storeSink struct {
	logs store.ActivityLogStore
}

// NewStoreSink writes entries straight to the activity_logs table.
func NewStoreSink(logs store.ActivityLogStore) Sink {
	return &storeSink{logs: logs}
}

func (s *storeSink) Record(ctx context.Context, entry *model.ActivityLog) error {
	if err := s.logs.Create(ctx, entry); err != nil {
		return fmt.Errorf("store activity %d: %w", entry.ID, err)
	}
	return nil
}

type fanout struct {
	sinks []Sink
}

// Fanout records to every sink and joins their errors.
func Fanout(sinks ...Sink) Sink {
	return &fanout{sinks: sinks}
}

func (f *fanout) Record(ctx context.Context, entry *model.ActivityLog) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
