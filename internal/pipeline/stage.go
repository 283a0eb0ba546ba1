package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"basegraph.app/standup/internal/activity"
	"basegraph.app/standup/internal/metrics"
	"basegraph.app/standup/internal/model"
	"basegraph.app/standup/internal/service"
	"basegraph.app/standup/internal/slack"
)

const lockPrefix = "🔒 "

// Stage is one step of the pipeline.
type Stage interface {
	Name() string
	Process(ctx context.Context, req *Request) Result
}

// Result tells the pipeline whether to run the next stage.
type Result struct {
	halted   bool
	response model.Response
	reason   string
}

func Continue() Result {
	return Result{}
}

// Halt stops the pipeline; response is sent to the user after the ack.
func Halt(response model.Response, reason string) Result {
	return Result{halted: true, response: response, reason: reason}
}

func (r Result) Halted() bool            { return r.halted }
func (r Result) Response() model.Response { return r.response }
func (r Result) Reason() string           { return r.reason }

type sanitizeStage struct{}

func SanitizeStage() Stage { return sanitizeStage{} }

func (sanitizeStage) Name() string { return "sanitize" }

func (sanitizeStage) Process(_ context.Context, req *Request) Result {
	if req.Command != nil {
		req.Command.Text = slack.Sanitize(req.Command.Text)
	}
	return Continue()
}

type logStage struct {
	sink activity.Sink
}

// LogStage records the raw payload. Sink failures are logged and never stop
// the request.
func LogStage(sink activity.Sink) Stage {
	return &logStage{sink: sink}
}

func (s *logStage) Name() string { return "log" }

func (s *logStage) Process(ctx context.Context, req *Request) Result {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "activity sink panicked", "panic", fmt.Sprint(r))
		}
	}()

	entry := activity.NewEntry(req.Kind, req.UserID, req.WorkspaceID, req.Payload)
	if err := s.sink.Record(ctx, entry); err != nil {
		slog.WarnContext(ctx, "failed to record activity",
			"error", err,
			"activity_id", entry.ID)
	}
	return Continue()
}

type authStage struct {
	auth service.AuthService
}

// AuthStage authenticates the caller and halts with a lock-prefixed
// ephemeral message when that fails.
func AuthStage(auth service.AuthService) Stage {
	return &authStage{auth: auth}
}

func (s *authStage) Name() string { return "authenticate" }

func (s *authStage) Process(ctx context.Context, req *Request) Result {
	result := s.auth.AuthenticateUser(ctx, req.UserID, req.WorkspaceID, req.UserInfo)
	req.Auth = result
	if result == nil || (!result.Success && result.Error == nil) {
		return Halt(model.Ephemeral(lockPrefix+GenericFailureMessage), "no auth result")
	}
	if result.Success {
		return Continue()
	}

	metrics.AuthFailuresTotal.WithLabelValues(string(result.Error.Code)).Inc()
	return Halt(model.Ephemeral(lockPrefix+result.Error.Message), string(result.Error.Code))
}
