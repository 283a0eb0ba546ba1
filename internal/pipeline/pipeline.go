package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"basegraph.app/standup/common/logger"
	"basegraph.app/standup/internal/activity"
	"basegraph.app/standup/internal/metrics"
	"basegraph.app/standup/internal/model"
	"basegraph.app/standup/internal/service"
)

// GenericFailureMessage is shown when the handler fails. Internal errors are
// only logged.
const GenericFailureMessage = "Something went wrong while handling your request. Please try again."

type Outcome string

const (
	OutcomeHandled      Outcome = metrics.OutcomeHandled
	OutcomeRejected     Outcome = metrics.OutcomeRejected
	OutcomeHandlerError Outcome = metrics.OutcomeHandlerError
)

// Pipeline runs its stages in order, then the handler. It holds no
// per-request state and is shared by all requests.
type Pipeline struct {
	stages []Stage
}

func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Default is sanitize, log, authenticate.
func Default(sink activity.Sink, auth service.AuthService) *Pipeline {
	return New(SanitizeStage(), LogStage(sink), AuthStage(auth))
}

// Run processes req. The responder is acked exactly once. The handler runs
// at most once, and only when no stage halted.
func (p *Pipeline) Run(ctx context.Context, req *Request, responder Responder, handler HandlerFunc) Outcome {
	start := time.Now()

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component:        "standup.pipeline",
		RequestKind:      logger.Ptr(string(req.Kind)),
		SlackUserID:      logger.Ptr(req.UserID),
		SlackWorkspaceID: logger.Ptr(req.WorkspaceID),
	})
	if req.Command != nil && req.Command.Command != "" {
		ctx = logger.WithLogFields(ctx, logger.LogFields{Command: logger.Ptr(req.Command.Command)})
	}

	span := logger.StartSpan(ctx, "pipeline.run")
	defer span.End()
	ctx = span.Context()
	span.Span().SetAttributes(attribute.String("standup.request_kind", string(req.Kind)))

	outcome := p.run(ctx, req, newOnceResponder(responder), handler)

	span.Span().SetAttributes(attribute.String("standup.outcome", string(outcome)))
	metrics.ObservePipeline(string(req.Kind), string(outcome), time.Since(start))
	return outcome
}

func (p *Pipeline) run(ctx context.Context, req *Request, r *onceResponder, handler HandlerFunc) Outcome {
	for _, stage := range p.stages {
		res := p.runStage(ctx, stage, req)
		if !res.Halted() {
			continue
		}

		slog.InfoContext(ctx, "request rejected",
			"stage", stage.Name(),
			"reason", res.Reason())
		r.Ack(ctx)
		r.Respond(ctx, res.Response())
		return OutcomeRejected
	}

	if req.Auth != nil && req.Auth.Success {
		ctx = WithAuth(ctx, req.Auth)
		ctx = logger.WithLogFields(ctx, logger.LogFields{
			UserID:         logger.Ptr(req.Auth.User.ID),
			OrganizationID: logger.Ptr(req.Auth.Organization.ID),
		})
	}

	r.Ack(ctx)

	resp, err := invoke(ctx, handler, req)
	if err != nil {
		metrics.HandlerErrorsTotal.WithLabelValues(string(req.Kind)).Inc()
		slog.ErrorContext(ctx, "handler failed", "error", err)
		r.Ack(ctx)
		r.Respond(ctx, model.Ephemeral(GenericFailureMessage))
		return OutcomeHandlerError
	}

	if resp != nil {
		r.Respond(ctx, *resp)
	}
	return OutcomeHandled
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage, req *Request) (res Result) {
	span := logger.StartSpan(ctx, "pipeline.stage."+stage.Name())
	defer span.End()
	ctx = span.Context()

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("stage %s panicked: %v", stage.Name(), rec)
			span.RecordError(err)
			slog.ErrorContext(ctx, "pipeline stage panicked",
				"stage", stage.Name(),
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()))
			res = Halt(model.Ephemeral(GenericFailureMessage), "stage panic")
		}
	}()

	res = stage.Process(ctx, req)
	if res.Halted() {
		span.Span().SetAttributes(attribute.String("standup.halt_reason", res.Reason()))
	}
	return res
}

func invoke(ctx context.Context, handler HandlerFunc, req *Request) (resp *model.Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "handler panicked",
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()))
			resp, err = nil, fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return handler(ctx, req)
}

// onceResponder guarantees a single ack per request.
type onceResponder struct {
	next    Responder
	ackOnce sync.Once
}

func newOnceResponder(next Responder) *onceResponder {
	return &onceResponder{next: next}
}

func (r *onceResponder) Ack(ctx context.Context) {
	r.ackOnce.Do(func() {
		if err := r.next.Ack(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to ack request", "error", err)
		}
	})
}

func (r *onceResponder) Respond(ctx context.Context, resp model.Response) {
	if err := r.next.Respond(ctx, resp); err != nil {
		slog.ErrorContext(ctx, "failed to send response", "error", err)
	}
}
