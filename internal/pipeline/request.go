package pipeline

import (
	"context"
	"encoding/json"

	"basegraph.app/standup/internal/model"
	"basegraph.app/standup/internal/service"
)

// Request is one inbound Slack request as it moves through the stages.
// Command is set only for slash commands; the sanitize stage rewrites its
// Text in place before any later stage reads it.
type Request struct {
	Kind        model.RequestKind
	Command     *model.Command
	UserID      string
	WorkspaceID string
	UserInfo    *service.UserInfo
	ResponseURL string
	Payload     json.RawMessage

	// Auth is filled in by the authenticate stage.
	Auth *model.AuthResult
}

func NewCommandRequest(cmd model.Command, payload json.RawMessage) *Request {
	return &Request{
		Kind:        model.RequestKindCommand,
		Command:     &cmd,
		UserID:      cmd.UserID,
		WorkspaceID: cmd.WorkspaceID,
		UserInfo:    &service.UserInfo{Name: cmd.UserName},
		ResponseURL: cmd.ResponseURL,
		Payload:     payload,
	}
}

// Responder is the transport side of a request.
type Responder interface {
	// Ack tells Slack the request was received.
	Ack(ctx context.Context) error
	// Respond sends a message back to the user.
	Respond(ctx context.Context, resp model.Response) error
}

// HandlerFunc is the business logic run after a request is authenticated.
// A nil response with a nil error sends nothing beyond the ack.
type HandlerFunc func(ctx context.Context, req *Request) (*model.Response, error)

type authContextKey struct{}

// WithAuth attaches a successful authentication to ctx.
func WithAuth(ctx context.Context, auth *model.AuthResult) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// AuthFromContext returns the authentication attached by the pipeline.
func AuthFromContext(ctx context.Context) (*model.AuthResult, bool) {
	auth, ok := ctx.Value(authContextKey{}).(*model.AuthResult)
	return auth, ok && auth != nil
}
