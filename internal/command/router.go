package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"basegraph.app/standup/internal/model"
	"basegraph.app/standup/internal/pipeline"
)

var ErrNotAuthenticated = errors.New("command invoked without authentication")

// Subcommand handles "/standup <name> <args>".
type Subcommand func(ctx context.Context, auth *model.AuthResult, args string) (*model.Response, error)

// Router dispatches slash command text to subcommands. The first word picks
// the subcommand; an empty text runs help.
type Router struct {
	command     string
	subcommands map[string]Subcommand
	order       []string
}

func NewRouter(command string) *Router {
	r := &Router{
		command:     command,
		subcommands: map[string]Subcommand{},
	}
	r.Register("help", r.help)
	r.Register("whoami", whoami)
	return r
}

func (r *Router) Register(name string, sub Subcommand) {
	name = strings.ToLower(name)
	if _, ok := r.subcommands[name]; !ok {
		r.order = append(r.order, name)
	}
	r.subcommands[name] = sub
}

// Handle is the pipeline handler for slash commands.
func (r *Router) Handle(ctx context.Context, req *pipeline.Request) (*model.Response, error) {
	auth, ok := pipeline.AuthFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	text := ""
	if req.Command != nil {
		text = req.Command.Text
	}
	name, args, _ := strings.Cut(text, " ")
	name = strings.ToLower(name)
	if name == "" {
		name = "help"
	}

	sub, ok := r.subcommands[name]
	if !ok {
		resp := model.Ephemeral(fmt.Sprintf("Unknown command `%s`. Try `%s help`.", name, r.command))
		return &resp, nil
	}
	return sub(ctx, auth, strings.TrimSpace(args))
}

func (r *Router) help(_ context.Context, _ *model.AuthResult, _ string) (*model.Response, error) {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, name := range r.order {
		fmt.Fprintf(&b, "• `%s %s`\n", r.command, name)
	}
	resp := model.Ephemeral(strings.TrimRight(b.String(), "\n"))
	return &resp, nil
}

func whoami(_ context.Context, auth *model.AuthResult, _ string) (*model.Response, error) {
	name := auth.User.Name
	if name == "" {
		name = auth.User.SlackUserID
	}
	tz := auth.User.Timezone
	if tz == "" {
		tz = auth.Organization.DefaultTimezone
	}
	resp := model.Ephemeral(fmt.Sprintf("You are %s, %s of %s. Timezone: %s. Member since %s.",
		name,
		roleLabel(auth.Membership.Role),
		auth.Organization.Name,
		tz,
		auth.Membership.JoinedAt.Format("2006-01-02"),
	))
	return &resp, nil
}

func roleLabel(role model.Role) string {
	switch role {
	case model.RoleOwner:
		return "an owner"
	case model.RoleAdmin:
		return "an admin"
	case model.RoleMember:
		return "a member"
	default:
		return "a member"
	}
}

// Acknowledge is the handler for events, actions and views: the request has
// been logged and authenticated and needs no reply.
func Acknowledge(context.Context, *pipeline.Request) (*model.Response, error) {
	return nil, nil
}
