package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"basegraph.app/standup/internal/http/dto"
	"basegraph.app/standup/internal/model"
	"basegraph.app/standup/internal/pipeline"
	"basegraph.app/standup/internal/service"
	"basegraph.app/standup/internal/slack"
)

type SlackHandler struct {
	pipeline  *pipeline.Pipeline
	commands  pipeline.HandlerFunc
	others    pipeline.HandlerFunc
	responses slack.ResponseClient
}

// NewSlackHandler wires the Slack endpoints to the pipeline. commands handles
// slash commands; others handles events, actions and views.
func NewSlackHandler(p *pipeline.Pipeline, commands, others pipeline.HandlerFunc, responses slack.ResponseClient) *SlackHandler {
	return &SlackHandler{
		pipeline:  p,
		commands:  commands,
		others:    others,
		responses: responses,
	}
}

func (h *SlackHandler) Command(c *gin.Context) {
	ctx := c.Request.Context()

	var form dto.SlashCommandForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		slog.WarnContext(ctx, "invalid slash command form", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	cmd := form.ToCommand()
	req := pipeline.NewCommandRequest(cmd, form.Payload())
	responder := newHTTPResponder(c, true, cmd.ResponseURL, h.responses)

	h.pipeline.Run(ctx, req, responder, h.commands)
	responder.finish()
}

func (h *SlackHandler) Event(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	env, err := slack.ParseEvent(body)
	if err != nil {
		slog.WarnContext(ctx, "invalid event payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	switch env.Type {
	case slack.EnvelopeURLVerification:
		c.JSON(http.StatusOK, dto.URLVerificationResponse{Challenge: env.Challenge})
		return
	case slack.EnvelopeEventCallback:
	default:
		slog.InfoContext(ctx, "ignoring slack envelope", "type", env.Type)
		c.Status(http.StatusOK)
		return
	}

	req := &pipeline.Request{
		Kind:        model.RequestKindEvent,
		UserID:      env.Event.User,
		WorkspaceID: env.TeamID,
		Payload:     dto.RedactToken(body),
	}
	responder := newHTTPResponder(c, false, "", h.responses)

	h.pipeline.Run(ctx, req, responder, h.others)
	responder.finish()
}

func (h *SlackHandler) Interaction(c *gin.Context) {
	ctx := c.Request.Context()

	var form dto.InteractionForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing payload"})
		return
	}

	in, err := slack.ParseInteraction(form.Payload)
	if err != nil {
		slog.WarnContext(ctx, "invalid interaction payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	kind, ok := in.Kind()
	if !ok {
		slog.InfoContext(ctx, "ignoring slack interaction", "type", in.Type)
		c.Status(http.StatusOK)
		return
	}

	req := &pipeline.Request{
		Kind:        kind,
		UserID:      in.User.ID,
		WorkspaceID: in.WorkspaceID(),
		ResponseURL: in.ResponseURL,
		Payload:     dto.RedactToken([]byte(form.Payload)),
	}
	if in.User.Username != "" {
		req.UserInfo = &service.UserInfo{Name: in.User.Username}
	}
	// View submissions expect a response_action body, so replies never go inline.
	responder := newHTTPResponder(c, false, in.ResponseURL, h.responses)

	h.pipeline.Run(ctx, req, responder, h.others)
	responder.finish()
}
