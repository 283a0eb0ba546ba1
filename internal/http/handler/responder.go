package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/standup/internal/model"
	"basegraph.app/standup/internal/slack"
)

var errNoResponseChannel = errors.New("no way to deliver response")

// httpResponder maps pipeline acks and responses onto one Slack HTTP request.
// The ack is the HTTP 200. When inline, the first response becomes the 200's
// body; later responses, and all responses when not inline, go to the
// response_url.
type httpResponder struct {
	c           *gin.Context
	inline      bool
	responseURL string
	client      slack.ResponseClient

	wrote bool
}

func newHTTPResponder(c *gin.Context, inline bool, responseURL string, client slack.ResponseClient) *httpResponder {
	return &httpResponder{c: c, inline: inline, responseURL: responseURL, client: client}
}

// Ack sends the bare 200 right away unless the first response is meant to
// become its body, in which case the 200 goes out with that response or in
// finish.
func (r *httpResponder) Ack(context.Context) error {
	if r.inline || r.wrote {
		return nil
	}
	r.wrote = true
	r.c.Status(http.StatusOK)
	r.c.Writer.WriteHeaderNow()
	return nil
}

func (r *httpResponder) Respond(ctx context.Context, resp model.Response) error {
	if r.inline && !r.wrote {
		r.wrote = true
		r.c.JSON(http.StatusOK, resp)
		return nil
	}
	if r.responseURL == "" || r.client == nil {
		return errNoResponseChannel
	}
	return r.client.Post(ctx, r.responseURL, resp)
}

// finish writes the bare ack if nothing else was written.
func (r *httpResponder) finish() {
	if !r.wrote {
		r.c.Status(http.StatusOK)
		r.c.Writer.WriteHeaderNow()
	}
}
