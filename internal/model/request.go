package model

import (
	"encoding/json"
	"time"
)

// RequestKind identifies which Slack surface a request came from.
type RequestKind string

const (
	RequestKindCommand RequestKind = "command"
	RequestKindEvent   RequestKind = "event"
	RequestKindAction  RequestKind = "action"
	RequestKindView    RequestKind = "view"
)

func (k RequestKind) Valid() bool {
	switch k {
	case RequestKindCommand, RequestKindEvent, RequestKindAction, RequestKindView:
		return true
	}
	return false
}

// Command is a parsed slash command invocation. Text is normalized in place
// by the sanitize stage before anything downstream reads it.
type Command struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"team_id"`
	Text        string `json:"text"`
	Command     string `json:"command"`
	ChannelID   string `json:"channel_id"`
	UserName    string `json:"user_name"`
	ResponseURL string `json:"response_url"`
	TriggerID   string `json:"trigger_id"`
}

type ResponseType string

// Every reply is ephemeral; nothing this bot says is posted to the channel.
const ResponseTypeEphemeral ResponseType = "ephemeral"

// Response is a message rendered back to Slack.
type Response struct {
	Text         string       `json:"text"`
	ResponseType ResponseType `json:"response_type"`
}

func Ephemeral(text string) Response {
	return Response{Text: text, ResponseType: ResponseTypeEphemeral}
}

// ActivityLog is one recorded inbound request, kept for audit.
type ActivityLog struct {
	ID               int64           `json:"id"`
	Kind             RequestKind     `json:"kind"`
	SlackUserID      string          `json:"slack_user_id"`
	SlackWorkspaceID string          `json:"slack_workspace_id"`
	Payload          json.RawMessage `json:"payload"`
	OccurredAt       time.Time       `json:"occurred_at"`
	CreatedAt        time.Time       `json:"created_at"`
}
