package dto

import (
	"encoding/json"

	"basegraph.app/standup/internal/model"
)

// SlashCommandForm is the form Slack posts for a slash command. No field is
// required here: missing ids are reported to the user by the auth gate.
type SlashCommandForm struct {
	Token       string `form:"token"`
	TeamID      string `form:"team_id"`
	TeamDomain  string `form:"team_domain"`
	ChannelID   string `form:"channel_id"`
	ChannelName string `form:"channel_name"`
	UserID      string `form:"user_id"`
	UserName    string `form:"user_name"`
	Command     string `form:"command"`
	Text        string `form:"text"`
	ResponseURL string `form:"response_url"`
	TriggerID   string `form:"trigger_id"`
}

func (f *SlashCommandForm) ToCommand() model.Command {
	return model.Command{
		UserID:      f.UserID,
		WorkspaceID: f.TeamID,
		Text:        f.Text,
		Command:     f.Command,
		ChannelID:   f.ChannelID,
		UserName:    f.UserName,
		ResponseURL: f.ResponseURL,
		TriggerID:   f.TriggerID,
	}
}

// Payload is the raw form as JSON for the activity log, without the
// verification token.
func (f *SlashCommandForm) Payload() json.RawMessage {
	raw, err := json.Marshal(map[string]string{
		"team_id":      f.TeamID,
		"team_domain":  f.TeamDomain,
		"channel_id":   f.ChannelID,
		"channel_name": f.ChannelName,
		"user_id":      f.UserID,
		"user_name":    f.UserName,
		"command":      f.Command,
		"text":         f.Text,
		"response_url": f.ResponseURL,
		"trigger_id":   f.TriggerID,
	})
	if err != nil {
		return nil
	}
	return raw
}

type InteractionForm struct {
	Payload string `form:"payload" binding:"required"`
}

type URLVerificationResponse struct {
	Challenge string `json:"challenge"`
}

// RedactToken drops the top-level verification token from a JSON body.
func RedactToken(body []byte) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return body
	}
	if _, ok := fields["token"]; !ok {
		return body
	}
	delete(fields, "token")
	raw, err := json.Marshal(fields)
	if err != nil {
		return body
	}
	return raw
}
