package slack

import (
	"encoding/json"
	"fmt"

	"basegraph.app/standup/internal/model"
)

const (
	EnvelopeURLVerification = "url_verification"
	EnvelopeEventCallback   = "event_callback"

	InteractionBlockActions   = "block_actions"
	InteractionViewSubmission = "view_submission"
	InteractionViewClosed     = "view_closed"
)

// EventEnvelope is the outer body of an Events API request.
type EventEnvelope struct {
	Type      string     `json:"type"`
	Token     string     `json:"token"`
	Challenge string     `json:"challenge"`
	TeamID    string     `json:"team_id"`
	EventID   string     `json:"event_id"`
	Event     EventInner `json:"event"`
}

type EventInner struct {
	Type    string `json:"type"`
	User    string `json:"user"`
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

func ParseEvent(body []byte) (*EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("event envelope has no type")
	}
	return &env, nil
}

// Interaction is the decoded "payload" form field of an interactivity request.
type Interaction struct {
	Type string `json:"type"`
	Team struct {
		ID     string `json:"id"`
		Domain string `json:"domain"`
	} `json:"team"`
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		TeamID   string `json:"team_id"`
	} `json:"user"`
	ResponseURL string `json:"response_url"`
	TriggerID   string `json:"trigger_id"`
}

// WorkspaceID prefers the team block and falls back to the user's team.
func (i *Interaction) WorkspaceID() string {
	if i.Team.ID != "" {
		return i.Team.ID
	}
	return i.User.TeamID
}

// Kind reports which pipeline kind the interaction belongs to, or false for
// interaction types the bot does not handle.
func (i *Interaction) Kind() (model.RequestKind, bool) {
	switch i.Type {
	case InteractionBlockActions:
		return model.RequestKindAction, true
	case InteractionViewSubmission, InteractionViewClosed:
		return model.RequestKindView, true
	default:
		return "", false
	}
}

func ParseInteraction(payload string) (*Interaction, error) {
	if payload == "" {
		return nil, fmt.Errorf("missing interaction payload")
	}
	var in Interaction
	if err := json.Unmarshal([]byte(payload), &in); err != nil {
		return nil, fmt.Errorf("decode interaction payload: %w", err)
	}
	return &in, nil
}
