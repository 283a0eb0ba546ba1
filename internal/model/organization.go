package model

import "time"

// Organization is the tenant record for exactly one Slack workspace.
type Organization struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	SlackWorkspaceID   string    `json:"slack_workspace_id"`
	SlackWorkspaceName string    `json:"slack_workspace_name"`
	DefaultTimezone    string    `json:"default_timezone"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
