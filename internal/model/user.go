package model

import "time"

// User is an internal user keyed by their Slack user id. Users are created
// lazily the first time they run a command.
type User struct {
	ID          int64     `json:"id"`
	SlackUserID string    `json:"slack_user_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Timezone    string    `json:"timezone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
