package logger

import (
	"context"
	"unicode/utf8"
)

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// The pipeline enriches the context as it learns who is calling, so every log line
// emitted while handling a Slack request carries the tenant it belongs to.
type LogFields struct {
	SlackUserID      *string // Slack user id (U...)
	SlackWorkspaceID *string // Slack team id (T...)
	UserID           *int64  // Internal user id, set after authentication
	OrganizationID   *int64  // Internal organization id, set after authentication
	RequestKind      *string // command, event, action or view
	Command          *string // Slash command, e.g. "/standup"
	MessageID        *string // Redis stream message id (worker)
	ActivityID       *int64  // Activity log id (worker)
	Component        string  // Component name (OTel semantic convention style, e.g., "standup.pipeline")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.SlackUserID != nil {
		result.SlackUserID = new.SlackUserID
	}
	if new.SlackWorkspaceID != nil {
		result.SlackWorkspaceID = new.SlackWorkspaceID
	}
	if new.UserID != nil {
		result.UserID = new.UserID
	}
	if new.OrganizationID != nil {
		result.OrganizationID = new.OrganizationID
	}
	if new.RequestKind != nil {
		result.RequestKind = new.RequestKind
	}
	if new.Command != nil {
		result.Command = new.Command
	}
	if new.MessageID != nil {
		result.MessageID = new.MessageID
	}
	if new.ActivityID != nil {
		result.ActivityID = new.ActivityID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{UserID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to at most maxLen bytes, appending "..." if
// truncated. The cut never splits a multi-byte rune.
// Used for logging user-supplied command text.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
