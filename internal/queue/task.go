package queue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"basegraph.app/standup/internal/model"
)

// ActivityMessage carries one recorded Slack request through the activity stream.
type ActivityMessage struct {
	Activity model.ActivityLog
	TraceID  *string
	Attempt  int
}

func activityValues(a model.ActivityLog, attempt int) map[string]any {
	payload := string(a.Payload)
	if payload == "" {
		payload = "null"
	}
	return map[string]any{
		"activity_id":        a.ID,
		"kind":               string(a.Kind),
		"slack_user_id":      a.SlackUserID,
		"slack_workspace_id": a.SlackWorkspaceID,
		"payload":            payload,
		"occurred_at":        a.OccurredAt.UTC().Format(time.RFC3339Nano),
		"attempt":            attempt,
	}
}

func parseActivity(values map[string]any) (model.ActivityLog, error) {
	activityID, err := parseInt64(values, "activity_id")
	if err != nil {
		return model.ActivityLog{}, err
	}
	kind, err := parseString(values, "kind")
	if err != nil {
		return model.ActivityLog{}, err
	}
	if !model.RequestKind(kind).Valid() {
		return model.ActivityLog{}, fmt.Errorf("unknown kind %q", kind)
	}
	payload, err := parseString(values, "payload")
	if err != nil {
		return model.ActivityLog{}, err
	}
	if !json.Valid([]byte(payload)) {
		return model.ActivityLog{}, fmt.Errorf("payload is not valid json")
	}
	occurredAtStr, err := parseString(values, "occurred_at")
	if err != nil {
		return model.ActivityLog{}, err
	}
	occurredAt, err := time.Parse(time.RFC3339Nano, occurredAtStr)
	if err != nil {
		return model.ActivityLog{}, fmt.Errorf("parsing occurred_at: %w", err)
	}
	userID, err := parseOptionalString(values, "slack_user_id")
	if err != nil {
		return model.ActivityLog{}, err
	}
	workspaceID, err := parseOptionalString(values, "slack_workspace_id")
	if err != nil {
		return model.ActivityLog{}, err
	}

	return model.ActivityLog{
		ID:               activityID,
		Kind:             model.RequestKind(kind),
		SlackUserID:      userID,
		SlackWorkspaceID: workspaceID,
		Payload:          json.RawMessage(payload),
		OccurredAt:       occurredAt,
	}, nil
}

func parseInt64(values map[string]any, key string) (int64, error) {
	raw, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	num, err := strconv.ParseInt(fmt.Sprint(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	return fmt.Sprint(raw), nil
}

func parseOptionalInt(values map[string]any, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	num, err := strconv.Atoi(fmt.Sprint(raw))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseOptionalString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", nil
	}
	return fmt.Sprint(raw), nil
}
