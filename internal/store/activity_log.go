package store

import (
	"context"

	"basegraph.app/standup/core/db"
	"basegraph.app/standup/internal/model"
)

const activityLogColumns = `id, kind, slack_user_id, slack_workspace_id, payload, occurred_at, created_at`

type activityLogStore struct {
	q db.Querier
}

func newActivityLogStore(q db.Querier) ActivityLogStore {
	return &activityLogStore{q: q}
}

// Create is idempotent on id so a redelivered stream message is stored once.
func (s *activityLogStore) Create(ctx context.Context, log *model.ActivityLog) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO activity_logs (id, kind, slack_user_id, slack_workspace_id, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		log.ID, string(log.Kind), log.SlackUserID, log.SlackWorkspaceID, []byte(log.Payload), log.OccurredAt,
	)
	return err
}

func (s *activityLogStore) ListByWorkspace(ctx context.Context, workspaceID string, limit int32) ([]model.ActivityLog, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+activityLogColumns+`
		FROM activity_logs
		WHERE slack_workspace_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2`,
		workspaceID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []model.ActivityLog{}
	for rows.Next() {
		var (
			l       model.ActivityLog
			kind    string
			payload []byte
		)
		if err := rows.Scan(&l.ID, &kind, &l.SlackUserID, &l.SlackWorkspaceID, &payload, &l.OccurredAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Kind = model.RequestKind(kind)
		l.Payload = payload
		result = append(result, l)
	}
	return result, rows.Err()
}
