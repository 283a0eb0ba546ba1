package store

import (
	"context"
	"errors"

	"basegraph.app/standup/core/db"
	"basegraph.app/standup/internal/model"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, slack_user_id, name, email, timezone, created_at, updated_at`

type userStore struct {
	q db.Querier
}

func newUserStore(q db.Querier) UserStore {
	return &userStore{q: q}
}

func (s *userStore) UpsertBySlackUserID(ctx context.Context, user *model.User) error {
	// The no-op update makes RETURNING yield the existing row on conflict, so
	// concurrent first-time commands from the same user all see one record.
	row := s.q.QueryRow(ctx, `
		INSERT INTO users (id, slack_user_id, name, email, timezone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slack_user_id) DO UPDATE SET slack_user_id = EXCLUDED.slack_user_id
		RETURNING `+userColumns,
		user.ID, user.SlackUserID, user.Name, user.Email, user.Timezone,
	)
	stored, err := scanUser(row)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.SlackUserID, &u.Name, &u.Email, &u.Timezone, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
