package store

import (
	"context"
	"errors"

	"basegraph.app/standup/core/db"
	"basegraph.app/standup/internal/model"
	"github.com/jackc/pgx/v5"
)

const organizationColumns = `id, name, slack_workspace_id, slack_workspace_name, default_timezone, is_active, created_at, updated_at`

type organizationStore struct {
	q db.Querier
}

func newOrganizationStore(q db.Querier) OrganizationStore {
	return &organizationStore{q: q}
}

// GetBySlackWorkspaceID is an exact match on the workspace id.
func (s *organizationStore) GetBySlackWorkspaceID(ctx context.Context, workspaceID string) (*model.Organization, error) {
	row := s.q.QueryRow(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE slack_workspace_id = $1`, workspaceID)
	return scanOrganization(row)
}

func (s *organizationStore) Create(ctx context.Context, org *model.Organization) error {
	row := s.q.QueryRow(ctx, `
		INSERT INTO organizations (id, name, slack_workspace_id, slack_workspace_name, default_timezone, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+organizationColumns,
		org.ID, org.Name, org.SlackWorkspaceID, org.SlackWorkspaceName, org.DefaultTimezone, org.IsActive,
	)
	stored, err := scanOrganization(row)
	if err != nil {
		return err
	}
	*org = *stored
	return nil
}

func scanOrganization(row pgx.Row) (*model.Organization, error) {
	var o model.Organization
	if err := row.Scan(
		&o.ID, &o.Name, &o.SlackWorkspaceID, &o.SlackWorkspaceName,
		&o.DefaultTimezone, &o.IsActive, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}
