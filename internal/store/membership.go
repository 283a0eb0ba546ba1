package store

import (
	"context"
	"errors"

	"basegraph.app/standup/core/db"
	"basegraph.app/standup/internal/model"
	"github.com/jackc/pgx/v5"
)

const membershipColumns = `id, organization_id, user_id, role, is_active, joined_at`

type membershipStore struct {
	q db.Querier
}

func newMembershipStore(q db.Querier) MembershipStore {
	return &membershipStore{q: q}
}

// GetByOrgAndUser filters on both keys; a membership in another organization
// never satisfies the lookup.
func (s *membershipStore) GetByOrgAndUser(ctx context.Context, orgID, userID int64) (*model.Membership, error) {
	row := s.q.QueryRow(ctx, `
		SELECT `+membershipColumns+`
		FROM organization_memberships
		WHERE organization_id = $1 AND user_id = $2`,
		orgID, userID,
	)
	return scanMembership(row)
}

func (s *membershipStore) Create(ctx context.Context, m *model.Membership) error {
	row := s.q.QueryRow(ctx, `
		INSERT INTO organization_memberships (id, organization_id, user_id, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+membershipColumns,
		m.ID, m.OrganizationID, m.UserID, string(m.Role), m.IsActive,
	)
	stored, err := scanMembership(row)
	if err != nil {
		return err
	}
	*m = *stored
	return nil
}

func scanMembership(row pgx.Row) (*model.Membership, error) {
	var (
		m    model.Membership
		role string
	)
	if err := row.Scan(&m.ID, &m.OrganizationID, &m.UserID, &role, &m.IsActive, &m.JoinedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m.Role = model.Role(role)
	return &m, nil
}
