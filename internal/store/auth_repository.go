package store

import (
	"context"

	"basegraph.app/standup/internal/model"
)

type authRepository struct {
	users       UserStore
	orgs        OrganizationStore
	memberships MembershipStore
}

// NewAuthRepository composes the entity stores into the read path used for
// authentication.
func NewAuthRepository(users UserStore, orgs OrganizationStore, memberships MembershipStore) AuthRepository {
	return &authRepository{
		users:       users,
		orgs:        orgs,
		memberships: memberships,
	}
}

func (r *authRepository) FindOrganizationBySlackWorkspaceID(ctx context.Context, workspaceID string) (*model.Organization, error) {
	return r.orgs.GetBySlackWorkspaceID(ctx, workspaceID)
}

func (r *authRepository) FindMembership(ctx context.Context, organizationID, userID int64) (*model.Membership, error) {
	return r.memberships.GetByOrgAndUser(ctx, organizationID, userID)
}

func (r *authRepository) FindOrCreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	u := *user
	if err := r.users.UpsertBySlackUserID(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
