package store

import (
	"context"
	"errors"

	"basegraph.app/standup/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// UserStore defines the contract for user data access
type UserStore interface {
	// UpsertBySlackUserID inserts the user or, if the Slack user id already
	// exists, loads the stored row into user without changing it.
	UpsertBySlackUserID(ctx context.Context, user *model.User) error
}

// OrganizationStore defines the contract for organization data access
type OrganizationStore interface {
	GetBySlackWorkspaceID(ctx context.Context, workspaceID string) (*model.Organization, error)
	Create(ctx context.Context, org *model.Organization) error
}

// MembershipStore defines the contract for organization membership data access
type MembershipStore interface {
	GetByOrgAndUser(ctx context.Context, orgID, userID int64) (*model.Membership, error)
	Create(ctx context.Context, membership *model.Membership) error
}

// ActivityLogStore persists inbound request activity
type ActivityLogStore interface {
	Create(ctx context.Context, log *model.ActivityLog) error
	ListByWorkspace(ctx context.Context, workspaceID string, limit int32) ([]model.ActivityLog, error)
}

// AuthRepository is the narrow read path used by the authentication gate.
// Lookups return ErrNotFound when the entity is absent; any other error is a
// failure of the datastore itself.
type AuthRepository interface {
	FindOrganizationBySlackWorkspaceID(ctx context.Context, workspaceID string) (*model.Organization, error)
	FindMembership(ctx context.Context, organizationID, userID int64) (*model.Membership, error)
	FindOrCreateUser(ctx context.Context, user *model.User) (*model.User, error)
}
