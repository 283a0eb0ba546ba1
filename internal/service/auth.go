package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"basegraph.app/standup/common/id"
	"basegraph.app/standup/common/logger"
	"basegraph.app/standup/internal/model"
	"basegraph.app/standup/internal/store"
)

const defaultTimezone = "UTC"

// UserInfo is profile data from Slack, used only when the user record is
// created for the first time.
type UserInfo struct {
	Name     string
	Email    string
	Timezone string
}

// AuthService resolves who is calling and whether they may act inside the
// organization mapped from their Slack workspace. It is stateless and safe
// for concurrent use.
type AuthService interface {
	AuthenticateUser(ctx context.Context, slackUserID, slackWorkspaceID string, info *UserInfo) *model.AuthResult
	FindOrganizationByWorkspace(ctx context.Context, slackWorkspaceID string) *model.Organization
	VerifyOrganizationMembership(ctx context.Context, userID, organizationID int64) *model.Membership
	ValidateSession(ctx context.Context, token string) *model.AuthResult
}

type authService struct {
	repo store.AuthRepository
}

func NewAuthService(repo store.AuthRepository) AuthService {
	return &authService{repo: repo}
}

// AuthenticateUser runs the checks in order and stops at the first failure.
func (s *authService) AuthenticateUser(ctx context.Context, slackUserID, slackWorkspaceID string, info *UserInfo) (result *model.AuthResult) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "standup.service.auth"})

	workspaceInput := slackWorkspaceID
	slackUserID = strings.TrimSpace(slackUserID)
	slackWorkspaceID = strings.TrimSpace(slackWorkspaceID)

	if slackUserID == "" {
		return authFailure(model.ErrorCodeMissingUserID, nil)
	}
	if slackWorkspaceID == "" {
		return authFailure(model.ErrorCodeMissingWorkspaceID, nil)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic during authentication",
				"panic", fmt.Sprint(r),
				"slack_user_id", slackUserID,
				"slack_workspace_id", slackWorkspaceID)
			result = authFailure(model.ErrorCodeSystemError, nil)
		}
	}()

	user, err := s.repo.FindOrCreateUser(ctx, newUser(slackUserID, info))
	if err != nil || user == nil {
		slog.ErrorContext(ctx, "failed to find or create user",
			"error", err,
			"slack_user_id", slackUserID)
		return authFailure(model.ErrorCodeUserCreationFailed, nil)
	}

	org, err := s.repo.FindOrganizationBySlackWorkspaceID(ctx, slackWorkspaceID)
	if isNotFound(org, err) {
		slog.InfoContext(ctx, "workspace not registered", "slack_workspace_id", slackWorkspaceID)
		return authFailure(model.ErrorCodeWorkspaceNotRegistered, map[string]any{
			"workspaceId": workspaceInput,
		})
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to look up organization",
			"error", err,
			"slack_workspace_id", slackWorkspaceID)
		return authFailure(model.ErrorCodeSystemError, nil)
	}

	membership, err := s.repo.FindMembership(ctx, org.ID, user.ID)
	if isNotFound(membership, err) {
		slog.InfoContext(ctx, "user is not a member of organization",
			"user_id", user.ID,
			"organization_id", org.ID)
		return authFailure(model.ErrorCodeNotOrganizationMember, map[string]any{
			"organizationName": org.Name,
		})
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to look up membership",
			"error", err,
			"user_id", user.ID,
			"organization_id", org.ID)
		return authFailure(model.ErrorCodeSystemError, nil)
	}

	if !membership.IsActive {
		slog.InfoContext(ctx, "membership inactive",
			"user_id", user.ID,
			"organization_id", org.ID)
		return authFailure(model.ErrorCodeMembershipInactive, nil)
	}

	slog.DebugContext(ctx, "user authenticated",
		"user_id", user.ID,
		"organization_id", org.ID,
		"role", membership.Role)

	return model.NewAuthSuccess(user, org, membership)
}

// FindOrganizationByWorkspace returns nil when the organization is absent or
// the lookup fails; failures are logged.
func (s *authService) FindOrganizationByWorkspace(ctx context.Context, slackWorkspaceID string) *model.Organization {
	if strings.TrimSpace(slackWorkspaceID) == "" {
		return nil
	}

	org, err := s.repo.FindOrganizationBySlackWorkspaceID(ctx, slackWorkspaceID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to find organization by workspace",
				"error", err,
				"slack_workspace_id", slackWorkspaceID)
		}
		return nil
	}
	return org
}

// VerifyOrganizationMembership returns nil when no membership exists or the
// lookup fails; failures are logged.
func (s *authService) VerifyOrganizationMembership(ctx context.Context, userID, organizationID int64) *model.Membership {
	membership, err := s.repo.FindMembership(ctx, organizationID, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to verify organization membership",
				"error", err,
				"user_id", userID,
				"organization_id", organizationID)
		}
		return nil
	}
	return membership
}

// ValidateSession is reserved for a future session-token flow.
func (s *authService) ValidateSession(_ context.Context, _ string) *model.AuthResult {
	return authFailure(model.ErrorCodeNotImplemented, nil)
}

func newUser(slackUserID string, info *UserInfo) *model.User {
	user := &model.User{
		ID:          id.New(),
		SlackUserID: slackUserID,
		Timezone:    defaultTimezone,
	}
	if info != nil {
		user.Name = info.Name
		user.Email = info.Email
		if info.Timezone != "" {
			user.Timezone = info.Timezone
		}
	}
	return user
}

func isNotFound[T any](v *T, err error) bool {
	return errors.Is(err, store.ErrNotFound) || (err == nil && v == nil)
}

func authFailure(code model.ErrorCode, details map[string]any) *model.AuthResult {
	return model.NewAuthFailure(code, authErrorMessage(code, details), details)
}

func authErrorMessage(code model.ErrorCode, details map[string]any) string {
	switch code {
	case model.ErrorCodeMissingUserID:
		return "We couldn't tell who sent this command. Please try again."
	case model.ErrorCodeMissingWorkspaceID:
		return "We couldn't tell which Slack workspace this came from. Please try again."
	case model.ErrorCodeUserCreationFailed:
		return "We couldn't set up your profile. Please try again in a moment."
	case model.ErrorCodeWorkspaceNotRegistered:
		return "This Slack workspace isn't registered for standups yet. Ask a workspace admin to set it up."
	case model.ErrorCodeNotOrganizationMember:
		if name, ok := details["organizationName"].(string); ok && name != "" {
			return fmt.Sprintf("You're not a member of %s. Ask an admin to add you.", name)
		}
		return "You're not a member of this organization. Ask an admin to add you."
	case model.ErrorCodeMembershipInactive:
		return "Your membership in this organization is inactive. Contact an admin to reactivate it."
	case model.ErrorCodeSystemError:
		return "Something went wrong while checking your access. Please try again later."
	case model.ErrorCodeNotImplemented:
		return "Session validation is not available."
	}
	return "Authentication failed."
}
