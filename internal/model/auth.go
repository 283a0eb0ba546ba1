package model

import (
	"fmt"
	"time"
)

type ErrorType string

const ErrorTypeAuthentication ErrorType = "authentication"

// ErrorCode is the closed set of reasons an authentication attempt can fail.
type ErrorCode string

const (
	ErrorCodeMissingUserID          ErrorCode = "MISSING_USER_ID"
	ErrorCodeMissingWorkspaceID     ErrorCode = "MISSING_WORKSPACE_ID"
	ErrorCodeUserCreationFailed     ErrorCode = "USER_CREATION_FAILED"
	ErrorCodeWorkspaceNotRegistered ErrorCode = "WORKSPACE_NOT_REGISTERED"
	ErrorCodeNotOrganizationMember  ErrorCode = "NOT_ORGANIZATION_MEMBER"
	ErrorCodeMembershipInactive     ErrorCode = "MEMBERSHIP_INACTIVE"
	ErrorCodeSystemError            ErrorCode = "SYSTEM_ERROR"
	ErrorCodeNotImplemented         ErrorCode = "NOT_IMPLEMENTED"
)

// AuthError is the user-facing failure of an authentication attempt.
// Message is safe to show to the end user; internal causes are never put here.
type AuthError struct {
	Type    ErrorType      `json:"type"`
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AuthUser is the non-sensitive projection of User handed to handlers.
type AuthUser struct {
	ID          int64  `json:"id"`
	SlackUserID string `json:"slack_user_id"`
	Name        string `json:"name"`
	Timezone    string `json:"timezone"`
}

type AuthOrganization struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	SlackWorkspaceID string `json:"slack_workspace_id"`
	DefaultTimezone  string `json:"default_timezone"`
}

type AuthMembership struct {
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// AuthResult is produced once per request and never persisted.
// Exactly one of (User, Organization, Membership) or Error is set.
type AuthResult struct {
	Success      bool              `json:"success"`
	User         *AuthUser         `json:"user,omitempty"`
	Organization *AuthOrganization `json:"organization,omitempty"`
	Membership   *AuthMembership   `json:"membership,omitempty"`
	Error        *AuthError        `json:"error,omitempty"`
}

func NewAuthSuccess(user *User, org *Organization, membership *Membership) *AuthResult {
	return &AuthResult{
		Success: true,
		User: &AuthUser{
			ID:          user.ID,
			SlackUserID: user.SlackUserID,
			Name:        user.Name,
			Timezone:    user.Timezone,
		},
		Organization: &AuthOrganization{
			ID:               org.ID,
			Name:             org.Name,
			SlackWorkspaceID: org.SlackWorkspaceID,
			DefaultTimezone:  org.DefaultTimezone,
		},
		Membership: &AuthMembership{
			Role:     membership.Role,
			JoinedAt: membership.JoinedAt,
		},
	}
}

func NewAuthFailure(code ErrorCode, message string, details map[string]any) *AuthResult {
	if details == nil {
		details = map[string]any{}
	}
	return &AuthResult{
		Success: false,
		Error: &AuthError{
			Type:    ErrorTypeAuthentication,
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}
