package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/standup/common/id"
	"basegraph.app/standup/internal/model"
	"basegraph.app/standup/internal/service"
	"basegraph.app/standup/internal/store"
)

var _ = Describe("AuthService", func() {
	var (
		svc      service.AuthService
		repo     *mockAuthRepository
		ctx      context.Context
		org      *model.Organization
		joinedAt time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		Expect(id.Init(1)).To(Succeed())

		joinedAt = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		org = &model.Organization{
			ID:               10,
			Name:             "Acme",
			SlackWorkspaceID: "T123",
			DefaultTimezone:  "Europe/Berlin",
			IsActive:         true,
		}

		repo = &mockAuthRepository{
			findOrCreateUserFn: func(_ context.Context, u *model.User) (*model.User, error) {
				stored := *u
				stored.ID = 20
				return &stored, nil
			},
			findOrganizationFn: func(_ context.Context, workspaceID string) (*model.Organization, error) {
				if workspaceID == org.SlackWorkspaceID {
					return org, nil
				}
				return nil, store.ErrNotFound
			},
			findMembershipFn: func(_ context.Context, orgID, userID int64) (*model.Membership, error) {
				if orgID == org.ID && userID == 20 {
					return &model.Membership{ID: 30, OrganizationID: orgID, UserID: userID, Role: model.RoleAdmin, IsActive: true, JoinedAt: joinedAt}, nil
				}
				return nil, store.ErrNotFound
			},
		}
		svc = service.NewAuthService(repo)
	})

	Describe("AuthenticateUser", func() {
		DescribeTable("rejects a missing user id regardless of workspace",
			func(userID, workspaceID string) {
				result := svc.AuthenticateUser(ctx, userID, workspaceID, nil)

				Expect(result.Success).To(BeFalse())
				Expect(result.Error.Code).To(Equal(model.ErrorCodeMissingUserID))
				Expect(result.Error.Type).To(Equal(model.ErrorTypeAuthentication))
				Expect(result.Error.Details).NotTo(BeNil())
				Expect(repo.findOrCreateUserCalls).To(Equal(0))
			},
			Entry("empty user and workspace", "", ""),
			Entry("empty user, valid workspace", "", "T123"),
			Entry("whitespace user", "   ", "T123"),
			Entry("empty user, unknown workspace", "", "T999"),
		)

		DescribeTable("rejects a missing workspace id for a valid user",
			func(workspaceID string) {
				result := svc.AuthenticateUser(ctx, "U1", workspaceID, nil)

				Expect(result.Success).To(BeFalse())
				Expect(result.Error.Code).To(Equal(model.ErrorCodeMissingWorkspaceID))
				Expect(repo.findOrCreateUserCalls).To(Equal(0))
			},
			Entry("empty", ""),
			Entry("whitespace", " \t"),
		)

		It("fails with USER_CREATION_FAILED when the user cannot be resolved", func() {
			repo.findOrCreateUserFn = func(context.Context, *model.User) (*model.User, error) {
				return nil, errors.New("duplicate key value violates unique constraint")
			}

			result := svc.AuthenticateUser(ctx, "U1", "T123", nil)

			Expect(result.Success).To(BeFalse())
			Expect(result.Error.Code).To(Equal(model.ErrorCodeUserCreationFailed))
			Expect(result.Error.Message).NotTo(ContainSubstring("duplicate key"))
			Expect(repo.findOrganizationCalls).To(Equal(0))
		})

		It("uses user info only to create the user", func() {
			var captured *model.User
			repo.findOrCreateUserFn = func(_ context.Context, u *model.User) (*model.User, error) {
				captured = u
				return &model.User{ID: 20, SlackUserID: u.SlackUserID, Name: "Existing Name", Timezone: "UTC"}, nil
			}

			result := svc.AuthenticateUser(ctx, "U1", "T123", &service.UserInfo{
				Name:     "New Name",
				Email:    "new@example.com",
				Timezone: "America/New_York",
			})

			Expect(captured).NotTo(BeNil())
			Expect(captured.ID).NotTo(BeZero())
			Expect(captured.SlackUserID).To(Equal("U1"))
			Expect(captured.Name).To(Equal("New Name"))
			Expect(captured.Email).To(Equal("new@example.com"))
			Expect(captured.Timezone).To(Equal("America/New_York"))

			Expect(result.Success).To(BeTrue())
			Expect(result.User.Name).To(Equal("Existing Name"))
		})

		It("defaults the timezone when none is provided", func() {
			var captured *model.User
			repo.findOrCreateUserFn = func(_ context.Context, u *model.User) (*model.User, error) {
				captured = u
				return u, nil
			}

			svc.AuthenticateUser(ctx, "U1", "T123", nil)

			Expect(captured.Timezone).To(Equal("UTC"))
		})

		It("fails with WORKSPACE_NOT_REGISTERED and echoes the workspace id", func() {
			result := svc.AuthenticateUser(ctx, "U1", "T999", nil)

			Expect(result.Success).To(BeFalse())
			Expect(result.Error.Code).To(Equal(model.ErrorCodeWorkspaceNotRegistered))
			Expect(result.Error.Details).To(HaveKeyWithValue("workspaceId", "T999"))
			Expect(repo.findMembershipCalls).To(Equal(0))
		})

		It("echoes the workspace id exactly as it was passed in", func() {
			var looked string
			repo.findOrganizationFn = func(_ context.Context, workspaceID string) (*model.Organization, error) {
				looked = workspaceID
				return nil, store.ErrNotFound
			}

			result := svc.AuthenticateUser(ctx, "U1", " T9 ", nil)

			Expect(result.Error.Code).To(Equal(model.ErrorCodeWorkspaceNotRegistered))
			Expect(result.Error.Details).To(HaveKeyWithValue("workspaceId", " T9 "))
			Expect(looked).To(Equal("T9"))
		})

		It("does not fall back to a case-insensitive workspace match", func() {
			result := svc.AuthenticateUser(ctx, "U1", "t123", nil)

			Expect(result.Error.Code).To(Equal(model.ErrorCodeWorkspaceNotRegistered))
		})

		It("fails with NOT_ORGANIZATION_MEMBER and names the organization", func() {
			repo.findMembershipFn = func(context.Context, int64, int64) (*model.Membership, error) {
				return nil, store.ErrNotFound
			}

			result := svc.AuthenticateUser(ctx, "U1", "T123", nil)

			Expect(result.Success).To(BeFalse())
			Expect(result.Error.Code).To(Equal(model.ErrorCodeNotOrganizationMember))
			Expect(result.Error.Details).To(HaveKeyWithValue("organizationName", "Acme"))
			Expect(result.Error.Message).To(ContainSubstring("Acme"))
		})

		It("only checks membership in the organization mapped from the workspace", func() {
			var lookedUp []int64
			repo.findMembershipFn = func(_ context.Context, orgID, _ int64) (*model.Membership, error) {
				lookedUp = append(lookedUp, orgID)
				return nil, store.ErrNotFound
			}

			svc.AuthenticateUser(ctx, "U1", "T123", nil)

			Expect(lookedUp).To(Equal([]int64{org.ID}))
		})

		It("fails with MEMBERSHIP_INACTIVE for an inactive membership", func() {
			repo.findMembershipFn = func(_ context.Context, orgID, userID int64) (*model.Membership, error) {
				return &model.Membership{OrganizationID: orgID, UserID: userID, Role: model.RoleMember, IsActive: false}, nil
			}

			result := svc.AuthenticateUser(ctx, "U1", "T123", nil)

			Expect(result.Success).To(BeFalse())
			Expect(result.Error.Code).To(Equal(model.ErrorCodeMembershipInactive))
		})

		It("succeeds with trimmed projections for an active member", func() {
			result := svc.AuthenticateUser(ctx, "U1", "T123", &service.UserInfo{Name: "Ada", Email: "ada@example.com"})

			Expect(result.Success).To(BeTrue())
			Expect(result.Error).To(BeNil())
			Expect(result.User.ID).To(Equal(int64(20)))
			Expect(result.User.SlackUserID).To(Equal("U1"))
			Expect(result.Organization.ID).To(Equal(org.ID))
			Expect(result.Organization.SlackWorkspaceID).To(Equal("T123"))
			Expect(result.Organization.DefaultTimezone).To(Equal("Europe/Berlin"))
			Expect(result.Membership.Role).To(Equal(model.RoleAdmin))
			Expect(result.Membership.JoinedAt).To(Equal(joinedAt))

			raw, err := json.Marshal(result)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).NotTo(ContainSubstring(`"error"`))
			Expect(string(raw)).NotTo(ContainSubstring("ada@example.com"))
		})

		It("maps an organization lookup failure to SYSTEM_ERROR without leaking detail", func() {
			repo.findOrganizationFn = func(context.Context, string) (*model.Organization, error) {
				return nil, errors.New("dial tcp 10.0.0.5:5432: connection refused")
			}

			result := svc.AuthenticateUser(ctx, "U1", "T123", nil)

			Expect(result.Error.Code).To(Equal(model.ErrorCodeSystemError))
			Expect(result.Error.Message).NotTo(ContainSubstring("10.0.0.5"))
			Expect(repo.findMembershipCalls).To(Equal(0))
		})

		It("maps a membership lookup failure to SYSTEM_ERROR", func() {
			repo.findMembershipFn = func(context.Context, int64, int64) (*model.Membership, error) {
				return nil, errors.New("timeout")
			}

			result := svc.AuthenticateUser(ctx, "U1", "T123", nil)

			Expect(result.Error.Code).To(Equal(model.ErrorCodeSystemError))
		})

		It("maps a panicking repository to SYSTEM_ERROR", func() {
			repo.findOrganizationFn = func(context.Context, string) (*model.Organization, error) {
				panic("nil map write")
			}

			var result *model.AuthResult
			Expect(func() {
				result = svc.AuthenticateUser(ctx, "U1", "T123", nil)
			}).NotTo(Panic())
			Expect(result.Error.Code).To(Equal(model.ErrorCodeSystemError))
			Expect(result.Error.Message).NotTo(ContainSubstring("nil map"))
		})
	})

	Describe("FindOrganizationByWorkspace", func() {
		It("returns the organization for a registered workspace", func() {
			Expect(svc.FindOrganizationByWorkspace(ctx, "T123")).To(Equal(org))
		})

		It("returns nil when the workspace is unknown", func() {
			Expect(svc.FindOrganizationByWorkspace(ctx, "T999")).To(BeNil())
		})

		It("returns nil when the repository fails", func() {
			repo.findOrganizationFn = func(context.Context, string) (*model.Organization, error) {
				return nil, errors.New("connection reset")
			}

			Expect(svc.FindOrganizationByWorkspace(ctx, "T123")).To(BeNil())
		})

		It("does not query for an empty workspace id", func() {
			Expect(svc.FindOrganizationByWorkspace(ctx, "")).To(BeNil())
			Expect(repo.findOrganizationCalls).To(Equal(0))
		})
	})

	Describe("VerifyOrganizationMembership", func() {
		It("returns the membership when it exists", func() {
			m := svc.VerifyOrganizationMembership(ctx, 20, org.ID)

			Expect(m).NotTo(BeNil())
			Expect(m.ID).To(Equal(int64(30)))
		})

		It("passes organization and user ids in the right order", func() {
			Expect(svc.VerifyOrganizationMembership(ctx, org.ID, 20)).To(BeNil())
		})

		It("returns nil when the repository fails", func() {
			repo.findMembershipFn = func(context.Context, int64, int64) (*model.Membership, error) {
				return nil, errors.New("boom")
			}

			Expect(svc.VerifyOrganizationMembership(ctx, 20, org.ID)).To(BeNil())
		})
	})

	Describe("ValidateSession", func() {
		DescribeTable("always reports NOT_IMPLEMENTED",
			func(token string) {
				result := svc.ValidateSession(ctx, token)

				Expect(result.Success).To(BeFalse())
				Expect(result.Error.Code).To(Equal(model.ErrorCodeNotImplemented))
			},
			Entry("empty", ""),
			Entry("opaque token", "xoxs-123"),
			Entry("jwt-like", "eyJhbGciOiJIUzI1NiJ9.e30.sig"),
		)
	})
})
