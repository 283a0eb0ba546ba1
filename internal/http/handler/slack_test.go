package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/standup/common/id"
	"basegraph.app/standup/internal/http/handler"
	"basegraph.app/standup/internal/model"
	"basegraph.app/standup/internal/pipeline"
	"basegraph.app/standup/internal/service"
)

func successResult() *model.AuthResult {
	return model.NewAuthSuccess(
		&model.User{ID: 20, SlackUserID: "U1", Name: "Ada", Timezone: "UTC"},
		&model.Organization{ID: 10, Name: "Acme", SlackWorkspaceID: "T1", DefaultTimezone: "UTC"},
		&model.Membership{Role: model.RoleMember, IsActive: true, JoinedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
	)
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(w *httptest.ResponseRecorder) model.Response {
	var resp model.Response
	ExpectWithOffset(1, json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
	return resp
}

var _ = Describe("SlackHandler", func() {
	var (
		router    *gin.Engine
		auth      *mockAuthService
		sink      *mockSink
		responses *mockResponseClient

		commandReqs []*pipeline.Request
		otherReqs   []*pipeline.Request
		commandFn   pipeline.HandlerFunc
		otherFn     pipeline.HandlerFunc
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		Expect(id.Init(3)).To(Succeed())

		auth = &mockAuthService{
			authenticateFn: func(context.Context, string, string, *service.UserInfo) *model.AuthResult {
				return successResult()
			},
		}
		sink = &mockSink{}
		responses = &mockResponseClient{}

		commandReqs = nil
		otherReqs = nil
		commandFn = func(_ context.Context, req *pipeline.Request) (*model.Response, error) {
			commandReqs = append(commandReqs, req)
			resp := model.Ephemeral("you said " + req.Command.Text)
			return &resp, nil
		}
		otherFn = func(_ context.Context, req *pipeline.Request) (*model.Response, error) {
			otherReqs = append(otherReqs, req)
			return nil, nil
		}
	})

	JustBeforeEach(func() {
		p := pipeline.Default(sink, auth)
		h := handler.NewSlackHandler(p,
			func(ctx context.Context, req *pipeline.Request) (*model.Response, error) { return commandFn(ctx, req) },
			func(ctx context.Context, req *pipeline.Request) (*model.Response, error) { return otherFn(ctx, req) },
			responses,
		)
		router = gin.New()
		router.POST("/commands", h.Command)
		router.POST("/events", h.Event)
		router.POST("/interactions", h.Interaction)
	})

	Describe("Command", func() {
		var form url.Values

		BeforeEach(func() {
			form = url.Values{
				"token":        {"secret-token"},
				"team_id":      {"T1"},
				"user_id":      {"U1"},
				"user_name":    {"ada"},
				"command":      {"/standup"},
				"text":         {"  *status*  "},
				"response_url": {"https://hooks.slack.test/r/1"},
			}
		})

		It("returns the handler response inline with sanitized text", func() {
			w := postForm(router, "/commands", form)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decodeResponse(w)).To(Equal(model.Ephemeral("you said status")))
			Expect(commandReqs).To(HaveLen(1))
			Expect(commandReqs[0].Kind).To(Equal(model.RequestKindCommand))
			Expect(commandReqs[0].ResponseURL).To(Equal("https://hooks.slack.test/r/1"))
			Expect(responses.posts).To(BeEmpty())
		})

		It("records the form without the verification token", func() {
			postForm(router, "/commands", form)

			Expect(sink.entries).To(HaveLen(1))
			payload := string(sink.entries[0].Payload)
			Expect(payload).To(ContainSubstring(`"user_id":"U1"`))
			Expect(payload).To(ContainSubstring("*status*"))
			Expect(payload).NotTo(ContainSubstring("secret-token"))
		})

		It("passes the slack user name to the auth gate", func() {
			var gotInfo *service.UserInfo
			auth.authenticateFn = func(_ context.Context, _, _ string, info *service.UserInfo) *model.AuthResult {
				gotInfo = info
				return successResult()
			}

			postForm(router, "/commands", form)

			Expect(gotInfo).NotTo(BeNil())
			Expect(gotInfo.Name).To(Equal("ada"))
		})

		It("shows the locked failure message when authentication fails", func() {
			auth.authenticateFn = func(context.Context, string, string, *service.UserInfo) *model.AuthResult {
				return model.NewAuthFailure(model.ErrorCodeWorkspaceNotRegistered, "This workspace is not registered.", nil)
			}

			w := postForm(router, "/commands", form)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decodeResponse(w)).To(Equal(model.Ephemeral("🔒 This workspace is not registered.")))
			Expect(commandReqs).To(BeEmpty())
		})

		It("rejects a command without a user id", func() {
			form.Del("user_id")
			auth.authenticateFn = func(_ context.Context, userID, _ string, _ *service.UserInfo) *model.AuthResult {
				Expect(userID).To(BeEmpty())
				return model.NewAuthFailure(model.ErrorCodeMissingUserID, "Unable to identify your Slack user.", nil)
			}

			w := postForm(router, "/commands", form)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decodeResponse(w).Text).To(HavePrefix("🔒 "))
		})

		It("returns the generic message when the handler fails", func() {
			commandFn = func(context.Context, *pipeline.Request) (*model.Response, error) {
				return nil, errors.New("db down")
			}

			w := postForm(router, "/commands", form)

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decodeResponse(w)
			Expect(resp.Text).To(Equal(pipeline.GenericFailureMessage))
			Expect(resp.Text).NotTo(ContainSubstring("db down"))
		})

		It("returns an empty 200 when the handler has nothing to say", func() {
			commandFn = func(context.Context, *pipeline.Request) (*model.Response, error) {
				return nil, nil
			}

			w := postForm(router, "/commands", form)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.Len()).To(BeZero())
		})
	})

	Describe("Event", func() {
		It("answers the url verification challenge without running the pipeline", func() {
			w := postJSON(router, "/events", `{"type":"url_verification","token":"t","challenge":"abc123"}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			var body map[string]string
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body).To(Equal(map[string]string{"challenge": "abc123"}))
			Expect(sink.entries).To(BeEmpty())
		})

		It("runs event callbacks through the pipeline", func() {
			w := postJSON(router, "/events", `{"type":"event_callback","token":"secret-token","team_id":"T1","event":{"type":"app_mention","user":"U1","text":"hi"}}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(otherReqs).To(HaveLen(1))
			Expect(otherReqs[0].Kind).To(Equal(model.RequestKindEvent))
			Expect(otherReqs[0].UserID).To(Equal("U1"))
			Expect(otherReqs[0].WorkspaceID).To(Equal("T1"))
			Expect(string(otherReqs[0].Payload)).NotTo(ContainSubstring("secret-token"))
			Expect(sink.entries).To(HaveLen(1))
		})

		It("acks the event before the handler runs", func() {
			var steps []string
			otherFn = func(context.Context, *pipeline.Request) (*model.Response, error) {
				steps = append(steps, "handler")
				return nil, nil
			}

			req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"type":"event_callback","team_id":"T1","event":{"type":"app_mention","user":"U1"}}`))
			req.Header.Set("Content-Type", "application/json")
			w := orderedRecorder{ResponseRecorder: httptest.NewRecorder(), log: &steps}
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(steps).To(Equal([]string{"status", "handler"}))
		})

		It("still acks an event when authentication fails", func() {
			auth.authenticateFn = func(context.Context, string, string, *service.UserInfo) *model.AuthResult {
				return model.NewAuthFailure(model.ErrorCodeMissingUserID, "Unable to identify your Slack user.", nil)
			}

			w := postJSON(router, "/events", `{"type":"event_callback","team_id":"T1","event":{"type":"message"}}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(otherReqs).To(BeEmpty())
			Expect(responses.posts).To(BeEmpty())
		})

		It("ignores other envelope types", func() {
			w := postJSON(router, "/events", `{"type":"app_rate_limited","team_id":"T1"}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(otherReqs).To(BeEmpty())
			Expect(sink.entries).To(BeEmpty())
		})

		It("returns 400 on a malformed body", func() {
			w := postJSON(router, "/events", `{`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Interaction", func() {
		interaction := func(payload string) url.Values {
			return url.Values{"payload": {payload}}
		}

		It("runs block actions through the pipeline and replies via response_url", func() {
			otherFn = func(_ context.Context, req *pipeline.Request) (*model.Response, error) {
				otherReqs = append(otherReqs, req)
				resp := model.Ephemeral("saved")
				return &resp, nil
			}

			w := postForm(router, "/interactions", interaction(
				`{"type":"block_actions","team":{"id":"T1"},"user":{"id":"U1","username":"ada"},"response_url":"https://hooks.slack.test/a/1"}`,
			))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.Len()).To(BeZero())
			Expect(otherReqs).To(HaveLen(1))
			Expect(otherReqs[0].Kind).To(Equal(model.RequestKindAction))
			Expect(responses.posts).To(ConsistOf(posted{url: "https://hooks.slack.test/a/1", resp: model.Ephemeral("saved")}))
		})

		It("acks the interaction before the handler runs", func() {
			var steps []string
			otherFn = func(context.Context, *pipeline.Request) (*model.Response, error) {
				steps = append(steps, "handler")
				return nil, nil
			}
			form := interaction(`{"type":"block_actions","user":{"id":"U1"},"team":{"id":"T1"},"response_url":"https://hooks.slack.test/r/2"}`)

			req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := orderedRecorder{ResponseRecorder: httptest.NewRecorder(), log: &steps}
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(steps).To(Equal([]string{"status", "handler"}))
		})

		It("maps view submissions to the view kind", func() {
			w := postForm(router, "/interactions", interaction(
				`{"type":"view_submission","user":{"id":"U1","team_id":"T1"}}`,
			))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(otherReqs).To(HaveLen(1))
			Expect(otherReqs[0].Kind).To(Equal(model.RequestKindView))
			Expect(otherReqs[0].WorkspaceID).To(Equal("T1"))
		})

		It("posts the locked failure message to the response_url", func() {
			auth.authenticateFn = func(context.Context, string, string, *service.UserInfo) *model.AuthResult {
				return model.NewAuthFailure(model.ErrorCodeMembershipInactive, "Your membership is inactive.", nil)
			}

			w := postForm(router, "/interactions", interaction(
				`{"type":"block_actions","team":{"id":"T1"},"user":{"id":"U1"},"response_url":"https://hooks.slack.test/a/2"}`,
			))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(otherReqs).To(BeEmpty())
			Expect(responses.posts).To(HaveLen(1))
			Expect(responses.posts[0].resp.Text).To(Equal("🔒 Your membership is inactive."))
		})

		It("ignores interaction types it does not handle", func() {
			w := postForm(router, "/interactions", interaction(`{"type":"shortcut","team":{"id":"T1"}}`))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(otherReqs).To(BeEmpty())
			Expect(sink.entries).To(BeEmpty())
		})

		It("returns 400 without a payload field", func() {
			w := postForm(router, "/interactions", url.Values{})

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 on a malformed payload", func() {
			w := postForm(router, "/interactions", interaction("not json"))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
