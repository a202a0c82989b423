package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trackerbot.app/relay/internal/http/handler"
	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/service"
)

var _ = Describe("SubscriberHandler", func() {
	var (
		router *gin.Engine
		svc    *mockSubscriberService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockSubscriberService{}
		h := handler.NewSubscriberHandler(svc)
		router.POST("/subscribers", h.Link)
		router.POST("/subscribers/:telegram_id/notifications/toggle", h.ToggleNotifications)
	})

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("Link", func() {
		It("returns the linked subscriber", func() {
			svc.linkFn = func(_ context.Context, userID int64, telegramID string) (*model.Subscriber, error) {
				return &model.Subscriber{ID: 99, UserID: userID, TelegramID: telegramID}, nil
			}

			w := post("/subscribers", `{"user_id":"5","telegram_id":"42"}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["id"]).To(Equal("99"))
			Expect(resp["user_id"]).To(Equal("5"))
			Expect(resp["telegram_id"]).To(Equal("42"))
		})

		It("returns 400 when fields are missing", func() {
			Expect(post("/subscribers", `{"user_id":"5"}`).Code).To(Equal(http.StatusBadRequest))
			Expect(post("/subscribers", `{`).Code).To(Equal(http.StatusBadRequest))
		})

		DescribeTable("maps link failures",
			func(err error, status int) {
				svc.linkFn = func(context.Context, int64, string) (*model.Subscriber, error) {
					return nil, err
				}
				Expect(post("/subscribers", `{"user_id":"5","telegram_id":"42"}`).Code).To(Equal(status))
			},
			Entry("unknown user", service.ErrUserNotFound, http.StatusNotFound),
			Entry("chat taken", service.ErrTelegramIDInUse, http.StatusConflict),
			Entry("user taken", service.ErrUserAlreadyLinked, http.StatusConflict),
			Entry("anything else", errors.New("db down"), http.StatusInternalServerError),
		)
	})

	Describe("ToggleNotifications", func() {
		It("returns the new subscription state", func() {
			svc.toggleFn = func(_ context.Context, telegramID string) (*model.Subscriber, error) {
				Expect(telegramID).To(Equal("42"))
				return &model.Subscriber{TelegramID: telegramID, NotifyAboutNewIssues: true}, nil
			}

			w := post("/subscribers/42/notifications/toggle", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"notify_about_new_issues":true`))
		})

		It("returns 404 for an unknown chat", func() {
			svc.toggleFn = func(context.Context, string) (*model.Subscriber, error) {
				return nil, service.ErrSubscriberNotFound
			}

			Expect(post("/subscribers/42/notifications/toggle", "").Code).To(Equal(http.StatusNotFound))
		})
	})
})
