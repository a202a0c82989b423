package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trackerbot.app/relay/internal/http/handler"
	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/queue"
	"trackerbot.app/relay/internal/service"
)

var _ = Describe("ReviewHandler, SupportHandler and ScanHandler", func() {
	var router *gin.Engine

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
	})

	serve := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	It("returns the review digest", func() {
		h := handler.NewReviewHandler(&mockReviewService{
			digestFn: func(_ context.Context, telegramID string) ([]model.PullRequestReviews, error) {
				return []model.PullRequestReviews{{
					Repository:  "acme/api",
					PullRequest: model.PullRequest{Title: "Fix crash", Number: 4},
					Reviews:     []model.Review{{Reviewer: "carol", State: model.ReviewStateApproved}},
				}}, nil
			},
		})
		router.GET("/subscribers/:telegram_id/reviews", h.Digest)

		w := serve(http.MethodGet, "/subscribers/42/reviews")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"state":"APPROVED"`))
	})

	It("returns an empty contact list as JSON array", func() {
		h := handler.NewSupportHandler(&mockSupportService{
			contactsFn: func(context.Context, string) ([]service.SupportContact, error) {
				return []service.SupportContact{}, nil
			},
		})
		router.GET("/subscribers/:telegram_id/support", h.Contacts)

		w := serve(http.MethodGet, "/subscribers/42/support")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"contacts":[]}`))
	})

	It("enqueues a scan", func() {
		var got queue.Task
		h := handler.NewScanHandler(&mockProducer{
			enqueueFn: func(_ context.Context, task queue.Task) (string, error) {
				got = task
				return "1700000000000-0", nil
			},
		})
		router.POST("/scans", h.Enqueue)

		w := serve(http.MethodPost, "/scans")
		Expect(w.Code).To(Equal(http.StatusAccepted))
		Expect(w.Body.String()).To(MatchJSON(`{"message_id":"1700000000000-0"}`))
		Expect(got.TaskType).To(Equal(queue.TaskTypeNewIssueScan))
	})

	It("returns 503 when the queue is unavailable", func() {
		h := handler.NewScanHandler(&mockProducer{
			enqueueFn: func(context.Context, queue.Task) (string, error) {
				return "", errors.New("redis down")
			},
		})
		router.POST("/scans", h.Enqueue)

		Expect(serve(http.MethodPost, "/scans").Code).To(Equal(http.StatusServiceUnavailable))
	})
})
