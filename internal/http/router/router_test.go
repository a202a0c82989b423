package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trackerbot.app/relay/core/config"
	"trackerbot.app/relay/internal/http/middleware"
	"trackerbot.app/relay/internal/http/router"
	"trackerbot.app/relay/internal/queue"
	"trackerbot.app/relay/internal/service"
	"trackerbot.app/relay/internal/store"
)

type stubProducer struct{ enqueued int }

func (p *stubProducer) Enqueue(context.Context, queue.Task) (string, error) {
	p.enqueued++
	return "1-0", nil
}

func (p *stubProducer) Close() error { return nil }

var _ = Describe("SetupRoutes", func() {
	var (
		engine   *gin.Engine
		producer *stubProducer
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		engine = gin.New()
		producer = &stubProducer{}

		services := service.NewServices(service.Deps{
			Stores: store.NewStores(nil),
		}, config.TrackerConfig{StaleIssueDays: 1}, config.TelegramConfig{})

		router.SetupRoutes(engine, services, producer, router.RouterConfig{
			AdminAPIKey:      "s3cret",
			ContributorLabel: "odhack",
		})
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	It("serves readiness without checks", func() {
		w := serve(httptest.NewRequest(http.MethodGet, "/ready", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("serves the health check", func() {
		w := serve(httptest.NewRequest(http.MethodGet, "/health", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"status":"ok"}`))
	})

	It("guards scan triggers with the admin key", func() {
		Expect(serve(httptest.NewRequest(http.MethodPost, "/api/v1/scans", nil)).Code).
			To(Equal(http.StatusUnauthorized))
		Expect(producer.enqueued).To(BeZero())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", nil)
		req.Header.Set(middleware.AdminKeyHeader, "s3cret")
		Expect(serve(req).Code).To(Equal(http.StatusAccepted))
		Expect(producer.enqueued).To(Equal(1))
	})

	It("guards subscriber linking with the admin key", func() {
		Expect(serve(httptest.NewRequest(http.MethodPost, "/api/v1/subscribers", nil)).Code).
			To(Equal(http.StatusUnauthorized))
	})

	It("registers the per-chat routes", func() {
		for _, route := range engine.Routes() {
			if route.Path == "/api/v1/subscribers/:telegram_id/missed-deadlines" {
				return
			}
		}
		Fail("missed-deadlines route is not registered")
	})
})
