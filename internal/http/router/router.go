package router

import (
	"github.com/gin-gonic/gin"

	"trackerbot.app/relay/internal/http/handler"
	"trackerbot.app/relay/internal/http/middleware"
	"trackerbot.app/relay/internal/queue"
	"trackerbot.app/relay/internal/service"
)

type RouterConfig struct {
	AdminAPIKey string
	// ContributorLabel is the default label pattern for contributor issue queries.
	ContributorLabel string
	// ReadinessChecks back GET /ready, keyed by dependency name.
	ReadinessChecks map[string]handler.Check
}

func SetupRoutes(router *gin.Engine, services *service.Services, producer queue.Producer, cfg RouterConfig) {
	health := handler.NewHealthHandler(cfg.ReadinessChecks)
	router.GET("/health", health.Live)
	router.GET("/ready", health.Ready)

	admin := middleware.RequireAdminKey(cfg.AdminAPIKey)

	issueHandler := handler.NewIssueHandler(services.Issues(), cfg.ContributorLabel)

	v1 := router.Group("/api/v1")
	{
		SubscriberRouter(v1.Group("/subscribers"), admin,
			handler.NewSubscriberHandler(services.Subscribers()),
			issueHandler,
			handler.NewReviewHandler(services.Reviews()),
			handler.NewSupportHandler(services.Support()),
		)

		v1.GET("/contributors/:username/issues", issueHandler.ContributorIssues)
		v1.GET("/repos/:owner/:repo/issues/:number/deadline", issueHandler.Deadline)

		ScanRouter(v1.Group("/scans"), admin, handler.NewScanHandler(producer))
	}
}
