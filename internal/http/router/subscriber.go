package router

import (
	"github.com/gin-gonic/gin"

	"trackerbot.app/relay/internal/http/handler"
)

// SubscriberRouter mounts the per-chat endpoints. Linking a chat is admin only.
func SubscriberRouter(
	rg *gin.RouterGroup,
	admin gin.HandlerFunc,
	subs *handler.SubscriberHandler,
	issues *handler.IssueHandler,
	reviews *handler.ReviewHandler,
	support *handler.SupportHandler,
) {
	rg.POST("", admin, subs.Link)
	rg.POST("/:telegram_id/notifications/toggle", subs.ToggleNotifications)
	rg.GET("/:telegram_id/missed-deadlines", issues.MissedDeadlines)
	rg.GET("/:telegram_id/available-issues", issues.AvailableIssues)
	rg.GET("/:telegram_id/reviews", reviews.Digest)
	rg.GET("/:telegram_id/support", support.Contacts)
}
