package router

import (
	"github.com/gin-gonic/gin"

	"trackerbot.app/relay/internal/http/handler"
)

func ScanRouter(rg *gin.RouterGroup, admin gin.HandlerFunc, h *handler.ScanHandler) {
	rg.POST("", admin, h.Enqueue)
}
