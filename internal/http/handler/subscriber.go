package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"trackerbot.app/relay/internal/http/dto"
	"trackerbot.app/relay/internal/service"
)

type SubscriberHandler struct {
	subscribers service.SubscriberService
}

func NewSubscriberHandler(subscribers service.SubscriberService) *SubscriberHandler {
	return &SubscriberHandler{subscribers: subscribers}
}

func (h *SubscriberHandler) Link(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LinkSubscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.subscribers.Link(ctx, req.UserID, req.TelegramID)
	if err != nil {
		respondError(c, err, "failed to link subscriber")
		return
	}

	c.JSON(http.StatusOK, dto.ToSubscriberResponse(sub))
}

func (h *SubscriberHandler) ToggleNotifications(c *gin.Context) {
	sub, err := h.subscribers.ToggleNotifications(c.Request.Context(), c.Param("telegram_id"))
	if err != nil {
		respondError(c, err, "failed to toggle notifications")
		return
	}

	c.JSON(http.StatusOK, dto.ToSubscriberResponse(sub))
}
