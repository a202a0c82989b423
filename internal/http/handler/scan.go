package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"trackerbot.app/relay/internal/http/dto"
	"trackerbot.app/relay/internal/queue"
)

// ScanHandler lets operators trigger a reconciliation cycle out of schedule.
type ScanHandler struct {
	producer queue.Producer
}

func NewScanHandler(producer queue.Producer) *ScanHandler {
	return &ScanHandler{producer: producer}
}

func (h *ScanHandler) Enqueue(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := h.producer.Enqueue(ctx, queue.NewScanTask())
	if err != nil {
		slog.ErrorContext(ctx, "failed to enqueue scan", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue scan"})
		return
	}

	c.JSON(http.StatusAccepted, dto.ScanResponse{MessageID: id})
}
