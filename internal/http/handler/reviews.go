package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trackerbot.app/relay/internal/http/dto"
	"trackerbot.app/relay/internal/service"
)

type ReviewHandler struct {
	reviews service.ReviewService
}

func NewReviewHandler(reviews service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

func (h *ReviewHandler) Digest(c *gin.Context) {
	digest, err := h.reviews.Digest(c.Request.Context(), c.Param("telegram_id"))
	if err != nil {
		respondError(c, err, "failed to build review digest")
		return
	}
	c.JSON(http.StatusOK, dto.ReviewDigestResponse{PullRequests: digest})
}
