package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trackerbot.app/relay/internal/http/dto"
	"trackerbot.app/relay/internal/service"
)

type SupportHandler struct {
	support service.SupportService
}

func NewSupportHandler(support service.SupportService) *SupportHandler {
	return &SupportHandler{support: support}
}

func (h *SupportHandler) Contacts(c *gin.Context) {
	contacts, err := h.support.Contacts(c.Request.Context(), c.Param("telegram_id"))
	if err != nil {
		respondError(c, err, "failed to list support contacts")
		return
	}
	c.JSON(http.StatusOK, dto.SupportResponse{Contacts: contacts})
}
