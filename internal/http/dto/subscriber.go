package dto

import (
	"time"

	"trackerbot.app/relay/internal/model"
)

type LinkSubscriberRequest struct {
	UserID     int64  `json:"user_id,string" binding:"required"`
	TelegramID string `json:"telegram_id" binding:"required,max=64"`
}

type SubscriberResponse struct {
	ID                   int64     `json:"id,string"`
	UserID               int64     `json:"user_id,string"`
	TelegramID           string    `json:"telegram_id"`
	NotifyAboutNewIssues bool      `json:"notify_about_new_issues"`
	CreatedAt            time.Time `json:"created_at"`
}

func ToSubscriberResponse(s *model.Subscriber) *SubscriberResponse {
	return &SubscriberResponse{
		ID:                   s.ID,
		UserID:               s.UserID,
		TelegramID:           s.TelegramID,
		NotifyAboutNewIssues: s.NotifyAboutNewIssues,
		CreatedAt:            s.CreatedAt,
	}
}
