package model

import "time"

// Subscriber links a user to the Telegram chat that receives notifications.
type Subscriber struct {
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
	TelegramID           string    `json:"telegram_id"`
	ID                   int64     `json:"id"`
	UserID               int64     `json:"user_id"`
	NotifyAboutNewIssues bool      `json:"notify_about_new_issues"`
}

// SubscriberRepos maps a subscriber's Telegram ID to the repository names they are notified about.
type SubscriberRepos map[string][]string
