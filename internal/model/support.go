package model

import "strings"

// Support is the Telegram contact that answers questions about a repository.
type Support struct {
	RepositoryID     *int64 `json:"repository_id,omitempty"`
	TelegramUsername string `json:"telegram_username"`
	ID               int64  `json:"id"`
	UserID           int64  `json:"user_id"`
}

// Handle returns the username with exactly one leading "@".
func (s Support) Handle() string {
	return "@" + strings.TrimLeft(s.TelegramUsername, "@")
}

// Link returns a direct-message link for the support contact.
func (s Support) Link(base string) string {
	if base == "" {
		base = "https://t.me/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimLeft(s.TelegramUsername, "@")
}
