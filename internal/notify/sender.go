package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender delivers an HTML-formatted text message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID, text string) error
}

type TelegramSender struct {
	bot *tgbotapi.BotAPI
}

var _ Sender = (*TelegramSender)(nil)

func NewTelegramSender(token string) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot}, nil
}

// NewTelegramSenderWithClient targets a custom endpoint, formatted like
// tgbotapi.APIEndpoint ("<base>/bot%s/%s").
func NewTelegramSenderWithClient(token, endpoint string, client tgbotapi.HTTPClient) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot}, nil
}

// Send accepts numeric chat IDs or @channel usernames.
func (s *TelegramSender) Send(ctx context.Context, chatID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, text)
	} else if strings.HasPrefix(chatID, "@") {
		msg = tgbotapi.NewMessageToChannel(chatID, text)
	} else {
		return fmt.Errorf("invalid chat id %q", chatID)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("sending message to %s: %w", chatID, err)
	}
	return nil
}
