package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
)

const telegramMaxText = 4096

// Telegram sends plain-text messages to one chat.
type Telegram struct {
	bot    *bot.Bot
	chatID string
}

// NewTelegram creates a Telegram notifier. serverURL overrides the Bot API
// host; empty uses api.telegram.org.
func NewTelegram(token, chatID, serverURL string) (*Telegram, error) {
	opts := []bot.Option{bot.WithSkipGetMe()}
	if serverURL != "" {
		opts = append(opts, bot.WithServerURL(serverURL))
	}
	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

func (t *Telegram) Send(ctx context.Context, msg Message) error {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   truncateRunes(msg.PlainText(), telegramMaxText),
	})
	if err != nil {
		return fmt.Errorf("telegram: send to %s: %w", t.chatID, err)
	}
	return nil
}

func (t *Telegram) Destination() string { return "telegram:" + t.chatID }
