package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kirillm/sns-trade-bot/internal/domain"
)

// Sender отправляет сообщение Telegram, *tgbotapi.BotAPI подходит
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram отправляет уведомления в чат оператора
type Telegram struct {
	sender Sender
	chatID int64
}

// NewTelegram создает отправителя в чат chatID
func NewTelegram(sender Sender, chatID int64) *Telegram {
	return &Telegram{sender: sender, chatID: chatID}
}

func (t *Telegram) SendBalance(ctx context.Context, positions []domain.Position) error {
	return t.SendMessage(ctx, FormatBalance(positions))
}

func (t *Telegram) SendMessage(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
