package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// BotAPI часть *tgbotapi.BotAPI, которой пользуется бот
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot принимает команды оператора из одного чата
type Bot struct {
	api    BotAPI
	chatID int64
	router *Router
	logger *utils.Logger
}

// NewBotAPI авторизует бота по токену
func NewBotAPI(token string, logger *utils.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	logger.Info("Telegram bot authorized: @%s", api.Self.UserName)
	return api, nil
}

// NewBot создает бота для чата chatID
func NewBot(api BotAPI, chatID int64, router *Router, logger *utils.Logger) *Bot {
	return &Bot{
		api:    api,
		chatID: chatID,
		router: router,
		logger: logger,
	}
}

// Start обрабатывает обновления до отмены контекста
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.logger.Info("Telegram bot started for chat %d", b.chatID)

	cleanup := time.NewTicker(10 * time.Minute)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Telegram bot stopped")
			return
		case <-cleanup.C:
			if n := b.router.authManager.CleanupRateLimiters(5 * time.Minute); n > 0 {
				b.logger.Debug("removed %d idle rate limiters", n)
			}
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil || message.Chat.ID != b.chatID {
		if message.Chat != nil {
			b.logger.Warn("Unauthorized access attempt from chat ID: %d", message.Chat.ID)
		}
		return
	}
	if !strings.HasPrefix(strings.TrimSpace(message.Text), "/") {
		return
	}

	userID := message.Chat.ID
	if message.From != nil {
		userID = message.From.ID
	}
	b.logger.Info("Received command from %d: %s", userID, message.Text)

	response, needsConfirmation, err := b.router.HandleCommand(ctx, userID, message.Text)
	if err != nil {
		b.logger.Error("command %q failed: %v", message.Text, err)
	}

	msg := tgbotapi.NewMessage(b.chatID, response)
	if needsConfirmation {
		if command, ok := b.router.Pending(userID); ok {
			msg.ReplyMarkup = b.router.MakeConfirmationKeyboard(command)
		}
	}
	b.send(msg)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil || cb.Message.Chat.ID != b.chatID {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("answer callback: %v", err)
	}

	var userID int64
	if cb.From != nil {
		userID = cb.From.ID
	}
	response, err := b.router.HandleCallback(ctx, userID, cb.Data)
	if err != nil {
		b.logger.Error("callback %q failed: %v", cb.Data, err)
		if response == "" {
			return
		}
	}
	b.send(tgbotapi.NewMessage(b.chatID, response))
}

// SendMessage отправляет сообщение в чат оператора
func (b *Bot) SendMessage(text string) {
	b.send(tgbotapi.NewMessage(b.chatID, text))
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message: %v", err)
	}
}
