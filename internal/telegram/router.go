package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CommandHandler представляет обработчик команды
type CommandHandler func(ctx context.Context, args *CommandArgs) (string, error)

type pendingCommand struct {
	args *CommandArgs
	at   time.Time
}

// Router маршрутизирует команды к обработчикам
type Router struct {
	mu                sync.Mutex
	handlers          map[string]CommandHandler
	authManager       *AuthManager
	formatter         *Formatter
	adminCommands     map[string]bool
	dangerousCommands map[string]bool
	pending           map[int64]pendingCommand
	confirmTTL        time.Duration
	now               func() time.Time
}

// NewRouter создает новый роутер
func NewRouter(authManager *AuthManager, formatter *Formatter) *Router {
	r := &Router{
		handlers:          make(map[string]CommandHandler),
		authManager:       authManager,
		formatter:         formatter,
		adminCommands:     make(map[string]bool),
		dangerousCommands: make(map[string]bool),
		pending:           make(map[int64]pendingCommand),
		confirmTTL:        time.Minute,
		now:               time.Now,
	}

	// Регистрируем админские команды
	for _, c := range []CommandType{CmdSell, CmdSellAll, CmdPanicStop, CmdResume, CmdClassify, CmdAccount,
		CmdAdd, CmdRemove, CmdAttach, CmdDetach, CmdRelease} {
		r.adminCommands[string(c)] = true
	}

	// Опасные команды выполняются только после подтверждения
	r.dangerousCommands[string(CmdSell)] = true
	r.dangerousCommands[string(CmdSellAll)] = true

	return r
}

// RegisterHandler регистрирует обработчик команды
func (r *Router) RegisterHandler(command CommandType, handler CommandHandler) {
	r.handlers[string(command)] = handler
}

// HandleCommand обрабатывает команду. Для опасных команд обработчик не
// вызывается: возвращается запрос подтверждения и needsConfirmation=true.
func (r *Router) HandleCommand(ctx context.Context, userID int64, text string) (string, bool, error) {
	if err := r.authManager.CheckRateLimit(userID); err != nil {
		return r.formatter.FormatError(err), false, nil
	}

	if !r.authManager.IsAllowed(userID) {
		return r.formatter.T("access_denied"), false, nil
	}

	args, err := ParseCommand(text)
	if err != nil {
		return r.formatter.FormatError(err), false, nil
	}
	if args.Command == "start" {
		args.Command = string(CmdHelp)
	}

	if r.adminCommands[args.Command] {
		if err := r.authManager.RequireAdmin(userID); err != nil {
			return r.formatter.T("admin_required"), false, nil
		}
	}

	handler, exists := r.handlers[args.Command]
	if !exists {
		return fmt.Sprintf("%s: %s", r.formatter.T("error"), r.formatter.T("unknown_command")), false, nil
	}

	if r.dangerousCommands[args.Command] {
		r.mu.Lock()
		r.pending[userID] = pendingCommand{args: args, at: r.now()}
		r.mu.Unlock()
		return fmt.Sprintf("⚠️ %s\n%s", r.formatter.T("confirm_action"), describe(args)), true, nil
	}

	response, err := handler(ctx, args)
	if err != nil {
		return r.formatter.FormatError(err), false, err
	}
	return response, false, nil
}

// Pending возвращает команду, ожидающую подтверждения пользователя
func (r *Router) Pending(userID int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[userID]
	if !ok {
		return "", false
	}
	return p.args.Command, true
}

// MakeConfirmationKeyboard создает клавиатуру подтверждения
func (r *Router) MakeConfirmationKeyboard(command string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ "+r.formatter.T("confirm"), "confirm_"+command),
			tgbotapi.NewInlineKeyboardButtonData("❌ "+r.formatter.T("cancel"), "cancel"),
		),
	)
}

// HandleCallback обрабатывает callback от inline кнопок.
// Формат: confirm_<command> или cancel.
func (r *Router) HandleCallback(ctx context.Context, userID int64, data string) (string, error) {
	r.mu.Lock()
	p, ok := r.pending[userID]
	delete(r.pending, userID)
	r.mu.Unlock()

	if data == "cancel" {
		return r.formatter.T("cancel"), nil
	}

	command, found := strings.CutPrefix(data, "confirm_")
	if !found {
		return "", fmt.Errorf("unexpected callback data %q", data)
	}
	if !ok || p.args.Command != command || r.now().Sub(p.at) > r.confirmTTL {
		return r.formatter.T("expired"), nil
	}
	if err := r.authManager.RequireAdmin(userID); err != nil {
		return r.formatter.T("admin_required"), nil
	}

	handler, exists := r.handlers[command]
	if !exists {
		return "", fmt.Errorf("no handler for %s", command)
	}
	response, err := handler(ctx, p.args)
	if err != nil {
		return r.formatter.FormatError(err), err
	}
	return response, nil
}

func describe(args *CommandArgs) string {
	if args.Code != "" {
		return fmt.Sprintf("/%s %s", args.Command, args.Code)
	}
	return "/" + args.Command
}
