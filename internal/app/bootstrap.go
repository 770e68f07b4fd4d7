package app

import (
	"context"
	"fmt"

	"github.com/kirillm/sns-trade-bot/internal/api"
	"github.com/kirillm/sns-trade-bot/internal/broker/bridge"
	"github.com/kirillm/sns-trade-bot/internal/config"
	"github.com/kirillm/sns-trade-bot/internal/notify"
	"github.com/kirillm/sns-trade-bot/internal/policy"
	"github.com/kirillm/sns-trade-bot/internal/storage"
	"github.com/kirillm/sns-trade-bot/internal/telegram"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// Build подключается к мосту брокера и собирает приложение со всеми
// включенными в конфигурации каналами. Возвращаемая функция закрывает ресурсы.
func Build(ctx context.Context, cfg *config.Config, table *config.Schedule, logger *utils.Logger) (*App, func(), error) {
	client, err := bridge.Dial(ctx, cfg.Broker.BridgeURL, cfg.Broker.CallTimeout, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to bridge: %w", err)
	}

	a := New(cfg, table, client, logger)
	client.SetHandler(a.Handler())
	a.AddRunner("bridge", client.Run)

	closers := []func(){func() { client.Close() }}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	riskPolicy, err := policy.LoadPolicy(cfg.Policy.Path, cfg.Policy.Profile)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("failed to load policy: %w", err)
	}
	if riskPolicy != nil {
		a.SetPolicy(policy.NewEngine(riskPolicy, logger))
		logger.Info("Risk policy %s enabled", riskPolicy.ProfileName)
	}

	var notifiers notify.Multi
	if cfg.Slack.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewSlack(cfg.Slack.WebhookURL, cfg.Slack.Timeout, cfg.Slack.PerMinute, logger))
		logger.Info("Slack notifications enabled")
	}

	var history api.History
	if cfg.Database.Enabled {
		db, err := storage.NewPostgresStorage(
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.DBName,
			cfg.Database.SSLMode,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, func() {
			if err := db.Close(); err != nil {
				logger.Error("close database: %v", err)
			}
		})

		journal := storage.NewJournal(db, 256, logger)
		a.SetJournal(journal)
		a.SetConfigStore(db)
		a.AddRunner("journal", journal.Run)
		history = db
		logger.Info("PostgreSQL journal enabled")
	}

	if cfg.Telegram.BotToken != "" {
		botAPI, err := telegram.NewBotAPI(cfg.Telegram.BotToken, logger)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		notifiers = append(notifiers, notify.NewTelegram(botAPI, cfg.Telegram.ChatID))

		formatter := telegram.NewFormatter(telegram.LangEN)
		auth := telegram.NewAuthManager(cfg.Telegram.AdminIDs, cfg.Telegram.Whitelist)
		router := telegram.NewRouter(auth, formatter)
		telegram.RegisterOperatorHandlers(router, a, formatter)

		bot := telegram.NewBot(botAPI, cfg.Telegram.ChatID, router, logger)
		a.AddRunner("telegram", func(ctx context.Context) error {
			bot.Start(ctx)
			return nil
		})
	}

	if len(notifiers) > 0 {
		a.SetNotifier(notifiers)
	}

	if cfg.API.Port > 0 {
		hub := api.NewHub(256, logger)
		a.AddListener(hub)

		server := api.NewServer(logger, a.APISource(), hub, cfg.API.Port)
		if history != nil {
			server.SetHistory(history)
		}
		a.AddRunner("websocket hub", func(ctx context.Context) error {
			hub.Run(ctx)
			return nil
		})
		a.AddRunner("http api", server.Start)
	}

	return a, closeAll, nil
}
