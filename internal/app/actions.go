package app

import (
	"context"
	"fmt"

	"github.com/kirillm/sns-trade-bot/internal/broker"
	"github.com/kirillm/sns-trade-bot/internal/dispatch"
	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/internal/storage"
)

// Действия расписания. Все методы вызываются из цикла событий.

func (a *App) RefreshBalance() {
	a.executor.RequestBalance()
}

func (a *App) RefreshInterest() {
	a.executor.RequestMultiCodeDetail()
}

func (a *App) RefreshProfit() {
	a.executor.RequestProfit()
}

func (a *App) RegisterReal() {
	a.executor.RegisterReal(domain.HoldTarget, broker.RealRegReplace)
}

// NotifyBalance отправляет позиции в каналы уведомлений через очередь команд
func (a *App) NotifyBalance() {
	if a.notifier == nil {
		return
	}
	positions := a.ledger.Positions(domain.HoldHolding)
	a.queue.Put(dispatch.NewJob("notify_balance", func() int {
		ctx, cancel := context.WithTimeout(context.Background(), a.notifyTTL)
		defer cancel()
		if err := a.notifier.SendBalance(ctx, positions); err != nil {
			a.logger.Error("notify balance: %v", err)
			return -1
		}
		return 0
	}, len(positions)))
}

func (a *App) ArrangeStrategies() {
	n := a.strategies.ArrangeDefaults(a.ledger)
	a.logger.Info("default strategies attached to %d stocks", n)
}

// Save записывает список инструментов со стратегиями и классификацию условий
func (a *App) Save() {
	entries := storage.Snapshot(a.ledger)
	if err := storage.SaveStockList(a.cfg.Storage.StockListPath, entries); err != nil {
		a.logger.Error("save stock list: %v", err)
		a.event("error", "save stock list failed", err.Error())
		return
	}
	a.logger.Info("saved %d stocks to %s", len(entries), a.cfg.Storage.StockListPath)
	a.persistConditionTypes()
	a.event("info", "stock list saved", fmt.Sprintf("%d", len(entries)))
}

// Exit завершает Run
func (a *App) Exit() {
	a.logger.Info("scheduled exit")
	a.event("info", "scheduled exit", "")
	if a.cancel != nil {
		a.cancel()
	}
}

// Наблюдатель реестра: сигналы стратегий превращаются в заявки.

func (a *App) OnDataUpdated(domain.Topic) {}

func (a *App) OnBuySignal(code string, qty int) {
	if err := a.executor.BuyOrder(code, qty); err != nil {
		a.logger.Warn("buy %s qty:%d: %v", code, qty, err)
	}
}

func (a *App) OnSellSignal(code string, qty int) {
	if err := a.executor.SellOrder(code, qty); err != nil {
		a.logger.Warn("sell %s qty:%d: %v", code, qty, err)
	}
}
