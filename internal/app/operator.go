package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillm/sns-trade-bot/internal/api"
	"github.com/kirillm/sns-trade-bot/internal/broker"
	"github.com/kirillm/sns-trade-bot/internal/condition"
	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/internal/execution"
	"github.com/kirillm/sns-trade-bot/internal/ledger"
	"github.com/kirillm/sns-trade-bot/internal/strategy"
	"github.com/kirillm/sns-trade-bot/internal/telegram"
)

// Команды оператора. Каждая выполняется в цикле событий через Call,
// поэтому читает и меняет реестр так же, как обработчики брокера.

func (a *App) Status(ctx context.Context) (telegram.Status, error) {
	var st telegram.Status
	err := a.loop.Call(ctx, func() {
		st = telegram.Status{
			Account:    a.ledger.Account(),
			Accounts:   a.ledger.Accounts(),
			Summary:    a.ledger.Summary(),
			Profit:     a.ledger.TodayProfit(),
			Holding:    len(a.ledger.Stocks(domain.HoldHolding)),
			Target:     len(a.ledger.Stocks(domain.HoldTarget)),
			Conditions: len(a.conditions.List()),
		}
	})
	if err != nil {
		return telegram.Status{}, err
	}
	st.QueueLen = a.queue.Len()
	st.KillSwitch, st.KillReason, _ = a.killSwitch.GetStatus()
	if !a.startedAt.IsZero() {
		st.Uptime = time.Since(a.startedAt)
	}
	return st, nil
}

func (a *App) Positions(ctx context.Context) ([]domain.Position, error) {
	return a.positions(ctx, domain.HoldHolding)
}

func (a *App) positions(ctx context.Context, hold domain.HoldType) ([]domain.Position, error) {
	var out []domain.Position
	err := a.loop.Call(ctx, func() { out = a.ledger.Positions(hold) })
	return out, err
}

func (a *App) TodayProfit(ctx context.Context) (domain.DailyProfit, error) {
	var p domain.DailyProfit
	err := a.loop.Call(ctx, func() { p = a.ledger.TodayProfit() })
	return p, err
}

func (a *App) Conditions(ctx context.Context) ([]condition.Condition, error) {
	var out []condition.Condition
	err := a.loop.Call(ctx, func() { out = a.conditions.List() })
	return out, err
}

// Classify меняет тип сигнала условия и подписывает его на события
func (a *App) Classify(ctx context.Context, index int, t domain.SignalType) error {
	var opErr error
	err := a.loop.Call(ctx, func() {
		if opErr = a.conditions.Classify(index, t); opErr != nil {
			return
		}
		a.ledger.SetUpdated(domain.TopicConditionTable)
		if t != domain.SignalUndefined {
			c := a.conditions.Get(index)
			a.executor.RegisterCondition(c.Index, c.Name)
		}
		a.persistConditionTypes()
	})
	if err != nil {
		return err
	}
	return opErr
}

// CheckCondition запускает разовый поиск, результат придет во временный список
func (a *App) CheckCondition(ctx context.Context, index int) error {
	var opErr error
	err := a.loop.Call(ctx, func() {
		for _, c := range a.conditions.List() {
			if c.Index == index {
				a.executor.CheckCondition(c.Index, c.Name)
				return
			}
		}
		opErr = fmt.Errorf("condition %d: %w", index, domain.ErrNotFound)
	})
	if err != nil {
		return err
	}
	return opErr
}

// AddTempStocks переносит результат разового поиска в реестр и запрашивает цены
func (a *App) AddTempStocks(ctx context.Context) (int, error) {
	var n int
	err := a.loop.Call(ctx, func() {
		n = a.ledger.AddAllTempStocks()
		if n > 0 {
			a.executor.RequestMultiCodeDetail()
		}
	})
	return n, err
}

func (a *App) SelectAccount(ctx context.Context, account string) error {
	var opErr error
	err := a.loop.Call(ctx, func() {
		if opErr = a.ledger.SetAccount(account); opErr != nil {
			return
		}
		a.executor.RequestBalance()
	})
	if err != nil {
		return err
	}
	return opErr
}

func (a *App) Refresh(ctx context.Context) error {
	return a.loop.Call(ctx, func() {
		a.executor.RequestBalance()
		a.executor.RequestProfit()
	})
}

// Sell продает всю позицию по коду тем же путем, что и сигнал стратегии
func (a *App) Sell(ctx context.Context, code string) (int, error) {
	if a.killSwitch.IsActive() {
		return 0, domain.ErrKillSwitchActive
	}
	var qty int
	var opErr error
	err := a.loop.Call(ctx, func() {
		s, ok := a.ledger.Find(code)
		if !ok {
			opErr = fmt.Errorf("stock %s: %w", code, domain.ErrNotFound)
			return
		}
		qty, opErr = sellAllOf(s)
	})
	if err != nil {
		return 0, err
	}
	return qty, opErr
}

// SellAll продает все позиции без незавершенной заявки на продажу
func (a *App) SellAll(ctx context.Context) (int, error) {
	if a.killSwitch.IsActive() {
		return 0, domain.ErrKillSwitchActive
	}
	var n int
	err := a.loop.Call(ctx, func() {
		for _, s := range a.ledger.Stocks(domain.HoldHolding) {
			if _, err := sellAllOf(s); err == nil {
				n++
			}
		}
	})
	return n, err
}

// sellAllOf продает всю позицию. Удержанная после отказа продажа считается
// командой оператора на повтор.
func sellAllOf(s *ledger.Stock) (int, error) {
	if s.Qty <= 0 {
		return 0, fmt.Errorf("stock %s has no position: %w", s.Code, domain.ErrInvalidInput)
	}
	if _, held := s.Held(ledger.SideSell); held {
		s.Release(ledger.SideSell)
	}
	if s.RemainedSellQty > 0 {
		return 0, fmt.Errorf("stock %s sell pending: %w", s.Code, domain.ErrInvalidInput)
	}
	qty := s.Qty
	s.OnSellSignal(qty)
	return qty, nil
}

// Attach прикрепляет стратегию к инструменту. Сторона определяется по имени,
// удержание этой стороны после отказа снимается.
func (a *App) Attach(ctx context.Context, code, name string, params map[string]any) error {
	side, ok := a.strategies.SideOf(name)
	if !ok {
		a.logger.Warn("attach %s: unknown strategy %q", code, name)
		return fmt.Errorf("strategy %q: %w", name, domain.ErrUnknownStrategy)
	}
	var opErr error
	err := a.loop.Call(ctx, func() {
		s, found := a.ledger.Find(code)
		if !found {
			opErr = fmt.Errorf("stock %s: %w", code, domain.ErrNotFound)
			return
		}
		if opErr = a.strategies.Attach(s, side, name, strategy.Params(params)); opErr != nil {
			return
		}
		if _, held := s.Held(side); held {
			s.Release(side)
		}
		a.ledger.SetUpdated(domain.TopicBalanceTable)
		a.executor.RegisterReal(domain.HoldTarget, broker.RealRegReplace)
	})
	if err != nil {
		return err
	}
	return opErr
}

// Detach снимает стратегию по имени или все стратегии стороны (buy, sell, all)
func (a *App) Detach(ctx context.Context, code, target string) (int, error) {
	var n int
	var opErr error
	err := a.loop.Call(ctx, func() {
		s, found := a.ledger.Find(code)
		if !found {
			opErr = fmt.Errorf("stock %s: %w", code, domain.ErrNotFound)
			return
		}

		var sides []ledger.Side
		switch target {
		case "buy":
			sides = []ledger.Side{ledger.SideBuy}
		case "sell":
			sides = []ledger.Side{ledger.SideSell}
		case "all":
			sides = []ledger.Side{ledger.SideBuy, ledger.SideSell}
		}

		if sides == nil {
			side, ok := a.strategies.SideOf(target)
			if !ok {
				a.logger.Warn("detach %s: unknown strategy %q", code, target)
				opErr = fmt.Errorf("strategy %q: %w", target, domain.ErrUnknownStrategy)
				return
			}
			if !s.Detach(side, target) {
				opErr = fmt.Errorf("%s has no %s: %w", code, target, domain.ErrNotFound)
				return
			}
			n = 1
		} else {
			for _, side := range sides {
				for _, st := range s.Strategies(side) {
					if s.Detach(side, st.Name()) {
						n++
					}
				}
			}
		}
		a.logger.Info("%s(%s) %d strategies detached (%s)", s.Name, code, n, target)
		a.ledger.SetUpdated(domain.TopicBalanceTable)
	})
	if err != nil {
		return 0, err
	}
	return n, opErr
}

// AddCode добавляет инструмент в реестр и запрашивает его название и цену
func (a *App) AddCode(ctx context.Context, code string) error {
	return a.loop.Call(ctx, func() {
		a.ledger.GetOrCreate(code)
		a.ledger.SetUpdated(domain.TopicBalanceTable)
		a.executor.RequestCodeInfo(code)
	})
}

// Remove удаляет инструмент без позиции и снимает его подписку на тики
func (a *App) Remove(ctx context.Context, code string) error {
	var opErr error
	err := a.loop.Call(ctx, func() {
		s, found := a.ledger.Find(code)
		if !found {
			opErr = fmt.Errorf("stock %s: %w", code, domain.ErrNotFound)
			return
		}
		if s.Qty > 0 {
			opErr = fmt.Errorf("stock %s has a position of %d: %w", code, s.Qty, domain.ErrInvalidInput)
			return
		}
		a.ledger.Remove(code)
		a.ledger.SetUpdated(domain.TopicBalanceTable)
		a.executor.RemoveReal(code)
	})
	if err != nil {
		return err
	}
	return opErr
}

// Release снимает удержания обеих сторон инструмента после отказа в заявке
func (a *App) Release(ctx context.Context, code string) (int, error) {
	var n int
	var opErr error
	err := a.loop.Call(ctx, func() {
		s, found := a.ledger.Find(code)
		if !found {
			opErr = fmt.Errorf("stock %s: %w", code, domain.ErrNotFound)
			return
		}
		for _, side := range []ledger.Side{ledger.SideBuy, ledger.SideSell} {
			if reason, held := s.Held(side); held {
				s.Release(side)
				a.logger.Info("%s(%s) %s released (%s)", s.Name, code, side, reason)
				n++
			}
		}
		if n > 0 {
			a.ledger.SetUpdated(domain.TopicBalanceTable)
		}
	})
	if err != nil {
		return 0, err
	}
	return n, opErr
}

// PanicStop останавливает отправку заявок
func (a *App) PanicStop(reason string) {
	a.killSwitch.Activate(reason)
	a.event("warn", "kill switch activated", reason)
	a.executor.Message("🛑 kill switch: " + reason)
}

// Resume снимает kill switch и удержания, которые он поставил
func (a *App) Resume() {
	a.killSwitch.Deactivate()
	a.loop.Post(func() {
		if n := a.executor.ReleaseHeld(execution.ReasonKillSwitch); n > 0 {
			a.logger.Info("%d sides released after kill switch", n)
		}
	})
	a.event("info", "kill switch deactivated", "")
	a.executor.Message("▶️ trading resumed")
}

// apiSource адаптирует App к источнику данных HTTP API
type apiSource struct {
	*App
}

// APISource возвращает источник снимков для HTTP API
func (a *App) APISource() api.Source {
	return apiSource{a}
}

func (s apiSource) Summary(ctx context.Context) (api.Summary, error) {
	var sum api.Summary
	err := s.loop.Call(ctx, func() {
		sum = api.Summary{
			Account:  s.ledger.Account(),
			Accounts: s.ledger.Accounts(),
			Balance:  s.ledger.Summary(),
			Profit:   s.ledger.TodayProfit(),
		}
	})
	if err != nil {
		return api.Summary{}, err
	}
	sum.KillSwitch = s.killSwitch.IsActive()
	sum.QueueLen = s.queue.Len()
	return sum, nil
}

func (s apiSource) Positions(ctx context.Context, hold domain.HoldType) ([]domain.Position, error) {
	return s.positions(ctx, hold)
}

var (
	_ telegram.Operator = (*App)(nil)
	_ api.Source        = apiSource{}
)
