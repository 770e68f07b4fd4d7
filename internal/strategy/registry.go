package strategy

import (
	"fmt"
	"sort"

	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/internal/ledger"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// Factory создает стратегию для инструмента
type Factory func(stock *ledger.Stock, params Params, logger *utils.Logger) ledger.Strategy

// Timed стратегия, которая срабатывает только по времени из расписания
type Timed interface {
	Trigger() string
}

// Registry сопоставляет имена стратегий с конструкторами
type Registry struct {
	logger    *utils.Logger
	factories map[ledger.Side]map[string]Factory
	reachable func(trigger string) bool
}

// NewRegistry создает реестр со всеми встроенными стратегиями
func NewRegistry(logger *utils.Logger) *Registry {
	r := &Registry{
		logger: logger,
		factories: map[ledger.Side]map[string]Factory{
			ledger.SideBuy:  {},
			ledger.SideSell: {},
		},
	}

	r.Register(ledger.SideBuy, BuyJustBuy, NewJustBuy)
	r.Register(ledger.SideBuy, BuyOnOpening, NewOnOpening)
	r.Register(ledger.SideBuy, BuyOnClosing, NewOnClosing)

	r.Register(ledger.SideSell, SellOnClosing, NewCloseOut)
	r.Register(ledger.SideSell, SellStopLoss, NewStopLoss)
	r.Register(ledger.SideSell, SellOnCondition, NewOnCondition)
	r.Register(ledger.SideSell, SellJustSell, NewJustSell)

	return r
}

// Register добавляет конструктор. Повторная регистрация имени заменяет прежний.
func (r *Registry) Register(side ledger.Side, name string, f Factory) {
	r.factories[side][name] = f
}

// SetTriggerCheck задает проверку времени срабатывания стратегий Timed.
// Стратегия, время которой расписание никогда не передаст, не прикрепляется.
func (r *Registry) SetTriggerCheck(fn func(trigger string) bool) {
	r.reachable = fn
}

// Names возвращает отсортированные имена стратегий стороны
func (r *Registry) Names(side ledger.Side) []string {
	names := make([]string, 0, len(r.factories[side]))
	for name := range r.factories[side] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SideOf определяет сторону по имени стратегии
func (r *Registry) SideOf(name string) (ledger.Side, bool) {
	if _, ok := r.factories[ledger.SideBuy][name]; ok {
		return ledger.SideBuy, true
	}
	if _, ok := r.factories[ledger.SideSell][name]; ok {
		return ledger.SideSell, true
	}
	return ledger.SideBuy, false
}

// Create строит стратегию по имени
func (r *Registry) Create(side ledger.Side, name string, stock *ledger.Stock, params Params) (ledger.Strategy, error) {
	f, ok := r.factories[side][name]
	if !ok {
		return nil, fmt.Errorf("%s strategy %q: %w", side, name, domain.ErrUnknownStrategy)
	}
	return f(stock, params, r.logger), nil
}

// Attach создает стратегию и прикрепляет ее к инструменту
func (r *Registry) Attach(stock *ledger.Stock, side ledger.Side, name string, params Params) error {
	st, err := r.Create(side, name, stock, params)
	if err != nil {
		return err
	}
	if t, ok := st.(Timed); ok && r.reachable != nil && !r.reachable(t.Trigger()) {
		err := fmt.Errorf("%s strategy %s time %q is not in the schedule: %w", side, name, t.Trigger(), domain.ErrInvalidInput)
		r.logger.Error("%s(%s) %v", stock.Name, stock.Code, err)
		return err
	}
	stock.Attach(side, st)
	r.logger.Info("%s(%s) %s strategy attached: %s %v", stock.Name, stock.Code, side, name, params)
	return nil
}

// ArrangeDefaults прикрепляет стоп-лосс с параметрами по умолчанию ко всем позициям, где его нет
func (r *Registry) ArrangeDefaults(l *ledger.Ledger) int {
	n := 0
	for _, s := range l.Stocks(domain.HoldHolding) {
		if _, ok := s.Strategy(ledger.SideSell, SellStopLoss); ok {
			continue
		}
		if err := r.Attach(s, ledger.SideSell, SellStopLoss, nil); err != nil {
			r.logger.Error("arrange %s: %v", s.Code, err)
			continue
		}
		n++
	}
	if n > 0 {
		l.SetUpdated(domain.TopicBalanceTable)
	}
	return n
}
