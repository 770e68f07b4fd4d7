package strategy

import (
	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/internal/ledger"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

const (
	BuyJustBuy   = "buy_just_buy"
	BuyOnOpening = "buy_on_opening"
	BuyOnClosing = "buy_on_closing"
)

// DefaultBudget бюджет покупки в тысячах вон
const DefaultBudget = 300.0

// JustBuy докупает до целевого количества на ближайшем тике
type JustBuy struct {
	base
	budget float64
}

func NewJustBuy(stock *ledger.Stock, params Params, logger *utils.Logger) ledger.Strategy {
	return &JustBuy{
		base:   newBase(BuyJustBuy, stock, params, logger),
		budget: params.Float("budget", DefaultBudget),
	}
}

func (j *JustBuy) OnPriceUpdated() {
	s := j.stock
	if s.RemainedBuyQty > 0 || s.CurPrice <= 0 {
		return
	}
	s.TargetQty = TargetQty(j.budget, s.CurPrice)
	j.buyRemaining()
}

// OnOpening рассчитывает целевое количество по цене из запроса и покупает в момент открытия
type OnOpening struct {
	base
	budget  float64
	trigger string
}

func NewOnOpening(stock *ledger.Stock, params Params, logger *utils.Logger) ledger.Strategy {
	return &OnOpening{
		base:    newBase(BuyOnOpening, stock, params, logger),
		budget:  params.Float("budget", DefaultBudget),
		trigger: params.String("time", "090000"),
	}
}

// Trigger время покупки HHMMSS или префикс окна
func (o *OnOpening) Trigger() string { return o.trigger }

func (o *OnOpening) OnTrData(price int) {
	if price <= 0 {
		return
	}
	o.stock.TargetQty = TargetQty(o.budget, price)
	o.logger.Debug("[%s] %s price:%d target:%d", o.name, o.stock.Code, price, o.stock.TargetQty)
}

func (o *OnOpening) OnTime(hhmmss string) {
	if !domain.MatchTime(o.trigger, hhmmss) {
		return
	}
	s := o.stock
	if s.RemainedBuyQty > 0 {
		return
	}
	if s.TargetQty == 0 && s.CurPrice > 0 {
		s.TargetQty = TargetQty(o.budget, s.CurPrice)
	}
	o.buyRemaining()
}

// OnClosing покупает один раз в заданное предзакрытное время
type OnClosing struct {
	base
	budget  float64
	trigger string
}

func NewOnClosing(stock *ledger.Stock, params Params, logger *utils.Logger) ledger.Strategy {
	return &OnClosing{
		base:    newBase(BuyOnClosing, stock, params, logger),
		budget:  params.Float("budget", DefaultBudget),
		trigger: params.String("time", "152500"),
	}
}

func (o *OnClosing) Trigger() string { return o.trigger }

func (o *OnClosing) OnTime(hhmmss string) {
	if !domain.MatchTime(o.trigger, hhmmss) {
		return
	}
	s := o.stock
	if s.RemainedBuyQty > 0 || s.CurPrice <= 0 {
		return
	}
	s.TargetQty = TargetQty(o.budget, s.CurPrice)
	o.buyRemaining()
	o.disable()
}
