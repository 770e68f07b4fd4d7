package strategy

import (
	"fmt"

	"github.com/kirillm/sns-trade-bot/internal/ledger"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

const (
	SellOnClosing   = "sell_on_closing"
	SellStopLoss    = "sell_stop_loss"
	SellOnCondition = "sell_on_condition"
	SellJustSell    = "sell_just_sell"
)

// Значения по умолчанию в процентах
const (
	DefaultStopLoss          = -3.0
	DefaultStopLossFromTop   = -1.5
	DefaultConditionTakeGain = 1.0
)

// CloseOut продает всю позицию при предзакрытной проверке
type CloseOut struct {
	base
}

func NewCloseOut(stock *ledger.Stock, params Params, logger *utils.Logger) ledger.Strategy {
	return &CloseOut{base: newBase(SellOnClosing, stock, params, logger)}
}

func (c *CloseOut) OnTime(hhmmss string) {
	if c.sellBlocked() {
		return
	}
	c.sellQty(c.stock.Qty, "closing "+hhmmss)
	c.disable()
}

// StopLoss продает всю позицию при просадке от цены покупки или от максимума
type StopLoss struct {
	base
	threshold float64
	fromTop   float64
}

func NewStopLoss(stock *ledger.Stock, params Params, logger *utils.Logger) ledger.Strategy {
	return &StopLoss{
		base:      newBase(SellStopLoss, stock, params, logger),
		threshold: params.Float("threshold", DefaultStopLoss),
		fromTop:   params.Float("from_top", DefaultStopLossFromTop),
	}
}

func (sl *StopLoss) OnPriceUpdated() {
	s := sl.stock
	if sl.sellBlocked() || s.CurPrice <= 0 {
		return
	}

	var fromTop float64
	if s.TopPrice > 0 {
		fromTop = float64(s.CurPrice-s.TopPrice) / float64(s.TopPrice) * 100
	}

	switch {
	case s.EarningRate < sl.threshold:
		sl.sellQty(s.Qty, fmt.Sprintf("earning rate %.2f%% < %.2f%%", s.EarningRate, sl.threshold))
	case fromTop < sl.fromTop:
		sl.sellQty(s.Qty, fmt.Sprintf("from top %.2f%% < %.2f%% (top %d)", fromTop, sl.fromTop, s.TopPrice))
	}
}

// OnCondition фиксирует прибыль, когда продающее условие поиска включает инструмент
type OnCondition struct {
	base
	threshold float64
}

func NewOnCondition(stock *ledger.Stock, params Params, logger *utils.Logger) ledger.Strategy {
	return &OnCondition{
		base:      newBase(SellOnCondition, stock, params, logger),
		threshold: params.Float("threshold", DefaultConditionTakeGain),
	}
}

func (oc *OnCondition) OnCondition(index int, name string) {
	if oc.sellBlocked() {
		return
	}
	s := oc.stock
	if s.EarningRate <= oc.threshold {
		oc.logger.Debug("[%s] %s condition %d(%s) earning rate %.2f%% <= %.2f%%",
			oc.name, s.Code, index, name, s.EarningRate, oc.threshold)
		return
	}
	oc.sellQty(s.Qty, fmt.Sprintf("condition %d(%s) earning rate %.2f%%", index, name, s.EarningRate))
}

// JustSell продает долю позиции на ближайшем тике один раз
type JustSell struct {
	base
	percent float64
}

func NewJustSell(stock *ledger.Stock, params Params, logger *utils.Logger) ledger.Strategy {
	return &JustSell{
		base:    newBase(SellJustSell, stock, params, logger),
		percent: params.Float("qty_percent", 100),
	}
}

func (js *JustSell) OnPriceUpdated() {
	if js.sellBlocked() {
		return
	}
	qty := int(float64(js.stock.Qty) * js.percent / 100)
	if qty > js.stock.Qty {
		qty = js.stock.Qty
	}
	if qty <= 0 {
		js.logger.Warn("[%s] %s qty %d * %.0f%% rounds to zero", js.name, js.stock.Code, js.stock.Qty, js.percent)
		return
	}
	js.sellQty(qty, fmt.Sprintf("%.0f%% of %d", js.percent, js.stock.Qty))
	js.disable()
}
