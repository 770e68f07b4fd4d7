package strategy

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/kirillm/sns-trade-bot/internal/ledger"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// Params параметры стратегии в том виде, в каком они хранятся в списке инструментов
type Params map[string]any

// Float читает числовой параметр, принимая числа и строки
func (p Params) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return def
}

// String читает строковый параметр. Числа вида 90000 дополняются до HHMMSS.
func (p Params) String(key, def string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return padTime(int(s))
	case int:
		return padTime(s)
	}
	return def
}

func padTime(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 6 {
		s = "0" + s
	}
	return s
}

// TargetQty переводит бюджет в тысячах вон в количество акций по цене price
func TargetQty(budget float64, price int) int {
	if price <= 0 || budget <= 0 {
		return 0
	}
	return int(int64(math.Floor(budget*1000)) / int64(price))
}

// base общая часть всех стратегий: имя, инструмент, параметры, флаг включения
type base struct {
	name    string
	stock   *ledger.Stock
	params  Params
	enabled bool
	logger  *utils.Logger
}

func newBase(name string, stock *ledger.Stock, params Params, logger *utils.Logger) base {
	if params == nil {
		params = Params{}
	}
	return base{name: name, stock: stock, params: params, enabled: true, logger: logger}
}

func (b *base) Name() string  { return b.name }
func (b *base) Enabled() bool { return b.enabled }

// Params возвращает копию параметров для сохранения
func (b *base) Params() map[string]any {
	out := make(map[string]any, len(b.params))
	for k, v := range b.params {
		out[k] = v
	}
	return out
}

// disable выключает одноразовую стратегию после срабатывания
func (b *base) disable() {
	b.enabled = false
	b.logger.Info("[%s] %s disabled after firing", b.name, b.stock.Code)
}

func (b *base) OnPriceUpdated()         {}
func (b *base) OnTime(string)           {}
func (b *base) OnCondition(int, string) {}
func (b *base) OnTrData(int)            {}

// buyRemaining считает остаток до целевого количества и отправляет сигнал покупки
func (b *base) buyRemaining() bool {
	s := b.stock
	order := s.TargetQty - s.Qty
	if order <= 0 {
		return false
	}
	b.logger.Info("[%s] %s(%s) target:%d qty:%d buy:%d", b.name, s.Name, s.Code, s.TargetQty, s.Qty, order)
	s.OnBuySignal(order)
	return true
}

// sellQty отправляет сигнал продажи qty акций
func (b *base) sellQty(qty int, reason string) bool {
	s := b.stock
	if qty <= 0 {
		return false
	}
	b.logger.Info("[%s] %s(%s) %s, sell:%d", b.name, s.Name, s.Code, reason, qty)
	s.OnSellSignal(qty)
	return true
}

func (b *base) sellBlocked() bool {
	return b.stock.RemainedSellQty > 0 || b.stock.Qty <= 0
}
