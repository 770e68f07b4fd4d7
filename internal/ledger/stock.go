package ledger

import "github.com/kirillm/sns-trade-bot/internal/domain"

// Stock хранит состояние одного инструмента и прикрепленные к нему стратегии.
// RemainedBuyQty и RemainedSellQty ненулевые, пока заявка соответствующей стороны
// не исполнена полностью, и блокируют повторные сигналы.
// TopPrice максимум цены с момента открытия позиции.
type Stock struct {
	Code            string
	Name            string
	CurPrice        int
	BuyPrice        int
	Qty             int
	TargetQty       int
	TopPrice        int
	RemainedBuyQty  int
	RemainedSellQty int
	EarningRate     float64

	buy  []Strategy
	sell []Strategy
	held [2]string
	sink signalSink
}

func newStock(code string, sink signalSink) *Stock {
	return &Stock{Code: code, sink: sink}
}

// UpdateEarningRate пересчитывает доходность из текущей цены, цены покупки и количества
func (s *Stock) UpdateEarningRate() {
	s.EarningRate = EarningRate(s.CurPrice, s.BuyPrice, s.Qty)
}

// SetPrice обновляет текущую цену и доходность. Максимум цены ведется только при наличии позиции.
func (s *Stock) SetPrice(price int) {
	s.CurPrice = price
	if s.Qty > 0 && price > s.TopPrice {
		s.TopPrice = price
	}
	s.UpdateEarningRate()
}

// SetHolding обновляет позицию после баланса или уведомления об исполнении.
// При открытии позиции максимум начинается с текущей цены, при закрытии сбрасывается.
func (s *Stock) SetHolding(qty, buyPrice int) {
	switch {
	case qty <= 0:
		s.TopPrice = 0
	case s.Qty <= 0:
		s.TopPrice = s.CurPrice
	}
	s.Qty = qty
	s.BuyPrice = buyPrice
	s.UpdateEarningRate()
}

// OnBuySignal фиксирует заявку на покупку и передает сигнал наблюдателям
func (s *Stock) OnBuySignal(qty int) {
	if qty <= 0 {
		return
	}
	s.RemainedBuyQty = qty
	s.held[SideBuy] = ""
	if s.sink != nil {
		s.sink.emitBuy(s.Code, qty)
	}
}

// OnSellSignal фиксирует заявку на продажу и передает сигнал наблюдателям
func (s *Stock) OnSellSignal(qty int) {
	if qty <= 0 {
		return
	}
	s.RemainedSellQty = qty
	s.held[SideSell] = ""
	if s.sink != nil {
		s.sink.emitSell(s.Code, qty)
	}
}

// ClearRemained снимает блокировку стороны, например после отказа брокера принять заявку
func (s *Stock) ClearRemained(side Side) {
	if side == SideSell {
		s.RemainedSellQty = 0
		return
	}
	s.RemainedBuyQty = 0
}

// Hold оставляет сторону заблокированной после отказа в заявке. Стратегии
// стороны не сработают повторно, пока оператор не вызовет Release.
func (s *Stock) Hold(side Side, qty int, reason string) {
	if qty <= 0 {
		qty = 1
	}
	if side == SideSell {
		if s.RemainedSellQty <= 0 {
			s.RemainedSellQty = qty
		}
	} else if s.RemainedBuyQty <= 0 {
		s.RemainedBuyQty = qty
	}
	s.held[side] = reason
}

// Held возвращает причину удержания стороны
func (s *Stock) Held(side Side) (string, bool) {
	reason := s.held[side]
	return reason, reason != ""
}

// Release снимает удержание и блокировку стороны
func (s *Stock) Release(side Side) {
	s.held[side] = ""
	s.ClearRemained(side)
}

// Attach добавляет стратегию. Стратегия с тем же именем заменяется на месте.
func (s *Stock) Attach(side Side, st Strategy) {
	list := s.list(side)
	for i, cur := range *list {
		if cur.Name() == st.Name() {
			(*list)[i] = st
			return
		}
	}
	*list = append(*list, st)
}

// Detach удаляет стратегию по имени
func (s *Stock) Detach(side Side, name string) bool {
	list := s.list(side)
	for i, cur := range *list {
		if cur.Name() == name {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}

// Strategy ищет стратегию по имени
func (s *Stock) Strategy(side Side, name string) (Strategy, bool) {
	for _, st := range *s.list(side) {
		if st.Name() == name {
			return st, true
		}
	}
	return nil, false
}

// Strategies возвращает копию списка стратегий в порядке прикрепления
func (s *Stock) Strategies(side Side) []Strategy {
	list := *s.list(side)
	out := make([]Strategy, len(list))
	copy(out, list)
	return out
}

// HasStrategies сообщает, прикреплена ли хотя бы одна стратегия
func (s *Stock) HasStrategies() bool {
	return len(s.buy) > 0 || len(s.sell) > 0
}

func (s *Stock) list(side Side) *[]Strategy {
	if side == SideSell {
		return &s.sell
	}
	return &s.buy
}

// EvaluatePrice прогоняет тик через стратегии: сначала продающие, затем покупающие.
// Продающие вызываются только при наличии позиции и без незакрытой продажи,
// покупающие только без незакрытой покупки.
func (s *Stock) EvaluatePrice() {
	for _, st := range s.Strategies(SideSell) {
		if s.Qty <= 0 || s.RemainedSellQty > 0 {
			break
		}
		if st.Enabled() {
			st.OnPriceUpdated()
		}
	}
	for _, st := range s.Strategies(SideBuy) {
		if s.RemainedBuyQty > 0 {
			break
		}
		if st.Enabled() {
			st.OnPriceUpdated()
		}
	}
}

// EvaluateTime передает биржевое время стратегиям выбранной стороны
func (s *Stock) EvaluateTime(side Side, hhmmss string) {
	for _, st := range s.Strategies(side) {
		if st.Enabled() {
			st.OnTime(hhmmss)
		}
	}
}

// EvaluateCondition передает срабатывание условия продающим стратегиям
func (s *Stock) EvaluateCondition(index int, name string) {
	for _, st := range s.Strategies(SideSell) {
		if st.Enabled() {
			st.OnCondition(index, name)
		}
	}
}

// EvaluateTrData передает цену из ответа на запрос покупающим стратегиям
func (s *Stock) EvaluateTrData(price int) {
	for _, st := range s.Strategies(SideBuy) {
		if st.Enabled() {
			st.OnTrData(price)
		}
	}
}

// Position возвращает плоский снимок инструмента
func (s *Stock) Position() domain.Position {
	p := domain.Position{
		Code:        s.Code,
		Name:        s.Name,
		CurPrice:    s.CurPrice,
		BuyPrice:    s.BuyPrice,
		Qty:         s.Qty,
		TargetQty:   s.TargetQty,
		EarningRate: s.EarningRate,
	}
	for _, st := range s.buy {
		p.BuyStrategies = append(p.BuyStrategies, st.Name())
	}
	for _, st := range s.sell {
		p.SellStrategies = append(p.SellStrategies, st.Name())
	}
	return p
}
