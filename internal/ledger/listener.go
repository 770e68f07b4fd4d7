package ledger

import "github.com/kirillm/sns-trade-bot/internal/domain"

// Listener получает уведомления реестра. Все методы вызываются из цикла событий.
type Listener interface {
	OnDataUpdated(topic domain.Topic)
	OnBuySignal(code string, qty int)
	OnSellSignal(code string, qty int)
}

// NopListener реализует Listener пустыми методами, удобно встраивать
type NopListener struct{}

func (NopListener) OnDataUpdated(domain.Topic) {}
func (NopListener) OnBuySignal(string, int)    {}
func (NopListener) OnSellSignal(string, int)   {}

// signalSink получает сигналы от инструмента
type signalSink interface {
	emitBuy(code string, qty int)
	emitSell(code string, qty int)
}
