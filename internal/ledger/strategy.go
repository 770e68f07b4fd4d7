package ledger

// Strategy описывает стратегию, прикрепленную к инструменту.
// Обработчики, которые стратегии не нужны, остаются пустыми.
type Strategy interface {
	Name() string
	Enabled() bool
	Params() map[string]any
	OnPriceUpdated()
	OnTime(hhmmss string)
	OnCondition(index int, name string)
	OnTrData(price int)
}

// Side различает покупающие и продающие стратегии
type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideSell {
		return "sell"
	}
	return "buy"
}
