package domain

// Order sides
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Fill statuses
const (
	StatusAccepted = "ACCEPTED"
	StatusFilled   = "FILLED"
	StatusBalance  = "BALANCE"
)

// HoldType выбирает подмножество кодов в реестре инструментов
type HoldType int

const (
	// HoldInterest коды без позиции
	HoldInterest HoldType = iota
	// HoldHolding коды с позицией
	HoldHolding
	// HoldTarget коды, за которыми нужно следить в реальном времени
	HoldTarget
	// HoldAll все коды
	HoldAll
)

func (h HoldType) String() string {
	switch h {
	case HoldInterest:
		return "INTEREST"
	case HoldHolding:
		return "HOLDING"
	case HoldTarget:
		return "TARGET"
	case HoldAll:
		return "ALL"
	default:
		return "UNKNOWN"
	}
}

// Topic идентифицирует набор данных, изменение которого видят наблюдатели
type Topic string

const (
	TopicAccountCombo   Topic = "account_combo"
	TopicBalanceTable   Topic = "balance_table"
	TopicConditionTable Topic = "condition_table"
	TopicTempStockTable Topic = "temp_stock_table"
)

// SignalType задает роль условия поиска
type SignalType string

const (
	SignalUndefined    SignalType = "UNDEFINED"
	SignalBuy          SignalType = "BUY"
	SignalSell         SignalType = "SELL"
	SignalBuyOnClosing SignalType = "BUY_ON_CLOSING"
)

// ParseSignalType распознает имя типа сигнала без учета регистра
func ParseSignalType(s string) (SignalType, error) {
	switch SignalType(upper(s)) {
	case SignalUndefined:
		return SignalUndefined, nil
	case SignalBuy:
		return SignalBuy, nil
	case SignalSell:
		return SignalSell, nil
	case SignalBuyOnClosing:
		return SignalBuyOnClosing, nil
	}
	return SignalUndefined, ErrInvalidInput
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// Log levels
const (
	LogLevelInfo  = "INFO"
	LogLevelWarn  = "WARN"
	LogLevelError = "ERROR"
)
