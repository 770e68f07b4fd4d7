package ledger

import (
	"fmt"

	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// TempStock строка результата разового поиска по условию
type TempStock struct {
	Code string
	Name string
}

// Ledger реестр инструментов и счетов. Не потокобезопасен: весь доступ
// идет из одного цикла событий.
type Ledger struct {
	logger    *utils.Logger
	accounts  []string
	account   string
	stocks    map[string]*Stock
	order     []string
	temp      []TempStock
	profit    domain.DailyProfit
	summary   domain.AccountSummary
	listeners []Listener
}

// New создает пустой реестр
func New(logger *utils.Logger) *Ledger {
	return &Ledger{
		logger: logger,
		stocks: make(map[string]*Stock),
	}
}

// AddListener регистрирует наблюдателя. Уведомления идут в порядке регистрации.
func (l *Ledger) AddListener(lst Listener) {
	l.listeners = append(l.listeners, lst)
}

// SetUpdated оповещает наблюдателей об изменении набора данных
func (l *Ledger) SetUpdated(topic domain.Topic) {
	for _, lst := range l.listeners {
		lst.OnDataUpdated(topic)
	}
}

func (l *Ledger) emitBuy(code string, qty int) {
	l.logger.Info("buy signal %s qty:%d", code, qty)
	for _, lst := range l.listeners {
		lst.OnBuySignal(code, qty)
	}
}

func (l *Ledger) emitSell(code string, qty int) {
	l.logger.Info("sell signal %s qty:%d", code, qty)
	for _, lst := range l.listeners {
		lst.OnSellSignal(code, qty)
	}
}

// GetOrCreate возвращает инструмент по коду, создавая его при первом обращении
func (l *Ledger) GetOrCreate(code string) *Stock {
	if s, ok := l.stocks[code]; ok {
		return s
	}
	s := newStock(code, l)
	l.stocks[code] = s
	l.order = append(l.order, code)
	l.logger.Info("stock created %s", code)
	return s
}

// Find возвращает инструмент без создания
func (l *Ledger) Find(code string) (*Stock, bool) {
	s, ok := l.stocks[code]
	return s, ok
}

// Remove удаляет инструмент. Отсутствие кода логируется и не считается ошибкой.
func (l *Ledger) Remove(code string) bool {
	if _, ok := l.stocks[code]; !ok {
		l.logger.Error("remove: stock %s not found", code)
		return false
	}
	delete(l.stocks, code)
	for i, c := range l.order {
		if c == code {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	l.logger.Info("stock removed %s", code)
	return true
}

// Stocks возвращает инструменты выбранного типа в порядке создания.
// HoldTarget включает позиции и инструменты с прикрепленными стратегиями.
func (l *Ledger) Stocks(h domain.HoldType) []*Stock {
	out := make([]*Stock, 0, len(l.order))
	for _, code := range l.order {
		s := l.stocks[code]
		switch h {
		case domain.HoldInterest:
			if s.Qty != 0 {
				continue
			}
		case domain.HoldHolding:
			if s.Qty <= 0 {
				continue
			}
		case domain.HoldTarget:
			if s.Qty <= 0 && !s.HasStrategies() {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// CodeList возвращает коды инструментов выбранного типа
func (l *Ledger) CodeList(h domain.HoldType) []string {
	stocks := l.Stocks(h)
	codes := make([]string, len(stocks))
	for i, s := range stocks {
		codes[i] = s.Code
	}
	return codes
}

// Positions возвращает плоские снимки инструментов выбранного типа
func (l *Ledger) Positions(h domain.HoldType) []domain.Position {
	stocks := l.Stocks(h)
	out := make([]domain.Position, len(stocks))
	for i, s := range stocks {
		out[i] = s.Position()
	}
	return out
}

// SetAccounts сохраняет список счетов, текущим становится первый
func (l *Ledger) SetAccounts(accounts []string) {
	l.accounts = append([]string(nil), accounts...)
	if len(l.accounts) > 0 {
		l.account = l.accounts[0]
	} else {
		l.account = ""
	}
	l.SetUpdated(domain.TopicAccountCombo)
}

// Accounts возвращает список счетов
func (l *Ledger) Accounts() []string {
	return append([]string(nil), l.accounts...)
}

// Account возвращает текущий счет
func (l *Ledger) Account() string {
	return l.account
}

// SetAccount выбирает текущий счет из полученного при подключении списка
func (l *Ledger) SetAccount(account string) error {
	for _, a := range l.accounts {
		if a == account {
			l.account = account
			l.SetUpdated(domain.TopicAccountCombo)
			return nil
		}
	}
	return fmt.Errorf("account %s: %w", account, domain.ErrNotFound)
}

// SetTempStocks заменяет результат разового поиска по условию
func (l *Ledger) SetTempStocks(list []TempStock) {
	l.temp = append([]TempStock(nil), list...)
	l.SetUpdated(domain.TopicTempStockTable)
}

// TempStocks возвращает результат последнего поиска по условию
func (l *Ledger) TempStocks() []TempStock {
	return append([]TempStock(nil), l.temp...)
}

// AddAllTempStocks переносит результат поиска в реестр
func (l *Ledger) AddAllTempStocks() int {
	for _, t := range l.temp {
		s := l.GetOrCreate(t.Code)
		if s.Name == "" {
			s.Name = t.Name
		}
	}
	if len(l.temp) > 0 {
		l.SetUpdated(domain.TopicBalanceTable)
	}
	return len(l.temp)
}

// SetTodayProfit сохраняет результат запроса дневной прибыли
func (l *Ledger) SetTodayProfit(p domain.DailyProfit) {
	l.profit = p
	l.SetUpdated(domain.TopicBalanceTable)
}

// TodayProfit возвращает последний снимок дневной прибыли
func (l *Ledger) TodayProfit() domain.DailyProfit {
	return l.profit
}

// SetSummary сохраняет сводку по счету
func (l *Ledger) SetSummary(sum domain.AccountSummary) {
	l.summary = sum
}

// Summary возвращает последнюю сводку по счету
func (l *Ledger) Summary() domain.AccountSummary {
	return l.summary
}
