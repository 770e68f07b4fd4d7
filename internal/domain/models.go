package domain

import "time"

// OrderRecord фиксирует отправленную брокеру заявку
type OrderRecord struct {
	ID        int64     `db:"id"`
	JobID     string    `db:"job_id"`
	Account   string    `db:"account"`
	Code      string    `db:"code"`
	Name      string    `db:"name"`
	Side      string    `db:"side"` // "BUY" or "SELL"
	Quantity  int       `db:"quantity"`
	RetCode   int       `db:"ret_code"`
	CreatedAt time.Time `db:"created_at"`
}

// FillRecord фиксирует уведомление об исполнении (chejan)
type FillRecord struct {
	ID          int64     `db:"id"`
	Account     string    `db:"account"`
	OrderNo     string    `db:"order_no"`
	Code        string    `db:"code"`
	Name        string    `db:"name"`
	Side        string    `db:"side"`
	Status      string    `db:"status"` // ACCEPTED, FILLED, BALANCE
	Price       int       `db:"price"`
	Quantity    int       `db:"quantity"`
	RemainedQty int       `db:"remained_qty"`
	CreatedAt   time.Time `db:"created_at"`
}

// DailyProfit снимок реализованного результата за день
type DailyProfit struct {
	ID         int64     `db:"id"`
	Account    string    `db:"account"`
	TradeDate  string    `db:"trade_date"` // YYYYMMDD
	Realized   int64     `db:"realized"`
	BuyAmount  int64     `db:"buy_amount"`
	SellAmount int64     `db:"sell_amount"`
	Commission int64     `db:"commission"`
	Tax        int64     `db:"tax"`
	CreatedAt  time.Time `db:"created_at"`
}

// Position плоское представление позиции для уведомлений и API
type Position struct {
	Code           string   `json:"code"`
	Name           string   `json:"name"`
	CurPrice       int      `json:"cur_price"`
	BuyPrice       int      `json:"buy_price"`
	Qty            int      `json:"qty"`
	TargetQty      int      `json:"target_qty"`
	EarningRate    float64  `json:"earning_rate"`
	BuyStrategies  []string `json:"buy_strategies,omitempty"`
	SellStrategies []string `json:"sell_strategies,omitempty"`
}

// Log представляет запись журнала
type Log struct {
	ID        int64     `db:"id"`
	Level     string    `db:"level"`
	Message   string    `db:"message"`
	Data      string    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
}

// AccountSummary сводка по счету из ответа на запрос баланса
type AccountSummary struct {
	Account     string `json:"account"`
	AccountName string `json:"account_name"`
	Evaluation  int64  `json:"evaluation"`
	Deposit     int64  `json:"deposit"`
	DepositD2   int64  `json:"deposit_d2"`
	BuyTotal    int64  `json:"buy_total"`
}
