package domain

// OrderRepository определяет интерфейс журнала заявок
type OrderRepository interface {
	Save(order *OrderRecord) error
	GetRecent(limit int) ([]OrderRecord, error)
}

// FillRepository определяет интерфейс журнала исполнений
type FillRepository interface {
	Save(fill *FillRecord) error
	GetByCode(code string, limit int) ([]FillRecord, error)
}

// ProfitRepository определяет интерфейс дневного результата
type ProfitRepository interface {
	Upsert(p *DailyProfit) error
	GetRecent(account string, limit int) ([]DailyProfit, error)
}

// ConfigRepository определяет интерфейс для работы с конфигурацией
type ConfigRepository interface {
	Set(key, value string) error
	Get(key string) (string, error)
	GetByPrefix(prefix string) (map[string]string, error)
}

// LogRepository определяет интерфейс для работы с логами
type LogRepository interface {
	Save(l *Log) error
	GetRecent(level string, limit int) ([]Log, error)
}
