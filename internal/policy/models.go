package policy

import "time"

// Действия предохранителя
const (
	ActionPause      = "pause"
	ActionKillSwitch = "killswitch"
)

// Policy представляет профиль риск-менеджмента. Суммы в вонах, ноль отключает лимит.
type Policy struct {
	ProfileName      string           `yaml:"profile_name"`
	MaxOrderWon      int64            `yaml:"max_order_won"`
	MaxPositionWon   int64            `yaml:"max_position_won"`
	MaxTotalExposure int64            `yaml:"max_total_exposure_won"`
	MaxDailyLossWon  int64            `yaml:"max_daily_loss_won"`
	OrdersPerDay     int              `yaml:"orders_per_day"`
	CircuitBreakers  []CircuitBreaker `yaml:"circuit_breakers"`
}

// CircuitBreaker описывает автоматический предохранитель
type CircuitBreaker struct {
	Type      string  `yaml:"type"`      // daily_loss (вон), drawdown (%)
	Threshold float64 `yaml:"threshold"` // Пороговое значение
	Action    string  `yaml:"action"`    // pause, killswitch
}

// OrderRequest заявка, которую проверяет политика
type OrderRequest struct {
	Side        string
	Code        string
	Qty         int
	Price       int
	PositionWon int64 // текущая стоимость позиции по цене покупки
}

// Amount стоимость заявки по текущей цене
func (r OrderRequest) Amount() int64 {
	return int64(r.Qty) * int64(r.Price)
}

// Metrics снимок счета на момент проверки
type Metrics struct {
	ExposureWon   int64 // сумма покупки всех позиций
	UnrealizedWon int64
	RealizedWon   int64 // реализованный результат за сегодня
}

// ValidationResult результат проверки заявки политикой
type ValidationResult struct {
	Approved   bool
	RiskScore  float64
	Violations []Violation
	Breaker    *CircuitBreakerEvent
	CheckedAt  time.Time
}

// Reason текст первого критического нарушения
func (r *ValidationResult) Reason() string {
	if r.Breaker != nil {
		return r.Breaker.Reason
	}
	for _, v := range r.Violations {
		if v.Severity == SeverityCritical {
			return v.Message
		}
	}
	return ""
}

// Violation описывает нарушение политики
type Violation struct {
	Type           string // order_size, position_size, total_exposure, daily_loss, order_frequency
	LimitName      string
	LimitValue     float64
	AttemptedValue float64
	Severity       string
	Message        string
}

const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// CircuitBreakerEvent событие триггера
type CircuitBreakerEvent struct {
	Reason string
	Action string
}
