package policy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// Engine проверяет заявки на покупку по лимитам профиля. Продажи сокращают
// риск и не ограничиваются. Вызывается из цикла событий.
type Engine struct {
	policy *Policy
	logger *utils.Logger

	day         string
	ordersToday int
	now         func() time.Time
}

// NewEngine создает движок для профиля
func NewEngine(policy *Policy, logger *utils.Logger) *Engine {
	return &Engine{
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// LoadPolicy читает профиль из YAML. Отсутствие файла означает работу без лимитов (nil, nil).
func LoadPolicy(path, profileName string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read policy: %w", err)
	}

	var config struct {
		RiskProfiles map[string]Policy `yaml:"risk_profiles"`
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}

	if profileName == "" {
		profileName = "moderate"
	}
	policy, ok := config.RiskProfiles[profileName]
	if !ok {
		return nil, fmt.Errorf("policy profile %s: %w", profileName, domain.ErrNotFound)
	}
	for _, cb := range policy.CircuitBreakers {
		if cb.Action != ActionPause && cb.Action != ActionKillSwitch {
			return nil, fmt.Errorf("circuit breaker %s action %q: %w", cb.Type, cb.Action, domain.ErrInvalidInput)
		}
	}

	policy.ProfileName = profileName
	return &policy, nil
}

// ValidateOrder проверяет заявку. Одобренная заявка учитывается в дневном счетчике.
func (e *Engine) ValidateOrder(req OrderRequest, m Metrics) *ValidationResult {
	e.rollDay()

	result := &ValidationResult{
		Approved:  true,
		CheckedAt: e.now(),
	}

	if req.Side == domain.SideBuy {
		if triggered := e.checkCircuitBreakers(m); triggered != nil {
			result.Approved = false
			result.Breaker = triggered
			return result
		}
		e.validateBuy(req, m, result)
	}

	for _, v := range result.Violations {
		if v.Severity == SeverityCritical {
			result.Approved = false
			e.logger.Warn("policy %s: %s %s rejected: %s", e.policy.ProfileName, req.Side, req.Code, v.Message)
		}
	}

	result.RiskScore = e.calculateRiskScore(m)
	if result.Approved {
		e.ordersToday++
	}
	return result
}

func (e *Engine) validateBuy(req OrderRequest, m Metrics, result *ValidationResult) {
	p := e.policy
	amount := req.Amount()

	if p.MaxOrderWon > 0 && amount > p.MaxOrderWon {
		result.Violations = append(result.Violations, Violation{
			Type:           "order_size",
			LimitName:      "max_order_won",
			LimitValue:     float64(p.MaxOrderWon),
			AttemptedValue: float64(amount),
			Severity:       SeverityCritical,
			Message:        fmt.Sprintf("order %d won exceeds limit %d", amount, p.MaxOrderWon),
		})
	}

	if position := req.PositionWon + amount; p.MaxPositionWon > 0 && position > p.MaxPositionWon {
		result.Violations = append(result.Violations, Violation{
			Type:           "position_size",
			LimitName:      "max_position_won",
			LimitValue:     float64(p.MaxPositionWon),
			AttemptedValue: float64(position),
			Severity:       SeverityCritical,
			Message:        fmt.Sprintf("position %d won would exceed limit %d", position, p.MaxPositionWon),
		})
	}

	if exposure := m.ExposureWon + amount; p.MaxTotalExposure > 0 && exposure > p.MaxTotalExposure {
		result.Violations = append(result.Violations, Violation{
			Type:           "total_exposure",
			LimitName:      "max_total_exposure_won",
			LimitValue:     float64(p.MaxTotalExposure),
			AttemptedValue: float64(exposure),
			Severity:       SeverityCritical,
			Message:        fmt.Sprintf("total exposure %d won would exceed limit %d", exposure, p.MaxTotalExposure),
		})
	}

	if p.MaxDailyLossWon > 0 && -m.RealizedWon >= p.MaxDailyLossWon {
		result.Violations = append(result.Violations, Violation{
			Type:           "daily_loss",
			LimitName:      "max_daily_loss_won",
			LimitValue:     float64(p.MaxDailyLossWon),
			AttemptedValue: float64(-m.RealizedWon),
			Severity:       SeverityCritical,
			Message:        "daily loss limit reached",
		})
	}

	if p.OrdersPerDay > 0 && e.ordersToday >= p.OrdersPerDay {
		result.Violations = append(result.Violations, Violation{
			Type:           "order_frequency",
			LimitName:      "orders_per_day",
			LimitValue:     float64(p.OrdersPerDay),
			AttemptedValue: float64(e.ordersToday + 1),
			Severity:       SeverityWarning,
			Message:        "daily order count exceeded",
		})
	}
}

// checkCircuitBreakers проверяет все предохранители
func (e *Engine) checkCircuitBreakers(m Metrics) *CircuitBreakerEvent {
	for _, cb := range e.policy.CircuitBreakers {
		switch cb.Type {
		case "daily_loss":
			if loss := float64(-m.RealizedWon); loss >= cb.Threshold {
				return &CircuitBreakerEvent{
					Reason: fmt.Sprintf("daily loss %.0f won >= %.0f", loss, cb.Threshold),
					Action: cb.Action,
				}
			}
		case "drawdown":
			if dd := drawdown(m); dd >= cb.Threshold {
				return &CircuitBreakerEvent{
					Reason: fmt.Sprintf("drawdown %.2f%% >= %.2f%%", dd, cb.Threshold),
					Action: cb.Action,
				}
			}
		}
	}
	return nil
}

// drawdown нереализованный убыток в процентах от суммы покупки
func drawdown(m Metrics) float64 {
	if m.ExposureWon <= 0 || m.UnrealizedWon >= 0 {
		return 0
	}
	return -float64(m.UnrealizedWon) / float64(m.ExposureWon) * 100
}

// calculateRiskScore вычисляет общий риск-скор (0.0 = безопасно, 1.0 = максимум)
func (e *Engine) calculateRiskScore(m Metrics) float64 {
	score := 0.0

	if e.policy.MaxTotalExposure > 0 {
		score += float64(m.ExposureWon) / float64(e.policy.MaxTotalExposure) * 0.4
	}

	score += drawdown(m) / 100.0 * 0.3

	if e.policy.MaxDailyLossWon > 0 && m.RealizedWon < 0 {
		score += float64(-m.RealizedWon) / float64(e.policy.MaxDailyLossWon) * 0.3
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func (e *Engine) rollDay() {
	day := e.now().Format("20060102")
	if day != e.day {
		e.day = day
		e.ordersToday = 0
	}
}

// GetPolicy возвращает текущую политику
func (e *Engine) GetPolicy() *Policy {
	return e.policy
}

// OrdersToday возвращает число одобренных заявок за день
func (e *Engine) OrdersToday() int {
	return e.ordersToday
}
