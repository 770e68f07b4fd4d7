package execution

import (
	"sync"
	"time"

	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// KillSwitch аварийная остановка отправки заявок
type KillSwitch struct {
	mu          sync.RWMutex
	logger      *utils.Logger
	active      bool
	activatedAt time.Time
	reason      string
}

// NewKillSwitch создает новый kill switch
func NewKillSwitch(logger *utils.Logger) *KillSwitch {
	return &KillSwitch{logger: logger}
}

// Activate останавливает отправку новых заявок
func (ks *KillSwitch) Activate(reason string) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	ks.active = true
	ks.activatedAt = time.Now()
	ks.reason = reason

	ks.logger.Error("KILL SWITCH ACTIVATED: %s", reason)
}

// Deactivate снимает остановку (только вручную)
func (ks *KillSwitch) Deactivate() {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	ks.active = false
	ks.reason = ""

	ks.logger.Info("kill switch deactivated")
}

// IsActive проверяет активен ли kill switch
func (ks *KillSwitch) IsActive() bool {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	return ks.active
}

// GetStatus возвращает статус kill switch
func (ks *KillSwitch) GetStatus() (bool, string, time.Time) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	return ks.active, ks.reason, ks.activatedAt
}
