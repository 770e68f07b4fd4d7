package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillm/sns-trade-bot/internal/domain"
)

// AuthManager управляет правами доступа и rate limiting
type AuthManager struct {
	mu              sync.RWMutex
	adminIDs        map[int64]bool
	whitelist       map[int64]bool
	enableWhitelist bool

	limit    rate.Limit
	burst    int
	limiters map[int64]*userLimiter
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewAuthManager создает менеджер авторизации. Списки ID через запятую,
// по умолчанию пользователю разрешено 2 команды в секунду.
func NewAuthManager(adminIDsStr, whitelistStr string) *AuthManager {
	am := &AuthManager{
		adminIDs:  parseIDs(adminIDsStr),
		whitelist: parseIDs(whitelistStr),
		limit:     rate.Limit(2),
		burst:     2,
		limiters:  make(map[int64]*userLimiter),
	}
	am.enableWhitelist = strings.TrimSpace(whitelistStr) != ""
	return am
}

func parseIDs(s string) map[int64]bool {
	ids := make(map[int64]bool)
	for _, idStr := range strings.Split(s, ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			ids[id] = true
		}
	}
	return ids
}

// SetRateLimit меняет лимит команд на пользователя
func (am *AuthManager) SetRateLimit(perSecond float64, burst int) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.limit = rate.Limit(perSecond)
	am.burst = burst
	am.limiters = make(map[int64]*userLimiter)
}

// IsAdmin проверяет, является ли пользователь администратором.
// Пустой список админов разрешает всем.
func (am *AuthManager) IsAdmin(userID int64) bool {
	am.mu.RLock()
	defer am.mu.RUnlock()

	if len(am.adminIDs) == 0 {
		return true
	}
	return am.adminIDs[userID]
}

// IsAllowed проверяет, разрешен ли доступ пользователю
func (am *AuthManager) IsAllowed(userID int64) bool {
	am.mu.RLock()
	defer am.mu.RUnlock()

	if !am.enableWhitelist {
		return true
	}
	// Админы всегда разрешены
	if am.adminIDs[userID] {
		return true
	}
	return am.whitelist[userID]
}

// CheckRateLimit проверяет rate limit для пользователя
func (am *AuthManager) CheckRateLimit(userID int64) error {
	am.mu.Lock()
	ul, ok := am.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(am.limit, am.burst)}
		am.limiters[userID] = ul
	}
	now := time.Now()
	ul.lastSeen = now
	am.mu.Unlock()

	r := ul.limiter.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("rate limit exceeded")
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return fmt.Errorf("rate limit exceeded, please wait %v", delay.Round(time.Millisecond))
	}
	return nil
}

// RequireAdmin возвращает ошибку, если пользователь не администратор
func (am *AuthManager) RequireAdmin(userID int64) error {
	if !am.IsAdmin(userID) {
		return fmt.Errorf("admin permission required: %w", domain.ErrUnauthorized)
	}
	return nil
}

// AddAdmin добавляет администратора
func (am *AuthManager) AddAdmin(userID int64) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.adminIDs[userID] = true
}

// RemoveAdmin удаляет администратора
func (am *AuthManager) RemoveAdmin(userID int64) {
	am.mu.Lock()
	defer am.mu.Unlock()
	delete(am.adminIDs, userID)
}

// AddToWhitelist добавляет пользователя в whitelist
func (am *AuthManager) AddToWhitelist(userID int64) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.whitelist[userID] = true
}

// CleanupRateLimiters удаляет лимитеры пользователей, неактивных дольше idle
func (am *AuthManager) CleanupRateLimiters(idle time.Duration) int {
	am.mu.Lock()
	defer am.mu.Unlock()

	now := time.Now()
	removed := 0
	for userID, ul := range am.limiters {
		if now.Sub(ul.lastSeen) > idle {
			delete(am.limiters, userID)
			removed++
		}
	}
	return removed
}
