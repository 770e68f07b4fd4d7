package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillm/sns-trade-bot/internal/condition"
	"github.com/kirillm/sns-trade-bot/internal/domain"
)

const conditionKeyPrefix = "condition_signal."

// ConfigStore хранилище параметров ключ-значение
type ConfigStore interface {
	SetConfigParam(key, value string) error
	GetConfigParams(prefix string) (map[string]string, error)
}

// SaveConditionTypes сохраняет назначенные типы сигналов по индексу условия
func SaveConditionTypes(cs ConfigStore, list []condition.Condition) error {
	for _, c := range list {
		key := conditionKeyPrefix + strconv.Itoa(c.Index)
		if err := cs.SetConfigParam(key, string(c.SignalType)); err != nil {
			return fmt.Errorf("failed to save condition %d: %w", c.Index, err)
		}
	}
	return nil
}

// LoadConditionTypes читает сохраненные типы сигналов. Поврежденные записи пропускаются.
func LoadConditionTypes(cs ConfigStore) (map[int]domain.SignalType, error) {
	params, err := cs.GetConfigParams(conditionKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to load condition types: %w", err)
	}

	types := make(map[int]domain.SignalType, len(params))
	for key, value := range params {
		index, err := strconv.Atoi(strings.TrimPrefix(key, conditionKeyPrefix))
		if err != nil {
			continue
		}
		t, err := domain.ParseSignalType(value)
		if err != nil {
			continue
		}
		types[index] = t
	}
	return types, nil
}
