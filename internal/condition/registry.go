package condition

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// UndefinedName имя условия, созданного по индексу, которого нет в списке брокера
const UndefinedName = "UNDEFINED"

// Condition сохраненное на стороне брокера условие поиска
type Condition struct {
	Index      int               `json:"index"`
	Name       string            `json:"name"`
	SignalType domain.SignalType `json:"signal_type"`
}

// Registry хранит условия поиска по индексу
type Registry struct {
	logger     *utils.Logger
	conditions map[int]*Condition
}

// NewRegistry создает пустой реестр условий
func NewRegistry(logger *utils.Logger) *Registry {
	return &Registry{
		logger:     logger,
		conditions: make(map[int]*Condition),
	}
}

// ReplaceAll заменяет список условий. Исчезнувшие индексы удаляются, новые получают
// тип UNDEFINED, у сохранившихся остается назначенный тип сигнала.
func (r *Registry) ReplaceAll(list map[int]string) {
	next := make(map[int]*Condition, len(list))
	for index, name := range list {
		c := &Condition{Index: index, Name: name, SignalType: domain.SignalUndefined}
		if prev, ok := r.conditions[index]; ok {
			c.SignalType = prev.SignalType
		}
		next[index] = c
	}
	for index, prev := range r.conditions {
		if _, ok := next[index]; !ok {
			r.logger.Info("condition %d(%s) dropped", index, prev.Name)
		}
	}
	r.conditions = next
}

// Classify назначает условию тип сигнала
func (r *Registry) Classify(index int, t domain.SignalType) error {
	c, ok := r.conditions[index]
	if !ok {
		return fmt.Errorf("condition %d: %w", index, domain.ErrNotFound)
	}
	c.SignalType = t
	r.logger.Info("condition %d(%s) classified as %s", index, c.Name, t)
	return nil
}

// Get возвращает условие, создавая заглушку для неизвестного индекса
func (r *Registry) Get(index int) *Condition {
	if c, ok := r.conditions[index]; ok {
		return c
	}
	c := &Condition{Index: index, Name: UndefinedName, SignalType: domain.SignalUndefined}
	r.conditions[index] = c
	r.logger.Warn("condition %d not loaded, created as %s", index, UndefinedName)
	return c
}

// List возвращает копии условий, отсортированные по индексу
func (r *Registry) List() []Condition {
	out := make([]Condition, 0, len(r.conditions))
	for _, c := range r.conditions {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ParseNameList разбирает строку вида "001^name;002^name;"
func ParseNameList(raw string) (map[int]string, error) {
	out := make(map[int]string)
	for _, item := range strings.Split(raw, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, "^", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("condition item %q: %w", item, domain.ErrMalformedField)
		}
		index, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("condition index %q: %w", parts[0], domain.ErrMalformedField)
		}
		out[index] = parts[1]
	}
	return out, nil
}
