package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kirillm/sns-trade-bot/internal/domain"
)

// Действия дневного расписания
const (
	ActionRefreshBalance    = "refresh_balance"
	ActionRefreshInterest   = "refresh_interest"
	ActionRefreshProfit     = "refresh_profit"
	ActionRegisterReal      = "register_real"
	ActionBuyTime           = "buy_time"
	ActionSellSweep         = "sell_sweep"
	ActionPostClose         = "post_close"
	ActionNotifyBalance     = "notify_balance"
	ActionArrangeStrategies = "arrange_strategies"
	ActionSave              = "save"
	ActionExit              = "exit"
)

var entryActions = map[string]bool{
	ActionRefreshBalance:  true,
	ActionRefreshInterest: true,
	ActionRefreshProfit:   true,
	ActionRegisterReal:    true,
	ActionBuyTime:         true,
	ActionSellSweep:       true,
	ActionPostClose:       true,
}

var postCloseActions = map[string]bool{
	ActionRefreshBalance:    true,
	ActionRefreshProfit:     true,
	ActionNotifyBalance:     true,
	ActionArrangeStrategies: true,
	ActionSave:              true,
	ActionExit:              true,
}

// ScheduleEntry срабатывает, когда биржевое время HHMMSS совпадает с Time.
// Time короче шести символов задает окно по префиксу.
type ScheduleEntry struct {
	Time   string `yaml:"time"`
	Action string `yaml:"action"`
}

// Prefix сообщает, что запись задает окно, а не точную секунду
func (e ScheduleEntry) Prefix() bool {
	return len(e.Time) < 6
}

// PostCloseStep выполняется через After после старта пост-клоузинга
type PostCloseStep struct {
	After  time.Duration `yaml:"after"`
	Action string        `yaml:"action"`
}

// Schedule содержит дневную таблицу событий
type Schedule struct {
	Entries   []ScheduleEntry `yaml:"entries"`
	PostClose []PostCloseStep `yaml:"post_close"`
}

// HasBuyTime сообщает, передаст ли расписание стратегиям время, совпадающее с trigger.
// Окно по префиксу срабатывает в первую секунду окна, поэтому точное время
// внутри окна не гарантировано.
func (s *Schedule) HasBuyTime(trigger string) bool {
	for _, e := range s.Entries {
		if e.Action != ActionBuyTime {
			continue
		}
		if domain.MatchTime(trigger, e.Time) {
			return true
		}
	}
	return false
}

// DefaultSchedule возвращает встроенную таблицу времени
func DefaultSchedule() *Schedule {
	return &Schedule{
		Entries: []ScheduleEntry{
			{Time: "085000", Action: ActionRefreshBalance},
			{Time: "085500", Action: ActionRefreshInterest},
			{Time: "085800", Action: ActionRegisterReal},
			{Time: "090000", Action: ActionBuyTime},
			{Time: "151500", Action: ActionBuyTime},
			{Time: "152500", Action: ActionBuyTime},
			{Time: "1519", Action: ActionSellSweep},
			{Time: "153500", Action: ActionPostClose},
		},
		PostClose: []PostCloseStep{
			{After: 0, Action: ActionRefreshBalance},
			{After: 10 * time.Second, Action: ActionRefreshProfit},
			{After: 30 * time.Second, Action: ActionNotifyBalance},
			{After: 60 * time.Second, Action: ActionArrangeStrategies},
			{After: 70 * time.Second, Action: ActionSave},
			{After: 120 * time.Second, Action: ActionExit},
		},
	}
}

// LoadSchedule читает YAML-файл расписания, при отсутствии файла возвращает DefaultSchedule
func LoadSchedule(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSchedule(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}

	var s Schedule
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schedule: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate проверяет формат времени, названия действий и порядок шагов пост-клоузинга
func (s *Schedule) Validate() error {
	for _, e := range s.Entries {
		if len(e.Time) == 0 || len(e.Time) > 6 || len(e.Time)%2 != 0 {
			return fmt.Errorf("invalid schedule time %q", e.Time)
		}
		for _, r := range e.Time {
			if r < '0' || r > '9' {
				return fmt.Errorf("invalid schedule time %q", e.Time)
			}
		}
		if !entryActions[e.Action] {
			return fmt.Errorf("unknown schedule action %q", e.Action)
		}
	}

	var prev time.Duration = -1
	for _, step := range s.PostClose {
		if !postCloseActions[step.Action] {
			return fmt.Errorf("unknown post_close action %q", step.Action)
		}
		if step.After <= prev {
			return fmt.Errorf("post_close offsets must increase: %s after %s", step.After, prev)
		}
		prev = step.After
	}
	return nil
}
