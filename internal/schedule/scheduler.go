package schedule

import (
	"time"

	"github.com/kirillm/sns-trade-bot/internal/config"
	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/internal/ledger"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// Actions действия, которые расписание запускает в цикле событий
type Actions interface {
	RefreshBalance()
	RefreshInterest()
	RefreshProfit()
	RegisterReal()
	NotifyBalance()
	ArrangeStrategies()
	Save()
	Exit()
}

// AfterFunc откладывает fn на d. В приложении это таймер цикла событий.
type AfterFunc func(d time.Duration, fn func())

// Scheduler сопоставляет биржевое время с дневной таблицей.
// Вызывается только из цикла событий.
type Scheduler struct {
	table   *config.Schedule
	ledger  *ledger.Ledger
	actions Actions
	after   AfterFunc
	logger  *utils.Logger

	last             string
	fired            map[int]bool
	postCloseStarted bool
}

// NewScheduler создает планировщик по таблице
func NewScheduler(table *config.Schedule, l *ledger.Ledger, actions Actions, after AfterFunc, logger *utils.Logger) *Scheduler {
	return &Scheduler{
		table:   table,
		ledger:  l,
		actions: actions,
		after:   after,
		logger:  logger,
		fired:   make(map[int]bool),
	}
}

// OnTime обрабатывает очередное время HHMMSS. Повтор того же значения игнорируется,
// каждая запись таблицы срабатывает не больше одного раза за день.
func (s *Scheduler) OnTime(hhmmss string) {
	if hhmmss == s.last {
		return
	}
	s.last = hhmmss

	for i, e := range s.table.Entries {
		if s.fired[i] || !domain.MatchTime(e.Time, hhmmss) {
			continue
		}
		s.fired[i] = true
		s.logger.Info("schedule %s at %s (%s)", e.Action, hhmmss, e.Time)
		s.run(e.Action, hhmmss)
	}
}

func (s *Scheduler) run(action, hhmmss string) {
	switch action {
	case config.ActionRefreshBalance:
		s.actions.RefreshBalance()
	case config.ActionRefreshInterest:
		s.actions.RefreshInterest()
	case config.ActionRefreshProfit:
		s.actions.RefreshProfit()
	case config.ActionRegisterReal:
		s.actions.RegisterReal()
	case config.ActionBuyTime:
		for _, st := range s.ledger.Stocks(domain.HoldAll) {
			st.EvaluateTime(ledger.SideBuy, hhmmss)
		}
	case config.ActionSellSweep:
		for _, st := range s.ledger.Stocks(domain.HoldHolding) {
			st.EvaluateTime(ledger.SideSell, hhmmss)
		}
	case config.ActionPostClose:
		s.startPostClose()
	case config.ActionNotifyBalance:
		s.actions.NotifyBalance()
	case config.ActionArrangeStrategies:
		s.actions.ArrangeStrategies()
	case config.ActionSave:
		s.actions.Save()
	case config.ActionExit:
		s.actions.Exit()
	default:
		s.logger.Warn("unknown schedule action %q", action)
	}
}

func (s *Scheduler) startPostClose() {
	if s.postCloseStarted {
		return
	}
	s.postCloseStarted = true

	for _, step := range s.table.PostClose {
		action := step.Action
		s.logger.Info("post close %s in %s", action, step.After)
		s.after(step.After, func() {
			s.logger.Info("post close %s", action)
			s.run(action, s.last)
		})
	}
}
