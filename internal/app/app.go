package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kirillm/sns-trade-bot/internal/broker"
	"github.com/kirillm/sns-trade-bot/internal/condition"
	"github.com/kirillm/sns-trade-bot/internal/config"
	"github.com/kirillm/sns-trade-bot/internal/dispatch"
	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/internal/eventloop"
	"github.com/kirillm/sns-trade-bot/internal/execution"
	"github.com/kirillm/sns-trade-bot/internal/ledger"
	"github.com/kirillm/sns-trade-bot/internal/notify"
	"github.com/kirillm/sns-trade-bot/internal/policy"
	"github.com/kirillm/sns-trade-bot/internal/schedule"
	"github.com/kirillm/sns-trade-bot/internal/storage"
	"github.com/kirillm/sns-trade-bot/internal/strategy"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

type runner struct {
	name string
	fn   func(ctx context.Context) error
}

// App связывает реестр, стратегии, маршрутизатор событий, очередь команд и
// расписание. Реестр меняется только в цикле событий.
type App struct {
	cfg    *config.Config
	logger *utils.Logger

	gw         broker.Gateway
	loop       *eventloop.Loop
	queue      *dispatch.Queue
	ledger     *ledger.Ledger
	conditions *condition.Registry
	strategies *strategy.Registry
	killSwitch *execution.KillSwitch
	executor   *execution.Executor
	scheduler  *schedule.Scheduler
	router     *broker.Router

	notifier    notify.Notifier
	journal     *storage.Journal
	configStore storage.ConfigStore
	savedTypes  map[int]domain.SignalType

	runners   []runner
	startedAt time.Time
	cancel    context.CancelFunc
	notifyTTL time.Duration
}

// New собирает ядро бота вокруг шлюза брокера
func New(cfg *config.Config, table *config.Schedule, gw broker.Gateway, logger *utils.Logger) *App {
	a := &App{
		cfg:        cfg,
		logger:     logger,
		gw:         gw,
		loop:       eventloop.New(logger),
		queue:      dispatch.NewQueue(cfg.Dispatch.Interval, logger),
		ledger:     ledger.New(logger),
		conditions: condition.NewRegistry(logger),
		strategies: strategy.NewRegistry(logger),
		killSwitch: execution.NewKillSwitch(logger),
		notifyTTL:  10 * time.Second,
	}

	a.strategies.SetTriggerCheck(table.HasBuyTime)
	a.executor = execution.NewExecutor(a.queue, gw, a.ledger, a.loop, a.killSwitch, logger)
	a.scheduler = schedule.NewScheduler(table, a.ledger, a, func(d time.Duration, fn func()) {
		a.loop.AfterFunc(d, fn)
	}, logger)
	a.router = broker.NewRouter(gw, a.ledger, a.conditions, a.scheduler, logger)
	a.router.OnConnected(a.onConnected)
	a.router.OnConditionsLoaded(a.onConditionsLoaded)

	a.ledger.AddListener(a)
	return a
}

// Handler возвращает обработчик событий брокера, исполняемый в цикле событий
func (a *App) Handler() broker.EventHandler {
	return broker.Serialize(a.router, a.loop)
}

// SetNotifier подключает каналы уведомлений
func (a *App) SetNotifier(n notify.Notifier) {
	a.notifier = n
	a.executor.SetMessenger(n)
}

// SetJournal подключает журнал заявок, исполнений и событий
func (a *App) SetJournal(j *storage.Journal) {
	a.journal = j
	a.router.SetJournal(j)
	a.executor.SetJournal(j)
}

// SetPolicy включает проверку заявок на покупку по риск-профилю
func (a *App) SetPolicy(p *policy.Engine) {
	a.executor.SetPolicy(p)
}

// SetConfigStore подключает хранилище классификации условий
func (a *App) SetConfigStore(cs storage.ConfigStore) {
	a.configStore = cs
}

// AddListener подписывает наблюдателя на реестр. Вызывать до Run.
func (a *App) AddListener(l ledger.Listener) {
	a.ledger.AddListener(l)
}

// AddRunner добавляет фоновую задачу, которая живет столько же, сколько Run
func (a *App) AddRunner(name string, fn func(ctx context.Context) error) {
	a.runners = append(a.runners, runner{name: name, fn: fn})
}

// Run восстанавливает сохраненное состояние, запускает цикл событий и очередь,
// подключается к брокеру и работает до отмены контекста или выхода по расписанию.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.cancel = cancel
	a.startedAt = time.Now()

	if err := a.restore(); err != nil {
		return err
	}

	var wg sync.WaitGroup
	start := func(name string, fn func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("%s stopped: %v", name, err)
			}
		}()
	}

	start("event loop", a.loop.Run)
	start("dispatch queue", a.queue.Run)
	if a.cfg.Broker.ClockTick {
		start("clock", func(ctx context.Context) error {
			return schedule.RunClock(ctx, a.cfg.Broker.ClockEvery, a.loop, a.scheduler)
		})
	}
	for _, r := range a.runners {
		start(r.name, r.fn)
	}

	a.executor.Connect()
	a.logger.Info("sns-trade-bot started")

	<-ctx.Done()
	wg.Wait()
	a.logger.Info("sns-trade-bot stopped")
	return nil
}

// restore загружает список инструментов и классификацию условий до запуска цикла
func (a *App) restore() error {
	entries, err := storage.LoadStockList(a.cfg.Storage.StockListPath)
	if err != nil {
		return fmt.Errorf("load stock list: %w", err)
	}
	storage.Apply(a.ledger, a.strategies, entries, a.logger)
	a.logger.Info("restored %d stocks from %s", len(entries), a.cfg.Storage.StockListPath)

	if a.configStore != nil {
		types, err := storage.LoadConditionTypes(a.configStore)
		if err != nil {
			a.logger.Warn("load condition types: %v", err)
		} else {
			a.savedTypes = types
		}
	}
	return nil
}

func (a *App) onConnected() {
	if acc := a.cfg.Broker.Account; acc != "" {
		if err := a.ledger.SetAccount(acc); err != nil {
			a.logger.Error("account override: %v", err)
		}
	}
	a.executor.Release()
	a.executor.RequestBalance()
	a.executor.LoadConditions()
	a.executor.RegisterReal(domain.HoldTarget, broker.RealRegReplace)
}

func (a *App) onConditionsLoaded() {
	for index, t := range a.savedTypes {
		if err := a.conditions.Classify(index, t); err != nil {
			a.logger.Debug("saved condition type %d: %v", index, err)
		}
	}
	for _, c := range a.conditions.List() {
		if c.SignalType != domain.SignalUndefined {
			a.executor.RegisterCondition(c.Index, c.Name)
		}
	}
}

// persistConditionTypes сохраняет классификацию вне цикла событий
func (a *App) persistConditionTypes() {
	if a.configStore == nil {
		return
	}
	list := a.conditions.List()
	go func() {
		if err := storage.SaveConditionTypes(a.configStore, list); err != nil {
			a.logger.Error("save condition types: %v", err)
		}
	}()
}

func (a *App) event(level, message, data string) {
	if a.journal != nil {
		a.journal.RecordEvent(level, message, data)
	}
}
