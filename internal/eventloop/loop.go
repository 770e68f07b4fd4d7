package eventloop

import (
	"context"
	"sync"
	"time"

	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// Loop выполняет задачи строго по одной в одной горутине. Все изменения реестра
// инструментов, обработчики событий брокера и таймеры проходят через него.
type Loop struct {
	logger *utils.Logger
	mu     sync.Mutex
	tasks  []func()
	wake   chan struct{}
}

// New создает цикл событий
func New(logger *utils.Logger) *Loop {
	return &Loop{
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
}

// Post ставит задачу в очередь и никогда не блокируется
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call выполняет fn в цикле и ждет завершения
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterFunc выполняет fn в цикле через d
func (l *Loop) AfterFunc(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() { l.Post(fn) })
}

// Run обрабатывает задачи до отмены контекста
func (l *Loop) Run(ctx context.Context) error {
	for {
		for _, fn := range l.drain() {
			l.run(fn)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) drain() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	tasks := l.tasks
	l.tasks = nil
	return tasks
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event loop task panicked: %v", r)
		}
	}()
	fn()
}
