package storage

import (
	"context"
	"time"

	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// Store хранилище журнала торговли
type Store interface {
	SaveOrder(o *domain.OrderRecord) error
	SaveFill(f *domain.FillRecord) error
	UpsertProfit(p *domain.DailyProfit) error
	SaveLog(l *domain.Log) error
}

type write struct {
	kind string
	fn   func(Store) error
}

// Journal пишет в Store в отдельной горутине. Record* не блокируют
// вызывающего: при переполнении буфера запись отбрасывается с предупреждением.
type Journal struct {
	store  Store
	logger *utils.Logger
	writes chan write
}

// NewJournal создает журнал с буфером на size записей
func NewJournal(store Store, size int, logger *utils.Logger) *Journal {
	return &Journal{
		store:  store,
		logger: logger,
		writes: make(chan write, size),
	}
}

func (j *Journal) RecordOrder(o domain.OrderRecord) {
	j.enqueue("order", func(s Store) error { return s.SaveOrder(&o) })
}

func (j *Journal) RecordFill(f domain.FillRecord) {
	j.enqueue("fill", func(s Store) error { return s.SaveFill(&f) })
}

func (j *Journal) RecordProfit(p domain.DailyProfit) {
	j.enqueue("profit", func(s Store) error { return s.UpsertProfit(&p) })
}

// RecordEvent пишет операторское или аварийное событие
func (j *Journal) RecordEvent(level, message, data string) {
	l := domain.Log{Level: level, Message: message, Data: data, CreatedAt: time.Now()}
	j.enqueue("log", func(s Store) error { return s.SaveLog(&l) })
}

func (j *Journal) enqueue(kind string, fn func(Store) error) {
	select {
	case j.writes <- write{kind: kind, fn: fn}:
	default:
		j.logger.Warn("journal buffer full, %s dropped", kind)
	}
}

// Run выполняет записи до отмены контекста, затем дописывает оставшиеся
func (j *Journal) Run(ctx context.Context) error {
	for {
		select {
		case w := <-j.writes:
			j.apply(w)
		case <-ctx.Done():
			for {
				select {
				case w := <-j.writes:
					j.apply(w)
				default:
					return ctx.Err()
				}
			}
		}
	}
}

func (j *Journal) apply(w write) {
	if err := w.fn(j.store); err != nil {
		j.logger.Error("journal %s: %v", w.kind, err)
	}
}
