package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// Job одна команда брокеру. Fn возвращает код ответа брокера.
type Job struct {
	ID   string
	Name string
	Args []any
	Fn   func() int
	// Gate останавливает очередь после выполнения до вызова Release
	Gate bool
}

// NewJob создает задачу с уникальным ID
func NewJob(name string, fn func() int, args ...any) Job {
	return Job{
		ID:   uuid.NewString(),
		Name: name,
		Args: args,
		Fn:   fn,
	}
}

func (j Job) String() string {
	return fmt.Sprintf("%s%v", j.Name, j.Args)
}

// Queue выполняет задачи по одной в порядке поступления и выдерживает паузу
// после каждой, чтобы не превысить лимит запросов брокера
type Queue struct {
	logger   *utils.Logger
	interval time.Duration

	mu      sync.Mutex
	jobs    []Job
	wake    chan struct{}
	release chan struct{}
}

// NewQueue создает очередь с паузой interval между задачами
func NewQueue(interval time.Duration, logger *utils.Logger) *Queue {
	return &Queue{
		logger:   logger,
		interval: interval,
		wake:     make(chan struct{}, 1),
		release:  make(chan struct{}, 1),
	}
}

// Put добавляет задачу в конец очереди и никогда не блокируется
func (q *Queue) Put(job Job) {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()
	q.logger.Debug("%s put", job)

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Release снимает остановку после задачи с Gate
func (q *Queue) Release() {
	select {
	case q.release <- struct{}{}:
	default:
	}
}

// Len возвращает число ожидающих задач
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Run выполняет задачи до отмены контекста
func (q *Queue) Run(ctx context.Context) error {
	for {
		job, ok := q.next(ctx)
		if !ok {
			return ctx.Err()
		}

		q.execute(job)

		if job.Gate {
			q.logger.Info("%s waiting for release", job.Name)
			select {
			case <-q.release:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		timer := time.NewTimer(q.interval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

func (q *Queue) next(ctx context.Context) (Job, bool) {
	for {
		q.mu.Lock()
		if len(q.jobs) > 0 {
			job := q.jobs[0]
			q.jobs = q.jobs[1:]
			q.mu.Unlock()
			return job, true
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-ctx.Done():
			return Job{}, false
		}
	}
}

func (q *Queue) execute(job Job) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("%s panicked: %v", job, r)
		}
	}()

	q.logger.Info("%s", job)
	ret := job.Fn()
	if ret != 0 {
		q.logger.Warn("%s ret:%d", job.Name, ret)
		return
	}
	q.logger.Info("%s ret:%d", job.Name, ret)
}
