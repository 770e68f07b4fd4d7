package schedule

import (
	"context"
	"time"
)

// Poster ставит задачу в цикл событий
type Poster interface {
	Post(fn func())
}

// Timer получает время HHMMSS
type Timer interface {
	OnTime(hhmmss string)
}

// RunClock раз в every передает локальное время в цикл событий.
// Используется, когда мост не присылает время биржи.
func RunClock(ctx context.Context, every time.Duration, p Poster, t Timer) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			hhmmss := now.Format("150405")
			p.Post(func() { t.OnTime(hhmmss) })
		}
	}
}
