package dispatch

import (
	"context"
	"io"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

func newTestQueue(interval time.Duration) *Queue {
	return NewQueue(interval, utils.NewLoggerWithWriter("error", io.Discard))
}

func TestQueue_FIFOWithThrottle(t *testing.T) {
	const interval = 30 * time.Millisecond
	q := newTestQueue(interval)

	var mu sync.Mutex
	var names []string
	var done []time.Time
	var wg sync.WaitGroup

	for _, name := range []string{"X", "Y", "Z"} {
		name := name
		wg.Add(1)
		q.Put(NewJob(name, func() int {
			mu.Lock()
			names = append(names, name)
			done = append(done, time.Now())
			mu.Unlock()
			wg.Done()
			return 0
		}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(names, []string{"X", "Y", "Z"}) {
		t.Fatalf("order = %v", names)
	}
	for i := 1; i < len(done); i++ {
		if gap := done[i].Sub(done[i-1]); gap < interval {
			t.Errorf("gap %d = %v, want >= %v", i, gap, interval)
		}
	}
}

func TestQueue_GateHoldsUntilRelease(t *testing.T) {
	q := newTestQueue(time.Millisecond)
	ran := make(chan string, 2)

	gate := NewJob("connect", func() int { ran <- "connect"; return 0 })
	gate.Gate = true
	q.Put(gate)
	q.Put(NewJob("query", func() int { ran <- "query"; return 0 }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	if got := <-ran; got != "connect" {
		t.Fatalf("first job = %s", got)
	}
	select {
	case got := <-ran:
		t.Fatalf("%s ran before release", got)
	case <-time.After(50 * time.Millisecond):
	}

	q.Release()
	select {
	case got := <-ran:
		if got != "query" {
			t.Errorf("second job = %s", got)
		}
	case <-time.After(time.Second):
		t.Fatal("queue not released")
	}
}

func TestQueue_PanicDoesNotStopWorker(t *testing.T) {
	q := newTestQueue(time.Millisecond)
	done := make(chan struct{})
	q.Put(NewJob("bad", func() int { panic("boom") }))
	q.Put(NewJob("good", func() int { close(done); return 0 }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job after panic not executed")
	}
}

func TestNewJob(t *testing.T) {
	a := NewJob("send_order", func() int { return 0 }, "005930", 10)
	b := NewJob("send_order", func() int { return 0 })
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("job ids not unique: %q %q", a.ID, b.ID)
	}
	if a.String() != "send_order[005930 10]" {
		t.Errorf("String() = %q", a.String())
	}
}
